package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StudyRoom/internal/config"
	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/repository/redis"
	"StudyRoom/internal/router"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	config.MustLoad(*configPath)
	cfg := config.Conf
	pkg.SetSecrets(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.ActionSecret)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	// 连接mysql
	if err := mysql.InitDB(cfg.Database.DSN(), mysql.Options{
		LogLevel:     cfg.Database.LogLevel,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  time.Duration(cfg.Database.MaxLifetime) * time.Second,
	}); err != nil {
		log.Fatalf("init db: %v", err)
	}
	db := mysql.DB
	if err := mysql.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// 角色缺失属于配置错误，直接退出
	roles := &mysql.RoleRepository{DB: db}
	if err := roles.InsertRoles(context.Background()); err != nil {
		log.Fatalf("insert roles: %v", err)
	}
	if _, err := roles.FindDefault(context.Background()); err != nil {
		log.Fatalf("default role missing: %v", err)
	}
	if _, err := roles.FindByName(context.Background(), model.RoleAdministrator); err != nil {
		log.Fatalf("administrator role missing: %v", err)
	}

	// 连接redis
	rdb, err := redis.NewClient(redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatalf("init redis: %v", err)
	}
	defer rdb.Close()

	var notifier pkg.Notifier = pkg.LogNotifier{}
	if cfg.Smtp.Host != "" {
		notifier = pkg.NewSMTPNotifier(pkg.SMTPConfig{
			Host:          cfg.Smtp.Host,
			Port:          cfg.Smtp.Port,
			Username:      cfg.Smtp.Username,
			Password:      cfg.Smtp.Password,
			From:          cfg.Smtp.From,
			SubjectPrefix: cfg.Smtp.SubjectPrefix,
			SSL:           cfg.Smtp.SSL,
		})
	}

	sender := service.Sender(service.LogSender)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			log.Fatalf("init kafka: %v", err)
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 后台任务：outbox 投递与关注计数对账
	go service.NewOutboxRelayer(db, sender).Run(ctx)
	go service.NewFollowCountReconciler(db).ReconcilerRun(ctx)

	r := router.InitRouter(router.Services{
		Users:    service.NewUserService(db, rdb, notifier, cfg.App.AdminEmail, cfg.Server.BaseURL),
		Posts:    service.NewPostService(db, cfg.App.PostsPerPage),
		Comments: service.NewCommentService(db, cfg.App.CommentsPerPage, cfg.App.ModeratePerPage),
		Zans:     service.NewZanService(db, rdb),
		Follows:  service.NewFollowService(db, cfg.App.FollowsPerPage),
		Files:    service.NewFileService(db, cfg.App.UploadDir, cfg.App.DownloadDir),
	}, cfg.Server.CorsOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
