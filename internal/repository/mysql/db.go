package mysql

import (
	"errors"
	"fmt"
	"log"
	"time"

	"StudyRoom/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ErrNotFound 统一的记录不存在
var ErrNotFound = errors.New("record not found")

type Options struct {
	LogLevel     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// InitDB 连接 mysql 并配置连接池
func InitDB(dsn string, opts Options) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(LogLevel(opts.LogLevel)),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.MaxLifetime)
	}
	DB = db
	log.Printf("数据库连接成功")
	return nil
}

// Migrate 自动建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Follow{},
		&model.Post{},
		&model.Comment{},
		&model.ParentChild{},
		&model.Zan{},
		&model.SocialOutbox{},
	)
}

func LogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page 页码从 1 开始
type Page struct {
	Page    int
	PerPage int
}

func (p Page) normalize() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 || p.PerPage > 100 {
		p.PerPage = 20
	}
	return p
}

func (p Page) Offset() int {
	p = p.normalize()
	return (p.Page - 1) * p.PerPage
}

func (p Page) Limit() int {
	return p.normalize().PerPage
}

func (p Page) Number() int {
	return p.normalize().Page
}

// forUpdate SELECT ... FOR UPDATE；sqlite 不支持行锁，整库写锁已保证串行
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
