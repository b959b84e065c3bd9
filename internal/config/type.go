package config

import "time"

// AppConfig 应用配置结构
type AppConfig struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	JWT      JWTConfig      `koanf:"jwt"`
	Smtp     SmtpConfig     `koanf:"smtp"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	App      SiteConfig     `koanf:"app"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	Mode         string        `koanf:"mode"` // debug, release, test
	BaseURL      string        `koanf:"base_url"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	CorsOrigins  []string      `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	Database     string `koanf:"database"`
	LogLevel     string `koanf:"log_level"` // silent, error, warn, info
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	MaxLifetime  int    `koanf:"max_lifetime"` // 秒
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`
}

type JWTConfig struct {
	AccessSecret  string `koanf:"access_secret"`
	RefreshSecret string `koanf:"refresh_secret"`
	ActionSecret  string `koanf:"action_secret"`
}

type SmtpConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	Username      string `koanf:"username"`
	Password      string `koanf:"password"`
	From          string `koanf:"from"`
	SubjectPrefix string `koanf:"subject_prefix"`
	SSL           bool   `koanf:"ssl"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// SiteConfig 业务相关配置
type SiteConfig struct {
	AdminEmail      string `koanf:"admin_email"`
	PostsPerPage    int    `koanf:"posts_per_page"`
	CommentsPerPage int    `koanf:"comments_per_page"`
	FollowsPerPage  int    `koanf:"follows_per_page"`
	ModeratePerPage int    `koanf:"moderate_per_page"`
	UploadDir       string `koanf:"upload_dir"`
	DownloadDir     string `koanf:"download_dir"`
}

// DSN 拼接 mysql 连接串
func (d DatabaseConfig) DSN() string {
	return d.Username + ":" + d.Password + "@tcp(" + d.Host + ":" + itoa(d.Port) + ")/" + d.Database +
		"?charset=utf8mb4&parseTime=True&loc=Local"
}
