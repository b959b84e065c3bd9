// config/config.go - 配置管理文件
package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	Conf *AppConfig
	once sync.Once
	k    *koanf.Koanf
)

// Load 加载配置文件
func Load(configPath string) error {
	var err error
	once.Do(func() {
		// 首先加载 .env 文件到环境变量
		if e := godotenv.Load(); e != nil {
			log.Printf("警告: 无法加载 .env 文件: %v", e)
		}
		Conf, err = parse(configPath)
	})
	return err
}

// MustLoad 加载配置，失败则退出
func MustLoad(configPath string) {
	if err := Load(configPath); err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
}

// Reload 重新加载配置
func Reload(configPath string) error {
	c, err := parse(configPath)
	if err != nil {
		return err
	}
	Conf = c
	return nil
}

func parse(configPath string) (*AppConfig, error) {
	k = koanf.New(".")

	// 先加载配置文件
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	// 再加载环境变量（覆盖配置文件），STUDYROOM_DATABASE_HOST -> database.host
	if err := k.Load(env.Provider("STUDYROOM_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STUDYROOM_")
		return strings.Replace(strings.ToLower(s), "_", ".", 1)
	}), nil); err != nil {
		log.Printf("加载环境变量失败: %v", err)
	}

	c := &AppConfig{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	setDefaults(c)
	return c, nil
}

func setDefaults(c *AppConfig) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://127.0.0.1:8080"
	}
	// 配置文件里按秒填写
	if c.Server.ReadTimeout > 0 && c.Server.ReadTimeout < time.Second {
		c.Server.ReadTimeout *= time.Second
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < time.Second {
		c.Server.WriteTimeout *= time.Second
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.App.PostsPerPage <= 0 {
		c.App.PostsPerPage = 5
	}
	if c.App.CommentsPerPage <= 0 {
		c.App.CommentsPerPage = 5
	}
	if c.App.FollowsPerPage <= 0 {
		c.App.FollowsPerPage = 10
	}
	if c.App.ModeratePerPage <= 0 {
		c.App.ModeratePerPage = 10
	}
	if c.App.UploadDir == "" {
		c.App.UploadDir = "static/images"
	}
	if c.App.DownloadDir == "" {
		c.App.DownloadDir = "static/documents"
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
