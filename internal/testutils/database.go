package testutils

import (
	"context"
	"testing"

	"StudyRoom/internal/repository/mysql"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 内存 sqlite，建表并写入默认角色
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// 每个连接都是独立的内存库，只能用一个
	sqlDB.SetMaxOpenConns(1)

	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	roles := &mysql.RoleRepository{DB: db}
	if err := roles.InsertRoles(context.Background()); err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SetupTestRedis 基于 miniredis，测试结束自动关闭
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return mr, client
}
