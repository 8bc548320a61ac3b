// Package testutil 测试用的内存数据库与配置
package testutil

import (
	"exam_portal_backend/internal/config"
	"exam_portal_backend/pkg/database"
	"testing"
	"time"

	"gorm.io/gorm"
)

// NewDB 返回已迁移的内存 SQLite；单连接保证整个测试共享同一个库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     ":memory:",
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewConfig 测试配置：sqlite、本地存储、关闭限流
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	return &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		JWT: config.JWTConfig{
			Secret:     "test-secret-test-secret-test-secret",
			ExpireTime: time.Hour,
		},
		Admin: config.AdminConfig{
			Name:     "Admin",
			Email:    "admin@example.com",
			Password: "admin12345",
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: t.TempDir(),
		},
		Grading: config.GradingConfig{RequireComplete: true},
		Exam:    config.ExamConfig{ExposeOptions: true},
	}
}
