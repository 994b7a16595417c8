// Package gormdb 提供消息库的初始化和 Repository 层
// 负责建立数据库连接（默认 SQLite WAL 模式，可切换 MySQL）、自动迁移表结构、初始化 Repository
package gormdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chat_core_server/internal/config"
	"chat_core_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePragmas WAL 模式下写入不阻塞读取；busy_timeout 避免短暂锁冲突直接报错
const sqlitePragmas = "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=1"

// Open 按配置打开数据库连接并执行 AutoMigrate
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn is empty")
		}
		if dir := filepath.Dir(cfg.DSN); dir != "." && !strings.HasPrefix(cfg.DSN, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir %s: %w", dir, err)
			}
		}
		dialector = sqlite.Open(withPragmas(cfg.DSN))
	case "mysql":
		// 格式：user:password@tcp(host:port)/database?charset=utf8mb4&parseTime=True&loc=Local
		dialector = mysqldriver.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 如果表不存在则创建，已有数据不受影响
	if err := db.AutoMigrate(&model.Message{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// Init 初始化数据库连接并返回 Repository 层实例
func Init(cfg config.DBConfig) (*Repositories, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	zap.L().Info("消息库连接成功", zap.String("driver", db.Dialector.Name()))
	return NewRepositories(db), nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}
