package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是全局的数据库连接，供项目其他部分使用
var DB *gorm.DB

// Open 根据驱动名称打开数据库连接，不修改全局变量
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// InitDB 初始化数据库连接
func InitDB(cfg config.DatabaseConfig) {
	var err error
	DB, err = Open(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("连接数据库失败")
	}

	log.Info().Str("driver", cfg.Driver).Msg("数据库连接成功")
}

// IsRetryableError 判断一次事务失败是否值得重试（例如 sqlite 的锁冲突或 postgres 的序列化失败）
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected")
}

// Retry 执行 fn，对可重试的错误最多尝试 attempts 次
func Retry(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !IsRetryableError(err) {
			return err
		}
	}
	return err
}
