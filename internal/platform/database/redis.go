package database

import (
	"context"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RDB 是一个全局的Redis客户端实例，供项目其他部分使用
var RDB *redis.Client

// Ctx 是一个全局的上下文，用于不受请求生命周期约束的Redis操作
var Ctx = context.Background()

// InitRedis 初始化与Redis数据库的连接
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	if _, err := RDB.Ping(Ctx).Result(); err != nil {
		log.Fatal().Err(err).Str("address", cfg.Address).Msg("无法连接到Redis")
	}

	log.Info().Str("address", cfg.Address).Msg("Redis 连接成功")
}
