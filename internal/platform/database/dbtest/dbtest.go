// Package dbtest 为测试准备隔离的内存 sqlite 数据库和 miniredis 实例，
// 并替换 database 包中的全局连接。
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Env 持有一次测试使用的依赖
type Env struct {
	DB    *gorm.DB
	RDB   *redis.Client
	Redis *miniredis.Miniredis
}

// Setup 创建新的数据库和Redis，迁移给定模型，并在测试结束时恢复全局变量。
func Setup(t *testing.T, models ...any) *Env {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接避免 sqlite 共享缓存的表锁冲突
	sqlDB.SetMaxOpenConns(1)

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	prevDB, prevRDB := database.DB, database.RDB
	database.DB, database.RDB = db, rdb
	database.SetRedisHealthy(true)

	t.Cleanup(func() {
		database.DB, database.RDB = prevDB, prevRDB
		_ = rdb.Close()
		_ = sqlDB.Close()
	})

	return &Env{DB: db, RDB: rdb, Redis: mr}
}
