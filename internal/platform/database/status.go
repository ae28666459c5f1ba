package database

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// statusManager 负责线程安全地管理和提供Redis的可用状态。
type statusManager struct {
	mu             sync.RWMutex
	isRedisHealthy bool
}

// 全局的状态管理器实例
var globalStatus = &statusManager{
	isRedisHealthy: true, // 默认启动时是健康的
}

// IsRedisHealthy 返回当前Redis的健康状态。
// 缓存层在不健康时直接回退到数据库。
func IsRedisHealthy() bool {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.isRedisHealthy
}

// SetRedisHealthy 用于线程安全地更新健康状态。
func SetRedisHealthy(isHealthy bool) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()

	// 只有当状态发生变化时才打印日志
	if globalStatus.isRedisHealthy != isHealthy {
		globalStatus.isRedisHealthy = isHealthy
		if isHealthy {
			log.Info().Msg("Redis服务状态已更新为 [可用]")
		} else {
			log.Warn().Msg("Redis服务状态已更新为 [不可用]")
		}
	}
}
