// Package health 定期检查Redis，在Redis重启（run_id 变化）后重建缓存，
// 并把结果同步到 database 包的可用状态，缓存和定时任务据此降级。
package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/pkg/lifecycle"
	"github.com/rs/zerolog/log"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// RebuildFunc 重建Redis中的全部缓存
type RebuildFunc func() error

// Checker 执行Redis健康检查
type Checker struct {
	status  *statusManager
	rebuild RebuildFunc
	runID   func() (string, error)
}

// NewChecker 创建一个使用全局状态的检查器
func NewChecker(rebuild RebuildFunc) *Checker {
	return &Checker{status: globalStatus, rebuild: rebuild, runID: getRedisRunID}
}

// getRedisRunID 从Redis服务器信息中提取run_id
func getRedisRunID() (string, error) {
	ctx, cancel := context.WithTimeout(database.Ctx, pingTimeout)
	defer cancel()
	info, err := database.RDB.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// InitializeRunID 在应用启动时执行一次，获取并设置初始的run_id。
func (c *Checker) InitializeRunID() error {
	runID, err := c.runID()
	if err != nil {
		return fmt.Errorf("无法在启动时获取Redis Run ID: %w", err)
	}
	c.status.SetInitialRunID(runID)
	log.Info().Str("runId", runID).Msg("获取初始Redis Run ID成功")
	return nil
}

// PerformCheck 执行一次完整的健康检查和可能的修复操作。
func (c *Checker) PerformCheck() {
	runID, err := c.runID()
	connected := err == nil

	if c.status.Assess(connected, runID) {
		database.SetRedisHealthy(false)
		rebuildErr := c.rebuild()
		if rebuildErr != nil {
			log.Error().Err(rebuildErr).Msg("健康检查: 缓存热重建失败")
		}
		// 重建后再次读取run_id，确认重建期间Redis没有再次重启
		after, err := c.runID()
		c.status.MarkRebuildComplete(rebuildErr == nil && err == nil, after)
	}

	database.SetRedisHealthy(c.status.state() == StateHealthy)
}

// Run 在生命周期句柄内循环执行检查，直到收到停机信号。
func (c *Checker) Run(h *lifecycle.Handle) {
	log.Info().Dur("interval", checkInterval).Msg("Redis健康检查器已启动")
	for {
		if err := h.Sleep(checkInterval); err != nil {
			log.Info().Msg("Redis健康检查器已停止")
			return
		}
		c.PerformCheck()
	}
}
