package deck

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/schedlock"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/scheduler"
	"github.com/rs/zerolog/log"
)

// JobRefreshCache 定期重新计算默认页缓存
const JobRefreshCache = "refreshDeckCache"

// PrimeDB 迁移牌组表
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Deck{}); err != nil {
		return fmt.Errorf("无法迁移deck表: %w", err)
	}
	return nil
}

// WarmupCache 清除旧缓存后预先计算默认的前两页和总数
func WarmupCache() error {
	if err := ClearCachedValues(); err != nil {
		return err
	}
	defaults := DefaultFilters()
	for page := 0; page < 2; page++ {
		defaults.Page = page
		if _, err := FilterDecks(defaults, nil); err != nil {
			return fmt.Errorf("无法预热第 %d 页牌组缓存: %w", page, err)
		}
	}
	defaults.Page = 0
	count, err := CountFilters(defaults, nil)
	if err != nil {
		return fmt.Errorf("无法预热牌组计数缓存: %w", err)
	}
	log.Info().Int64("decks", count.Count).Msg("牌组缓存预热完成")
	return nil
}

// RegisterJobs 注册默认页缓存的刷新任务
func RegisterJobs(s *scheduler.Scheduler, cfg config.JobsConfig) error {
	return s.Register(scheduler.Job{
		Name: JobRefreshCache,
		Spec: cfg.RefreshDeckCacheSpec,
		Lock: schedlock.Options{LockAtMostFor: 5 * time.Minute, LockAtLeastFor: time.Minute},
		Run: func(context.Context) error {
			return WarmupCache()
		},
	})
}
