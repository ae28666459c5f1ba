package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/schedlock"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/scheduler"
	"github.com/rs/zerolog/log"
)

// 任务名同时也是调度锁的名字
const (
	JobStartNewVersion = "updateStatisticsVersion"
	JobUpdateStats     = "updateStatistics"
)

const (
	versionLockFor = 72 * time.Hour
	updateLockFor  = 20 * time.Second
)

// PrimeDB 迁移统计表，并把当前统计注册为牌组百分位的来源
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&DeckStatisticsEntity{}); err != nil {
		return fmt.Errorf("无法迁移deck_statistics表: %w", err)
	}
	deck.SetPercentileSource(PercentileSource{})
	log.Info().Msg("Stats数据库表迁移成功。")
	return nil
}

// WarmupCache 预先加载统计缓存
func WarmupCache() error {
	if err := RefreshCache(); err != nil {
		return fmt.Errorf("无法预热统计缓存: %w", err)
	}
	return nil
}

// RegisterJobs 注册开启新版本和分页累计两个定时任务
func RegisterJobs(s *scheduler.Scheduler, env config.Env, cfg config.JobsConfig) error {
	jobs := []scheduler.Job{
		{
			Name: JobStartNewVersion,
			Spec: cfg.StatsVersionSpec,
			Lock: schedlock.Options{LockAtMostFor: versionLockFor, LockAtLeastFor: versionLockFor},
			Run: func(context.Context) error {
				return StartNewDeckStats(env)
			},
		},
	}
	update := UpdateJob(1)
	update.Spec = cfg.StatsPageSpec
	jobs = append(jobs, update)

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// UpdateJob 返回在 updateStatistics 锁内最多累计 pages 页的任务，版本完成后提前结束。
// 定时任务每次累计一页，dokctl 可以一次累计多页。
func UpdateJob(pages int) scheduler.Job {
	if pages < 1 {
		pages = 1
	}
	return scheduler.Job{
		Name: JobUpdateStats,
		Lock: schedlock.Options{LockAtMostFor: time.Duration(pages) * updateLockFor, LockAtLeastFor: updateLockFor},
		Run: func(ctx context.Context) error {
			for i := 0; i < pages; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := UpdateStatsForDecks(); err != nil {
					return err
				}
				if !IsUpdating() {
					return nil
				}
			}
			return nil
		},
	}
}
