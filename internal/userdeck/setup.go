package userdeck

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

const (
	JobCorrectCounts  = "correctDeckCounts"
	JobExpireListings = "expireListings"
)

// PrimeDB 迁移用户牌组相关的表
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&UserDeck{}, &PreviouslyOwnedDeck{}); err != nil {
		return fmt.Errorf("无法迁移user_decks表: %w", err)
	}
	log.Info().Msg("UserDeck数据库表迁移成功。")
	return nil
}

// RegisterJobs 注册计数校正和挂牌过期两个定时任务
func RegisterJobs(s *scheduler.Scheduler, cfg config.JobsConfig) error {
	jobs := []scheduler.Job{
		{
			Name: JobCorrectCounts,
			Spec: cfg.CorrectCountsSpec,
			Lock: schedlock.Options{LockAtMostFor: time.Hour, LockAtLeastFor: time.Minute},
			Run: func(context.Context) error {
				_, err := CorrectCounts()
				return err
			},
		},
		{
			Name: JobExpireListings,
			Spec: cfg.ExpireListingsSpec,
			Lock: schedlock.Options{LockAtMostFor: 10 * time.Minute, LockAtLeastFor: time.Minute},
			Run: func(context.Context) error {
				_, err := ExpireListings(time.Now())
				return err
			},
		},
	}
	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}
