package startup

import (
	"fmt"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"github.com/SlpAus/keyforge-decks-backend/internal/stats"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/SlpAus/keyforge-decks-backend/internal/userdeck"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Migrate 迁移所有模块的表并加载卡牌附加信息，不触碰Redis
func Migrate(cfg *config.Config) error {
	if err := metadata.Migrate(database.DB); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	if err := card.PrimeDB(cfg.Cards.ExtraInfoPath); err != nil {
		return err
	}
	if err := deck.PrimeDB(); err != nil {
		return err
	}
	if err := user.PrimeDB(); err != nil {
		return err
	}
	if err := userdeck.PrimeDB(); err != nil {
		return err
	}
	return stats.PrimeDB()
}

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication(cfg *config.Config) error {
	log.Info().Msg("开始应用首次初始化...")

	if err := Migrate(cfg); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}

	log.Info().Msg("应用初始化完成！")
	return nil
}

// WarmupCache 并行预热牌组缓存和统计缓存
func WarmupCache() error {
	var g errgroup.Group
	g.Go(deck.WarmupCache)
	g.Go(stats.WarmupCache)
	return g.Wait()
}

// RebuildCache 在Redis重启或恢复后执行。
// 重建期间Redis被标记为不可用，默认页缓存无法写入，这里只丢弃旧值，
// 之后的第一次请求会重新填充。统计缓存在内存中，从数据库重新加载。
func RebuildCache() error {
	log.Info().Msg("开始缓存热重建...")
	if err := deck.ClearCachedValues(); err != nil {
		return err
	}
	if err := stats.RefreshCache(); err != nil {
		return fmt.Errorf("无法重新加载统计缓存: %w", err)
	}
	log.Info().Msg("缓存热重建完成")
	return nil
}
