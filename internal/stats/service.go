package stats

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/deckpage"
	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrStatsInProgress 表示当前没有已完成的版本可供覆盖
var ErrStatsInProgress = apperr.Conflict("Can't set stats manually with no previous stats or while in progress.")

// updateStats 为 false 时分页累计任务直接返回。只在本进程内有效，重启后恢复为 true。
var updateStats atomic.Bool

func init() {
	updateStats.Store(true)
}

// IsUpdating 报告分页累计任务是否处于开启状态
func IsUpdating() bool {
	return updateStats.Load()
}

// --- 版本查询 ---

// latestEntity 返回版本号最大的统计实体，优先返回全局实体
func latestEntity(db *gorm.DB) (*DeckStatisticsEntity, error) {
	var e DeckStatisticsEntity
	err := db.Order("version DESC").Order("expansion IS NOT NULL").First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法查询最新统计版本: %w", err)
	}
	return &e, nil
}

func entitiesForVersion(db *gorm.DB, version int) ([]DeckStatisticsEntity, error) {
	var entities []DeckStatisticsEntity
	if err := db.Where("version = ?", version).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("无法加载第 %d 版统计: %w", version, err)
	}
	return entities, nil
}

// latestComplete 返回某个系列（nil 为全局）最新的已完成统计
func latestComplete(db *gorm.DB, expansionNumber *int) (*DeckStatisticsEntity, error) {
	q := db.Where("complete_date_time IS NOT NULL")
	if expansionNumber == nil {
		q = q.Where("expansion IS NULL")
	} else {
		q = q.Where("expansion = ?", *expansionNumber)
	}
	var e DeckStatisticsEntity
	if err := q.Order("version DESC").First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法查询已完成的统计: %w", err)
	}
	return &e, nil
}

func newEntity(version int, expansionNumber *int) DeckStatisticsEntity {
	return DeckStatisticsEntity{
		ID:        uuid.NewString(),
		Version:   version,
		Expansion: expansionNumber,
		DeckStats: NewDeckStatistics(),
	}
}

// --- 定时任务 ---

// StartNewDeckStats 在上一个版本完成后开启新的统计版本。
// 没有任何统计时创建第 1 版全局统计；上一版仍在累计时什么也不做。
func StartNewDeckStats(env config.Env) error {
	logger := log.With().Str("job", JobStartNewVersion).Logger()
	if env == config.EnvQA {
		logger.Info().Msg("QA环境，跳过统计")
		return nil
	}

	rating, err := metadata.IsRatingDecks(database.DB)
	if err != nil {
		return fmt.Errorf("无法读取牌组评分标记: %w", err)
	}
	if rating {
		logger.Info().Msg("牌组正在评分，跳过开启新统计版本")
		return nil
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		latest, err := latestEntity(tx)
		if err != nil {
			return err
		}

		switch {
		case latest == nil:
			logger.Info().Msg("尚无统计，创建第 1 版")
			first := newEntity(1, nil)
			if err := tx.Create(&first).Error; err != nil {
				return fmt.Errorf("无法创建统计: %w", err)
			}
		case latest.IsComplete():
			version := latest.Version + 1
			logger.Info().Int("version", version).Msg("创建新的统计版本")
			entities := []DeckStatisticsEntity{newEntity(version, nil)}
			for _, e := range expansion.All() {
				number := e.Number
				entities = append(entities, newEntity(version, &number))
			}
			if err := tx.Create(&entities).Error; err != nil {
				return fmt.Errorf("无法创建第 %d 版统计: %w", version, err)
			}
		default:
			logger.Debug().Int("version", latest.Version).Msg("统计版本仍在累计中")
			return nil
		}

		if err := deckpage.SetCurrentPage(tx, 0, deckpage.Stats); err != nil {
			return err
		}
		updateStats.Store(true)
		return nil
	})
}

// UpdateStatsForDecks 把游标当前页的牌组累加进最新版本的所有统计实体，然后前进一页。
// 遇到空页时把该版本标记为完成并刷新缓存。
func UpdateStatsForDecks() error {
	if !updateStats.Load() {
		return nil
	}
	logger := log.With().Str("job", JobUpdateStats).Logger()
	start := time.Now()

	latest, err := latestEntity(database.DB)
	if err != nil {
		return err
	}
	if latest == nil {
		logger.Warn().Msg("没有可以累计的统计版本")
		return nil
	}
	if latest.IsComplete() {
		updateStats.Store(false)
		logger.Info().Int("version", latest.Version).Msg("统计版本已经完成")
		return nil
	}

	entities, err := entitiesForVersion(database.DB, latest.Version)
	if err != nil {
		return err
	}
	page, err := deckpage.FindCurrentPage(database.DB, deckpage.Stats)
	if err != nil {
		return err
	}
	decks, err := deckpage.DecksForPage(database.DB, page, deckpage.Stats)
	if err != nil {
		return err
	}

	if len(decks) == 0 {
		now := time.Now()
		err := database.DB.Model(&DeckStatisticsEntity{}).
			Where("version = ?", latest.Version).
			Update("complete_date_time", now).Error
		if err != nil {
			return fmt.Errorf("无法完成第 %d 版统计: %w", latest.Version, err)
		}
		updateStats.Store(false)
		if err := RefreshCache(); err != nil {
			return err
		}
		logger.Info().Int("version", latest.Version).Int("page", page).Msg("统计累计完成")
		return nil
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for i := range entities {
			accumulate(&entities[i].DeckStats, entities[i].Expansion, decks)
			if err := tx.Save(&entities[i]).Error; err != nil {
				return fmt.Errorf("无法保存统计 %s: %w", entities[i].ID, err)
			}
		}
		return deckpage.SetCurrentPage(tx, page+1, deckpage.Stats)
	})
	if err != nil {
		return err
	}

	logger.Info().
		Int("version", latest.Version).
		Int("page", page).
		Int("decks", len(decks)).
		Dur("took", time.Since(start)).
		Msg("统计累计了一页牌组")
	return nil
}

// SetStats 手动写入一个已完成的全局统计版本，只允许在最新版本已完成时调用
func SetStats(s DeckStatistics) error {
	latest, err := latestEntity(database.DB)
	if err != nil {
		return err
	}
	if latest == nil || !latest.IsComplete() {
		return ErrStatsInProgress
	}

	log.Info().Int("version", latest.Version+1).Msg("手动设置统计")
	now := time.Now()
	e := newEntity(latest.Version+1, nil)
	s.ensureInit()
	e.DeckStats = s
	e.CompleteDateTime = &now
	if err := database.DB.Create(&e).Error; err != nil {
		return fmt.Errorf("无法保存手动设置的统计: %w", err)
	}
	updateStats.Store(true)
	return RefreshCache()
}

// --- 缓存 ---

type statsCache struct {
	mu     sync.RWMutex
	loaded bool
	stats  DeckStatistics
	global []GlobalStatsWithExpansion
}

var cache statsCache

// RefreshCache 从数据库重新加载最新完成的统计和展示视图
func RefreshCache() error {
	current, err := latestComplete(database.DB, nil)
	if err != nil {
		return err
	}
	stats := NewDeckStatistics()
	if current != nil {
		stats = current.DeckStats
		stats.ensureInit()
	}

	globalView := stats.ToGlobalStats()
	sortAercDatasByHouse(globalView.AercDatas)
	views := []GlobalStatsWithExpansion{{Expansion: nil, Stats: globalView}}
	for _, e := range expansion.All() {
		number := e.Number
		entity, err := latestComplete(database.DB, &number)
		if err != nil {
			return err
		}
		s := NewDeckStatistics()
		if entity != nil {
			s = entity.DeckStats
		}
		views = append(views, GlobalStatsWithExpansion{Expansion: &number, Stats: s.ToGlobalStats()})
	}

	cache.mu.Lock()
	cache.loaded = true
	cache.stats = stats
	cache.global = views
	cache.mu.Unlock()
	return nil
}

func ensureCache() error {
	cache.mu.RLock()
	loaded := cache.loaded
	cache.mu.RUnlock()
	if loaded {
		return nil
	}
	return RefreshCache()
}

// FindGlobalStats 返回全局以及每个系列的统计视图
func FindGlobalStats() ([]GlobalStatsWithExpansion, error) {
	if err := ensureCache(); err != nil {
		return nil, err
	}
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return cache.global, nil
}

// FindCurrentStats 返回最新完成的全局统计，没有时为空统计
func FindCurrentStats() (DeckStatistics, error) {
	if err := ensureCache(); err != nil {
		return DeckStatistics{}, err
	}
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return cache.stats, nil
}

// resetCache 清空缓存，下一次读取时重新加载
func resetCache() {
	cache.mu.Lock()
	cache.loaded = false
	cache.stats = DeckStatistics{}
	cache.global = nil
	cache.mu.Unlock()
}

// --- 百分位 ---

// PercentileSource 用当前统计计算牌组评分的百分位
type PercentileSource struct{}

// PercentilesFor 实现 deck.PercentileSource。统计加载失败时全部返回 -1。
func (PercentileSource) PercentilesFor(cardsRating, synergy, antisynergy, sas int) deck.Percentiles {
	s, err := FindCurrentStats()
	if err != nil {
		log.Warn().Err(err).Msg("无法加载统计，百分位不可用")
		return deck.Percentiles{CardsRating: -1, Synergy: -1, Antisynergy: -1, Sas: -1}
	}
	return deck.Percentiles{
		CardsRating: percentile(s.CardsRating, cardsRating),
		Synergy:     percentile(s.Synergy, synergy),
		Antisynergy: percentile(s.Antisynergy, antisynergy),
		Sas:         percentile(s.Sas, sas),
	}
}

func percentile(h Histogram, value int) int {
	p := h.PercentileForValue(value)
	if p < 0 {
		return -1
	}
	return deck.RoundHalfUp(p)
}
