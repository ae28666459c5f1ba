package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// --- Redis Keys ---
const (
	// CachedPageKeyPrefix 加上页码（0 或 1）存放默认条件下的搜索结果
	CachedPageKeyPrefix = "deck:cache:page:"
	// CachedCountKey 存放默认条件下的牌组总数
	CachedCountKey = "deck:cache:count"
)

// cacheTTL 是默认页缓存的存活时间
const cacheTTL = 10 * time.Minute

func cachedPageKey(page int) string {
	return CachedPageKeyPrefix + strconv.Itoa(page)
}

// getCachedPage 读取缓存的默认页。Redis不可用或未命中时返回 nil。
func getCachedPage(page int) *Page {
	if !database.IsRedisHealthy() {
		return nil
	}
	data, err := database.RDB.Get(database.Ctx, cachedPageKey(page)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int("page", page).Msg("读取牌组页缓存失败")
		}
		return nil
	}
	var p Page
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Int("page", page).Msg("牌组页缓存已损坏")
		return nil
	}
	return &p
}

func setCachedPage(page int, p *Page) {
	if !database.IsRedisHealthy() {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		log.Warn().Err(err).Msg("无法序列化牌组页")
		return
	}
	if err := database.RDB.Set(database.Ctx, cachedPageKey(page), data, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Int("page", page).Msg("写入牌组页缓存失败")
		return
	}
	log.Info().Int("page", page).Msg("已缓存默认牌组页")
}

func getCachedCount() (int64, bool) {
	if !database.IsRedisHealthy() {
		return 0, false
	}
	n, err := database.RDB.Get(database.Ctx, CachedCountKey).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

func setCachedCount(n int64) {
	if !database.IsRedisHealthy() {
		return
	}
	if err := database.RDB.Set(database.Ctx, CachedCountKey, n, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("写入牌组计数缓存失败")
	}
}

// ClearCachedValues 丢弃缓存的默认页和总数
func ClearCachedValues() error {
	if err := database.RDB.Del(database.Ctx, cachedPageKey(0), cachedPageKey(1), CachedCountKey).Err(); err != nil {
		return fmt.Errorf("无法清除牌组缓存: %w", err)
	}
	return nil
}
