package deck

import (
	"errors"
	"fmt"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// keyforgeIDLength 是官方牌组ID（UUID）的长度
const keyforgeIDLength = 36

// FilterDecks 按条件搜索一页牌组。默认条件的前两页会被缓存。
func FilterDecks(filters Filters, viewer *user.KeyUser) (*Page, error) {
	filters = filters.normalize()
	if filters.Page < 0 {
		return nil, apperr.BadRequest("页码不能为负数")
	}

	// 1. 默认条件的前两页直接返回缓存
	cacheIndex := filters.cachedPageIndex()
	if cacheIndex >= 0 {
		if cached := getCachedPage(cacheIndex); cached != nil {
			return cached, nil
		}
	}

	// 2. 构造查询
	scope, err := filters.Scope(viewer)
	if err != nil {
		return nil, err
	}
	var decks []Deck
	err = database.DB.Model(&Deck{}).
		Scopes(scope, filters.order()).
		Limit(PageSize).
		Offset(filters.Page * PageSize).
		Find(&decks).Error
	if err != nil {
		return nil, fmt.Errorf("无法搜索牌组: %w", err)
	}

	// 3. 附上卡牌，必要时附上出售信息
	results, err := toSearchResults(database.DB, decks)
	if err != nil {
		return nil, err
	}
	if filters.ForSale || filters.ForTrade {
		for i := range results {
			info, err := saleInfoForDeckID(database.DB, results[i].ID)
			if err != nil {
				return nil, err
			}
			results[i].DeckSaleInfo = info
		}
	}

	page := &Page{Decks: results, Page: filters.Page}

	// 4. 写入缓存
	if cacheIndex >= 0 {
		setCachedPage(cacheIndex, page)
	}
	return page, nil
}

// CountFilters 统计满足条件的牌组数量。
// 默认条件下返回牌组总数并缓存，其他条件最多统计 1000 个。
func CountFilters(filters Filters, viewer *user.KeyUser) (*Count, error) {
	filters = filters.normalize()

	var count int64
	if filters.isDefaultIgnoringSort() {
		if cached, ok := getCachedCount(); ok {
			count = cached
		} else {
			if err := database.DB.Model(&Deck{}).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("无法统计牌组总数: %w", err)
			}
			setCachedCount(count)
		}
	} else {
		scope, err := filters.Scope(viewer)
		if err != nil {
			return nil, err
		}
		var ids []uint
		err = database.DB.Model(&Deck{}).Scopes(scope).Limit(maxFilteredCount).Pluck("decks.id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("无法统计牌组数量: %w", err)
		}
		count = int64(len(ids))
	}

	return &Count{
		Pages: (count + PageSize - 1) / PageSize,
		Count: count,
	}, nil
}

// FindByKeyforgeID 根据官方ID查找牌组，不存在时返回 nil
func FindByKeyforgeID(db *gorm.DB, keyforgeID string) (*Deck, error) {
	var d Deck
	err := db.Where("keyforge_id = ?", keyforgeID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法查找牌组 %s: %w", keyforgeID, err)
	}
	return &d, nil
}

// FindByID 根据内部ID查找牌组，不存在时返回 nil
func FindByID(db *gorm.DB, id uint) (*Deck, error) {
	var d Deck
	err := db.First(&d, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法查找牌组 %d: %w", id, err)
	}
	return &d, nil
}

// FindDeckSimple 返回不带卡牌的牌组，ID格式错误或不存在时返回 nil
func FindDeckSimple(keyforgeID string) (*SearchResult, error) {
	if len(keyforgeID) != keyforgeIDLength {
		log.Info().Str("keyforgeId", keyforgeID).Msg("请求的牌组ID格式错误")
		return nil, nil
	}
	d, err := FindByKeyforgeID(database.DB, keyforgeID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		log.Info().Str("keyforgeId", keyforgeID).Msg("请求的牌组不存在")
		return nil, nil
	}
	result := d.ToSearchResult(nil)
	return &result, nil
}

// FindDeckWithSynergies 返回牌组详情以及各项评分的百分位
func FindDeckWithSynergies(keyforgeID string) (*WithSynergies, error) {
	// 前端会用占位ID "simple" 发请求，直接忽略
	if keyforgeID == "simple" {
		return nil, nil
	}
	if len(keyforgeID) != keyforgeIDLength {
		return nil, apperr.BadRequest(fmt.Sprintf("Request for deck with synergies with bad id: %s", keyforgeID))
	}
	d, err := FindByKeyforgeID(database.DB, keyforgeID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.BadRequest(fmt.Sprintf("Can't find a deck with id %s", keyforgeID))
	}

	// 卡牌和出售信息互不依赖，并发加载
	var (
		cards    []card.Card
		saleInfo []SaleInfo
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		cards, err = cardsForDeck(database.DB, *d)
		return err
	})
	g.Go(func() error {
		var err error
		saleInfo, err = saleInfoForDeckID(database.DB, d.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := d.ToSearchResult(cards)
	result.DeckSaleInfo = saleInfo
	p := percentilesFor(*d)
	return &WithSynergies{
		Deck:                  result,
		CardRatingPercentile:  p.CardsRating,
		SynergyPercentile:     p.Synergy,
		AntisynergyPercentile: p.Antisynergy,
		SasPercentile:         p.Sas,
	}, nil
}

// SaleInfoForDeck 返回牌组的出售和交换信息，按上架时间倒序
func SaleInfoForDeck(keyforgeID string) ([]SaleInfo, error) {
	d, err := FindByKeyforgeID(database.DB, keyforgeID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return []SaleInfo{}, nil
	}
	return saleInfoForDeckID(database.DB, d.ID)
}

func saleInfoForDeckID(db *gorm.DB, deckID uint) ([]SaleInfo, error) {
	infos := []SaleInfo{}
	err := db.Table(userDecksTable+" AS ud").
		Select("ud.for_sale, ud.for_trade, ud.for_sale_in_country, ud.asking_price, ud.listing_info, " +
			"ud.external_link, ud.deck_condition, ud.date_listed, ud.expires_at, ku.username, ku.public_contact_info").
		Joins("JOIN "+keyUsersTable+" ku ON ku.id = ud.user_id").
		Where("ud.deck_id = ? AND (ud.for_sale = ? OR ud.for_trade = ?)", deckID, true, true).
		Order("ud.date_listed DESC").
		Scan(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("无法加载牌组 %d 的出售信息: %w", deckID, err)
	}
	return infos, nil
}

// cardsForDeck 按牌组中的顺序返回卡牌（含重复），并附上附加信息
func cardsForDeck(db *gorm.DB, d Deck) ([]card.Card, error) {
	byID, err := cardsByID(db, d.CardIDs)
	if err != nil {
		return nil, err
	}
	return orderedCards(d.CardIDs, byID), nil
}

func toSearchResults(db *gorm.DB, decks []Deck) ([]SearchResult, error) {
	var ids []string
	for _, d := range decks {
		ids = append(ids, d.CardIDs...)
	}
	byID, err := cardsByID(db, ids)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(decks))
	for _, d := range decks {
		results = append(results, d.ToSearchResult(orderedCards(d.CardIDs, byID)))
	}
	return results, nil
}

func cardsByID(db *gorm.DB, ids []string) (map[string]card.Card, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	cards, err := card.FindByIDs(db, unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]card.Card, len(cards))
	for _, c := range card.WithExtraInfo(cards) {
		byID[c.ID] = c
	}
	return byID, nil
}

func orderedCards(ids []string, byID map[string]card.Card) []card.Card {
	out := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
