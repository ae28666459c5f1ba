package card

import (
	"fmt"
	"strings"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FilterCards 按条件搜索卡牌，并附上附加信息
func FilterCards(filters Filters) ([]Card, error) {
	var cards []Card
	if err := database.DB.Scopes(filters.Scope()).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("无法搜索卡牌: %w", err)
	}
	return WithExtraInfo(cards), nil
}

// FindByIDs 根据ID批量查找卡牌
func FindByIDs(db *gorm.DB, ids []string) ([]Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cards []Card
	if err := db.Where("id IN ?", ids).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("无法加载卡牌: %w", err)
	}
	return cards, nil
}

// FindByTitles 根据卡名（不区分大小写）查找卡牌，返回以小写卡名为键的映射
// 同名卡牌存在多个版本时，非变异版本优先
func FindByTitles(db *gorm.DB, titles []string) (map[string]Card, error) {
	if len(titles) == 0 {
		return map[string]Card{}, nil
	}
	lowered := make([]string, 0, len(titles))
	for _, t := range titles {
		lowered = append(lowered, strings.ToLower(t))
	}
	var cards []Card
	err := db.Where("LOWER(card_title) IN ?", lowered).Order("maverick ASC").Order("id ASC").Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("无法按卡名加载卡牌: %w", err)
	}
	out := make(map[string]Card, len(cards))
	for _, c := range cards {
		key := strings.ToLower(c.CardTitle)
		if _, exists := out[key]; !exists {
			out[key] = c
		}
	}
	return out, nil
}

// ImportCards 批量写入卡牌，已存在的卡牌会被更新
func ImportCards(db *gorm.DB, cards []Card) error {
	if len(cards) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"card_title", "house", "card_type", "card_text", "traits", "amber", "power", "armor",
			"rarity", "flavor_text", "card_number", "expansion", "maverick", "updated_at",
		}),
	}).CreateInBatches(&cards, 200).Error
}
