// Package deckpage 维护按页遍历全部牌组的游标，供后台任务分批处理牌组。
package deckpage

import (
	"fmt"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"gorm.io/gorm"
)

// Type 区分不同用途的游标
type Type string

const (
	Stats Type = "STATS"
)

// quantities 是每种游标每页的牌组数量
var quantities = map[Type]int{
	Stats: 10000,
}

func key(t Type) string {
	return metadata.DeckPageKeyPrefix + string(t)
}

// Quantity 返回该游标每页的牌组数量
func Quantity(t Type) int {
	return quantities[t]
}

// FindCurrentPage 返回游标当前的页码，从未设置时为 0
func FindCurrentPage(db *gorm.DB, t Type) (int, error) {
	page, err := metadata.GetInt(db, key(t))
	if err != nil {
		return 0, fmt.Errorf("无法读取 %s 游标: %w", t, err)
	}
	return page, nil
}

// SetCurrentPage 保存游标页码
func SetCurrentPage(db *gorm.DB, page int, t Type) error {
	if err := metadata.SetInt(db, key(t), page); err != nil {
		return fmt.Errorf("无法保存 %s 游标: %w", t, err)
	}
	return nil
}

// DecksForPage 按ID顺序返回第 page 页的已注册牌组。
// ID 按导入顺序递增，新导入的牌组只会出现在后面的页中。
func DecksForPage(db *gorm.DB, page int, t Type) ([]deck.Deck, error) {
	quantity := Quantity(t)
	if quantity == 0 {
		return nil, fmt.Errorf("未知的游标类型: %s", t)
	}
	var decks []deck.Deck
	err := db.Where("registered = ?", true).
		Order("id ASC").
		Limit(quantity).
		Offset(page * quantity).
		Find(&decks).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取第 %d 页牌组: %w", page, err)
	}
	return decks, nil
}
