package card

import (
	"strings"

	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
	"gorm.io/gorm"
)

// SortOption 是卡牌列表的排序方式
type SortOption string

const (
	SortSetNumber SortOption = "SET_NUMBER"
	SortCardName  SortOption = "CARD_NAME"
	SortAmber     SortOption = "AMBER"
	SortPower     SortOption = "POWER"
	SortArmor     SortOption = "ARMOR"
)

// SortDirection 是排序方向
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// Filters 是卡牌搜索条件
type Filters struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Expansion        int               `json:"expansion"`
	IncludeMavericks bool              `json:"includeMavericks"`
	Rarities         []Rarity          `json:"rarities"`
	Types            []CardType        `json:"types"`
	Houses           []expansion.House `json:"houses"`
	Ambers           []int             `json:"ambers"`
	Powers           []int             `json:"powers"`
	Armors           []int             `json:"armors"`
	Sort             SortOption        `json:"sort"`
	SortDirection    SortDirection     `json:"sortDirection"`
}

var sortColumns = map[SortOption]string{
	SortSetNumber: "card_number",
	SortCardName:  "card_title",
	SortAmber:     "amber",
	SortPower:     "power",
	SortArmor:     "armor",
}

// Scope 把搜索条件转换为 gorm 查询作用域
func (f Filters) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !f.IncludeMavericks {
			db = db.Where("maverick = ?", false)
		}
		if f.Expansion != 0 {
			db = db.Where("expansion = ?", f.Expansion)
		}
		if len(f.Rarities) > 0 {
			db = db.Where("rarity IN ?", f.Rarities)
		}
		if len(f.Types) > 0 {
			db = db.Where("card_type IN ?", f.Types)
		}
		if len(f.Houses) > 0 {
			db = db.Where("house IN ?", f.Houses)
		}
		if len(f.Ambers) > 0 {
			db = db.Where("amber IN ?", f.Ambers)
		}
		if len(f.Powers) > 0 {
			db = db.Where("power IN ?", f.Powers)
		}
		if len(f.Armors) > 0 {
			db = db.Where("armor IN ?", f.Armors)
		}
		if title := strings.TrimSpace(f.Title); title != "" {
			db = db.Where("LOWER(card_title) LIKE ?", "%"+strings.ToLower(title)+"%")
		}
		if desc := strings.TrimSpace(f.Description); desc != "" {
			db = db.Where("LOWER(card_text) LIKE ?", "%"+strings.ToLower(desc)+"%")
		}

		sort := f.Sort
		column, ok := sortColumns[sort]
		if !ok {
			sort, column = SortSetNumber, sortColumns[SortSetNumber]
		}
		// 按攻击力或护甲排序时只看生物
		if sort == SortPower || sort == SortArmor {
			db = db.Where("card_type IN ?", []CardType{Creature})
		}
		direction := "ASC"
		if f.SortDirection == Desc {
			direction = "DESC"
		}
		return db.Order(column + " " + direction).Order("id ASC")
	}
}
