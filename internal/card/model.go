package card

import (
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
)

// CardType 是卡牌类型
type CardType string

const (
	Action   CardType = "Action"
	Artifact CardType = "Artifact"
	Creature CardType = "Creature"
	Upgrade  CardType = "Upgrade"
)

// Rarity 是卡牌稀有度
type Rarity string

const (
	Common   Rarity = "Common"
	Uncommon Rarity = "Uncommon"
	Rare     Rarity = "Rare"
	Special  Rarity = "Special"
	Variant  Rarity = "Variant"
	Fixed    Rarity = "FIXED"
)

// Card 定义了数据库中卡牌的数据结构
type Card struct {
	// ID 是官方接口中的卡牌UUID
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	CardTitle  string          `gorm:"index;not null" json:"cardTitle"`
	House      expansion.House `gorm:"index" json:"house"`
	CardType   CardType        `gorm:"index" json:"cardType"`
	CardText   string          `json:"cardText"`
	Traits     string          `json:"traits"`
	Amber      int             `json:"amber"`
	Power      int             `json:"power"`
	Armor      int             `json:"armor"`
	Rarity     Rarity          `json:"rarity"`
	FlavorText string          `json:"flavorText"`
	CardNumber string          `json:"cardNumber"`
	Expansion  int             `gorm:"index" json:"expansion"`
	Maverick   bool            `json:"maverick"`

	// ExtraCardInfo 从YAML文件加载，不持久化
	ExtraCardInfo *ExtraCardInfo `gorm:"-" json:"extraCardInfo,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsRare 报告卡牌是否计入稀有卡数量
func (c Card) IsRare() bool {
	return c.Rarity == Rare || c.Rarity == Special
}
