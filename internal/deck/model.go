package deck

import (
	"strings"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
)

// houseSeparator 用于拼接牌组的三个家族名
const houseSeparator = "|"

// Deck 定义了数据库中牌组的数据结构。
// 评分字段在导入时一次性计算，此后只由计数任务修改心愿单和有趣计数。
type Deck struct {
	// ID 按导入顺序自增，ADDED_DATE 排序和统计分页都依赖它
	ID         uint   `gorm:"primarykey" json:"id"`
	KeyforgeID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"keyforgeId"`
	Name       string `gorm:"index" json:"name"`
	Expansion  int    `gorm:"index" json:"expansion"`

	HouseNamesString string   `json:"-"`
	CardNamesString  string   `json:"-"`
	CardIDs          []string `gorm:"serializer:json" json:"cardIds"`

	Registered    bool `gorm:"index" json:"registered"`
	ForSale       bool `json:"forSale"`
	ForTrade      bool `json:"forTrade"`
	WishlistCount int  `json:"wishlistCount"`
	FunnyCount    int  `json:"funnyCount"`

	Chains int `json:"chains"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	CreatureCount int `json:"creatureCount"`
	ActionCount   int `json:"actionCount"`
	ArtifactCount int `json:"artifactCount"`
	UpgradeCount  int `json:"upgradeCount"`
	RaresCount    int `json:"raresCount"`
	TotalPower    int `json:"totalPower"`
	TotalArmor    int `json:"totalArmor"`

	CardsRating       int `json:"cardsRating"`
	SasRating         int `gorm:"index" json:"sasRating"`
	SynergyRating     int `json:"synergyRating"`
	AntisynergyRating int `json:"antisynergyRating"`

	AmberControl       float64  `json:"amberControl"`
	ExpectedAmber      float64  `json:"expectedAmber"`
	ArtifactControl    float64  `json:"artifactControl"`
	CreatureControl    float64  `json:"creatureControl"`
	Efficiency         float64  `json:"efficiency"`
	Recursion          *float64 `json:"recursion"`
	Disruption         float64  `json:"disruption"`
	CreatureProtection *float64 `json:"creatureProtection"`
	Other              float64  `json:"other"`
	EffectivePower     int      `json:"effectivePower"`
	AercScore          float64  `json:"aercScore"`
	Meta               float64  `json:"meta"`

	SynergyCombos []SynergyCombo `gorm:"serializer:json" json:"synergyCombos"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// SynergyCombo 是牌组中一张（可能多份）卡牌对各项AERC的贡献
type SynergyCombo struct {
	House              expansion.House `json:"house"`
	CardName           string          `json:"cardName"`
	CardType           card.CardType   `json:"cardType"`
	Power              int             `json:"power"`
	Copies             int             `json:"copies"`
	Rating             float64         `json:"rating"`
	AmberControl       float64         `json:"amberControl"`
	ExpectedAmber      float64         `json:"expectedAmber"`
	ArtifactControl    float64         `json:"artifactControl"`
	CreatureControl    float64         `json:"creatureControl"`
	Efficiency         float64         `json:"efficiency"`
	Recursion          float64         `json:"recursion"`
	Disruption         float64         `json:"disruption"`
	CreatureProtection float64         `json:"creatureProtection"`
	Other              float64         `json:"other"`
	EffectivePower     int             `json:"effectivePower"`
}

// Houses 返回牌组的家族列表
func (d Deck) Houses() []expansion.House {
	if d.HouseNamesString == "" {
		return nil
	}
	parts := strings.Split(d.HouseNamesString, houseSeparator)
	houses := make([]expansion.House, 0, len(parts))
	for _, p := range parts {
		houses = append(houses, expansion.House(p))
	}
	return houses
}

// HasHouse 报告牌组是否包含某个家族
func (d Deck) HasHouse(house expansion.House) bool {
	for _, h := range d.Houses() {
		if h == house {
			return true
		}
	}
	return false
}

// JoinHouses 把家族列表编码为 HouseNamesString
func JoinHouses(houses []expansion.House) string {
	names := make([]string, 0, len(houses))
	for _, h := range houses {
		names = append(names, string(h))
	}
	return strings.Join(names, houseSeparator)
}

// SearchResult 是返回给客户端的牌组数据
type SearchResult struct {
	Deck
	HouseList    []expansion.House `json:"houses"`
	SearchCards  []card.Card       `json:"searchResultCards,omitempty"`
	DeckSaleInfo []SaleInfo        `json:"deckSaleInfo,omitempty"`
}

// ToSearchResult 把牌组转换为搜索结果
func (d Deck) ToSearchResult(cards []card.Card) SearchResult {
	return SearchResult{
		Deck:        d,
		HouseList:   d.Houses(),
		SearchCards: cards,
	}
}

// SaleInfo 是某个用户对牌组的出售或交换信息
type SaleInfo struct {
	ForSale           bool       `json:"forSale"`
	ForTrade          bool       `json:"forTrade"`
	ForSaleInCountry  *string    `json:"forSaleInCountry"`
	AskingPrice       *float64   `json:"askingPrice"`
	ListingInfo       *string    `json:"listingInfo"`
	ExternalLink      *string    `json:"externalLink"`
	DeckCondition     *string    `json:"condition"`
	DateListed        *time.Time `json:"dateListed"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	Username          string     `json:"username"`
	PublicContactInfo *string    `json:"publicContactInfo"`
}

// Page 是一页搜索结果
type Page struct {
	Decks []SearchResult `json:"decks"`
	Page  int            `json:"page"`
}

// Count 是搜索结果的总数和页数
type Count struct {
	Pages int64 `json:"pages"`
	Count int64 `json:"count"`
}

// WithSynergies 是牌组详情，附带各项评分在当前统计中的百分位
type WithSynergies struct {
	Deck                  SearchResult `json:"deck"`
	CardRatingPercentile  int          `json:"cardRatingPercentile"`
	SynergyPercentile     int          `json:"synergyPercentile"`
	AntisynergyPercentile int          `json:"antisynergyPercentile"`
	SasPercentile         int          `json:"sasPercentile"`
}
