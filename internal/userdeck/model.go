package userdeck

import (
	"time"
)

// DeckCondition 是挂牌牌组的品相
type DeckCondition string

const (
	NewInPlastic  DeckCondition = "NEW_IN_PLASTIC"
	NearMint      DeckCondition = "NEAR_MINT"
	Played        DeckCondition = "PLAYED"
	HeavilyPlayed DeckCondition = "HEAVILY_PLAYED"
)

// Valid 报告品相是否为已知值
func (c DeckCondition) Valid() bool {
	switch c {
	case NewInPlastic, NearMint, Played, HeavilyPlayed:
		return true
	}
	return false
}

// UserDeck 记录一个用户与一副牌组的关系：心愿单、拥有、出售等
type UserDeck struct {
	ID     string `gorm:"primarykey;type:varchar(36)" json:"id"`
	UserID string `gorm:"type:varchar(36);uniqueIndex:idx_user_deck;not null" json:"-"`
	DeckID uint   `gorm:"uniqueIndex:idx_user_deck;index;not null" json:"deckId"`

	Wishlist bool    `json:"wishlist"`
	Funny    bool    `json:"funny"`
	OwnedBy  *string `gorm:"index" json:"ownedBy"`
	// Creator 只用于未注册的牌组
	Creator bool    `json:"creator"`
	Notes   *string `json:"notes"`

	ForSale          bool           `json:"forSale"`
	ForTrade         bool           `json:"forTrade"`
	ForSaleInCountry *string        `json:"forSaleInCountry"`
	AskingPrice      *float64       `json:"askingPrice"`
	ListingInfo      *string        `json:"listingInfo"`
	Condition        *DeckCondition `gorm:"column:deck_condition" json:"condition"`
	Redeemed         bool           `json:"redeemed"`
	ExternalLink     *string        `json:"externalLink"`
	DateListed       *time.Time     `json:"dateListed"`
	ExpiresAt        *time.Time     `gorm:"index" json:"expiresAt"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsListed 报告是否正在出售或交换
func (ud UserDeck) IsListed() bool {
	return ud.ForSale || ud.ForTrade
}

// PreviouslyOwnedDeck 记录用户曾经拥有过的牌组
type PreviouslyOwnedDeck struct {
	ID              uint   `gorm:"primarykey"`
	DeckID          uint   `gorm:"uniqueIndex:idx_previous_owner;not null"`
	PreviousOwnerID string `gorm:"type:varchar(36);uniqueIndex:idx_previous_owner;not null"`
	CreatedAt       time.Time
}

// Dto 是返回给客户端的用户牌组
type Dto struct {
	UserDeck
	Username          string  `json:"username"`
	PublicContactInfo *string `json:"publicContactInfo"`
}

// ListingRequest 是挂牌出售或交换的请求
type ListingRequest struct {
	DeckID           uint          `json:"deckId" binding:"required"`
	ForSale          bool          `json:"forSale"`
	ForTrade         bool          `json:"forTrade"`
	ForSaleInCountry *string       `json:"forSaleInCountry"`
	AskingPrice      *float64      `json:"askingPrice"`
	ListingInfo      *string       `json:"listingInfo"`
	Condition        DeckCondition `json:"condition"`
	Redeemed         bool          `json:"redeemed"`
	ExternalLink     *string       `json:"externalLink"`
	// ExpireInDays 为空时挂牌不会自动过期
	ExpireInDays *int `json:"expireInDays"`
}
