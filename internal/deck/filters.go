package deck

import (
	"fmt"
	"strings"

	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"gorm.io/gorm"
)

// 以下表名由 userdeck 和 user 包的模型决定，牌组查询通过子查询引用它们
const (
	userDecksTable = "user_decks"
	keyUsersTable  = "key_users"
)

// PageSize 是每页牌组数量
const PageSize = 20

// maxFilteredCount 是非默认条件下计数的上限
const maxFilteredCount = 1000

// SortOption 是牌组排序方式
type SortOption string

const (
	SortAddedDate      SortOption = "ADDED_DATE"
	SortCardsRating    SortOption = "CARDS_RATING"
	SortChains         SortOption = "CHAINS"
	SortSasRating      SortOption = "SAS_RATING"
	SortFunniest       SortOption = "FUNNIEST"
	SortMostWishlisted SortOption = "MOST_WISHLISTED"
	SortName           SortOption = "NAME"
)

var sortColumns = map[SortOption]string{
	SortAddedDate:      "id",
	SortCardsRating:    "cards_rating",
	SortChains:         "chains",
	SortSasRating:      "sas_rating",
	SortFunniest:       "funny_count",
	SortMostWishlisted: "wishlist_count",
	SortName:           "name",
}

// SortDirection 是排序方向
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// Cap 决定约束是下限还是上限
type Cap string

const (
	CapMin Cap = "MIN"
	CapMax Cap = "MAX"
)

// Constraint 是对某个数值属性的范围限制
type Constraint struct {
	Property string  `json:"property"`
	Cap      Cap     `json:"cap"`
	Value    float64 `json:"value"`
}

// CardQuantity 要求牌组中某张卡牌恰好有给定数量
type CardQuantity struct {
	CardName string `json:"cardName"`
	Quantity int    `json:"quantity"`
}

// askingPriceProperty 作用在用户牌组上而不是牌组本身
const askingPriceProperty = "askingPrice"

// constraintColumns 是允许约束的数值属性白名单
var constraintColumns = map[string]string{
	"amberControl":       "amber_control",
	"expectedAmber":      "expected_amber",
	"artifactControl":    "artifact_control",
	"creatureControl":    "creature_control",
	"efficiency":         "efficiency",
	"recursion":          "recursion",
	"disruption":         "disruption",
	"creatureProtection": "creature_protection",
	"other":              "other",
	"effectivePower":     "effective_power",
	"aercScore":          "aerc_score",
	"sasRating":          "sas_rating",
	"cardsRating":        "cards_rating",
	"synergyRating":      "synergy_rating",
	"antisynergyRating":  "antisynergy_rating",
	"chains":             "chains",
	"wins":               "wins",
	"losses":             "losses",
	"totalPower":         "total_power",
	"totalArmor":         "total_armor",
	"creatureCount":      "creature_count",
	"actionCount":        "action_count",
	"artifactCount":      "artifact_count",
	"upgradeCount":       "upgrade_count",
	"raresCount":         "rares_count",
	"wishlistCount":      "wishlist_count",
	"funnyCount":         "funny_count",
	"expansion":          "expansion",
}

// Filters 是牌组搜索条件
type Filters struct {
	Houses              []expansion.House `json:"houses"`
	Title               string            `json:"title"`
	Page                int               `json:"page"`
	Constraints         []Constraint      `json:"constraints"`
	Cards               []CardQuantity    `json:"cards"`
	Sort                SortOption        `json:"sort"`
	SortDirection       SortDirection     `json:"sortDirection"`
	Owner               string            `json:"owner"`
	MyFavorites         bool              `json:"myFavorites"`
	ForSale             bool              `json:"forSale"`
	ForTrade            bool              `json:"forTrade"`
	ForSaleInCountry    *string           `json:"forSaleInCountry"`
	IncludeUnregistered bool              `json:"includeUnregistered"`
}

// DefaultFilters 返回首页使用的默认条件
func DefaultFilters() Filters {
	return Filters{
		Sort:          SortSasRating,
		SortDirection: Desc,
	}
}

// normalize 补全缺省的排序字段
func (f Filters) normalize() Filters {
	if _, ok := sortColumns[f.Sort]; !ok {
		f.Sort = SortSasRating
	}
	if f.SortDirection != Asc {
		f.SortDirection = Desc
	}
	return f
}

// isDefaultIgnoringPage 判断除页码外是否与默认条件一致
func (f Filters) isDefaultIgnoringPage() bool {
	return f.isDefaultIgnoringSort() && f.Sort == SortSasRating && f.SortDirection == Desc
}

// isDefaultIgnoringSort 判断除排序外是否与默认条件一致，用于计数缓存
func (f Filters) isDefaultIgnoringSort() bool {
	return len(f.Houses) == 0 &&
		f.Title == "" &&
		f.Page == 0 &&
		len(f.Constraints) == 0 &&
		len(f.Cards) == 0 &&
		f.Owner == "" &&
		!f.MyFavorites &&
		!f.ForSale &&
		!f.ForTrade &&
		f.ForSaleInCountry == nil &&
		!f.IncludeUnregistered
}

// cachedPageIndex 返回可缓存的默认页序号（0 或 1），不可缓存时返回 -1
func (f Filters) cachedPageIndex() int {
	if f.Page != 0 && f.Page != 1 {
		return -1
	}
	withoutPage := f
	withoutPage.Page = 0
	if !withoutPage.isDefaultIgnoringPage() {
		return -1
	}
	return f.Page
}

// Scope 把搜索条件转换为 gorm 查询作用域。viewer 是当前登录用户，可以为 nil。
func (f Filters) Scope(viewer *user.KeyUser) (func(*gorm.DB) *gorm.DB, error) {
	// 1. 先校验约束属性，避免把任意字符串拼进SQL
	for _, c := range f.Constraints {
		if c.Property == askingPriceProperty {
			continue
		}
		if _, ok := constraintColumns[c.Property]; !ok {
			return nil, apperr.BadRequest(fmt.Sprintf("不支持的约束属性: %s", c.Property))
		}
	}

	// 2. 所有者条件需要查询用户资料
	ownerAllowsOwnership := false
	isMe := viewer != nil && f.Owner != "" && viewer.Username == f.Owner
	if f.Owner != "" && !isMe {
		profile, err := user.FindUserProfile(f.Owner, viewer)
		if err != nil {
			return nil, err
		}
		ownerAllowsOwnership = profile != nil && profile.AllowUsersToSeeDeckOwnership
	}

	return func(db *gorm.DB) *gorm.DB {
		if !f.IncludeUnregistered {
			db = db.Where("decks.registered = ?", true)
		}

		if len(f.Houses) > 0 {
			if len(f.Houses) < 4 {
				for _, h := range f.Houses {
					db = db.Where("decks.house_names_string LIKE ?", "%"+string(h)+"%")
				}
			} else {
				for _, h := range expansion.Houses {
					if !containsHouse(f.Houses, h) {
						db = db.Where("decks.house_names_string NOT LIKE ?", "%"+string(h)+"%")
					}
				}
			}
		}

		if title := strings.TrimSpace(f.Title); title != "" {
			db = db.Where("LOWER(decks.name) LIKE ?", "%"+strings.ToLower(title)+"%")
		}

		if f.Owner != "" {
			switch {
			case isMe:
				db = db.Where(userDeckExists("ud.owned_by = ?"), viewer.Username)
			case ownerAllowsOwnership:
				db = db.Where(userDeckExists("ud.owned_by = ?"), f.Owner)
			default:
				db = db.Where(userDeckExists("ud.owned_by = ? AND (ud.for_sale = ? OR ud.for_trade = ?)"), f.Owner, true, true)
			}
		}

		if f.MyFavorites {
			if viewer == nil {
				db = db.Where("1 = 0")
			} else {
				db = db.Where(userDeckExists("ud.user_id = ? AND ud.wishlist = ?"), viewer.ID, true)
			}
		}

		if f.ForSale && f.ForTrade {
			db = db.Where("(decks.for_sale = ? OR decks.for_trade = ?)", true, true)
		} else {
			if f.ForSale {
				db = db.Where("decks.for_sale = ?", true)
			}
			if f.ForTrade {
				db = db.Where("decks.for_trade = ?", true)
			}
		}

		if f.ForSaleInCountry != nil {
			db = db.Where(userDeckExists("ud.for_sale_in_country = ?"), *f.ForSaleInCountry)
		}

		for _, c := range f.Constraints {
			op := "<="
			if c.Cap == CapMin {
				op = ">="
			}
			if c.Property == askingPriceProperty {
				db = db.Where(userDeckExists("ud.asking_price IS NOT NULL AND ud.asking_price "+op+" ?"), c.Value)
				continue
			}
			db = db.Where("decks."+constraintColumns[c.Property]+" "+op+" ?", c.Value)
		}

		for _, cq := range f.Cards {
			db = db.Where("decks.card_names_string LIKE ?", fmt.Sprintf("%%%s%d%%", cq.CardName, cq.Quantity))
		}

		return db
	}, nil
}

// order 返回排序作用域
func (f Filters) order() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column := sortColumns[f.Sort]
		desc := f.SortDirection == Desc ||
			f.Sort == SortFunniest ||
			f.Sort == SortMostWishlisted ||
			f.Sort == SortChains
		direction := "ASC"
		if desc {
			direction = "DESC"
		}
		db = db.Order("decks." + column + " " + direction)
		if f.Sort != SortAddedDate {
			db = db.Order("decks.id ASC")
		}
		return db
	}
}

func userDeckExists(cond string) string {
	return "EXISTS (SELECT 1 FROM " + userDecksTable + " ud WHERE ud.deck_id = decks.id AND " + cond + ")"
}

func containsHouse(houses []expansion.House, h expansion.House) bool {
	for _, x := range houses {
		if x == h {
			return true
		}
	}
	return false
}
