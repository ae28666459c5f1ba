package userdeck

import (
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/user"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// txAttempts 是写事务遇到锁冲突时的最大尝试次数
const txAttempts = 3

// --- Domain Errors ---
var (
	ErrNotLoggedIn = apperr.Unauthorized("You must be logged in to do that.")
	ErrDeckListed  = apperr.BadRequest("Please unlist the deck for sale before removing it from your decks.")
	ErrNotOwned    = apperr.BadRequest("You can only list decks you own.")
	ErrNoListing   = apperr.BadRequest("A listing must be for sale, for trade, or both.")
	ErrNoCondition = apperr.BadRequest("A listing needs a valid deck condition.")
)

// modOrCreate 在事务中读取（或新建）用户牌组，交给 fn 修改后保存。
// fn 拿到的是修改前的副本和可修改的记录，用于判断标记是否真的发生了变化。
func modOrCreate(viewer *user.KeyUser, deckID uint, fn func(tx *gorm.DB, before UserDeck, ud *UserDeck) error) error {
	if viewer == nil {
		return ErrNotLoggedIn
	}
	return database.Retry(txAttempts, func() error {
		return database.DB.Transaction(func(tx *gorm.DB) error {
			// 1. 牌组必须存在
			d, err := deck.FindByID(tx, deckID)
			if err != nil {
				return err
			}
			if d == nil {
				return apperr.NotFound(fmt.Sprintf("Can't find a deck with id %d", deckID))
			}

			// 2. 读取已有记录，没有则新建
			var ud UserDeck
			err = tx.Where("user_id = ? AND deck_id = ?", viewer.ID, deckID).First(&ud).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ud = UserDeck{ID: uuid.NewString(), UserID: viewer.ID, DeckID: deckID, Redeemed: true}
			} else if err != nil {
				return fmt.Errorf("无法读取用户牌组: %w", err)
			}

			// 3. 修改并保存
			before := ud
			if err := fn(tx, before, &ud); err != nil {
				return err
			}
			if err := tx.Save(&ud).Error; err != nil {
				return fmt.Errorf("无法保存用户牌组: %w", err)
			}
			return nil
		})
	})
}

// adjustCounter 给牌组的计数列加上 delta
func adjustCounter(tx *gorm.DB, deckID uint, column string, delta int) error {
	err := tx.Model(&deck.Deck{}).Where("id = ?", deckID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("无法更新牌组 %d 的 %s: %w", deckID, column, err)
	}
	return nil
}

func delta(before, after bool) int {
	switch {
	case !before && after:
		return 1
	case before && !after:
		return -1
	}
	return 0
}

// AddToWishlist 加入或移出心愿单。只有标记真正变化时才调整牌组的心愿单计数。
func AddToWishlist(viewer *user.KeyUser, deckID uint, wishlist bool) error {
	return modOrCreate(viewer, deckID, func(tx *gorm.DB, before UserDeck, ud *UserDeck) error {
		ud.Wishlist = wishlist
		if d := delta(before.Wishlist, wishlist); d != 0 {
			return adjustCounter(tx, deckID, "wishlist_count", d)
		}
		return nil
	})
}

// MarkAsFunny 标记或取消标记为有趣牌组
func MarkAsFunny(viewer *user.KeyUser, deckID uint, funny bool) error {
	return modOrCreate(viewer, deckID, func(tx *gorm.DB, before UserDeck, ud *UserDeck) error {
		ud.Funny = funny
		if d := delta(before.Funny, funny); d != 0 {
			return adjustCounter(tx, deckID, "funny_count", d)
		}
		return nil
	})
}

// MarkAsOwned 标记或取消标记为拥有。取消拥有时记录为曾经拥有。
func MarkAsOwned(viewer *user.KeyUser, deckID uint, owned bool) error {
	return modOrCreate(viewer, deckID, func(tx *gorm.DB, before UserDeck, ud *UserDeck) error {
		if owned {
			ud.OwnedBy = &viewer.Username
			err := tx.Where("deck_id = ? AND previous_owner_id = ?", deckID, viewer.ID).
				Delete(&PreviouslyOwnedDeck{}).Error
			if err != nil {
				return fmt.Errorf("无法删除曾经拥有记录: %w", err)
			}
			return nil
		}

		if before.IsListed() {
			return ErrDeckListed
		}
		ud.OwnedBy = nil
		if before.OwnedBy == nil {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&PreviouslyOwnedDeck{DeckID: deckID, PreviousOwnerID: viewer.ID}).Error
		if err != nil {
			return fmt.Errorf("无法记录曾经拥有的牌组: %w", err)
		}
		return nil
	})
}

// UpdateNotes 修改用户对牌组的备注，空字符串清除备注
func UpdateNotes(viewer *user.KeyUser, deckID uint, notes string) error {
	return modOrCreate(viewer, deckID, func(_ *gorm.DB, _ UserDeck, ud *UserDeck) error {
		if notes == "" {
			ud.Notes = nil
		} else {
			ud.Notes = &notes
		}
		return nil
	})
}

// RemovePreviouslyOwned 删除曾经拥有的记录
func RemovePreviouslyOwned(viewer *user.KeyUser, deckID uint) error {
	if viewer == nil {
		return ErrNotLoggedIn
	}
	err := database.DB.Where("deck_id = ? AND previous_owner_id = ?", deckID, viewer.ID).
		Delete(&PreviouslyOwnedDeck{}).Error
	if err != nil {
		return fmt.Errorf("无法删除曾经拥有记录: %w", err)
	}
	return nil
}

// FindAllForUser 返回当前用户的所有用户牌组
func FindAllForUser(viewer *user.KeyUser) ([]Dto, error) {
	if viewer == nil {
		return nil, ErrNotLoggedIn
	}
	var decks []UserDeck
	if err := database.DB.Where("user_id = ?", viewer.ID).Order("deck_id").Find(&decks).Error; err != nil {
		return nil, fmt.Errorf("无法加载用户牌组: %w", err)
	}
	dtos := make([]Dto, 0, len(decks))
	for _, ud := range decks {
		dtos = append(dtos, Dto{
			UserDeck:          ud,
			Username:          viewer.Username,
			PublicContactInfo: viewer.PublicContactInfo,
		})
	}
	return dtos, nil
}

// ListDeck 把自己拥有的牌组挂牌出售或交换
func ListDeck(viewer *user.KeyUser, req ListingRequest, now time.Time) error {
	if !req.ForSale && !req.ForTrade {
		return ErrNoListing
	}
	if !req.Condition.Valid() {
		return ErrNoCondition
	}
	return modOrCreate(viewer, req.DeckID, func(tx *gorm.DB, before UserDeck, ud *UserDeck) error {
		if before.OwnedBy == nil {
			return ErrNotOwned
		}
		condition := req.Condition
		ud.ForSale = req.ForSale
		ud.ForTrade = req.ForTrade
		ud.ForSaleInCountry = req.ForSaleInCountry
		if req.ForSaleInCountry == nil {
			ud.ForSaleInCountry = viewer.Country
		}
		ud.AskingPrice = req.AskingPrice
		ud.ListingInfo = req.ListingInfo
		ud.Condition = &condition
		ud.Redeemed = req.Redeemed
		ud.ExternalLink = req.ExternalLink
		listed := now
		ud.DateListed = &listed
		ud.ExpiresAt = nil
		if req.ExpireInDays != nil && *req.ExpireInDays > 0 {
			expires := now.AddDate(0, 0, *req.ExpireInDays)
			ud.ExpiresAt = &expires
		}
		// 先保存本记录，再根据全部用户牌组刷新牌组的出售标记
		if err := tx.Save(ud).Error; err != nil {
			return fmt.Errorf("无法保存挂牌信息: %w", err)
		}
		return refreshDeckListing(tx, req.DeckID)
	})
}

// UnlistDeck 撤下挂牌。没有用户牌组记录时什么也不做。
func UnlistDeck(viewer *user.KeyUser, deckID uint) error {
	if viewer == nil {
		return ErrNotLoggedIn
	}
	return database.Retry(txAttempts, func() error {
		return database.DB.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&UserDeck{}).
				Where("user_id = ? AND deck_id = ?", viewer.ID, deckID).
				Updates(listingColumns())
			if result.Error != nil {
				return fmt.Errorf("无法撤下挂牌: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return nil
			}
			return refreshDeckListing(tx, deckID)
		})
	})
}

// refreshDeckListing 按该牌组的所有用户牌组重新计算牌组的出售和交换标记
func refreshDeckListing(tx *gorm.DB, deckID uint) error {
	var flags struct {
		ForSale  int64
		ForTrade int64
	}
	err := tx.Model(&UserDeck{}).
		Select("COALESCE(SUM(CASE WHEN for_sale THEN 1 ELSE 0 END), 0) AS for_sale, "+
			"COALESCE(SUM(CASE WHEN for_trade THEN 1 ELSE 0 END), 0) AS for_trade").
		Where("deck_id = ?", deckID).
		Scan(&flags).Error
	if err != nil {
		return fmt.Errorf("无法统计牌组 %d 的挂牌: %w", deckID, err)
	}
	err = tx.Model(&deck.Deck{}).Where("id = ?", deckID).UpdateColumns(map[string]interface{}{
		"for_sale":  flags.ForSale > 0,
		"for_trade": flags.ForTrade > 0,
	}).Error
	if err != nil {
		return fmt.Errorf("无法更新牌组 %d 的挂牌标记: %w", deckID, err)
	}
	return nil
}

// CorrectCounts 按用户牌组重新计算所有牌组的心愿单和有趣计数。
// 已没有任何标记的牌组计数会被归零。
func CorrectCounts() (int64, error) {
	result := database.DB.Model(&deck.Deck{}).
		Where("wishlist_count <> 0 OR funny_count <> 0 OR EXISTS (SELECT 1 FROM user_decks ud WHERE ud.deck_id = decks.id)").
		UpdateColumns(map[string]interface{}{
			"wishlist_count": gorm.Expr("(SELECT COUNT(*) FROM user_decks ud WHERE ud.deck_id = decks.id AND ud.wishlist = ?)", true),
			"funny_count":    gorm.Expr("(SELECT COUNT(*) FROM user_decks ud WHERE ud.deck_id = decks.id AND ud.funny = ?)", true),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("无法校正牌组计数: %w", result.Error)
	}
	log.Info().Int64("decks", result.RowsAffected).Msg("牌组心愿单和有趣计数已校正")
	return result.RowsAffected, nil
}

// expiredListing 是一条候选的到期挂牌
type expiredListing struct {
	ID     string
	DeckID uint
}

// listingColumns 返回撤下挂牌时清空的列
func listingColumns() map[string]interface{} {
	return map[string]interface{}{
		"for_sale":            false,
		"for_trade":           false,
		"for_sale_in_country": nil,
		"asking_price":        nil,
		"listing_info":        nil,
		"deck_condition":      nil,
		"external_link":       nil,
		"date_listed":         nil,
		"expires_at":          nil,
	}
}

// ExpireListings 撤下所有在 now 之前到期的挂牌，返回撤下的数量
func ExpireListings(now time.Time) (int, error) {
	candidates, err := findExpiredListings(database.DB, now)
	if err != nil || len(candidates) == 0 {
		return 0, err
	}
	return unlistExpired(candidates, now)
}

func findExpiredListings(db *gorm.DB, now time.Time) ([]expiredListing, error) {
	var candidates []expiredListing
	err := db.Model(&UserDeck{}).
		Select("id, deck_id").
		Where("expires_at IS NOT NULL AND expires_at <= ? AND (for_sale = ? OR for_trade = ?)", now, true, true).
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询到期的挂牌: %w", err)
	}
	return candidates, nil
}

// unlistExpired 只清空挂牌列，并在写入时重新检查到期条件，
// 查询之后被重新挂牌或修改的记录保持不变。
func unlistExpired(candidates []expiredListing, now time.Time) (int, error) {
	var expired int
	err := database.Retry(txAttempts, func() error {
		expired = 0
		return database.DB.Transaction(func(tx *gorm.DB) error {
			touched := make(map[uint]struct{})
			for _, c := range candidates {
				result := tx.Model(&UserDeck{}).
					Where("id = ? AND expires_at IS NOT NULL AND expires_at <= ?", c.ID, now).
					Updates(listingColumns())
				if result.Error != nil {
					return fmt.Errorf("无法撤下到期挂牌 %s: %w", c.ID, result.Error)
				}
				if result.RowsAffected > 0 {
					expired++
					touched[c.DeckID] = struct{}{}
				}
			}
			for deckID := range touched {
				if err := refreshDeckListing(tx, deckID); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("listings", expired).Msg("到期挂牌已撤下")
	return expired, nil
}
