package deck

import (
	"fmt"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratedColumns 是重新导入时会被覆盖的列，用户产生的计数和出售标记保持不变
var ratedColumns = []string{
	"name", "expansion", "house_names_string", "card_names_string", "card_ids", "registered",
	"chains", "wins", "losses",
	"creature_count", "action_count", "artifact_count", "upgrade_count", "rares_count",
	"total_power", "total_armor",
	"cards_rating", "sas_rating", "synergy_rating", "antisynergy_rating",
	"amber_control", "expected_amber", "artifact_control", "creature_control", "efficiency",
	"recursion", "disruption", "creature_protection", "other", "effective_power", "aerc_score", "meta",
	"synergy_combos", "updated_at",
}

// ratingLease 是一次导入的评分租约时长。导入进程异常退出时租约自然过期。
const ratingLease = time.Hour

// ImportDecks 为一批牌组评分并写入数据库。
// 评分期间在元数据中持有租约，统计任务看到有效租约时不会开始新版本。
func ImportDecks(imports []Import) (int, error) {
	if len(imports) == 0 {
		return 0, nil
	}

	// 1. 获取评分租约
	lease, err := metadata.BeginRatingDecks(database.DB, ratingLease)
	if err != nil {
		return 0, fmt.Errorf("无法设置牌组评分租约: %w", err)
	}
	defer func() {
		if err := metadata.EndRatingDecks(database.DB, lease); err != nil {
			log.Error().Err(err).Msg("无法结束牌组评分租约")
		}
	}()

	// 2. 一次性加载所有涉及的卡牌
	var ids []string
	for _, in := range imports {
		ids = append(ids, in.CardIDs...)
	}
	byID, err := cardsByID(database.DB, ids)
	if err != nil {
		return 0, err
	}

	// 3. 评分
	decks := make([]Deck, 0, len(imports))
	for _, in := range imports {
		d, err := Rate(in, byID)
		if err != nil {
			return 0, err
		}
		decks = append(decks, d)
	}

	// 4. 在事务中写入
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return SaveRated(tx, decks)
	})
	if err != nil {
		return 0, err
	}

	if err := ClearCachedValues(); err != nil {
		log.Warn().Err(err).Msg("导入牌组后清除缓存失败")
	}
	log.Info().Int("decks", len(decks)).Msg("牌组导入完成")
	return len(decks), nil
}

// SaveRated 按官方ID写入或更新已评分的牌组
func SaveRated(db *gorm.DB, decks []Deck) error {
	if len(decks) == 0 {
		return nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "keyforge_id"}},
		DoUpdates: clause.AssignmentColumns(ratedColumns),
	}).CreateInBatches(&decks, 100).Error
	if err != nil {
		return fmt.Errorf("无法写入牌组: %w", err)
	}
	return nil
}

// ImportCardsAndDecks 先写入卡牌，再导入牌组
func ImportCardsAndDecks(cards []card.Card, imports []Import) (int, error) {
	if err := card.ImportCards(database.DB, cards); err != nil {
		return 0, fmt.Errorf("无法写入卡牌: %w", err)
	}
	return ImportDecks(imports)
}
