package user

import (
	"fmt"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/rs/zerolog/log"
)

// PrimeDB 是user模块的初始化总入口
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&KeyUser{}); err != nil {
		return fmt.Errorf("无法迁移key_users表: %w", err)
	}
	log.Info().Msg("User数据库表迁移成功。")
	return nil
}
