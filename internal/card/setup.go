package card

import (
	"fmt"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/rs/zerolog/log"
)

// PrimeDB 迁移卡牌表并加载附加信息文件
func PrimeDB(extraInfoPath string) error {
	if err := database.DB.AutoMigrate(&Card{}); err != nil {
		return fmt.Errorf("无法迁移card表: %w", err)
	}
	n, err := LoadExtraInfo(extraInfoPath)
	if err != nil {
		return err
	}
	log.Info().Int("extraInfos", n).Str("path", extraInfoPath).Msg("卡牌模块初始化完成")
	return nil
}
