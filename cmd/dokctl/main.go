// dokctl 是运维命令行工具：迁移数据库、导入卡牌和牌组、手动触发后台任务。
package main

import (
	"os"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/logger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cfg 在 PersistentPreRunE 中加载，所有子命令共享
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dokctl",
	Short: "Operator tool for the decks backend",
	Long: `dokctl runs maintenance tasks against the configured database and Redis.

It reads the same config.yaml and environment variables as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Init(cfg.Env)
		database.InitDB(cfg.Database)
		database.InitRedis(cfg.Database.Redis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, importCardsCmd, importDecksCmd, statsCmd, correctCountsCmd, expireListingsCmd)
	statsCmd.AddCommand(statsStartCmd, statsStepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("命令执行失败")
		os.Exit(1)
	}
}
