package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/startup"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// migrateCmd 迁移所有表
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startup.Migrate(cfg)
	},
}

// importCardsCmd 从JSON文件导入卡牌
var importCardsCmd = &cobra.Command{
	Use:   "import-cards <cards.json>",
	Short: "Import cards from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cards []card.Card
		if err := readJSON(args[0], &cards); err != nil {
			return err
		}
		if err := startup.Migrate(cfg); err != nil {
			return err
		}
		if err := card.ImportCards(database.DB, cards); err != nil {
			return err
		}
		log.Info().Int("cards", len(cards)).Msg("卡牌导入完成")
		return nil
	},
}

var cardsPath string

// importDecksCmd 从JSON文件导入并评分牌组
var importDecksCmd = &cobra.Command{
	Use:   "import-decks <decks.json>",
	Short: "Rate and import decks from a JSON array",
	Long: `Rate and import decks from a JSON array of deck imports.

While decks are being rated the rating flag is set, so the statistics job will
not start a new version until the import finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var imports []deck.Import
		if err := readJSON(args[0], &imports); err != nil {
			return err
		}
		if err := startup.Migrate(cfg); err != nil {
			return err
		}
		var (
			n   int
			err error
		)
		if cardsPath != "" {
			var cards []card.Card
			if err := readJSON(cardsPath, &cards); err != nil {
				return err
			}
			n, err = deck.ImportCardsAndDecks(cards, imports)
		} else {
			n, err = deck.ImportDecks(imports)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d decks\n", n)
		return nil
	},
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("无法读取 %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("无法解析 %s: %w", path, err)
	}
	return nil
}

func init() {
	importDecksCmd.Flags().StringVar(&cardsPath, "cards", "", "import this card JSON array before rating the decks")
}
