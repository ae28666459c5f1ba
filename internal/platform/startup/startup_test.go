package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/keyforge-decks-backend/internal/stats"
	"github.com/SlpAus/keyforge-decks-backend/internal/userdeck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApplication(t *testing.T) {
	env := dbtest.Setup(t)

	path := filepath.Join(t.TempDir(), "extra-deck-info.yml")
	require.NoError(t, os.WriteFile(path, []byte("- cardTitle: Troll\n  rating: 4\n  effectivePower: 8\n"), 0o644))
	t.Cleanup(func() { card.SetExtraInfo(map[string]card.ExtraCardInfo{}) })

	cfg := &config.Config{Cards: config.CardsConfig{ExtraInfoPath: path}}
	require.NoError(t, InitializeApplication(cfg))

	for _, model := range []any{&card.Card{}, &deck.Deck{}, &userdeck.UserDeck{}, &stats.DeckStatisticsEntity{}} {
		assert.True(t, env.DB.Migrator().HasTable(model))
	}
	_, ok := card.ExtraInfoFor("troll")
	assert.True(t, ok)

	// 预热后默认计数已写入Redis
	assert.True(t, env.Redis.Exists(deck.CachedCountKey))

	require.NoError(t, RebuildCache())
	assert.False(t, env.Redis.Exists(deck.CachedCountKey))
	assert.False(t, env.Redis.Exists(deck.CachedPageKeyPrefix+"0"))
}
