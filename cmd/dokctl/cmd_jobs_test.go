package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/deckpage"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/schedlock"
	"github.com/SlpAus/keyforge-decks-backend/internal/stats"
	"github.com/SlpAus/keyforge-decks-backend/internal/userdeck"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsStepRespectsJobLock(t *testing.T) {
	env := dbtest.Setup(t, &deck.Deck{}, &metadata.Metadata{}, &stats.DeckStatisticsEntity{})
	require.NoError(t, stats.StartNewDeckStats(config.EnvDev))
	d := deck.Deck{KeyforgeID: uuid.NewString(), Name: "Locked", Expansion: 341, Registered: true}
	require.NoError(t, env.DB.Create(&d).Error)

	// 服务端的累计任务正持有锁
	held, err := schedlock.Acquire(context.Background(), stats.JobUpdateStats, schedlock.Options{LockAtMostFor: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, held)

	var out bytes.Buffer
	statsStepCmd.SetOut(&out)
	t.Cleanup(func() { statsStepCmd.SetOut(nil) })

	require.NoError(t, statsStepCmd.RunE(statsStepCmd, nil))
	assert.Contains(t, out.String(), "lock held, skipped")
	page, err := deckpage.FindCurrentPage(database.DB, deckpage.Stats)
	require.NoError(t, err)
	assert.Equal(t, 0, page)

	require.NoError(t, held.Release(context.Background()))
	out.Reset()
	require.NoError(t, statsStepCmd.RunE(statsStepCmd, nil))
	assert.NotContains(t, out.String(), "lock held")
	page, err = deckpage.FindCurrentPage(database.DB, deckpage.Stats)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
}

func TestMaintenanceCommandsShareServerLocks(t *testing.T) {
	dbtest.Setup(t)
	cfg = &config.Config{Env: config.EnvDev}
	t.Cleanup(func() { cfg = nil })

	s, err := newScheduler()
	require.NoError(t, err)

	for _, name := range []string{stats.JobStartNewVersion, stats.JobUpdateStats, userdeck.JobCorrectCounts, userdeck.JobExpireListings} {
		held, err := schedlock.Acquire(context.Background(), name, schedlock.Options{LockAtMostFor: time.Minute})
		require.NoError(t, err)
		require.NotNil(t, held, name)

		var out bytes.Buffer
		ran, err := runLocked(s, name, &out)
		require.NoError(t, err)
		assert.False(t, ran, name)
		assert.Contains(t, out.String(), name+": lock held, skipped")
	}
}
