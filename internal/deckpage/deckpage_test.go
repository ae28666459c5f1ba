package deckpage

import (
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/metadata"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentPageRoundTrip(t *testing.T) {
	env := dbtest.Setup(t, &metadata.Metadata{})

	page, err := FindCurrentPage(env.DB, Stats)
	require.NoError(t, err)
	assert.Equal(t, 0, page)

	require.NoError(t, SetCurrentPage(env.DB, 3, Stats))
	page, err = FindCurrentPage(env.DB, Stats)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
}

func TestDecksForPage(t *testing.T) {
	env := dbtest.Setup(t, &deck.Deck{})
	quantities[Stats] = 2
	t.Cleanup(func() { quantities[Stats] = 10000 })

	for i, registered := range []bool{true, false, true, true} {
		d := deck.Deck{KeyforgeID: uuid.NewString(), Name: string(rune('A' + i)), Registered: registered}
		require.NoError(t, env.DB.Create(&d).Error)
	}

	first, err := DecksForPage(env.DB, 0, Stats)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "A", first[0].Name)
	assert.Equal(t, "C", first[1].Name)

	second, err := DecksForPage(env.DB, 1, Stats)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "D", second[0].Name)

	empty, err := DecksForPage(env.DB, 2, Stats)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecksForPage(env.DB, 0, Type("OTHER"))
	assert.Error(t, err)
}
