package deck

import (
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/internal/card"
	"github.com/SlpAus/keyforge-decks-backend/internal/expansion"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundHalfUp(t *testing.T) {
	for in, want := range map[float64]int{0.5: 1, 1.49: 1, 2.5: 3, -0.4: 0, -0.5: 0, -0.6: -1, 55.5: 56} {
		assert.Equal(t, want, RoundHalfUp(in), "%v", in)
	}
}

func testCards() map[string]card.Card {
	return map[string]card.Card{
		"c1": {ID: "c1", CardTitle: "Troll", House: expansion.Brobnar, CardType: card.Creature, Power: 8, Rarity: card.Rare},
		"c2": {ID: "c2", CardTitle: "Library Access", House: expansion.Logos, CardType: card.Action, Rarity: card.Uncommon},
		"c3": {ID: "c3", CardTitle: "Imp", House: expansion.Dis, CardType: card.Creature, Power: 1, Armor: 1, Rarity: card.Common},
	}
}

func withTestExtraInfo(t *testing.T) {
	t.Helper()
	card.SetExtraInfo(map[string]card.ExtraCardInfo{
		"troll":          {CardTitle: "Troll", Rating: 3.5, CreatureControl: 0.5, EffectivePower: 8},
		"library access": {CardTitle: "Library Access", Rating: 3, ExpectedAmber: 1, Efficiency: 2, Recursion: 0.5},
	})
	t.Cleanup(func() { card.SetExtraInfo(map[string]card.ExtraCardInfo{}) })
}

func TestRate(t *testing.T) {
	withTestExtraInfo(t)

	in := Import{
		KeyforgeID:  uuid.NewString(),
		Name:        "Rated",
		Expansion:   341,
		Houses:      []expansion.House{expansion.Brobnar, expansion.Dis, expansion.Logos},
		CardIDs:     []string{"c1", "c2", "c3", "c3"},
		Registered:  true,
		Synergy:     5,
		Antisynergy: 2,
	}
	d, err := Rate(in, testCards())
	require.NoError(t, err)

	assert.Equal(t, 3, d.CreatureCount)
	assert.Equal(t, 1, d.ActionCount)
	assert.Equal(t, 1, d.RaresCount)
	assert.Equal(t, 10, d.TotalPower)
	assert.Equal(t, 2, d.TotalArmor)

	assert.Equal(t, 7, d.CardsRating, "6.5 rounds half up")
	assert.Equal(t, 10, d.SasRating)
	assert.Equal(t, 10, d.EffectivePower, "creatures without extra info fall back to power")
	require.NotNil(t, d.Recursion)
	assert.InDelta(t, 0.5, *d.Recursion, 0.0001)
	assert.Nil(t, d.CreatureProtection)
	assert.InDelta(t, 5.0, d.AercScore, 0.0001)

	assert.Equal(t, "Troll1|Library Access1|Imp2", d.CardNamesString)
	require.Len(t, d.SynergyCombos, 3)
	assert.Equal(t, expansion.Brobnar, d.SynergyCombos[0].House)
	assert.Equal(t, expansion.Dis, d.SynergyCombos[1].House)
	assert.Equal(t, 2, d.SynergyCombos[1].Copies)
	assert.Equal(t, expansion.Logos, d.SynergyCombos[2].House)
	assert.True(t, d.HasHouse(expansion.Dis))
	assert.False(t, d.HasHouse(expansion.Mars))
}

func TestRateRejectsBadInput(t *testing.T) {
	cards := testCards()

	_, err := Rate(Import{KeyforgeID: "short", Expansion: 341}, cards)
	assert.Error(t, err)

	_, err = Rate(Import{KeyforgeID: uuid.NewString(), Expansion: 1}, cards)
	assert.Error(t, err)

	_, err = Rate(Import{KeyforgeID: uuid.NewString(), Expansion: 341, CardIDs: []string{"missing"}}, cards)
	assert.Error(t, err)
}

func TestFilterHelpers(t *testing.T) {
	f := Filters{}.normalize()
	assert.Equal(t, SortSasRating, f.Sort)
	assert.Equal(t, Desc, f.SortDirection)
	assert.Equal(t, 0, f.cachedPageIndex())

	f.Page = 1
	assert.Equal(t, 1, f.cachedPageIndex())
	f.Page = 2
	assert.Equal(t, -1, f.cachedPageIndex())

	byName := Filters{Sort: SortName, SortDirection: Asc}
	assert.Equal(t, -1, byName.cachedPageIndex())
	assert.True(t, byName.isDefaultIgnoringSort(), "sorting does not change the total")

	titled := DefaultFilters()
	titled.Title = "x"
	assert.False(t, titled.isDefaultIgnoringSort())

	_, err := Filters{Constraints: []Constraint{{Property: "name; DROP TABLE decks", Cap: CapMin}}}.Scope(nil)
	assert.Error(t, err)
	_, err = Filters{Constraints: []Constraint{{Property: "askingPrice", Cap: CapMax, Value: 10}}}.Scope(nil)
	assert.NoError(t, err)
}
