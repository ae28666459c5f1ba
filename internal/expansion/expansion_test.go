package expansion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForNumber(t *testing.T) {
	e, err := ForNumber(496)
	require.NoError(t, err)
	assert.Equal(t, "DT", e.Readable)
	assert.True(t, e.HasHouse(Unfathomable))
	assert.False(t, e.HasHouse(Brobnar))

	_, err = ForNumber(1)
	assert.Error(t, err)
}

func TestActiveExcludesAnomaly(t *testing.T) {
	active := Active()
	assert.Len(t, active, len(All())-1)
	for _, e := range active {
		assert.NotEqual(t, AnomalyExpansionNumber, e.Number)
		assert.NotEmpty(t, e.Houses)
	}
}

func TestWithTokens(t *testing.T) {
	var readable []string
	for _, e := range WithTokens() {
		readable = append(readable, e.Readable)
	}
	assert.Equal(t, []string{"WoE", "UC22", "VM23", "MN24"}, readable)
}

func TestParseHouse(t *testing.T) {
	h, err := ParseHouse("staralliance")
	require.NoError(t, err)
	assert.Equal(t, StarAlliance, h)

	_, err = ParseHouse("Ravens")
	assert.Error(t, err)
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].Readable = "changed"
	assert.Equal(t, "CotA", All()[0].Readable)
}
