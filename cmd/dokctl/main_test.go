package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate"}, {"import-cards"}, {"import-decks"}, {"stats", "start"}, {"stats", "step"},
		{"correct-counts"}, {"expire-listings"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	pages := statsStepCmd.Flags().Lookup("pages")
	require.NotNil(t, pages)
	assert.Equal(t, "1", pages.DefValue)
	assert.NotNil(t, importDecksCmd.Flags().Lookup("cards"))
}

func TestReadJSON(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "decks.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"id":"abc","expansion":341,"houses":["Brobnar"],"cards":["c1"]}]`), 0o644))

	var imports []deck.Import
	require.NoError(t, readJSON(good, &imports))
	require.Len(t, imports, 1)
	assert.Equal(t, 341, imports[0].Expansion)
	assert.Equal(t, []string{"c1"}, imports[0].CardIDs)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	assert.Error(t, readJSON(bad, &imports))
	assert.Error(t, readJSON(filepath.Join(dir, "missing.json"), &imports))
}
