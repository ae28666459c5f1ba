package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	SetSecret("test-secret")

	signed, err := GenerateJWT("user-1", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseRejectsExpired(t *testing.T) {
	SetSecret("test-secret")

	signed, err := GenerateJWT("user-1", "alice", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherKey(t *testing.T) {
	SetSecret("first")
	signed, err := GenerateJWT("user-1", "alice", time.Hour)
	require.NoError(t, err)

	SetSecret("second")
	_, err = ParseJWT(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRandomSecret(t *testing.T) {
	SetSecret("")
	signed, err := GenerateJWT("user-1", "alice", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(signed)
	assert.NoError(t, err)
}
