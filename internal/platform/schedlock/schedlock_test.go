package schedlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusive(t *testing.T) {
	dbtest.Setup(t)
	ctx := context.Background()
	opts := Options{LockAtMostFor: time.Minute}

	first, err := Acquire(ctx, "job", opts)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := Acquire(ctx, "job", opts)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, first.Release(ctx))

	third, err := Acquire(ctx, "job", opts)
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestLockExpiresAfterAtMost(t *testing.T) {
	env := dbtest.Setup(t)
	ctx := context.Background()

	l, err := Acquire(ctx, "job", Options{LockAtMostFor: 20 * time.Second})
	require.NoError(t, err)
	require.NotNil(t, l)

	env.Redis.FastForward(21 * time.Second)

	again, err := Acquire(ctx, "job", Options{LockAtMostFor: 20 * time.Second})
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestReleaseKeepsLockForAtLeast(t *testing.T) {
	env := dbtest.Setup(t)
	ctx := context.Background()
	opts := Options{LockAtMostFor: 72 * time.Hour, LockAtLeastFor: 72 * time.Hour}

	ran, err := Run(ctx, "version", opts, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran)

	assert.True(t, env.Redis.Exists(keyPrefix+"version"))
	ttl := env.Redis.TTL(keyPrefix + "version")
	assert.Greater(t, ttl, 71*time.Hour)

	ran, err = Run(ctx, "version", opts, func(context.Context) error {
		t.Fatal("must not run while retained")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestReleaseDoesNotDropForeignLock(t *testing.T) {
	env := dbtest.Setup(t)
	ctx := context.Background()

	l, err := Acquire(ctx, "job", Options{LockAtMostFor: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, l)

	// 锁被其它实例接管
	require.NoError(t, env.Redis.Set(keyPrefix+"job", "someone-else"))
	require.NoError(t, l.Release(ctx))

	v, err := env.Redis.Get(keyPrefix + "job")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestRunReturnsJobError(t *testing.T) {
	dbtest.Setup(t)
	boom := errors.New("boom")

	ran, err := Run(context.Background(), "job", Options{LockAtMostFor: time.Minute}, func(context.Context) error {
		return boom
	})
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
}
