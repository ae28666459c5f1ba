package health

import (
	"errors"
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	runIDs []string
	err    error
}

func (f *fakeRedis) next() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id := f.runIDs[0]
	if len(f.runIDs) > 1 {
		f.runIDs = f.runIDs[1:]
	}
	return id, nil
}

func newTestChecker(redis *fakeRedis, rebuild RebuildFunc) *Checker {
	return &Checker{status: newStatusManager(), rebuild: rebuild, runID: redis.next}
}

func TestRestartTriggersRebuild(t *testing.T) {
	t.Cleanup(func() { database.SetRedisHealthy(true) })
	redis := &fakeRedis{runIDs: []string{"aaa"}}
	rebuilds := 0
	c := newTestChecker(redis, func() error { rebuilds++; return nil })
	require.NoError(t, c.InitializeRunID())

	c.PerformCheck()
	assert.Equal(t, 0, rebuilds)
	assert.Equal(t, StateHealthy, c.status.state())

	redis.runIDs = []string{"bbb"}
	c.PerformCheck()
	assert.Equal(t, 1, rebuilds)
	assert.Equal(t, StateHealthy, c.status.state())
	assert.True(t, database.IsRedisHealthy())
}

func TestLostConnectionDegrades(t *testing.T) {
	t.Cleanup(func() { database.SetRedisHealthy(true) })
	redis := &fakeRedis{runIDs: []string{"aaa"}}
	c := newTestChecker(redis, func() error { return nil })
	require.NoError(t, c.InitializeRunID())

	redis.err = errors.New("connection refused")
	c.PerformCheck()
	assert.Equal(t, StateDegraded, c.status.state())
	assert.False(t, database.IsRedisHealthy())

	redis.err = nil
	c.PerformCheck()
	assert.Equal(t, StateHealthy, c.status.state())
	assert.True(t, database.IsRedisHealthy())
}

func TestFailedRebuildStaysRebuilding(t *testing.T) {
	t.Cleanup(func() { database.SetRedisHealthy(true) })
	redis := &fakeRedis{runIDs: []string{"aaa"}}
	fail := true
	c := newTestChecker(redis, func() error {
		if fail {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, c.InitializeRunID())

	redis.runIDs = []string{"bbb"}
	c.PerformCheck()
	assert.Equal(t, StateRebuilding, c.status.state())
	assert.False(t, database.IsRedisHealthy())

	fail = false
	c.PerformCheck()
	assert.Equal(t, StateHealthy, c.status.state())
}

func TestRestartDuringRebuildIsRetried(t *testing.T) {
	t.Cleanup(func() { database.SetRedisHealthy(true) })
	redis := &fakeRedis{runIDs: []string{"aaa"}}
	c := newTestChecker(redis, func() error { return nil })
	require.NoError(t, c.InitializeRunID())

	// 检查时是 bbb，重建完成后又变成 ccc
	redis.runIDs = []string{"bbb", "ccc"}
	c.PerformCheck()
	assert.Equal(t, StateRebuilding, c.status.state())

	c.PerformCheck()
	assert.Equal(t, StateHealthy, c.status.state())
}
