package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/schedlock"
	"github.com/SlpAus/keyforge-decks-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRunNowExecutesUnderLock(t *testing.T) {
	env := dbtest.Setup(t)
	s := New()

	var calls atomic.Int32
	require.NoError(t, s.Register(Job{
		Name: "count",
		Lock: schedlock.Options{LockAtMostFor: time.Minute, LockAtLeastFor: time.Minute},
		Run: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}))

	ran, err := s.RunNow("count")
	require.NoError(t, err)
	assert.True(t, ran)
	// lockAtLeastFor 仍然生效，第二次被跳过
	ran, err = s.RunNow("count")
	require.NoError(t, err)
	assert.False(t, ran)
	assert.EqualValues(t, 1, calls.Load())

	env.Redis.FastForward(2 * time.Minute)
	ran, err = s.RunNow("count")
	require.NoError(t, err)
	assert.True(t, ran)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRunNowSkipsWhenRedisUnhealthy(t *testing.T) {
	dbtest.Setup(t)
	s := New()
	require.NoError(t, s.Register(Job{
		Name: "never",
		Lock: schedlock.Options{LockAtMostFor: time.Minute},
		Run: func(context.Context) error {
			return errors.New("should not run")
		},
	}))

	database.SetRedisHealthy(false)
	t.Cleanup(func() { database.SetRedisHealthy(true) })

	ran, err := s.RunNow("never")
	assert.NoError(t, err)
	assert.False(t, ran)
}

func TestRegisterValidation(t *testing.T) {
	s := New()
	job := Job{Name: "a", Spec: "@every 1h", Lock: schedlock.Options{LockAtMostFor: time.Minute}, Run: func(context.Context) error { return nil }}

	require.NoError(t, s.Register(job))
	assert.Error(t, s.Register(job))
	assert.Error(t, s.Register(Job{Name: "b", Spec: "not a spec", Run: job.Run}))
	_, err := s.RunNow("unknown")
	assert.Error(t, err)
}

func TestRunStopsWithHandle(t *testing.T) {
	dbtest.Setup(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := New()
	require.NoError(t, s.Register(Job{
		Name: "hourly",
		Spec: "@every 1h",
		Lock: schedlock.Options{LockAtMostFor: time.Minute},
		Run:  func(context.Context) error { return nil },
	}))

	m := lifecycle.NewManager("test")
	require.NoError(t, m.Go("scheduler", s.Run))

	m.Shutdown()
	assert.Empty(t, m.WaitWithTimeout(2*time.Second))
}

func TestTwoPhaseKeepsRunningJobUntilForceful(t *testing.T) {
	dbtest.Setup(t)

	s := New()
	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, s.Register(Job{
		Name: "slow",
		Lock: schedlock.Options{LockAtMostFor: time.Minute},
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		},
	}))

	graceful := lifecycle.NewManager("graceful")
	forceful := lifecycle.NewManager("forceful")
	gh, err := graceful.NewServiceHandle("scheduler")
	require.NoError(t, err)
	fh, err := forceful.NewServiceHandle("scheduler")
	require.NoError(t, err)
	go s.RunTwoPhase(gh, fh)

	done := make(chan error, 1)
	go func() {
		// 等待调度器拿到句柄的上下文
		for {
			s.mu.Lock()
			ready := s.stopping != nil
			s.mu.Unlock()
			if ready {
				break
			}
			time.Sleep(time.Millisecond)
		}
		_, err := s.RunNow("slow")
		done <- err
	}()
	<-started

	graceful.Shutdown()
	select {
	case <-cancelled:
		t.Fatal("job cancelled during graceful phase")
	case <-time.After(50 * time.Millisecond):
	}

	forceful.Shutdown()
	<-cancelled
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, graceful.WaitWithTimeout(time.Second))
	assert.Empty(t, forceful.WaitWithTimeout(time.Second))
}
