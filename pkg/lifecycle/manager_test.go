package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServicesStopOnShutdown(t *testing.T) {
	m := NewManager("test")

	stopped := make(chan struct{})
	require.NoError(t, m.Go("sleeper", func(h *Handle) {
		for {
			if err := h.Sleep(time.Hour); err != nil {
				close(stopped)
				return
			}
		}
	}))

	m.Shutdown()
	assert.Empty(t, m.WaitWithTimeout(time.Second))
	<-stopped
}

func TestDuplicateServiceRejected(t *testing.T) {
	m := NewManager("test")
	h, err := m.NewServiceHandle("a")
	require.NoError(t, err)

	_, err = m.NewServiceHandle("a")
	assert.Error(t, err)

	h.Close()
	h.Close()
	assert.Empty(t, m.WaitWithTimeout(time.Second))
}

func TestWaitReportsStuckServices(t *testing.T) {
	m := NewManager("test")
	h, err := m.NewServiceHandle("stuck")
	require.NoError(t, err)

	m.Shutdown()
	assert.Equal(t, []string{"stuck"}, m.WaitWithTimeout(20*time.Millisecond))

	h.Close()
	assert.Empty(t, m.WaitWithTimeout(time.Second))
}

func TestRegisterAfterShutdownFails(t *testing.T) {
	m := NewManager("test")
	m.Shutdown()

	_, err := m.NewServiceHandle("late")
	assert.Error(t, err)
}

func TestSleepCompletes(t *testing.T) {
	m := NewManager("test")
	h, err := m.NewServiceHandle("s")
	require.NoError(t, err)
	defer h.Close()

	assert.NoError(t, h.Sleep(time.Millisecond))
}
