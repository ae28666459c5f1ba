package shutdown

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SlpAus/keyforge-decks-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestShutdownStopsServicesThenFinalizes(t *testing.T) {
	graceful := lifecycle.NewManager("graceful")
	forceful := lifecycle.NewManager("forceful")
	c := NewCoordinator(graceful, forceful)

	var steps []string
	require.NoError(t, graceful.Go("worker", func(h *lifecycle.Handle) {
		<-h.Done()
		steps = append(steps, "worker")
	}))
	watcher, err := forceful.NewServiceHandle("watcher")
	require.NoError(t, err)
	defer watcher.Close()
	c.OnFinish("email", func() { steps = append(steps, "email") })
	c.OnFinish("db", func() { steps = append(steps, "db") })

	srv := httptest.NewUnstartedServer(http.NotFoundHandler())
	srv.Start()
	defer srv.Close()

	c.Shutdown(srv.Config)

	assert.Equal(t, []string{"worker", "email", "db"}, steps)
	assert.NoError(t, watcher.Ctx().Err(), "no forceful phase when every service stopped in time")
}
