package docker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
)

// fakeEngine serves just enough of the engine API for one exec round trip.
// The exec-start connection is hijacked, emits one partial stdout frame, and
// then stalls until the test finishes, imitating a hung CLI command.
func fakeEngine(t *testing.T, partial string) *httptest.Server {
	t.Helper()
	stall := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/containers/detee-cli/json"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"Id":"abc123def456789","State":{"Running":true}}`)
		case strings.HasSuffix(r.URL.Path, "/containers/detee-cli/exec"):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"Id":"exec123"}`)
		case strings.HasSuffix(r.URL.Path, "/exec/exec123/start"):
			conn, _, err := w.(http.Hijacker).Hijack()
			if err != nil {
				t.Errorf("hijack failed: %v", err)
				return
			}
			defer conn.Close()
			fmt.Fprint(conn, "HTTP/1.1 101 UPGRADED\r\n"+
				"Content-Type: application/vnd.docker.raw-stream\r\n"+
				"Connection: Upgrade\r\nUpgrade: tcp\r\n\r\n")
			// One multiplexed stdout frame, then silence.
			frame := append([]byte{1, 0, 0, 0, 0, 0, 0, byte(len(partial))}, partial...)
			_, _ = conn.Write(frame)
			<-stall
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(func() {
		close(stall)
		srv.Close()
	})
	return srv
}

func newTestAdapter(t *testing.T, srv *httptest.Server, timeout time.Duration) *Adapter {
	t.Helper()
	cli, err := client.NewClientWithOpts(
		client.WithHost("tcp://"+srv.Listener.Addr().String()),
		client.WithVersion("1.43"),
	)
	require.NoError(t, err)
	return &Adapter{
		cli:       cli,
		container: "detee-cli",
		image:     "detee/detee-cli:latest",
		timeout:   timeout,
		log:       zerolog.Nop(),
	}
}

func TestExecTimesOutOnHungCommand(t *testing.T) {
	srv := fakeEngine(t, "partial out")
	a := newTestAdapter(t, srv, 200*time.Millisecond)

	start := time.Now()
	_, err := a.Exec(context.Background(), "detee-cli vm list")
	elapsed := time.Since(start)

	require.Error(t, err)
	derr := domain.AsError(err)
	assert.Equal(t, domain.ErrCommandTimeout, derr.Kind)
	assert.Contains(t, derr.Detail, "partial out", "partial output must surface for diagnostics")
	assert.Less(t, elapsed, 2*time.Second, "Exec must return promptly after the timeout")
}

func TestExecNotReadyWithoutExecution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/containers/detee-cli/json") {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"Id":"abc123def456789","State":{"Running":false}}`)
			return
		}
		t.Errorf("unexpected engine call: %s", r.URL.Path)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	a := newTestAdapter(t, srv, time.Second)

	_, err := a.Exec(context.Background(), "detee-cli --version")
	require.Error(t, err)
	assert.Equal(t, domain.ErrContainerNotReady, domain.KindOf(err))
}
