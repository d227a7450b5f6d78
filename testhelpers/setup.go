package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/server"
	"github.com/standardbeagle/usersoap/internal/service"
	"github.com/standardbeagle/usersoap/internal/store"
)

// TestServer is a running UserServer with a client pointed at it
type TestServer struct {
	Server  *server.UserServer
	Service *service.Service
	Store   store.Store
	Client  *server.Client
}

// StartTestServer opens the store described by cfg, starts a server on it and
// registers cleanup that shuts both down
func StartTestServer(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Store)
	require.NoError(t, err)
	_, err = st.Load(ctx)
	require.NoError(t, err)

	svc := service.New(st)
	srv := server.NewUserServer(cfg.Server, svc, nil)
	require.NoError(t, srv.Start())

	client := server.NewClient(srv.Addr())
	t.Cleanup(func() {
		client.CloseIdleConnections()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = st.Close()
	})

	require.NoError(t, client.WaitForReady(5*time.Second))
	return &TestServer{Server: srv, Service: svc, Store: st, Client: client}
}

// WaitFor waits for a condition to become true with timeout
// Usage:
//
//	testhelpers.WaitFor(t, func() bool {
//	    return recorder.Len() > 0
//	}, 5*time.Second)
func WaitFor(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within %v", timeout)
			return
		}
	}
}
