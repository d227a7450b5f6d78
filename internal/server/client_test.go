package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/usersoap/internal/service"
	"github.com/standardbeagle/usersoap/internal/soap"
	"github.com/standardbeagle/usersoap/internal/store"
	"github.com/standardbeagle/usersoap/internal/types"
)

func TestBaseURL(t *testing.T) {
	tests := map[string]string{
		":8000":                  "http://localhost:8000",
		"127.0.0.1:9000":         "http://127.0.0.1:9000",
		"http://example.com:80/": "http://example.com:80",
		"https://users.local":    "https://users.local",
	}
	for in, want := range tests {
		assert.Equal(t, want, BaseURL(in), in)
	}
}

func TestClient_CallAndList(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())
	client := NewClient(ts.URL)
	defer client.CloseIdleConnections()
	ctx := context.Background()

	envelope, err := client.Call(ctx, soap.CreateUserRequest{
		Name: soap.String("Ana"), Email: soap.String("a@x.io"), Age: soap.Int(30),
	})
	require.NoError(t, err)
	assert.Contains(t, envelope, "<CreateUserResponse>")

	_, err = client.Call(ctx, soap.CreateUserRequest{
		Name: soap.String("Leo & Co"), Email: soap.String("l@x.io"), Age: soap.Int(25),
	})
	require.NoError(t, err)

	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.User{
		{ID: 1, Name: "Ana", Email: "a@x.io", Age: 30},
		{ID: 2, Name: "Leo & Co", Email: "l@x.io", Age: 25},
	}, users)
}

func TestClient_FaultIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("[1, 2]"), 0o644))
	ts := newTestServer(t, store.NewFileStore(path))
	client := NewClient(ts.URL)
	defer client.CloseIdleConnections()

	_, err := client.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, soap.ErrFault))
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Info(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())
	client := NewClient(ts.URL)
	defer client.CloseIdleConnections()

	info, err := client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RootMessage, info.Message)
}

func TestClient_Unreachable(t *testing.T) {
	client := NewClient("127.0.0.1:1")
	assert.False(t, client.IsServerRunning(context.Background()))

	_, err := client.CallRaw(context.Background(), "<GetAllUsersRequest/>")
	require.Error(t, err)
}

func TestClient_ClientFaultIsError(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxBodyBytes = 64
	ts := httptest.NewServer(NewUserServer(cfg, service.New(store.NewMemoryStore()), nil).Handler())
	defer ts.Close()
	client := NewClient(ts.URL)
	defer client.CloseIdleConnections()

	_, err := client.CallRaw(context.Background(), `<CreateUserRequest><name>`+strings.Repeat("x", 200)+`</name></CreateUserRequest>`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, soap.ErrFault))
	assert.Contains(t, err.Error(), "soap:Client")
}
