package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/service"
	"github.com/standardbeagle/usersoap/internal/store"
	"github.com/standardbeagle/usersoap/internal/types"
	"github.com/standardbeagle/usersoap/internal/version"
)

func testServerConfig() config.Server {
	cfg := config.Default().Server
	cfg.Addr = "127.0.0.1:0"
	return cfg
}

func newTestServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	srv := NewUserServer(testServerConfig(), service.New(st), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postSOAP(t *testing.T, url, payload string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url+"/soap", "text/xml", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHandleSOAP_CreateThenGet(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	resp, body := postSOAP(t, ts.URL, `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>
<CreateUserRequest><name>Ana</name><email>a@x.io</email><age>30</age></CreateUserRequest>
</soap:Body></soap:Envelope>`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/xml"))
	assert.Contains(t, body, "<CreateUserResponse>")
	assert.Contains(t, body, "<success>true</success>")
	assert.Contains(t, body, "<id>1</id>")

	_, body = postSOAP(t, ts.URL, `<GetUserRequest><id>1</id></GetUserRequest>`)
	assert.Contains(t, body, "<name>Ana</name>")
	assert.Contains(t, body, "<age>30</age>")
}

func TestHandleSOAP_DomainFailuresAre200(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	tests := []struct {
		name     string
		payload  string
		contains string
	}{
		{"get missing user", `<GetUserRequest><id>5</id></GetUserRequest>`, "<error>User not found</error>"},
		{"update missing user", `<UpdateUserRequest><id>5</id></UpdateUserRequest>`, "<success>false</success>"},
		{"delete missing user", `<DeleteUserRequest><id>5</id></DeleteUserRequest>`, "<message>User deleted successfully</message>"},
		{"unknown operation", `<FrobnicateRequest/>`, "<message>Unknown operation</message>"},
		{"not xml", `hello`, "<Error>"},
		{"empty body", ``, "<Error>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postSOAP(t, ts.URL, tt.payload)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.contains)
			assert.Contains(t, body, "</soap:Envelope>")
		})
	}
}

func TestHandleSOAP_StorageFailureFaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))
	ts := newTestServer(t, store.NewFileStore(path))

	resp, body := postSOAP(t, ts.URL, `<GetAllUsersRequest/>`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/xml"))
	assert.Contains(t, body, "<faultcode>soap:Server</faultcode>")
	assert.NotContains(t, body, path)
}

func TestHandleSOAP_BodyLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxBodyBytes = 64
	srv := NewUserServer(cfg, service.New(store.NewMemoryStore()), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	payload := `<CreateUserRequest><name>` + strings.Repeat("x", 200) + `</name></CreateUserRequest>`
	resp, body := postSOAP(t, ts.URL, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<faultcode>soap:Client</faultcode>")
	assert.Contains(t, body, "request body exceeds 64 bytes")
}

func TestHandleSOAP_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/soap")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleRoot(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info RootResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, RootMessage, info.Message)
	assert.Len(t, info.Operations, len(types.Operations))

	missing, err := http.Get(ts.URL + "/nothing-here")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHandleStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ts := newTestServer(t, store.NewFileStore(path))
	client := NewClient(ts.URL)
	defer client.CloseIdleConnections()

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Ready)
	assert.Equal(t, 0, status.UserCount)
	assert.Equal(t, "file", status.Backend)
	assert.Len(t, status.Revision, 16)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	_, err = client.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAccessLog(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	srv := NewUserServer(testServerConfig(), service.New(store.NewMemoryStore()), logger)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, logs.String(), "path=/ping")
	assert.Contains(t, logs.String(), "status=200")
}

func TestUserServer_Lifecycle(t *testing.T) {
	st := store.NewMemoryStore()
	// Warm up store event emission before taking the goroutine snapshot
	_, err := st.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), nil))

	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := NewUserServer(testServerConfig(), service.New(st), nil)
	require.NoError(t, srv.Start())
	assert.Error(t, srv.Start(), "second start must fail")

	client := NewClient(srv.Addr())
	require.NoError(t, client.WaitForReady(5*time.Second))

	ping, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, version.Version, ping.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client.CloseIdleConnections()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, srv.Shutdown(ctx), "shutdown is idempotent")

	assert.False(t, client.IsServerRunning(context.Background()))
}

func TestUserServer_StartFailsOnBusyAddress(t *testing.T) {
	first := NewUserServer(testServerConfig(), service.New(store.NewMemoryStore()), nil)
	require.NoError(t, first.Start())
	defer first.Shutdown(context.Background())

	cfg := testServerConfig()
	cfg.Addr = first.Addr()
	second := NewUserServer(cfg, service.New(store.NewMemoryStore()), nil)
	err := second.Start()
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
	assert.Empty(t, second.Addr())
}
