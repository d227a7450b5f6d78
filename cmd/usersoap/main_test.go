package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/server"
	"github.com/standardbeagle/usersoap/internal/types"
	"github.com/standardbeagle/usersoap/testhelpers"
)

// runApp runs the CLI with args and returns what it wrote to stdout
func runApp(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.RunContext(ctx, append([]string{"usersoap"}, args...))
	return out.String(), err
}

// noConfig points --config at a file that does not exist so defaults apply
func noConfig(t *testing.T) []string {
	return []string{"--config", filepath.Join(t.TempDir(), "missing.kdl")}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestInitCreatesEmptyFileStore(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "users.json")

	out, err := runApp(t, context.Background(), append(noConfig(t), "init", "--data", dataPath)...)
	require.NoError(t, err)
	assert.Contains(t, out, "file store ready at "+dataPath+" (0 users)")

	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestInitKeepsExistingUsers(t *testing.T) {
	dataPath := testhelpers.NewUserDataBuilder().
		AddUser("Ana", "ana@x.io", 30).
		AddUser("Leo", "leo@x.io", 41).
		WriteFile(t, t.TempDir())

	out, err := runApp(t, context.Background(), append(noConfig(t), "init", "--data", dataPath)...)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 users)")
}

func TestInitSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	out, err := runApp(t, context.Background(), append(noConfig(t), "init", "--backend", "sqlite", "--data", dbPath)...)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite store ready")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInitRejectsUnknownBackend(t *testing.T) {
	_, err := runApp(t, context.Background(), append(noConfig(t), "init", "--backend", "redis")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestInitUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "usersoap.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[store]\nbackend = \"file\"\npath = \"people.json\"\n"), 0644))

	_, err := runApp(t, context.Background(), "--config", configPath, "init")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "people.json"))
	assert.NoError(t, err)
}

func TestCallSuggestsClosestOperation(t *testing.T) {
	_, err := runApp(t, context.Background(), "call", "--op", "GetUsr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "GetUser"`)
}

func TestCallRejectsNegativeValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative id", []string{"--op", "GetUser", "--id=-1"}, "--id must not be negative"},
		{"negative age", []string{"--op", "CreateUser", "--name", "Ana", "--age=-5"}, "--age must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Unreachable address: the flags must be rejected before any request is sent
			args := append([]string{"call", "--addr", "127.0.0.1:1"}, tt.args...)
			_, err := runApp(t, context.Background(), args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDebugTracingGoesToStderr(t *testing.T) {
	t.Setenv("DEBUG", "1")
	t.Cleanup(func() { debug.SetDebugOutput(nil) })

	dataPath := filepath.Join(t.TempDir(), "users.json")

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	require.NoError(t, app.Run(append([]string{"usersoap"}, append(noConfig(t), "init", "--data", dataPath)...)...))

	assert.Contains(t, stdout.String(), "file store ready")
	assert.Contains(t, stderr.String(), "[DEBUG:STORE] data file "+dataPath+" missing")
	assert.NotContains(t, stdout.String(), "[DEBUG:")
}

func TestDebugTracingOffByDefault(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Cleanup(func() { debug.SetDebugOutput(nil) })

	var stderr bytes.Buffer
	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = &stderr
	require.NoError(t, app.Run(append([]string{"usersoap"}, append(noConfig(t), "init", "--data", filepath.Join(t.TempDir(), "users.json"))...)...))

	assert.NotContains(t, stderr.String(), "[DEBUG:")
}

func TestServeCallList(t *testing.T) {
	addr := freeAddr(t)
	dataPath := filepath.Join(t.TempDir(), "users.json")

	args := append([]string{"usersoap"}, noConfig(t)...)
	args = append(args, "serve", "--addr", addr, "--data", dataPath)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		app := newApp()
		app.Writer = io.Discard
		app.ErrWriter = io.Discard
		serveErr <- app.RunContext(ctx, args)
	}()

	client := server.NewClient(addr)
	defer client.CloseIdleConnections()
	require.NoError(t, client.WaitForReady(5*time.Second))

	out, err := runApp(t, context.Background(), "call", "--addr", addr, "--op", "CreateUser",
		"--name", "Ana", "--email", "ana@x.io", "--age", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "<CreateUserResponse>")
	assert.Contains(t, out, "<success>true</success>")

	out, err = runApp(t, context.Background(), "call", "--addr", addr, "--op", "GetUser", "--id", "99")
	require.NoError(t, err)
	assert.Contains(t, out, "<error>User not found</error>")

	out, err = runApp(t, context.Background(), "list", "--addr", addr, "--json")
	require.NoError(t, err)
	var users []types.User
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	assert.Equal(t, []types.User{{ID: 1, Name: "Ana", Email: "ana@x.io", Age: 30}}, users)

	out, err = runApp(t, context.Background(), "list", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "ana@x.io")

	cancel()
	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}

	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Ana"`)
}

func TestListTable(t *testing.T) {
	dir := t.TempDir()
	testhelpers.NewUserDataBuilder().
		AddUser("Ana", "ana@x.io", 30).
		AddUser("Leo", "leo@x.io", 41).
		WriteFile(t, dir)
	ts := testhelpers.StartTestServer(t, testhelpers.NewTestConfigBuilder(dir).Build())

	out, err := runApp(t, context.Background(), "list", "--addr", ts.Server.Addr())
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "leo@x.io")
}

func TestListEmpty(t *testing.T) {
	ts := testhelpers.StartTestServer(t, testhelpers.NewTestConfigBuilder(t.TempDir()).Build())

	out, err := runApp(t, context.Background(), "list", "--addr", ts.Server.Addr())
	require.NoError(t, err)
	assert.Equal(t, "No users\n", out)
}
