package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTOML_OverlaysDefaults(t *testing.T) {
	cfg, err := parseTOML([]byte(`
[server]
addr = ":9000"

[store]
backend = "Postgres"
dsn = "postgres://localhost/users"

[log]
format = "JSON"
`))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, DefaultReadTimeoutMs, cfg.Server.ReadTimeoutMs)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/users", cfg.Store.DSN)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseTOML_UnknownField(t *testing.T) {
	_, err := parseTOML([]byte(`
[server]
port = 8000
`))
	require.Error(t, err)
}

func TestLoadTOML_MissingFile(t *testing.T) {
	cfg, err := LoadTOML(filepath.Join(t.TempDir(), "usersoap.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDataFile, cfg.Store.Path)
}

func TestLoad_ResolvesStorePathRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usersoap.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\npath = \"data/users.json\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "users.json"), cfg.Store.Path)
}

func TestLoad_KeepsAbsoluteStorePath(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.json")
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("store {\n    path \""+filepath.ToSlash(abs)+"\"\n}\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(abs), filepath.Clean(cfg.Store.Path))
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("store {\n    backend \"redis\"\n}\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
