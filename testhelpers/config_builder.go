// Package testhelpers provides shared utilities for testing usersoap
package testhelpers

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/usersoap/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configs with safe defaults.
// Usage:
//
//	cfg := testhelpers.NewTestConfigBuilder(t.TempDir()).
//		WithBackend(config.BackendSQLite).
//		Build()
type TestConfigBuilder struct {
	cfg *config.Config
}

// NewTestConfigBuilder creates a builder whose file store lives in dataDir
// and whose server listens on an ephemeral loopback port
func NewTestConfigBuilder(dataDir string) *TestConfigBuilder {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeoutMs = 2000
	cfg.Store.Path = filepath.Join(dataDir, config.DefaultDataFile)
	cfg.Store.Watch = false
	cfg.Log.Level = "error"
	return &TestConfigBuilder{cfg: cfg}
}

// WithBackend selects the store backend. sqlite keeps its database next to
// the file store path.
func (b *TestConfigBuilder) WithBackend(backend string) *TestConfigBuilder {
	b.cfg.Store.Backend = backend
	if backend == config.BackendSQLite {
		b.cfg.Store.Path = strings.TrimSuffix(b.cfg.Store.Path, ".json") + ".db"
	}
	return b
}

// WithDSN sets the store connection string
func (b *TestConfigBuilder) WithDSN(dsn string) *TestConfigBuilder {
	b.cfg.Store.DSN = dsn
	return b
}

// WithMaxBodyBytes sets the request body limit
func (b *TestConfigBuilder) WithMaxBodyBytes(n int64) *TestConfigBuilder {
	b.cfg.Server.MaxBodyBytes = n
	return b
}

// WithWatch toggles the data file watcher
func (b *TestConfigBuilder) WithWatch(on bool) *TestConfigBuilder {
	b.cfg.Store.Watch = on
	return b
}

// Build returns the config, validated
func (b *TestConfigBuilder) Build() *config.Config {
	cfg := *b.cfg
	if err := config.NewValidator().ValidateAndSetDefaults(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
