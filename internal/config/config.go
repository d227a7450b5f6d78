package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigFile is the config file looked up when no --config flag is given
const DefaultConfigFile = ".usersoap.kdl"

// Server defaults
const (
	DefaultAddr              = ":8000"
	DefaultReadTimeoutMs     = 5000
	DefaultWriteTimeoutMs    = 10000
	DefaultShutdownTimeoutMs = 10000
	DefaultMaxBodyBytes      = 1 << 20
)

// DefaultDataFile is where the file backend keeps the user collection
const DefaultDataFile = "users.json"

// Store backends
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Backends lists the supported store backends
var Backends = []string{BackendFile, BackendSQLite, BackendPostgres, BackendMemory}

type Config struct {
	Version   int       `toml:"version"`
	Server    Server    `toml:"server"`
	Store     Store     `toml:"store"`
	Log       Log       `toml:"log"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Server struct {
	Addr              string `toml:"addr"`
	ReadTimeoutMs     int    `toml:"read_timeout_ms"`
	WriteTimeoutMs    int    `toml:"write_timeout_ms"`
	ShutdownTimeoutMs int    `toml:"shutdown_timeout_ms"`
	MaxBodyBytes      int64  `toml:"max_body_bytes"` // Larger request bodies are rejected with 413
}

// ReadTimeout returns the read timeout as a duration
func (s Server) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout returns the write timeout as a duration
func (s Server) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

// ShutdownTimeout returns how long a graceful shutdown may take
func (s Server) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutMs) * time.Millisecond
}

type Store struct {
	Backend string `toml:"backend"` // "file", "sqlite", "postgres" or "memory"
	Path    string `toml:"path"`    // Data file for the file backend, database file for sqlite
	DSN     string `toml:"dsn"`     // Connection string for sqlite (overrides Path) and postgres
	Watch   bool   `toml:"watch"`   // Log external modifications of the data file (file backend only)
}

type Log struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

type Telemetry struct {
	Enabled bool `toml:"enabled"` // Record spans and metrics through the global OpenTelemetry providers
}

// Default returns the configuration used when no config file is present
func Default() *Config {
	return &Config{
		Version: 1,
		Server: Server{
			Addr:              DefaultAddr,
			ReadTimeoutMs:     DefaultReadTimeoutMs,
			WriteTimeoutMs:    DefaultWriteTimeoutMs,
			ShutdownTimeoutMs: DefaultShutdownTimeoutMs,
			MaxBodyBytes:      DefaultMaxBodyBytes,
		},
		Store: Store{
			Backend: BackendFile,
			Path:    DefaultDataFile,
			Watch:   true,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path, choosing the format by extension
// (.toml for TOML, anything else for KDL). A missing file yields defaults.
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	if path != "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			cfg, err = LoadTOML(path)
		default:
			cfg, err = LoadKDL(path)
		}
		if err != nil {
			return nil, err
		}
	}

	if cfg == nil {
		cfg = Default()
	} else {
		resolveStorePath(cfg, filepath.Dir(path))
	}

	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveStorePath makes a relative store path relative to the directory
// holding the config file
func resolveStorePath(cfg *Config, configDir string) {
	if cfg.Store.Path == "" || filepath.IsAbs(cfg.Store.Path) || configDir == "" || configDir == "." {
		return
	}
	cfg.Store.Path = filepath.Clean(filepath.Join(configDir, cfg.Store.Path))
}

// fileExists reports whether path names an existing file
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
