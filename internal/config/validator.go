package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	usererrors "github.com/standardbeagle/usersoap/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Every failing section is reported, not only the first.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setSmartDefaults(cfg)

	var errs []error
	if err := v.validateServerConfig(&cfg.Server); err != nil {
		errs = append(errs, usererrors.NewConfigError("server", cfg.Server.Addr, err))
	}
	if err := v.validateStoreConfig(&cfg.Store); err != nil {
		errs = append(errs, usererrors.NewConfigError("store", cfg.Store.Backend, err))
	}
	if err := v.validateLogConfig(&cfg.Log); err != nil {
		errs = append(errs, usererrors.NewConfigError("log", cfg.Log.Level, err))
	}

	return usererrors.NewMultiError(errs).ErrorOrNil()
}

// validateServerConfig validates HTTP server configuration
func (v *Validator) validateServerConfig(server *Server) error {
	if server.Addr == "" {
		return errors.New("server addr cannot be empty")
	}
	if server.ReadTimeoutMs < 0 || server.WriteTimeoutMs < 0 || server.ShutdownTimeoutMs < 0 {
		return errors.New("server timeouts cannot be negative")
	}
	if server.MaxBodyBytes < 0 {
		return fmt.Errorf("MaxBodyBytes must not be negative, got %d", server.MaxBodyBytes)
	}
	return nil
}

// validateStoreConfig validates record store configuration
func (v *Validator) validateStoreConfig(store *Store) error {
	if !slices.Contains(Backends, store.Backend) {
		return fmt.Errorf("unknown store backend %q (expected one of %v)", store.Backend, Backends)
	}

	switch store.Backend {
	case BackendFile:
		if store.Path == "" {
			return errors.New("file backend requires a path")
		}
	case BackendSQLite:
		if store.Path == "" && store.DSN == "" {
			return errors.New("sqlite backend requires a path or dsn")
		}
	case BackendPostgres:
		if store.DSN == "" {
			return errors.New("postgres backend requires a dsn")
		}
	}
	return nil
}

// validateLogConfig validates logging configuration
func (v *Validator) validateLogConfig(log *Log) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", log.Level, err)
	}
	if log.Format != "text" && log.Format != "json" {
		return fmt.Errorf("log format must be text or json, got %q", log.Format)
	}
	return nil
}

// setSmartDefaults fills zero values left by partial config files
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = DefaultWriteTimeoutMs
	}
	if cfg.Server.ShutdownTimeoutMs == 0 {
		cfg.Server.ShutdownTimeoutMs = DefaultShutdownTimeoutMs
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFile
	}
	if cfg.Store.Backend == BackendFile && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultDataFile
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
