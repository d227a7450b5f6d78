// Package store persists the user collection. Every backend treats the
// collection as a single document: Load returns all records in order and
// Save replaces all of them.
package store

import (
	"context"
	"fmt"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/types"
)

// Store loads and replaces the whole user collection
type Store interface {
	// Load returns every persisted user in stored order. A backend with no
	// data yet returns an empty, non-nil slice.
	Load(ctx context.Context) ([]types.User, error)

	// Save replaces the persisted collection with users
	Save(ctx context.Context, users []types.User) error

	// Backend names the storage kind ("file", "sqlite", "postgres", "memory")
	Backend() string

	Close() error
}

// Fingerprinter is implemented by stores that can identify the revision of
// the data they last read or wrote
type Fingerprinter interface {
	Revision() string
}

// Open creates the store described by cfg
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path), nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Path
		}
		return OpenSQL(ctx, DialectSQLite, dsn)
	case config.BackendPostgres:
		return OpenSQL(ctx, DialectPostgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
