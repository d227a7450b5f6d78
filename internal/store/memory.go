package store

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/types"
)

// MemoryStore keeps the collection in process memory. Data is copied on the
// way in and out so callers never share a slice with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	users []types.User
}

// NewMemoryStore creates a memory store seeded with users
func NewMemoryStore(users ...types.User) *MemoryStore {
	return &MemoryStore{users: types.CloneUsers(users)}
}

// Backend implements Store
func (m *MemoryStore) Backend() string {
	return config.BackendMemory
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context) ([]types.User, error) {
	start := time.Now()
	m.mu.RLock()
	users := types.CloneUsers(m.users)
	m.mu.RUnlock()

	emitCompleted(ctx, "load", m.Backend(), "memory", len(users), start)
	return users, nil
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, users []types.User) error {
	start := time.Now()
	m.mu.Lock()
	m.users = types.CloneUsers(users)
	m.mu.Unlock()

	emitCompleted(ctx, "save", m.Backend(), "memory", len(users), start)
	return nil
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}
