package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/debug"
	usererrors "github.com/standardbeagle/usersoap/internal/errors"
	"github.com/standardbeagle/usersoap/internal/types"
)

// FileStore keeps the collection as an indented JSON array in a single file.
// Writes go through a temp file and rename so readers never see a partial array.
type FileStore struct {
	path string

	mu       sync.Mutex
	lastHash uint64 // xxhash of the bytes last read or written
	hashed   bool
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the data file location
func (s *FileStore) Path() string {
	return s.path
}

// Backend implements Store
func (s *FileStore) Backend() string {
	return config.BackendFile
}

// Load reads the collection. A missing file is initialized to an empty array.
func (s *FileStore) Load(ctx context.Context) ([]types.User, error) {
	start := time.Now()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		debug.LogStore("data file %s missing, initializing empty collection", s.path)
		if err := s.write(ctx, []types.User{}, start); err != nil {
			return nil, err
		}
		emitCompleted(ctx, "load", s.Backend(), s.path, 0, start)
		return []types.User{}, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "load", start, usererrors.NewStorageError("load", s.path, err))
	}

	users, err := decodeUsers(data)
	if err != nil {
		return nil, s.fail(ctx, "load", start, usererrors.NewMalformedError(s.path, err))
	}

	s.remember(xxhash.Sum64(data))
	emitCompleted(ctx, "load", s.Backend(), s.path, len(users), start)
	return users, nil
}

// Save replaces the file contents with users
func (s *FileStore) Save(ctx context.Context, users []types.User) error {
	start := time.Now()
	if err := s.write(ctx, users, start); err != nil {
		return err
	}
	emitCompleted(ctx, "save", s.Backend(), s.path, len(users), start)
	return nil
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}

// Revision returns the hash of the data last read or written, or "" if the
// file has not been touched yet
func (s *FileStore) Revision() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hashed {
		return ""
	}
	return fmt.Sprintf("%016x", s.lastHash)
}

// matchesLast reports whether data is what this store last read or wrote
func (s *FileStore) matchesLast(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hashed && s.lastHash == xxhash.Sum64(data)
}

func (s *FileStore) remember(hash uint64) {
	s.mu.Lock()
	s.lastHash = hash
	s.hashed = true
	s.mu.Unlock()
}

func (s *FileStore) write(ctx context.Context, users []types.User, start time.Time) error {
	data, err := encodeUsers(users)
	if err != nil {
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}
	if err := tmp.Close(); err != nil {
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}

	// The watcher may see the rename before we return, so record the hash first
	s.mu.Lock()
	prevHash, prevHashed := s.lastHash, s.hashed
	s.lastHash, s.hashed = xxhash.Sum64(data), true
	s.mu.Unlock()

	if err := os.Rename(tmpName, s.path); err != nil {
		s.mu.Lock()
		s.lastHash, s.hashed = prevHash, prevHashed
		s.mu.Unlock()
		return s.fail(ctx, "save", start, usererrors.NewStorageError("save", s.path, err))
	}

	debug.LogStore("wrote %d users (%d bytes) to %s", len(users), len(data), s.path)
	return nil
}

func (s *FileStore) fail(ctx context.Context, op string, start time.Time, err *usererrors.StorageError) error {
	err.WithBackend(s.Backend())
	emitFailed(ctx, op, s.Backend(), s.path, start, err)
	return err
}
