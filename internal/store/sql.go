package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/debug"
	usererrors "github.com/standardbeagle/usersoap/internal/errors"
	"github.com/standardbeagle/usersoap/internal/types"
)

// Dialect selects the SQL driver and placeholder style
type Dialect string

const (
	DialectSQLite   Dialect = config.BackendSQLite
	DialectPostgres Dialect = config.BackendPostgres
)

// DriverName returns the database/sql driver registered for the dialect
func (d Dialect) DriverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// PlaceholderFormat returns the bind style used by the dialect
//   - sq.Question: ? placeholder (SQLite)
//   - sq.Dollar: $1, $2 placeholders (PostgreSQL)
func (d Dialect) PlaceholderFormat() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

const usersTable = "users"

// position keeps the collection order, since ids are not guaranteed unique
const createUsersTable = `CREATE TABLE IF NOT EXISTS users (
	position INTEGER NOT NULL,
	id INTEGER NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	age INTEGER NOT NULL
)`

// insertBatchSize bounds the bind variables per INSERT well under SQLite's limit
const insertBatchSize = 500

// SQLStore keeps the collection as rows of a users table. Save replaces every
// row inside one transaction, preserving the whole-collection semantics.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

// OpenSQL connects to dsn and ensures the users table exists
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, dialect.DriverName(), dsn)
	if err != nil {
		return nil, usererrors.NewStorageError("open", usersTable, err).WithBackend(string(dialect))
	}
	if dialect == DialectSQLite {
		// One writer at a time; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, createUsersTable); err != nil {
		db.Close()
		return nil, usererrors.NewStorageError("open", usersTable, err).WithBackend(string(dialect))
	}

	debug.LogStore("opened %s store", dialect)
	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an existing connection whose schema is already in place
func NewSQLStore(db *sqlx.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.PlaceholderFormat()),
	}
}

// Backend implements Store
func (s *SQLStore) Backend() string {
	return string(s.dialect)
}

// Load implements Store
func (s *SQLStore) Load(ctx context.Context) ([]types.User, error) {
	start := time.Now()

	query, args, err := s.builder.
		Select("id", "name", "email", "age").
		From(usersTable).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, s.fail(ctx, "load", start, err)
	}

	users := []types.User{}
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, s.fail(ctx, "load", start, err)
	}

	emitCompleted(ctx, "load", s.Backend(), usersTable, len(users), start)
	return users, nil
}

// Save implements Store
func (s *SQLStore) Save(ctx context.Context, users []types.User) error {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "save", start, err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.builder.Delete(usersTable).ToSql()
	if err != nil {
		return s.fail(ctx, "save", start, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return s.fail(ctx, "save", start, err)
	}

	for offset := 0; offset < len(users); offset += insertBatchSize {
		end := min(offset+insertBatchSize, len(users))

		insert := s.builder.Insert(usersTable).Columns("position", "id", "name", "email", "age")
		for i, u := range users[offset:end] {
			insert = insert.Values(offset+i, u.ID, u.Name, u.Email, u.Age)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return s.fail(ctx, "save", start, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return s.fail(ctx, "save", start, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail(ctx, "save", start, err)
	}

	emitCompleted(ctx, "save", s.Backend(), usersTable, len(users), start)
	return nil
}

// Close releases the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) fail(ctx context.Context, op string, start time.Time, err error) error {
	storageErr := usererrors.NewStorageError(op, usersTable, err).WithBackend(s.Backend())
	emitFailed(ctx, op, s.Backend(), usersTable, start, storageErr)
	return fmt.Errorf("%s store: %w", s.dialect, storageErr)
}
