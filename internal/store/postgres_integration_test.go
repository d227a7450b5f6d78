//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("usersoap_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestSQLStore_Postgres(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	s, err := OpenSQL(ctx, DialectPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()

	users, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.Save(ctx, sampleUsers()))
	users, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleUsers(), users)

	require.NoError(t, s.Save(ctx, sampleUsers()[1:]))
	users, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleUsers()[1:], users)
}

func TestSQLStore_PostgresExistingConnection(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	// Schema created by the first open is reused through a caller-owned connection
	first, err := OpenSQL(ctx, DialectPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, sampleUsers()))
	require.NoError(t, first.Close())

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	s := NewSQLStore(db, DialectPostgres)
	defer s.Close()

	users, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleUsers(), users)
}
