package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a migrated in-memory SQLite database for testing.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations(context.Background())
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
