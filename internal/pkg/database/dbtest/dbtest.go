// Package dbtest opens migrated in-memory SQLite databases for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/artgallery/gallery-api/internal/pkg/database"
)

var seq atomic.Int64

// New returns a fresh, fully migrated SQLite database that is closed
// when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	// Named shared-cache memory DB so every test gets its own schema
	dsn := fmt.Sprintf("file:gallery_test_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := database.Open("sqlite3", dsn)
	require.NoError(t, err, "failed to open sqlite")

	_, err = database.NewMigrator(db).Run(context.Background())
	require.NoError(t, err, "failed to migrate sqlite")

	t.Cleanup(func() { db.Close() })
	return db
}
