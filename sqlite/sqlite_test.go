package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/pagecap/sqlite"
	"github.com/stretchr/testify/require"
)

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		// Verify the runs table exists with the expected columns by
		// inserting and reading back a full row.
		ctx := context.Background()

		_, err = db.ExecContext(ctx, `
			INSERT INTO runs (id, source_url, title, path, pages, ocr, byte_size, created_at)
			VALUES ('r1', 'https://example.com', 'Example', '/captures/x.pdf', 3, 1, 1024, '2026-01-02T03:04:05Z')
		`)
		require.NoError(t, err)

		var runCount int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&runCount)
		require.NoError(t, err)
		require.Equal(t, 1, runCount)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		err := db.Open()
		require.Error(t, err)
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/test.db"
		db := sqlite.NewDB(dbPath)
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		ctx := context.Background()
		var journalMode string
		err = db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})
}
