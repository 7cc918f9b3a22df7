package archive

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

type shardRow struct {
	username string
	message  string
	ts       time.Time
	system   bool
}

// createShard builds a shard fixture the way the ingestion pipeline lays
// them out: a messages table plus an optional metadata table.
func createShard(t *testing.T, dir, name, platformMeta string, rows []shardRow) string {
	t.Helper()

	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE messages (
		username TEXT NOT NULL,
		message TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		is_system_message INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)

	if platformMeta != "" {
		_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT)`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO metadata (key, value) VALUES ('platform', ?)`, platformMeta)
		require.NoError(t, err)
	}

	for _, r := range rows {
		_, err = db.Exec(
			`INSERT INTO messages (username, message, timestamp, is_system_message) VALUES (?, ?, ?, ?)`,
			r.username, r.message, r.ts, r.system,
		)
		require.NoError(t, err)
	}
	return path
}
