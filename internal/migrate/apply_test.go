package migrate

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openSQLite opens a file-backed database that is closed at test end.
func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "toyshare.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeMigration(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const createToys = `CREATE TABLE toys (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
--> statement-breakpoint
CREATE INDEX toys_name_idx ON toys (name);`

// TestSplit verifies breakpoint splitting and blank-piece removal.
func TestSplit(t *testing.T) {
	got := Split("CREATE TABLE a (id int);\n--> statement-breakpoint\n\n--> statement-breakpoint\nCREATE TABLE b (id int);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id int);", "CREATE TABLE b (id int);"}, got)
	assert.Empty(t, Split("  \n"))
}

// TestList verifies lexical ordering and that non-SQL entries are
// ignored.
func TestList(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0001_users.sql", "")
	writeMigration(t, dir, "0000_toys.sql", "")
	writeMigration(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "meta"), 0o755))

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "0000_toys.sql", files[0].Name)
	assert.Equal(t, "0001_users.sql", files[1].Name)

	files, err = List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

// TestApply_SQLite applies migrations against a real database and
// verifies a second run is a no-op.
func TestApply_SQLite(t *testing.T) {
	db := openSQLite(t)
	dir := t.TempDir()
	writeMigration(t, dir, "0000_toys.sql", createToys)
	writeMigration(t, dir, "0001_seed.sql", "INSERT INTO toys (name) VALUES ('kite');")

	ctx := context.Background()
	applied, err := Apply(ctx, db, DialectSQLite, dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"0000_toys.sql", "0001_seed.sql"}, applied)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM toys").Scan(&count))
	assert.Equal(t, 1, count)

	applied, err = Apply(ctx, db, DialectSQLite, dir, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM toys").Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+TrackingTable).Scan(&count))
	assert.Equal(t, 2, count)
}

// TestApply_FailureRollsBackFile verifies a failing file leaves neither
// its statements nor its tracking row behind, and earlier files stay
// applied.
func TestApply_FailureRollsBackFile(t *testing.T) {
	db := openSQLite(t)
	dir := t.TempDir()
	writeMigration(t, dir, "0000_toys.sql", createToys)
	writeMigration(t, dir, "0001_broken.sql", "CREATE TABLE owners (id INTEGER);\n--> statement-breakpoint\nINSERT INTO nowhere VALUES (1);")

	applied, err := Apply(context.Background(), db, DialectSQLite, dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_broken.sql statement 2")
	assert.Equal(t, []string{"0000_toys.sql"}, applied)

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'owners'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+TrackingTable).Scan(&count))
	assert.Equal(t, 1, count)
}

// TestPlaceholder verifies bind syntax per dialect.
func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", DialectPostgres.placeholder(1))
	assert.Equal(t, "?", DialectMySQL.placeholder(1))
	assert.Equal(t, "?", DialectSQLite.placeholder(2))
}
