package kvstore

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestSplitSections(t *testing.T) {
	up, down := splitSections("-- +up\nCREATE TABLE a (x INT);\n-- +down\nDROP TABLE a;\n")
	require.Contains(t, up, "CREATE TABLE a")
	require.NotContains(t, up, "DROP")
	require.Contains(t, down, "DROP TABLE a")
}

func TestReadMigrationsSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_second.sql": {Data: []byte("-- +up\nSELECT 2;\n")},
		"migrations/001_first.sql":  {Data: []byte("-- +up\nSELECT 1;\n")},
		"migrations/README":         {Data: []byte("ignored")},
	}

	migrations, err := readMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, "001", migrations[0].Version)
	require.Equal(t, "first", migrations[0].Name)
	require.Equal(t, "002", migrations[1].Version)
}

func TestReadMigrationsBadName(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/nounderscore.sql": {Data: []byte("-- +up\n")},
	}
	_, err := readMigrations(fsys)
	require.ErrorContains(t, err, "invalid migration filename")
}

func TestRunMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	require.Equal(t, 1, count)

	_, err = db.ExecContext(ctx, "INSERT INTO kv (key, value) VALUES ('k', 'v')")
	require.NoError(t, err)
}
