package kvstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/newhook/issuerun/internal/logging"
	cosignal "github.com/newhook/issuerun/internal/signal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one versioned schema change read from migrations/NNN_name.sql.
type Migration struct {
	Version string
	Name    string
	UpSQL   string
	DownSQL string
}

// RunMigrations applies all pending migrations from the embedded migrationsFS.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrationsForFS(ctx, db, migrationsFS)
}

func runMigrationsForFS(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := readMigrations(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		// Signals are held until the migration commits or rolls back.
		cosignal.BlockSignals()
		logging.Info("applying migration", "version", m.Version, "name", m.Name)
		err := applyMigration(ctx, db, m)
		cosignal.UnblockSignals()
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
	}
	return nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func readMigrations(fsys fs.FS) ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		// e.g. "001_kv.sql"
		filename := path.Base(p)
		parts := strings.SplitN(strings.TrimSuffix(filename, ".sql"), "_", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid migration filename: %s", filename)
		}

		up, down := splitSections(string(content))
		migrations = append(migrations, Migration{
			Version: parts[0],
			Name:    parts[1],
			UpSQL:   up,
			DownSQL: down,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// splitSections separates the "-- +up" and "-- +down" halves of a migration file.
func splitSections(content string) (up, down string) {
	var upLines, downLines []string
	var section *[]string

	for _, line := range strings.Split(content, "\n") {
		switch strings.TrimSpace(line) {
		case "-- +up":
			section = &upLines
			continue
		case "-- +down":
			section = &downLines
			continue
		}
		if section != nil {
			*section = append(*section, line)
		}
	}
	return strings.Join(upLines, "\n"), strings.Join(downLines, "\n")
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Migration files hold plain DDL without string literals, so splitting
	// on semicolons is enough.
	for _, stmt := range strings.Split(m.UpSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
