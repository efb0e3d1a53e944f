package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

//go:embed migrations
var migrationFS embed.FS

// migrate executes the embedded migrations of the dialect at most once per file.
func (db *DB) migrate(ctx context.Context) (err error) {
	dir := db.Dialect.migrationDir()

	defer func() {
		if err != nil {
			db.log.ErrorContext(ctx, "migration failed", "error", err)
		}
	}()

	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)

	unlock := db.LockWrites()
	defer unlock()

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
		name TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		if err := db.applyMigration(ctx, path.Join(dir, file)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}

func (db *DB) applyMigration(ctx context.Context, name string) error {
	applied, err := db.isApplied(ctx, name)
	if err != nil {
		return fmt.Errorf("check applied: %w", err)
	} else if applied {
		return nil
	}

	content, err := fs.ReadFile(migrationFS, name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	upSQL := extractUpMigration(string(content))
	if strings.TrimSpace(upSQL) == "" {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if _, err := tx.ExecContext(ctx, upSQL); err != nil {
		return errors.Join(fmt.Errorf("exec: %w", err), tx.Rollback())
	}

	insert := fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES (%s, %s)",
		migrationTable, db.Dialect.Placeholder(1), db.Dialect.Placeholder(2))
	if _, err := tx.ExecContext(ctx, insert, name, time.Now().UTC().UnixMilli()); err != nil {
		return errors.Join(fmt.Errorf("record: %w", err), tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	db.log.InfoContext(ctx, "migration applied", "migration", name)

	return nil
}

func (db *DB) isApplied(ctx context.Context, name string) (bool, error) {
	var found int

	query := "SELECT 1 FROM " + migrationTable + " WHERE name = " + db.Dialect.Placeholder(1)

	err := db.QueryRowContext(ctx, query, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, err //nolint:wrapcheck
	}

	return true, nil
}

// extractUpMigration returns the SQL in the "-- +migrate Up" section.
func extractUpMigration(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"

	upIdx := strings.Index(content, up)
	if upIdx == -1 {
		return content
	}

	content = content[upIdx+len(up):]
	if downIdx := strings.Index(content, down); downIdx != -1 {
		content = content[:downIdx]
	}

	return content
}
