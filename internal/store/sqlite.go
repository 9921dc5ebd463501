package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/mess-cli/internal/store/migrations"
	_ "modernc.org/sqlite"
)

// NewSQLiteStore creates a SQLite-backed run store at the given path.
func NewSQLiteStore(dsn string) (RunStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}

	dir := filepath.Dir(dsn)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	if err := runSQLiteMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &sqlRunStore{db: db, rebind: noRebind}, nil
}

func runSQLiteMigrations(db *sql.DB) error {
	data, err := migrations.SQLite.ReadFile("sqlite/001_init.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	_, err = db.Exec(string(data))
	if err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}
