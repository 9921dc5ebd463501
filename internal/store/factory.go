package store

import (
	"fmt"
	"strings"
)

// NewStore creates a run store based on the DSN.
// - postgres:// or postgresql://: PostgreSQL
// - Anything else: SQLite at the specified path
func NewStore(dsn string) (RunStore, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err := NewPostgresStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	}
	return NewSQLiteStore(dsn)
}
