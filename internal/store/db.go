// Package store provides the optional sqlite run journal. Rows are
// append-only and written for post-run inspection; a run never reads
// prior journal state back into the registry.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Journal wraps a sql.DB connection to the lethe journal database.
type Journal struct {
	*sql.DB
	Path string
}

// DefaultPath returns the default journal path: ~/.lethe/lethe.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".lethe", "lethe.db"), nil
}

// Open opens (or creates) the journal database at the given path,
// configures pragmas, and runs migrations.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	j := &Journal{DB: sqlDB, Path: path}
	if err := j.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := j.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

// OpenMemory opens an in-memory journal for testing.
func OpenMemory() (*Journal, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}

	j := &Journal{DB: sqlDB, Path: ":memory:"}
	if err := j.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := j.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

func (j *Journal) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := j.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}
