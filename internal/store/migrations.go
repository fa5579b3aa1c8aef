package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "decay_events: append-only degradation history",
		SQL: `
CREATE TABLE decay_events (
    id          INTEGER PRIMARY KEY,
    capability  TEXT NOT NULL,
    decay_type  TEXT NOT NULL CHECK (decay_type IN ('approximate', 'stub', 'delete')),
    old_level   INTEGER NOT NULL,
    new_level   INTEGER NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_decay_capability ON decay_events(capability);
CREATE INDEX idx_decay_created    ON decay_events(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "safety_checks: safety classification history",
		SQL: `
CREATE TABLE safety_checks (
    id               INTEGER PRIMARY KEY,
    status           TEXT NOT NULL CHECK (status IN ('normal', 'caution', 'warning', 'critical', 'emergency')),
    message          TEXT NOT NULL,
    active_count     INTEGER NOT NULL,
    essential_count  INTEGER NOT NULL,
    intervention     INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL
);

CREATE INDEX idx_checks_created ON safety_checks(created_at DESC);
`,
	},
	{
		Version:     3,
		Description: "snapshots: periodic health snapshots",
		SQL: `
CREATE TABLE snapshots (
    id          INTEGER PRIMARY KEY,
    total       INTEGER NOT NULL,
    active      INTEGER NOT NULL,
    degraded    INTEGER NOT NULL,
    deleted     INTEGER NOT NULL,
    health      REAL NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_snapshots_created ON snapshots(created_at DESC);
`,
	},
}

func (j *Journal) migrate() error {
	_, err := j.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := j.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := j.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (j *Journal) SchemaVersion() (int, error) {
	var version int
	err := j.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
