package store

import (
	"fmt"
	"time"

	"github.com/lazypower/lethe/internal/decay"
	"github.com/lazypower/lethe/internal/introspect"
	"github.com/lazypower/lethe/internal/safety"
)

// RecordDecay appends one decay event.
func (j *Journal) RecordDecay(ev decay.Event) error {
	_, err := j.Exec(`
		INSERT INTO decay_events (capability, decay_type, old_level, new_level, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.Capability, ev.Type, ev.OldLevel, ev.NewLevel, ev.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record decay event: %w", err)
	}
	return nil
}

// RecordCheck appends one safety check.
func (j *Journal) RecordCheck(c safety.Check) error {
	intervention := 0
	if c.InterventionNeeded {
		intervention = 1
	}
	_, err := j.Exec(`
		INSERT INTO safety_checks (status, message, active_count, essential_count, intervention, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(c.Status), c.Message, c.ActiveCount, c.EssentialCount, intervention, c.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record safety check: %w", err)
	}
	return nil
}

// RecordSnapshot appends one health snapshot.
func (j *Journal) RecordSnapshot(s introspect.State) error {
	_, err := j.Exec(`
		INSERT INTO snapshots (total, active, degraded, deleted, health, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Total, s.Active, s.Degraded, s.Deleted, s.Health, s.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// DecayEvents returns the most recent events, newest first. A limit of
// 0 returns everything.
func (j *Journal) DecayEvents(limit int) ([]decay.Event, error) {
	query := `
		SELECT capability, decay_type, old_level, new_level, created_at
		FROM decay_events ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decay events: %w", err)
	}
	defer rows.Close()

	var events []decay.Event
	for rows.Next() {
		var ev decay.Event
		var ts int64
		if err := rows.Scan(&ev.Capability, &ev.Type, &ev.OldLevel, &ev.NewLevel, &ts); err != nil {
			return nil, fmt.Errorf("scan decay event: %w", err)
		}
		ev.Timestamp = time.UnixMilli(ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Checks returns the most recent safety checks, newest first. A limit
// of 0 returns everything.
func (j *Journal) Checks(limit int) ([]safety.Check, error) {
	query := `
		SELECT status, message, active_count, essential_count, intervention, created_at
		FROM safety_checks ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query safety checks: %w", err)
	}
	defer rows.Close()

	var checks []safety.Check
	for rows.Next() {
		var c safety.Check
		var status string
		var intervention int
		var ts int64
		if err := rows.Scan(&status, &c.Message, &c.ActiveCount, &c.EssentialCount, &intervention, &ts); err != nil {
			return nil, fmt.Errorf("scan safety check: %w", err)
		}
		c.Status = safety.Status(status)
		c.InterventionNeeded = intervention != 0
		c.Timestamp = time.UnixMilli(ts)
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// Snapshots returns the most recent snapshots, newest first. A limit of
// 0 returns everything.
func (j *Journal) Snapshots(limit int) ([]introspect.State, error) {
	query := `
		SELECT total, active, degraded, deleted, health, created_at
		FROM snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var states []introspect.State
	for rows.Next() {
		var s introspect.State
		var ts int64
		if err := rows.Scan(&s.Total, &s.Active, &s.Degraded, &s.Deleted, &s.Health, &ts); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Timestamp = time.UnixMilli(ts)
		states = append(states, s)
	}
	return states, rows.Err()
}
