package sqlite

import (
	"context"
	"fmt"
)

// Bookings and recurring rules are never deleted: cancellation flips a flag
// so history stays intact. The partial unique index on (room_id, start_time)
// is the storage-level backstop for two concurrent creates of the identical
// slot that both passed the read-based conflict check.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		disabled    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		notes      TEXT,
		room_id    TEXT NOT NULL REFERENCES rooms(id),
		owner_id   TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time   TEXT NOT NULL,
		cancelled  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_time > start_time)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_room_slot
		ON bookings(room_id, start_time) WHERE cancelled = 0`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_room_window
		ON bookings(room_id, start_time, end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_owner
		ON bookings(owner_id, cancelled, end_time)`,
	`CREATE TABLE IF NOT EXISTS recurring_rules (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		notes        TEXT,
		room_id      TEXT NOT NULL REFERENCES rooms(id),
		owner_id     TEXT NOT NULL,
		weekday      INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		start_minute INTEGER NOT NULL,
		end_minute   INTEGER NOT NULL,
		cancelled    INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		CHECK (end_minute > start_minute)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rules_room
		ON recurring_rules(room_id, cancelled)`,
	`CREATE TABLE IF NOT EXISTS rule_exceptions (
		rule_id    TEXT NOT NULL REFERENCES recurring_rules(id),
		date       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (rule_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS blocked_ranges (
		id         TEXT PRIMARY KEY,
		room_id    TEXT NOT NULL REFERENCES rooms(id),
		start_time TEXT NOT NULL,
		end_time   TEXT NOT NULL,
		reason     TEXT,
		created_at TEXT NOT NULL,
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blocked_room_window
		ON blocked_ranges(room_id, start_time, end_time)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		id                         TEXT PRIMARY KEY CHECK (id = 'default'),
		granularity_minutes        INTEGER NOT NULL,
		max_advance_days           INTEGER NOT NULL,
		max_booking_duration_hours INTEGER NOT NULL,
		max_active_bookings        INTEGER NOT NULL,
		updated_at                 TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent, so running Migrate
// on every startup is safe.
func (p *Pool) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
