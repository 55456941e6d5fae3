// Package db implements the engine's repositories on top of sqlite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrConflict is returned when a booking insert loses to an existing
// confirmed booking for the same mentor and an overlapping interval.
var ErrConflict = errors.New("booking interval conflict")

// DB wraps sql.DB for the booking engine.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations. BeginTx is mapped
// to BEGIN IMMEDIATE so write transactions take the write lock up front;
// together with the busy timeout this serializes concurrent bookers.
func NewDB(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Users (engine-side view: snapshots, notification routing, calendar tokens)
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			contact_handle TEXT NOT NULL DEFAULT '',
			telegram_chat_id INTEGER NOT NULL DEFAULT 0,
			calendar_token TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Availability profiles (one per mentor, whole-document replace)
		`CREATE TABLE IF NOT EXISTS availability_profiles (
			mentor_id TEXT PRIMARY KEY,
			timezone TEXT NOT NULL,
			slot_duration INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (mentor_id) REFERENCES users(id)
		)`,

		// Weekly ranges, one row per (day, range)
		`CREATE TABLE IF NOT EXISTS availability_ranges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mentor_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			FOREIGN KEY (mentor_id) REFERENCES availability_profiles(mentor_id) ON DELETE CASCADE
		)`,

		// Full-day blackouts
		`CREATE TABLE IF NOT EXISTS unavailable_dates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mentor_id TEXT NOT NULL,
			date TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (mentor_id) REFERENCES availability_profiles(mentor_id) ON DELETE CASCADE
		)`,

		// Bookings. Times are UTC instants; timezone is the mentor's IANA
		// zone frozen at creation. Never hard-deleted.
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			mentor_id TEXT NOT NULL,
			mentee_id TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			timezone TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			calendar_event_id TEXT NOT NULL DEFAULT '',
			calendar_sync_status TEXT NOT NULL DEFAULT 'pending',
			cancelled_by TEXT NOT NULL DEFAULT '',
			cancelled_at DATETIME,
			cancellation_reason TEXT NOT NULL DEFAULT '',
			mentor_name TEXT NOT NULL DEFAULT '',
			mentor_avatar TEXT NOT NULL DEFAULT '',
			mentor_contact TEXT NOT NULL DEFAULT '',
			mentee_name TEXT NOT NULL DEFAULT '',
			mentee_avatar TEXT NOT NULL DEFAULT '',
			mentee_contact TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (mentor_id) REFERENCES users(id),
			FOREIGN KEY (mentee_id) REFERENCES users(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_ranges_mentor_day ON availability_ranges(mentor_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_unavailable_mentor_date ON unavailable_dates(mentor_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_mentor_times ON bookings(mentor_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_mentee ON bookings(mentee_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
