package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mentorbook/internal/models"
)

// GetAvailability assembles a mentor's availability profile, or returns
// nil if the mentor has not published one.
func (db *DB) GetAvailability(ctx context.Context, mentorID string) (*models.AvailabilityProfile, error) {
	var p models.AvailabilityProfile
	err := db.QueryRowContext(ctx, `
		SELECT mentor_id, timezone, slot_duration, updated_at
		FROM availability_profiles WHERE mentor_id = ?`,
		mentorID,
	).Scan(&p.MentorID, &p.Timezone, &p.SlotDurationMinutes, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Weekly = make(map[time.Weekday][]models.TimeRange)
	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, start_time, end_time
		FROM availability_ranges
		WHERE mentor_id = ?
		ORDER BY day_of_week, start_time`,
		mentorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day int
		var r models.TimeRange
		if err := rows.Scan(&day, &r.Start, &r.End); err != nil {
			return nil, err
		}
		weekday := time.Weekday(day)
		p.Weekly[weekday] = append(p.Weekly[weekday], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dateRows, err := db.QueryContext(ctx, `
		SELECT date, reason FROM unavailable_dates
		WHERE mentor_id = ? ORDER BY date`,
		mentorID,
	)
	if err != nil {
		return nil, err
	}
	defer dateRows.Close()
	for dateRows.Next() {
		var d models.UnavailableDate
		if err := dateRows.Scan(&d.Date, &d.Reason); err != nil {
			return nil, err
		}
		p.UnavailableDates = append(p.UnavailableDates, d)
	}
	return &p, dateRows.Err()
}

// ReplaceAvailability stores the profile, replacing any previous document
// for the mentor in one transaction.
func (db *DB) ReplaceAvailability(ctx context.Context, p *models.AvailabilityProfile) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO availability_profiles (mentor_id, timezone, slot_duration, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mentor_id) DO UPDATE SET
			timezone = excluded.timezone,
			slot_duration = excluded.slot_duration,
			updated_at = excluded.updated_at`,
		p.MentorID, p.Timezone, p.SlotDurationMinutes, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM availability_ranges WHERE mentor_id = ?", p.MentorID); err != nil {
		return fmt.Errorf("clear ranges: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM unavailable_dates WHERE mentor_id = ?", p.MentorID); err != nil {
		return fmt.Errorf("clear unavailable dates: %w", err)
	}

	for day, ranges := range p.Weekly {
		for _, r := range ranges {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO availability_ranges (mentor_id, day_of_week, start_time, end_time)
				VALUES (?, ?, ?, ?)`,
				p.MentorID, int(day), r.Start, r.End,
			)
			if err != nil {
				return fmt.Errorf("insert range: %w", err)
			}
		}
	}

	for _, d := range p.UnavailableDates {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO unavailable_dates (mentor_id, date, reason)
			VALUES (?, ?, ?)`,
			p.MentorID, d.Date, d.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert unavailable date: %w", err)
		}
	}

	return tx.Commit()
}
