package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mentorbook/internal/models"
)

const bookingColumns = `id, mentor_id, mentee_id, start_time, end_time, timezone,
	status, calendar_event_id, calendar_sync_status,
	cancelled_by, cancelled_at, cancellation_reason,
	mentor_name, mentor_avatar, mentor_contact,
	mentee_name, mentee_avatar, mentee_contact,
	created_at, updated_at`

// CreateBooking inserts the booking if no confirmed booking for the same
// mentor overlaps [StartTime, EndTime). The overlap check and the insert
// run inside one write transaction, so two concurrent callers racing for
// the same interval cannot both succeed; the loser gets ErrConflict.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE mentor_id = ? AND status = ?
		  AND start_time < ? AND end_time > ?`,
		b.MentorID, models.StatusConfirmed, b.EndTime.UTC(), b.StartTime.UTC(),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("conflict query: %w", err)
	}
	if count > 0 {
		return ErrConflict
	}

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, mentor_id, mentee_id, start_time, end_time, timezone,
			status, calendar_event_id, calendar_sync_status,
			cancelled_by, cancellation_reason,
			mentor_name, mentor_avatar, mentor_contact,
			mentee_name, mentee_avatar, mentee_contact,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.MentorID, b.MenteeID, b.StartTime.UTC(), b.EndTime.UTC(), b.Timezone,
		b.Status, b.CalendarEventID, b.CalendarSyncStatus,
		b.CancelledBy, b.CancellationReason,
		b.MentorSnapshot.Name, b.MentorSnapshot.AvatarURL, b.MentorSnapshot.ContactHandle,
		b.MenteeSnapshot.Name, b.MenteeSnapshot.AvatarURL, b.MenteeSnapshot.ContactHandle,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	return tx.Commit()
}

// GetBooking returns a booking by ID, or nil if it does not exist.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// BookingFilter selects bookings for listing.
type BookingFilter struct {
	UserID string
	Role   string // "mentor" or "mentee"
	Status models.BookingStatus // empty means all
}

// ListBookings returns the user's bookings ordered by start time.
func (db *DB) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE `
	args := []any{filter.UserID}
	switch filter.Role {
	case "mentor":
		query += "mentor_id = ?"
	case "mentee":
		query += "mentee_id = ?"
	default:
		query += "(mentor_id = ? OR mentee_id = ?)"
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY start_time ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListConfirmedBookings returns the mentor's confirmed bookings whose
// interval intersects [from, to), the slot generator's subtraction input.
func (db *DB) ListConfirmedBookings(ctx context.Context, mentorID string, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE mentor_id = ? AND status = ?
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC`,
		mentorID, models.StatusConfirmed, to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListAllBookings returns every booking ordered by start time, for the
// admin export.
func (db *DB) ListAllBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY start_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CancelBooking marks a confirmed booking cancelled. It reports whether
// the row transitioned; false means the booking was already cancelled.
// The guard on status makes the confirmed->cancelled transition the only
// one possible, regardless of retries.
func (db *DB) CancelBooking(ctx context.Context, id, cancelledBy, reason string, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, cancelled_by = ?, cancelled_at = ?, cancellation_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.StatusCancelled, cancelledBy, at.UTC(), reason, time.Now().UTC(),
		id, models.StatusConfirmed,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateCalendarSync records the outcome of a calendar side effect. Only
// the sync axis changes; booking status is untouched.
func (db *DB) UpdateCalendarSync(ctx context.Context, id string, status models.CalendarSyncStatus, eventID string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET calendar_sync_status = ?, calendar_event_id = ?, updated_at = ?
		WHERE id = ?`,
		status, eventID, time.Now().UTC(), id,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var cancelledAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.MentorID, &b.MenteeID, &b.StartTime, &b.EndTime, &b.Timezone,
		&b.Status, &b.CalendarEventID, &b.CalendarSyncStatus,
		&b.CancelledBy, &cancelledAt, &b.CancellationReason,
		&b.MentorSnapshot.Name, &b.MentorSnapshot.AvatarURL, &b.MentorSnapshot.ContactHandle,
		&b.MenteeSnapshot.Name, &b.MenteeSnapshot.AvatarURL, &b.MenteeSnapshot.ContactHandle,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return &b, nil
}
