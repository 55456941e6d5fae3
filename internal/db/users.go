package db

import (
	"context"
	"database/sql"
	"time"

	"mentorbook/internal/models"
)

// GetUser returns a user by ID, or nil if not found.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, name, avatar_url, contact_handle, telegram_chat_id, calendar_token,
		       created_at, updated_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.AvatarURL, &u.ContactHandle, &u.TelegramChatID,
		&u.CalendarToken, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates or updates a user record.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, avatar_url, contact_handle, telegram_chat_id, calendar_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			avatar_url = excluded.avatar_url,
			contact_handle = excluded.contact_handle,
			telegram_chat_id = excluded.telegram_chat_id,
			calendar_token = excluded.calendar_token,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, u.AvatarURL, u.ContactHandle, u.TelegramChatID, u.CalendarToken,
		time.Now().UTC(), time.Now().UTC(),
	)
	return err
}

// CalendarToken returns the mentor's stored OAuth token, or "" when no
// external calendar is connected.
func (db *DB) CalendarToken(ctx context.Context, userID string) (string, error) {
	var token string
	err := db.QueryRowContext(ctx,
		"SELECT calendar_token FROM users WHERE id = ?", userID,
	).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SetCalendarToken stores or clears a user's calendar OAuth token.
func (db *DB) SetCalendarToken(ctx context.Context, userID, token string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET calendar_token = ?, updated_at = ? WHERE id = ?",
		token, time.Now().UTC(), userID,
	)
	return err
}
