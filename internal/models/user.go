package models

import "time"

// User is a minimal profile record. The engine reads it for existence
// checks, booking snapshots and notification routing; profile management
// itself lives outside the engine.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	ContactHandle  string    `json:"contact_handle,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	CalendarToken  string    `json:"-"` // serialized OAuth token; empty means no calendar connected
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Snapshot captures the display summary embedded into bookings.
func (u *User) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		ContactHandle: u.ContactHandle,
	}
}
