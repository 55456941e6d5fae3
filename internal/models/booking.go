package models

import "time"

// BookingStatus is the primary lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// CalendarSyncStatus tracks the external-calendar side effect, independent
// of the booking status.
type CalendarSyncStatus string

const (
	SyncPending      CalendarSyncStatus = "pending"
	SyncSynced       CalendarSyncStatus = "synced"
	SyncFailed       CalendarSyncStatus = "failed"
	SyncNotConnected CalendarSyncStatus = "not_connected"
	SyncCancelled    CalendarSyncStatus = "cancelled"
)

// ProfileSnapshot is a participant's profile summary captured at booking
// time. It is intentionally stale: later profile edits do not flow back
// into existing bookings.
type ProfileSnapshot struct {
	Name          string `json:"name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	ContactHandle string `json:"contact_handle,omitempty"`
}

// Booking represents one reservation of a mentor's slot by a mentee.
// StartTime and EndTime are UTC instants; Timezone is the mentor's IANA
// timezone as captured at creation and never updated afterwards.
type Booking struct {
	ID                 string             `json:"id"`
	MentorID           string             `json:"mentor_id"`
	MenteeID           string             `json:"mentee_id"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            time.Time          `json:"end_time"`
	Timezone           string             `json:"timezone"`
	Status             BookingStatus      `json:"status"`
	CalendarEventID    string             `json:"calendar_event_id,omitempty"`
	CalendarSyncStatus CalendarSyncStatus `json:"calendar_sync_status"`
	CancelledBy        string             `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	MentorSnapshot     ProfileSnapshot    `json:"mentor_snapshot"`
	MenteeSnapshot     ProfileSnapshot    `json:"mentee_snapshot"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Overlaps reports whether the booking's interval intersects [start, end).
// Both intervals are half-open: a booking ending exactly at start does not
// overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// IsConfirmed reports whether the booking still holds its slot.
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Participant reports whether userID is the booking's mentor or mentee.
func (b *Booking) Participant(userID string) bool {
	return userID == b.MentorID || userID == b.MenteeID
}

// Counterpart returns the other participant's ID, or "" if userID is not
// a participant.
func (b *Booking) Counterpart(userID string) string {
	switch userID {
	case b.MentorID:
		return b.MenteeID
	case b.MenteeID:
		return b.MentorID
	}
	return ""
}
