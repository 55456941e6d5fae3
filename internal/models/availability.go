package models

import "time"

// TimeRange is a wall-clock interval within one day, in the mentor's
// timezone. Start and End are "HH:mm" strings, Start < End.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UnavailableDate is a full-day blackout overriding the weekly pattern.
type UnavailableDate struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Reason string `json:"reason,omitempty"`
}

// AvailabilityProfile is a mentor's recurring weekly schedule. Weekly maps
// day-of-week to an ordered sequence of disjoint ranges interpreted in
// Timezone. The whole document is replaced on update.
type AvailabilityProfile struct {
	MentorID            string                        `json:"mentor_id"`
	Weekly              map[time.Weekday][]TimeRange  `json:"weekly"`
	Timezone            string                        `json:"timezone"`
	SlotDurationMinutes int                           `json:"slot_duration_minutes"`
	UnavailableDates    []UnavailableDate             `json:"unavailable_dates,omitempty"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

// HasRanges reports whether any weekday carries at least one range.
func (p *AvailabilityProfile) HasRanges() bool {
	for _, ranges := range p.Weekly {
		if len(ranges) > 0 {
			return true
		}
	}
	return false
}

// IsUnavailable reports whether date (YYYY-MM-DD) is blacked out.
func (p *AvailabilityProfile) IsUnavailable(date string) bool {
	for _, d := range p.UnavailableDates {
		if d.Date == date {
			return true
		}
	}
	return false
}
