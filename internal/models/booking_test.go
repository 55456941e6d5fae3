package models

import (
	"testing"
	"time"
)

func TestBookingOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	b := &Booking{
		StartTime: base,
		EndTime:   base.Add(30 * time.Minute),
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical interval", base, base.Add(30 * time.Minute), true},
		{"candidate ends at booking start", base.Add(-30 * time.Minute), base, false},
		{"candidate starts at booking end", base.Add(30 * time.Minute), base.Add(60 * time.Minute), false},
		{"partial overlap front", base.Add(-15 * time.Minute), base.Add(15 * time.Minute), true},
		{"partial overlap back", base.Add(15 * time.Minute), base.Add(45 * time.Minute), true},
		{"candidate contains booking", base.Add(-15 * time.Minute), base.Add(45 * time.Minute), true},
		{"disjoint before", base.Add(-2 * time.Hour), base.Add(-90 * time.Minute), false},
		{"disjoint after", base.Add(2 * time.Hour), base.Add(150 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestBookingCounterpart(t *testing.T) {
	b := &Booking{MentorID: "mentor-1", MenteeID: "mentee-1"}

	if got := b.Counterpart("mentor-1"); got != "mentee-1" {
		t.Errorf("Counterpart(mentor) = %q, want mentee-1", got)
	}
	if got := b.Counterpart("mentee-1"); got != "mentor-1" {
		t.Errorf("Counterpart(mentee) = %q, want mentor-1", got)
	}
	if got := b.Counterpart("stranger"); got != "" {
		t.Errorf("Counterpart(stranger) = %q, want empty", got)
	}
	if b.Participant("stranger") {
		t.Error("Participant(stranger) = true, want false")
	}
}
