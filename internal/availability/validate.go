// Package availability validates mentor availability profiles before they
// are stored. Weekly ranges are wall-clock "HH:mm" intervals in the
// mentor's timezone; a range whose length is not a whole multiple of the
// slot duration is rejected outright rather than truncated.
package availability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mentorbook/internal/models"
)

// ValidationError describes why a profile was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the profile against the storage contract. It returns a
// *ValidationError on the first violation found.
func Validate(p *models.AvailabilityProfile) error {
	if p.MentorID == "" {
		return &ValidationError{Field: "mentor_id", Reason: "required"}
	}
	if p.Timezone == "" {
		return &ValidationError{Field: "timezone", Reason: "required"}
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return &ValidationError{Field: "timezone", Reason: fmt.Sprintf("unknown IANA timezone %q", p.Timezone)}
	}
	if p.SlotDurationMinutes <= 0 {
		return &ValidationError{Field: "slot_duration_minutes", Reason: "must be positive"}
	}

	for day, ranges := range p.Weekly {
		if day < time.Sunday || day > time.Saturday {
			return &ValidationError{Field: "weekly", Reason: fmt.Sprintf("invalid day of week %d", day)}
		}
		if err := validateDay(day, ranges, p.SlotDurationMinutes); err != nil {
			return err
		}
	}

	for _, d := range p.UnavailableDates {
		if _, err := time.Parse("2006-01-02", d.Date); err != nil {
			return &ValidationError{Field: "unavailable_dates", Reason: fmt.Sprintf("invalid date %q; expected YYYY-MM-DD", d.Date)}
		}
	}

	return nil
}

func validateDay(day time.Weekday, ranges []models.TimeRange, slotMinutes int) error {
	field := fmt.Sprintf("weekly.%s", strings.ToLower(day.String()))

	type span struct{ start, end int }
	spans := make([]span, 0, len(ranges))

	for _, r := range ranges {
		start, err := ParseClock(r.Start)
		if err != nil {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("bad start %q: %v", r.Start, err)}
		}
		end, err := ParseClock(r.End)
		if err != nil {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("bad end %q: %v", r.End, err)}
		}
		if start >= end {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("range %s-%s: start must be before end", r.Start, r.End)}
		}
		if (end-start)%slotMinutes != 0 {
			return &ValidationError{Field: field, Reason: fmt.Sprintf(
				"range %s-%s is not a whole multiple of the %d-minute slot duration", r.Start, r.End, slotMinutes)}
		}
		spans = append(spans, span{start, end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return &ValidationError{Field: field, Reason: "ranges overlap"}
		}
	}
	return nil
}

// ParseClock parses "HH:mm" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:mm")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute %q", parts[1])
	}
	return hour*60 + minute, nil
}
