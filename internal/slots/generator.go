// Package slots turns a mentor's weekly availability into concrete
// bookable intervals. Generation is a pure function of its inputs: the
// caller supplies the profile, the query window, the confirmed bookings
// to subtract and the current time.
package slots

import (
	"fmt"
	"sort"
	"time"

	"mentorbook/internal/availability"
	"mentorbook/internal/models"
)

// Slot is one open bookable interval. Start and End are UTC instants;
// Display renders the interval in the mentor's timezone.
type Slot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Display string    `json:"display"`
}

// Policy bounds how far into the future slots are offered.
type Policy struct {
	MinAdvance time.Duration
	MaxAdvance time.Duration
}

// Generate emits all open slots for dates in [from, to), interpreted as
// calendar dates in the mentor's timezone. Slots overlapping a confirmed
// booking, starting before now+MinAdvance or after now+MaxAdvance are
// dropped. Results are in chronological order.
//
// Daylight-saving policy: a wall-clock slot start that does not exist
// (spring-forward gap) is skipped; an ambiguous wall-clock time
// (fall-back repeat) resolves to its first occurrence.
func Generate(profile *models.AvailabilityProfile, from, to time.Time, booked []models.Booking, now time.Time, pol Policy) ([]Slot, error) {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", profile.Timezone, err)
	}

	slotDur := time.Duration(profile.SlotDurationMinutes) * time.Minute
	if slotDur <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d minutes", profile.SlotDurationMinutes)
	}

	notBefore := now.Add(pol.MinAdvance)
	notAfter := now.Add(pol.MaxAdvance)

	// from and to carry calendar dates; only their Y/M/D components are
	// used, interpreted in the mentor's timezone.
	var out []Slot
	for d := civilDate(from); d.before(civilDate(to)); d = d.next() {
		if profile.IsUnavailable(d.String()) {
			continue
		}

		weekday := time.Date(d.year, d.month, d.day, 12, 0, 0, 0, loc).Weekday()
		ranges := profile.Weekly[weekday]

		for _, r := range ranges {
			startMin, err := availability.ParseClock(r.Start)
			if err != nil {
				return nil, fmt.Errorf("range start %q: %w", r.Start, err)
			}
			endMin, err := availability.ParseClock(r.End)
			if err != nil {
				return nil, fmt.Errorf("range end %q: %w", r.End, err)
			}

			for m := startMin; m+profile.SlotDurationMinutes <= endMin; m += profile.SlotDurationMinutes {
				slotStart, ok := resolveWallClock(d, m, loc)
				if !ok {
					continue // nonexistent wall-clock time (DST gap)
				}
				slotEnd := slotStart.Add(slotDur)

				startUTC := slotStart.UTC()
				endUTC := slotEnd.UTC()

				if startUTC.Before(notBefore) || startUTC.After(notAfter) {
					continue
				}
				if overlapsAny(startUTC, endUTC, booked) {
					continue
				}

				out = append(out, Slot{
					Start:   startUTC,
					End:     endUTC,
					Display: formatDisplay(slotStart, slotEnd),
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// resolveWallClock maps minutes-since-midnight on a calendar date to an
// instant in loc. It returns ok=false when the wall-clock time does not
// exist there (spring-forward gap). For ambiguous times time.Date yields
// the first occurrence, which is the documented policy.
func resolveWallClock(d civil, minutes int, loc *time.Location) (time.Time, bool) {
	t := time.Date(d.year, d.month, d.day, minutes/60, minutes%60, 0, 0, loc)
	if t.Hour()*60+t.Minute() != minutes || t.Day() != d.day {
		return time.Time{}, false
	}
	return t, true
}

func overlapsAny(start, end time.Time, booked []models.Booking) bool {
	for i := range booked {
		b := &booked[i]
		if b.Status != models.StatusConfirmed {
			continue
		}
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func formatDisplay(start, end time.Time) string {
	return fmt.Sprintf("%s – %s", start.Format("Mon, 02 Jan 2006 15:04"), end.Format("15:04 MST"))
}

// civil is a timezone-free calendar date.
type civil struct {
	year  int
	month time.Month
	day   int
}

func civilDate(t time.Time) civil {
	y, m, d := t.Date()
	return civil{y, m, d}
}

func (c civil) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.year, c.month, c.day)
}

func (c civil) next() civil {
	return civilDate(time.Date(c.year, c.month, c.day+1, 12, 0, 0, 0, time.UTC))
}

func (c civil) before(o civil) bool {
	if c.year != o.year {
		return c.year < o.year
	}
	if c.month != o.month {
		return c.month < o.month
	}
	return c.day < o.day
}
