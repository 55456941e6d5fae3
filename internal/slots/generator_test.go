package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbook/internal/models"
)

var testPolicy = Policy{
	MinAdvance: 2 * time.Hour,
	MaxAdvance: 60 * 24 * time.Hour,
}

func utcProfile(duration int) *models.AvailabilityProfile {
	return &models.AvailabilityProfile{
		MentorID: "mentor-1",
		Timezone: "UTC",
		Weekly: map[time.Weekday][]models.TimeRange{
			time.Monday: {{Start: "09:00", End: "12:00"}},
		},
		SlotDurationMinutes: duration,
	}
}

func starts(slots []Slot) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestGenerateExcludesBookedSlot(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	booked := []models.Booking{{
		MentorID:  "mentor-1",
		Status:    models.StatusConfirmed,
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC),
	}}

	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), booked, now, testPolicy)
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 11, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(got))
}

func TestGenerateIgnoresCancelledBookings(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	booked := []models.Booking{{
		MentorID:  "mentor-1",
		Status:    models.StatusCancelled,
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC),
	}}

	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), booked, now, testPolicy)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestGenerateExcludesPartialOverlap(t *testing.T) {
	// A booking shifted off the slot grid must still block every slot it
	// intersects, not just exact matches.
	now := monday.AddDate(0, 0, -7)
	booked := []models.Booking{{
		MentorID:  "mentor-1",
		Status:    models.StatusConfirmed,
		StartTime: time.Date(2026, 9, 7, 9, 45, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 7, 10, 15, 0, 0, time.UTC),
	}}

	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), booked, now, testPolicy)
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 11, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(got))
}

func TestGenerateUnavailableDateOverride(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	p := utcProfile(30)
	p.UnavailableDates = []models.UnavailableDate{{Date: "2026-09-07", Reason: "vacation"}}

	got, err := Generate(p, monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateRejectsTrailingPartialIncrement(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	p := utcProfile(45) // 09:00-12:00 holds four 45-min slots exactly
	got, err := Generate(p, monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, time.Date(2026, 9, 7, 11, 15, 0, 0, time.UTC), got[3].Start)

	p = utcProfile(50) // 180 min / 50 min -> three slots, trailing 30 min dropped
	got, err = Generate(p, monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestGenerateAdvanceNoticeFilter(t *testing.T) {
	// now at 08:30 on the Monday itself: slots before 10:30 are inside the
	// 2-hour notice window and must be dropped.
	now := time.Date(2026, 9, 7, 8, 30, 0, 0, time.UTC)
	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 11, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, want, starts(got))
}

func TestGenerateAdvanceNoticeBoundaryInclusive(t *testing.T) {
	// A slot starting exactly at now+MinAdvance is offered.
	now := time.Date(2026, 9, 7, 7, 0, 0, 0, time.UTC)
	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), got[0].Start)
}

func TestGenerateHorizonFilter(t *testing.T) {
	// now such that Monday 09:00 sits beyond the 60-day horizon.
	now := monday.AddDate(0, 0, -61)
	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	assert.Empty(t, got)

	// At exactly 60 days out the 09:00 slot is still offered.
	now = time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC).Add(-60 * 24 * time.Hour)
	got, err = Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), got[0].Start)
}

func TestGenerateFullyFilteredDayYieldsZeroSlotsNotError(t *testing.T) {
	now := time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC)
	got, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateTimezoneConversion(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	p := utcProfile(30)
	p.Timezone = "Europe/Berlin" // CEST in September, UTC+2

	got, err := Generate(p, monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2026, 9, 7, 7, 0, 0, 0, time.UTC), got[0].Start)
	assert.Contains(t, got[0].Display, "09:00")
}

func TestGenerateSkipsSpringForwardGap(t *testing.T) {
	// 2026-03-08 is the US spring-forward Sunday: 02:00-03:00 does not
	// exist in America/New_York.
	p := &models.AvailabilityProfile{
		MentorID: "mentor-1",
		Timezone: "America/New_York",
		Weekly: map[time.Weekday][]models.TimeRange{
			time.Sunday: {{Start: "01:00", End: "04:00"}},
		},
		SlotDurationMinutes: 30,
	}
	day := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	now := day.AddDate(0, 0, -7)

	got, err := Generate(p, day, day.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)

	for _, s := range got {
		local := s.Start.In(mustLoc(t, "America/New_York"))
		assert.NotEqual(t, 2, local.Hour(), "gap slot %v must be skipped", s.Start)
	}
	// 01:00, 01:30 (EST) then 03:00, 03:30 (EDT); the 02:00 hour vanished.
	assert.Len(t, got, 4)
}

func TestGenerateAmbiguousFallBackResolvesToFirstOccurrence(t *testing.T) {
	// 2026-11-01 is the US fall-back Sunday: 01:00-02:00 occurs twice.
	// Policy: first occurrence, i.e. the EDT (UTC-4) instants.
	p := &models.AvailabilityProfile{
		MentorID: "mentor-1",
		Timezone: "America/New_York",
		Weekly: map[time.Weekday][]models.TimeRange{
			time.Sunday: {{Start: "01:00", End: "02:00"}},
		},
		SlotDurationMinutes: 30,
	}
	day := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	now := day.AddDate(0, 0, -7)

	got, err := Generate(p, day, day.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2026, 11, 1, 5, 0, 0, 0, time.UTC),  // 01:00 EDT
		time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC), // 01:30 EDT
	}
	assert.Equal(t, want, starts(got))
}

func TestGenerateChronologicalAcrossRangesAndDays(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	p := utcProfile(30)
	p.Weekly[time.Monday] = []models.TimeRange{
		{Start: "14:00", End: "15:00"},
		{Start: "09:00", End: "10:00"},
	}
	p.Weekly[time.Tuesday] = []models.TimeRange{{Start: "08:00", End: "09:00"}}

	got, err := Generate(p, monday, monday.AddDate(0, 0, 2), nil, now, testPolicy)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Start.Before(got[i].Start), "slots out of order at %d", i)
	}
}

func TestGenerateIsRestartable(t *testing.T) {
	now := monday.AddDate(0, 0, -7)
	first, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	second, err := Generate(utcProfile(30), monday, monday.AddDate(0, 0, 1), nil, now, testPolicy)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}
