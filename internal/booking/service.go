// Package booking is the engine's lifecycle manager: it enforces the
// temporal business rules, owns the booking status field and drives the
// fire-and-forget side effects through the event bus.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mentorbook/internal/availability"
	"mentorbook/internal/db"
	"mentorbook/internal/events"
	"mentorbook/internal/metrics"
	"mentorbook/internal/models"
	"mentorbook/internal/slots"
)

// Rules are the engine's policy constants, injected from config so tests
// can tighten them.
type Rules struct {
	MinAdvance   time.Duration
	MaxAdvance   time.Duration
	SlotDuration time.Duration
}

// DefaultRules mirror the production configuration defaults.
func DefaultRules() Rules {
	return Rules{
		MinAdvance:   2 * time.Hour,
		MaxAdvance:   60 * 24 * time.Hour,
		SlotDuration: 30 * time.Minute,
	}
}

// Repository provides transactional booking storage.
type Repository interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter db.BookingFilter) ([]models.Booking, error)
	ListConfirmedBookings(ctx context.Context, mentorID string, from, to time.Time) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id, cancelledBy, reason string, at time.Time) (bool, error)
}

// UserDirectory resolves participant profiles.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AvailabilityStore reads and replaces availability profiles.
type AvailabilityStore interface {
	GetAvailability(ctx context.Context, mentorID string) (*models.AvailabilityProfile, error)
	ReplaceAvailability(ctx context.Context, p *models.AvailabilityProfile) error
}

// SlotCache is an optional read-through cache for generated slot lists.
type SlotCache interface {
	Get(ctx context.Context, mentorID string, from, to time.Time) ([]slots.Slot, bool)
	Set(ctx context.Context, mentorID string, from, to time.Time, open []slots.Slot)
	Invalidate(ctx context.Context, mentorID string)
}

// Service implements the booking lifecycle.
type Service struct {
	repo   Repository
	users  UserDirectory
	avail  AvailabilityStore
	cache  SlotCache // nil when Redis is not configured
	bus    *events.Bus
	rules  Rules
	logger *zerolog.Logger
	now    func() time.Time
}

// NewService wires the lifecycle manager. bus may be nil in tests that do
// not care about side effects.
func NewService(
	repo Repository,
	users UserDirectory,
	avail AvailabilityStore,
	cache SlotCache,
	bus *events.Bus,
	rules Rules,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		avail:  avail,
		cache:  cache,
		bus:    bus,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRequest is the input to CreateBooking. StartTime and EndTime are
// UTC instants.
type CreateRequest struct {
	MentorID  string
	MenteeID  string
	StartTime time.Time
	EndTime   time.Time
	Timezone  string
}

// CreateBooking validates the request, runs the conflict-checked insert
// and kicks off calendar sync. Side effects cannot fail the booking: by
// the time the event is published the booking is already committed.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	now := s.now()

	if req.EndTime.Sub(req.StartTime) != s.rules.SlotDuration {
		metrics.IncBookingCreated("rejected")
		return nil, ErrInvalidDuration
	}
	if req.StartTime.Before(now.Add(s.rules.MinAdvance)) {
		metrics.IncBookingCreated("rejected")
		return nil, ErrTooSoon
	}
	if req.StartTime.After(now.Add(s.rules.MaxAdvance)) {
		metrics.IncBookingCreated("rejected")
		return nil, ErrTooFarAhead
	}
	if req.MentorID == req.MenteeID {
		metrics.IncBookingCreated("rejected")
		return nil, ErrSelfBooking
	}

	mentor, err := s.users.GetUser(ctx, req.MentorID)
	if err != nil {
		return nil, fmt.Errorf("resolve mentor: %w", err)
	}
	if mentor == nil {
		return nil, ErrMentorNotFound
	}
	mentee, err := s.users.GetUser(ctx, req.MenteeID)
	if err != nil {
		return nil, fmt.Errorf("resolve mentee: %w", err)
	}
	if mentee == nil {
		return nil, ErrMenteeNotFound
	}

	profile, err := s.avail.GetAvailability(ctx, req.MentorID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if profile == nil || !profile.HasRanges() {
		return nil, ErrNoAvailability
	}

	// The booking freezes the mentor's timezone as of now; later profile
	// edits must not shift past bookings.
	tz := req.Timezone
	if tz == "" {
		tz = profile.Timezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, ErrInvalidTimezone
	}

	b := &models.Booking{
		ID:                 uuid.NewString(),
		MentorID:           req.MentorID,
		MenteeID:           req.MenteeID,
		StartTime:          req.StartTime.UTC(),
		EndTime:            req.EndTime.UTC(),
		Timezone:           tz,
		Status:             models.StatusConfirmed,
		CalendarSyncStatus: models.SyncPending,
		MentorSnapshot:     mentor.Snapshot(),
		MenteeSnapshot:     mentee.Snapshot(),
	}

	if err := s.repo.CreateBooking(ctx, b); err != nil {
		if errors.Is(err, db.ErrConflict) {
			metrics.IncBookingCreated("conflict")
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated("confirmed")
	s.invalidateSlots(ctx, b.MentorID)
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.BookingCreated, Booking: *b})
	}
	return b, nil
}

// ListBookings returns the user's bookings in either role, ordered by
// start time. status empty or "all" disables the filter.
func (s *Service) ListBookings(ctx context.Context, userID, role string, status models.BookingStatus) ([]models.Booking, error) {
	if status == "all" {
		status = ""
	}
	return s.repo.ListBookings(ctx, db.BookingFilter{UserID: userID, Role: role, Status: status})
}

// CancelBooking transitions a confirmed booking to cancelled and fires
// the notification and calendar-deletion side effects. Repeat calls get
// ErrAlreadyCancelled; side effects fire only on the first transition.
func (s *Service) CancelBooking(ctx context.Context, bookingID, cancellerID, reason string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if !b.Participant(cancellerID) {
		return nil, ErrForbidden
	}
	if b.Status != models.StatusConfirmed {
		return nil, ErrAlreadyCancelled
	}

	at := s.now().UTC()
	done, err := s.repo.CancelBooking(ctx, bookingID, cancellerID, reason, at)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if !done {
		// Lost a cancel race; the other caller's side effects already ran.
		return nil, ErrAlreadyCancelled
	}

	b.Status = models.StatusCancelled
	b.CancelledBy = cancellerID
	b.CancelledAt = &at
	b.CancellationReason = reason

	metrics.IncBookingCancelled()
	s.invalidateSlots(ctx, b.MentorID)
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.BookingCancelled, Booking: *b})
	}
	return b, nil
}

// OpenSlots generates the mentor's open slots for calendar dates in
// [from, to).
func (s *Service) OpenSlots(ctx context.Context, mentorID string, from, to time.Time) ([]slots.Slot, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, mentorID, from, to); ok {
			return cached, nil
		}
	}

	profile, err := s.avail.GetAvailability(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if profile == nil {
		return nil, ErrNoAvailability
	}

	// Pad the booking query a day either side: the window bounds are
	// calendar dates in the mentor's timezone, not UTC.
	booked, err := s.repo.ListConfirmedBookings(ctx, mentorID, from.Add(-24*time.Hour), to.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}

	open, err := slots.Generate(profile, from, to, booked, s.now(), slots.Policy{
		MinAdvance: s.rules.MinAdvance,
		MaxAdvance: s.rules.MaxAdvance,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, mentorID, from, to, open)
	}
	return open, nil
}

// SetAvailability validates and stores a mentor's availability profile,
// replacing the previous document.
func (s *Service) SetAvailability(ctx context.Context, p *models.AvailabilityProfile) error {
	if err := availability.Validate(p); err != nil {
		return err
	}
	mentor, err := s.users.GetUser(ctx, p.MentorID)
	if err != nil {
		return fmt.Errorf("resolve mentor: %w", err)
	}
	if mentor == nil {
		return ErrMentorNotFound
	}
	if err := s.avail.ReplaceAvailability(ctx, p); err != nil {
		return fmt.Errorf("replace availability: %w", err)
	}
	s.invalidateSlots(ctx, p.MentorID)
	return nil
}

// GetAvailability returns the mentor's availability profile.
func (s *Service) GetAvailability(ctx context.Context, mentorID string) (*models.AvailabilityProfile, error) {
	p, err := s.avail.GetAvailability(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoAvailability
	}
	return p, nil
}

func (s *Service) invalidateSlots(ctx context.Context, mentorID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, mentorID)
	}
}
