// Package calendar keeps mentors' external calendars in step with the
// booking store. Sync is strictly best-effort: a calendar outage is
// recorded on the booking but never fails or rolls back the booking
// itself.
package calendar

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mentorbook/internal/events"
	"mentorbook/internal/metrics"
	"mentorbook/internal/models"
)

// Client talks to one external calendar provider on behalf of a user.
type Client interface {
	IsConnected(ctx context.Context, userID string) bool
	CreateEvent(ctx context.Context, b *models.Booking) (string, error)
	DeleteEvent(ctx context.Context, userID, eventID string) error
}

// SyncRecorder persists the per-booking sync outcome.
type SyncRecorder interface {
	UpdateCalendarSync(ctx context.Context, bookingID string, status models.CalendarSyncStatus, eventID string) error
}

// Coordinator subscribes to booking lifecycle events and mirrors them to
// the mentor's calendar.
type Coordinator struct {
	client   Client
	recorder SyncRecorder
	logger   *zerolog.Logger
}

func NewCoordinator(client Client, recorder SyncRecorder, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{client: client, recorder: recorder, logger: logger}
}

// Register attaches the coordinator to the event bus.
func (c *Coordinator) Register(bus *events.Bus) {
	bus.Subscribe(events.BookingCreated, c.HandleCreated)
	bus.Subscribe(events.BookingCancelled, c.HandleCancelled)
}

// HandleCreated mirrors a new booking into the mentor's calendar and
// records the outcome on the booking row.
func (c *Coordinator) HandleCreated(ctx context.Context, ev events.Event) error {
	b := ev.Booking

	if c.client == nil || !c.client.IsConnected(ctx, b.MentorID) {
		metrics.IncCalendarSync("create", "not_connected")
		return c.record(ctx, b.ID, models.SyncNotConnected, "")
	}

	eventID, err := c.client.CreateEvent(ctx, &b)
	if err != nil {
		metrics.IncCalendarSync("create", "failed")
		c.logger.Error().Err(err).
			Str("booking_id", b.ID).
			Str("mentor_id", b.MentorID).
			Msg("Calendar event creation failed")
		if recErr := c.record(ctx, b.ID, models.SyncFailed, ""); recErr != nil {
			return recErr
		}
		return err
	}

	metrics.IncCalendarSync("create", "synced")
	c.logger.Info().
		Str("booking_id", b.ID).
		Str("event_id", eventID).
		Msg("Calendar event created")
	return c.record(ctx, b.ID, models.SyncSynced, eventID)
}

// HandleCancelled removes the mirrored event, if one was ever created.
// Bookings that never reached the calendar (not_connected, failed without
// an event ID) have nothing to delete.
func (c *Coordinator) HandleCancelled(ctx context.Context, ev events.Event) error {
	b := ev.Booking
	if b.CalendarEventID == "" {
		return nil
	}

	// A synced booking can outlive the calendar configuration that
	// created it. Record the delete as failed instead of dereferencing a
	// missing client.
	if c.client == nil {
		metrics.IncCalendarSync("delete", "failed")
		c.logger.Warn().
			Str("booking_id", b.ID).
			Str("event_id", b.CalendarEventID).
			Msg("Calendar event not deleted, no calendar client configured")
		return c.record(ctx, b.ID, models.SyncFailed, b.CalendarEventID)
	}

	if err := c.client.DeleteEvent(ctx, b.MentorID, b.CalendarEventID); err != nil {
		metrics.IncCalendarSync("delete", "failed")
		c.logger.Error().Err(err).
			Str("booking_id", b.ID).
			Str("event_id", b.CalendarEventID).
			Msg("Calendar event deletion failed")
		return err
	}

	metrics.IncCalendarSync("delete", "cancelled")
	return c.record(ctx, b.ID, models.SyncCancelled, b.CalendarEventID)
}

func (c *Coordinator) record(ctx context.Context, bookingID string, status models.CalendarSyncStatus, eventID string) error {
	if err := c.recorder.UpdateCalendarSync(ctx, bookingID, status, eventID); err != nil {
		return fmt.Errorf("record calendar sync %s for booking %s: %w", status, bookingID, err)
	}
	return nil
}
