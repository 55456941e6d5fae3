package calendar

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mentorbook/internal/events"
	"mentorbook/internal/models"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) IsConnected(ctx context.Context, userID string) bool {
	return m.Called(ctx, userID).Bool(0)
}

func (m *mockClient) CreateEvent(ctx context.Context, b *models.Booking) (string, error) {
	args := m.Called(ctx, b)
	return args.String(0), args.Error(1)
}

func (m *mockClient) DeleteEvent(ctx context.Context, userID, eventID string) error {
	return m.Called(ctx, userID, eventID).Error(0)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) UpdateCalendarSync(ctx context.Context, bookingID string, status models.CalendarSyncStatus, eventID string) error {
	return m.Called(ctx, bookingID, status, eventID).Error(0)
}

func testEvent(eventType string) events.Event {
	start := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	return events.Event{
		Type: eventType,
		Booking: models.Booking{
			ID:        "bk-1",
			MentorID:  "mentor-1",
			MenteeID:  "mentee-1",
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
			Timezone:  "UTC",
			Status:    models.StatusConfirmed,
		},
	}
}

func newCoordinator(client Client, recorder SyncRecorder) *Coordinator {
	logger := zerolog.New(io.Discard)
	return NewCoordinator(client, recorder, &logger)
}

func TestHandleCreatedSynced(t *testing.T) {
	client := new(mockClient)
	client.On("IsConnected", mock.Anything, "mentor-1").Return(true)
	client.On("CreateEvent", mock.Anything, mock.Anything).Return("evt-42", nil)
	recorder := new(mockRecorder)
	recorder.On("UpdateCalendarSync", mock.Anything, "bk-1", models.SyncSynced, "evt-42").Return(nil)

	c := newCoordinator(client, recorder)
	require.NoError(t, c.HandleCreated(context.Background(), testEvent(events.BookingCreated)))
	recorder.AssertExpectations(t)
}

func TestHandleCreatedNotConnected(t *testing.T) {
	client := new(mockClient)
	client.On("IsConnected", mock.Anything, "mentor-1").Return(false)
	recorder := new(mockRecorder)
	recorder.On("UpdateCalendarSync", mock.Anything, "bk-1", models.SyncNotConnected, "").Return(nil)

	c := newCoordinator(client, recorder)
	require.NoError(t, c.HandleCreated(context.Background(), testEvent(events.BookingCreated)))
	client.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	recorder.AssertExpectations(t)
}

func TestHandleCreatedProviderFailure(t *testing.T) {
	client := new(mockClient)
	client.On("IsConnected", mock.Anything, "mentor-1").Return(true)
	client.On("CreateEvent", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
	recorder := new(mockRecorder)
	recorder.On("UpdateCalendarSync", mock.Anything, "bk-1", models.SyncFailed, "").Return(nil)

	c := newCoordinator(client, recorder)
	err := c.HandleCreated(context.Background(), testEvent(events.BookingCreated))
	assert.Error(t, err)
	recorder.AssertExpectations(t)
}

func TestHandleCreatedNoClientConfigured(t *testing.T) {
	recorder := new(mockRecorder)
	recorder.On("UpdateCalendarSync", mock.Anything, "bk-1", models.SyncNotConnected, "").Return(nil)

	c := newCoordinator(nil, recorder)
	require.NoError(t, c.HandleCreated(context.Background(), testEvent(events.BookingCreated)))
	recorder.AssertExpectations(t)
}

func TestHandleCancelledDeletesMirroredEvent(t *testing.T) {
	ev := testEvent(events.BookingCancelled)
	ev.Booking.Status = models.StatusCancelled
	ev.Booking.CalendarEventID = "evt-42"

	client := new(mockClient)
	client.On("DeleteEvent", mock.Anything, "mentor-1", "evt-42").Return(nil)
	recorder := new(mockRecorder)
	recorder.On("UpdateCalendarSync", mock.Anything, "bk-1", models.SyncCancelled, "evt-42").Return(nil)

	c := newCoordinator(client, recorder)
	require.NoError(t, c.HandleCancelled(context.Background(), ev))
	recorder.AssertExpectations(t)
}

func TestHandleCancelledSkipsWhenNeverMirrored(t *testing.T) {
	ev := testEvent(events.BookingCancelled)
	ev.Booking.Status = models.StatusCancelled
	ev.Booking.CalendarSyncStatus = models.SyncNotConnected

	client := new(mockClient)
	recorder := new(mockRecorder)

	c := newCoordinator(client, recorder)
	require.NoError(t, c.HandleCancelled(context.Background(), ev))
	client.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything, mock.Anything)
	recorder.AssertNotCalled(t, "UpdateCalendarSync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCancelledNoClientConfigured(t *testing.T) {
	// A booking mirrored under an earlier deploy with calendar support,
	// cancelled after a restart without it.
	ev := testEvent(events.BookingCancelled)
	ev.Booking.Status = models.StatusCancelled
	ev.Booking.CalendarEventID = "evt-42"

	recorder := new(mockRecorder)
	recorder.On("UpdateCalendarSync", mock.Anything, "bk-1", models.SyncFailed, "evt-42").Return(nil)

	c := newCoordinator(nil, recorder)
	require.NoError(t, c.HandleCancelled(context.Background(), ev))
	recorder.AssertExpectations(t)
}

func TestHandleCancelledDeleteFailureKeepsStatus(t *testing.T) {
	ev := testEvent(events.BookingCancelled)
	ev.Booking.CalendarEventID = "evt-42"

	client := new(mockClient)
	client.On("DeleteEvent", mock.Anything, "mentor-1", "evt-42").Return(errors.New("backend unavailable"))
	recorder := new(mockRecorder)

	c := newCoordinator(client, recorder)
	assert.Error(t, c.HandleCancelled(context.Background(), ev))
	recorder.AssertNotCalled(t, "UpdateCalendarSync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
