package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbook/internal/events"
	"mentorbook/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeUsers struct {
	chats map[string]int64
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	chatID, ok := f.chats[id]
	if !ok {
		return nil, nil
	}
	return &models.User{ID: id, Name: "User " + id, TelegramChatID: chatID}, nil
}

func cancelledEvent() events.Event {
	start := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	at := start.Add(-48 * time.Hour)
	return events.Event{
		Type: events.BookingCancelled,
		Booking: models.Booking{
			ID:                 "bk-1",
			MentorID:           "mentor-1",
			MenteeID:           "mentee-1",
			StartTime:          start,
			EndTime:            start.Add(30 * time.Minute),
			Timezone:           "Europe/Berlin",
			Status:             models.StatusCancelled,
			CancelledBy:        "mentee-1",
			CancelledAt:        &at,
			CancellationReason: "schedule change",
			MentorSnapshot:     models.ProfileSnapshot{Name: "Alice"},
			MenteeSnapshot:     models.ProfileSnapshot{Name: "Bob"},
		},
	}
}

func newDispatcher(sender TelegramSender, users ChatResolver) *Dispatcher {
	logger := zerolog.New(io.Discard)
	return NewDispatcher(sender, users, &logger)
}

func TestHandleCancelledNotifiesCounterpart(t *testing.T) {
	sender := &fakeSender{}
	users := &fakeUsers{chats: map[string]int64{"mentor-1": 111, "mentee-1": 222}}
	d := newDispatcher(sender, users)

	require.NoError(t, d.HandleCancelled(context.Background(), cancelledEvent()))

	// The mentee cancelled, so only the mentor hears about it.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(111), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Bob cancelled")
	assert.Contains(t, sender.sent[0].Text, "schedule change")
	// Session times render in the booking's frozen timezone (Berlin is UTC+2 in September).
	assert.Contains(t, sender.sent[0].Text, "11:00")
}

func TestHandleCancelledByMentor(t *testing.T) {
	sender := &fakeSender{}
	users := &fakeUsers{chats: map[string]int64{"mentor-1": 111, "mentee-1": 222}}
	d := newDispatcher(sender, users)

	ev := cancelledEvent()
	ev.Booking.CancelledBy = "mentor-1"
	require.NoError(t, d.HandleCancelled(context.Background(), ev))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(222), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Alice cancelled")
}

func TestHandleCancelledNoLinkedChat(t *testing.T) {
	sender := &fakeSender{}
	users := &fakeUsers{chats: map[string]int64{}}
	d := newDispatcher(sender, users)

	// No chat on file is a skip, not a failure.
	require.NoError(t, d.HandleCancelled(context.Background(), cancelledEvent()))
	assert.Empty(t, sender.sent)
}

func TestHandleCancelledSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram unavailable")}
	users := &fakeUsers{chats: map[string]int64{"mentor-1": 111}}
	d := newDispatcher(sender, users)

	assert.Error(t, d.HandleCancelled(context.Background(), cancelledEvent()))
}

func TestHandleCreatedConfirmsBothParticipants(t *testing.T) {
	sender := &fakeSender{}
	users := &fakeUsers{chats: map[string]int64{"mentor-1": 111, "mentee-1": 222}}
	d := newDispatcher(sender, users)

	ev := cancelledEvent()
	ev.Type = events.BookingCreated
	ev.Booking.Status = models.StatusConfirmed
	require.NoError(t, d.HandleCreated(context.Background(), ev))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(111), sender.sent[0].ChatID)
	assert.True(t, strings.Contains(sender.sent[0].Text, "Bob"))
	assert.Equal(t, int64(222), sender.sent[1].ChatID)
	assert.True(t, strings.Contains(sender.sent[1].Text, "Alice"))
}
