package events

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"mentorbook/internal/models"
)

func testBus() *Bus {
	logger := zerolog.New(io.Discard)
	return NewBus(&logger, 0)
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := testBus()
	var created, cancelled atomic.Int32

	bus.Subscribe(BookingCreated, func(ctx context.Context, e Event) error {
		created.Add(1)
		return nil
	})
	bus.Subscribe(BookingCreated, func(ctx context.Context, e Event) error {
		created.Add(1)
		return nil
	})
	bus.Subscribe(BookingCancelled, func(ctx context.Context, e Event) error {
		cancelled.Add(1)
		return nil
	})

	bus.Publish(Event{Type: BookingCreated, Booking: models.Booking{ID: "b1"}})
	bus.Wait()

	assert.Equal(t, int32(2), created.Load())
	assert.Equal(t, int32(0), cancelled.Load())
}

func TestPublishSurvivesFailingAndPanickingHandlers(t *testing.T) {
	bus := testBus()
	var ran atomic.Int32

	bus.Subscribe(BookingCreated, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(BookingCreated, func(ctx context.Context, e Event) error {
		panic("much worse boom")
	})
	bus.Subscribe(BookingCreated, func(ctx context.Context, e Event) error {
		ran.Add(1)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: BookingCreated, Booking: models.Booking{ID: "b1"}})
		bus.Wait()
	})
	assert.Equal(t, int32(1), ran.Load())
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := testBus()
	bus.Publish(Event{Type: BookingCreated})
	bus.Wait()
}
