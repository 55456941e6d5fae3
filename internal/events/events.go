// Package events is the dispatch seam between the transactional booking
// core and its best-effort side effects. Handlers run in their own
// goroutines after the primary state change is committed; a panicking or
// failing handler is logged and counted, never propagated to the caller.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mentorbook/internal/models"
)

const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
)

// Event carries a booking snapshot taken at publish time.
type Event struct {
	Type      string
	Booking   models.Booking
	CreatedAt time.Time
}

// Handler reacts to an event. Errors are recorded by the bus; they do
// not reach the publisher.
type Handler func(ctx context.Context, event Event) error

// Bus provides in-process pub/sub for booking events.
type Bus struct {
	subscribers map[string][]Handler
	logger      *zerolog.Logger
	timeout     time.Duration
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewBus constructs an empty bus. Handlers get at most timeout per event;
// zero means 30 seconds.
func NewBus(logger *zerolog.Logger, timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Bus{
		subscribers: make(map[string][]Handler),
		logger:      logger,
		timeout:     timeout,
	}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish fans the event out to subscribers asynchronously and returns
// immediately. The publisher's success is already durable; nothing a
// handler does can undo it.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		b.wg.Add(1)
		go b.run(handler, event)
	}
}

func (b *Bus) run(handler Handler, event Event) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event", event.Type).
				Str("booking_id", event.Booking.ID).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := handler(ctx, event); err != nil {
		b.logger.Error().
			Err(err).
			Str("event", event.Type).
			Str("booking_id", event.Booking.ID).
			Msg("event handler failed")
	}
}

// Wait blocks until all in-flight handlers finish. Used on shutdown and
// in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
