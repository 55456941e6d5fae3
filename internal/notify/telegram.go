// Package notify delivers booking notices over Telegram. Delivery is
// best-effort: a failed send is logged and counted, never retried into
// the booking flow.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mentorbook/internal/events"
	"mentorbook/internal/metrics"
	"mentorbook/internal/models"
)

// TelegramSender is the subset of the bot API the dispatcher needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatResolver maps a user ID to their Telegram chat.
type ChatResolver interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Dispatcher sends booking lifecycle notices to the affected participant.
type Dispatcher struct {
	sender  TelegramSender
	users   ChatResolver
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// NewDispatcher builds a dispatcher capped at roughly 25 messages per
// second, under Telegram's 30/s bot limit.
func NewDispatcher(sender TelegramSender, users ChatResolver, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		users:   users,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		logger:  logger,
	}
}

// Register attaches the dispatcher to the event bus.
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.Subscribe(events.BookingCreated, d.HandleCreated)
	bus.Subscribe(events.BookingCancelled, d.HandleCancelled)
}

// HandleCreated confirms the new booking to both participants.
func (d *Dispatcher) HandleCreated(ctx context.Context, ev events.Event) error {
	b := ev.Booking
	when := d.formatWhen(&b)

	mentorMsg := fmt.Sprintf("📅 New booking: session with %s on %s.", b.MenteeSnapshot.Name, when)
	menteeMsg := fmt.Sprintf("✅ Booking confirmed: session with %s on %s.", b.MentorSnapshot.Name, when)

	var firstErr error
	if err := d.send(ctx, b.MentorID, mentorMsg); err != nil {
		firstErr = err
	}
	if err := d.send(ctx, b.MenteeID, menteeMsg); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// HandleCancelled notifies the participant who did not cancel. The
// canceller gets their answer synchronously from the API.
func (d *Dispatcher) HandleCancelled(ctx context.Context, ev events.Event) error {
	b := ev.Booking
	counterpart := b.Counterpart(b.CancelledBy)
	if counterpart == "" {
		// Defensive: events always carry a participant canceller.
		return fmt.Errorf("booking %s cancelled by non-participant %q", b.ID, b.CancelledBy)
	}

	cancellerName := b.MentorSnapshot.Name
	if b.CancelledBy == b.MenteeID {
		cancellerName = b.MenteeSnapshot.Name
	}

	msg := fmt.Sprintf("❌ %s cancelled your session on %s.", cancellerName, d.formatWhen(&b))
	if b.CancellationReason != "" {
		msg += fmt.Sprintf("\nReason: %s", b.CancellationReason)
	}
	return d.send(ctx, counterpart, msg)
}

func (d *Dispatcher) send(ctx context.Context, userID, text string) error {
	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		metrics.IncNotification("error")
		return fmt.Errorf("resolve chat for %s: %w", userID, err)
	}
	if user == nil || user.TelegramChatID == 0 {
		metrics.IncNotification("no_chat")
		d.logger.Debug().Str("user_id", userID).Msg("No Telegram chat linked, skipping notice")
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		metrics.IncNotification("error")
		return fmt.Errorf("rate limiter: %w", err)
	}

	if _, err := d.sender.Send(tgbotapi.NewMessage(user.TelegramChatID, text)); err != nil {
		metrics.IncNotification("failed")
		d.logger.Error().Err(err).
			Str("user_id", userID).
			Int64("chat_id", user.TelegramChatID).
			Msg("Telegram send failed")
		return err
	}

	metrics.IncNotification("sent")
	return nil
}

// formatWhen renders the session start in the booking's frozen timezone,
// falling back to UTC if the zone database entry has gone missing.
func (d *Dispatcher) formatWhen(b *models.Booking) string {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return b.StartTime.In(loc).Format("Mon, 02 Jan 2006 15:04 MST")
}
