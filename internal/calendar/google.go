package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"mentorbook/internal/models"
)

// TokenStore persists users' serialized OAuth tokens.
type TokenStore interface {
	CalendarToken(ctx context.Context, userID string) (string, error)
	SetCalendarToken(ctx context.Context, userID, token string) error
}

// GoogleClient implements Client against the Google Calendar API using a
// per-user OAuth token from the TokenStore.
type GoogleClient struct {
	conf   *oauth2.Config
	tokens TokenStore
	logger *zerolog.Logger
}

func NewGoogleClient(clientID, clientSecret, redirectURL string, tokens TokenStore, logger *zerolog.Logger) *GoogleClient {
	return &GoogleClient{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		tokens: tokens,
		logger: logger,
	}
}

// AuthURL returns the consent-screen URL for the OAuth flow.
func (c *GoogleClient) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the callback code for a token and stores it for userID.
func (c *GoogleClient) Exchange(ctx context.Context, userID, code string) error {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange oauth code: %w", err)
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("serialize oauth token: %w", err)
	}
	if err := c.tokens.SetCalendarToken(ctx, userID, string(raw)); err != nil {
		return fmt.Errorf("store oauth token: %w", err)
	}
	c.logger.Info().Str("user_id", userID).Msg("Google Calendar connected")
	return nil
}

// IsConnected reports whether userID has a stored calendar token.
func (c *GoogleClient) IsConnected(ctx context.Context, userID string) bool {
	raw, err := c.tokens.CalendarToken(ctx, userID)
	if err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Calendar token lookup failed")
		return false
	}
	return raw != ""
}

// CreateEvent inserts the booking into the mentor's primary calendar and
// returns the provider event ID.
func (c *GoogleClient) CreateEvent(ctx context.Context, b *models.Booking) (string, error) {
	svc, err := c.service(ctx, b.MentorID)
	if err != nil {
		return "", err
	}

	event := &gcal.Event{
		Summary:     fmt.Sprintf("Mentoring session with %s", b.MenteeSnapshot.Name),
		Description: fmt.Sprintf("Booked via MentorBook (booking %s)", b.ID),
		Start: &gcal.EventDateTime{
			DateTime: b.StartTime.Format(time.RFC3339),
			TimeZone: b.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: b.EndTime.Format(time.RFC3339),
			TimeZone: b.Timezone,
		},
	}

	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes a previously created event from userID's primary
// calendar.
func (c *GoogleClient) DeleteEvent(ctx context.Context, userID, eventID string) error {
	svc, err := c.service(ctx, userID)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}

func (c *GoogleClient) service(ctx context.Context, userID string) (*gcal.Service, error) {
	raw, err := c.tokens.CalendarToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}
	if raw == "" {
		return nil, fmt.Errorf("user %s has no calendar connected", userID)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("parse stored oauth token: %w", err)
	}

	svc, err := gcal.NewService(ctx, option.WithTokenSource(c.conf.TokenSource(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}
	return svc, nil
}
