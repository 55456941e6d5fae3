// Package api exposes the booking engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mentorbook/internal/booking"
)

// OAuthConnector drives the calendar-connect flow.
type OAuthConnector interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, userID, code string) error
}

// HTTPServer serves the REST API.
type HTTPServer struct {
	bookings *booking.Service
	exporter Exporter
	oauth    OAuthConnector // nil when Google OAuth is not configured
	apiKey   string
	logger   *zerolog.Logger
	server   *http.Server
}

// NewHTTPServer wires the API routes. apiKey empty disables auth (local
// development only).
func NewHTTPServer(port int, apiKey string, bookings *booking.Service, exporter Exporter, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		bookings: bookings,
		exporter: exporter,
		apiKey:   apiKey,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/bookings", s.handleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", s.handleCreateBooking)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/cancel", s.handleCancelBooking)
	mux.HandleFunc("GET /api/v1/mentors/{id}/slots", s.handleMentorSlots)
	mux.HandleFunc("GET /api/v1/mentors/{id}/availability", s.handleGetAvailability)
	mux.HandleFunc("PUT /api/v1/mentors/{id}/availability", s.handleSetAvailability)
	mux.HandleFunc("GET /api/v1/admin/bookings/export", s.handleExportBookings)
	mux.HandleFunc("GET /api/v1/mentors/{id}/calendar/connect", s.handleCalendarConnect)
	mux.HandleFunc("GET /api/v1/calendar/callback", s.handleCalendarCallback)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.requireAPIKey(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// WithOAuth enables the calendar-connect endpoints.
func (s *HTTPServer) WithOAuth(oauth OAuthConnector) *HTTPServer {
	s.oauth = oauth
	return s
}

// Handler returns the routed handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
