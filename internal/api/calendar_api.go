package api

import (
	"net/http"

	"mentorbook/internal/metrics"
)

// handleCalendarConnect sends the mentor to the provider consent screen.
// The mentor ID rides in the OAuth state parameter.
// GET /api/v1/mentors/{id}/calendar/connect
func (s *HTTPServer) handleCalendarConnect(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar_connect")

	if s.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar integration not configured")
		return
	}
	http.Redirect(w, r, s.oauth.AuthURL(r.PathValue("id")), http.StatusTemporaryRedirect)
}

// handleCalendarCallback completes the OAuth flow and stores the token.
// GET /api/v1/calendar/callback?state=<mentor id>&code=...
func (s *HTTPServer) handleCalendarCallback(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar_callback")

	if s.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar integration not configured")
		return
	}

	userID := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if userID == "" || code == "" {
		writeError(w, http.StatusBadRequest, "state and code are required")
		return
	}

	if err := s.oauth.Exchange(r.Context(), userID, code); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("OAuth exchange failed")
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}
