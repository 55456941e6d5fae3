package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mentorbook/internal/booking"
	"mentorbook/internal/metrics"
	"mentorbook/internal/models"
)

// CreateBookingRequest is the body for POST /api/v1/bookings.
type CreateBookingRequest struct {
	MentorID  string `json:"mentor_id"`
	MenteeID  string `json:"mentee_id"`
	StartTime string `json:"start_time"` // RFC 3339
	EndTime   string `json:"end_time"`   // RFC 3339
	Timezone  string `json:"timezone,omitempty"`
}

// CancelBookingRequest is the body for PUT /api/v1/bookings/{id}/cancel.
type CancelBookingRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

// handleCreateBooking books a slot.
// POST /api/v1/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MentorID == "" || req.MenteeID == "" {
		writeError(w, http.StatusBadRequest, "mentor_id and mentee_id are required")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time; expected RFC 3339")
		return
	}

	b, err := s.bookings.CreateBooking(r.Context(), booking.CreateRequest{
		MentorID:  req.MentorID,
		MenteeID:  req.MenteeID,
		StartTime: start,
		EndTime:   end,
		Timezone:  req.Timezone,
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// handleListBookings returns a user's bookings.
// GET /api/v1/bookings?user_id=...&role=mentor|mentee&status=confirmed|cancelled|all
func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	role := r.URL.Query().Get("role")
	switch role {
	case "", "mentor", "mentee":
	default:
		writeError(w, http.StatusBadRequest, "role must be mentor or mentee")
		return
	}
	status := models.BookingStatus(r.URL.Query().Get("status"))
	switch status {
	case "", "all", models.StatusConfirmed, models.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "status must be confirmed, cancelled or all")
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), userID, role, status)
	if err != nil {
		s.logger.Error().Err(err).Msg("List bookings failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleCancelBooking cancels a confirmed booking on behalf of one of its
// participants.
// PUT /api/v1/bookings/{id}/cancel
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_booking")

	var req CancelBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	b, err := s.bookings.CancelBooking(r.Context(), r.PathValue("id"), req.UserID, req.Reason)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// writeBookingError maps the lifecycle error taxonomy onto HTTP statuses.
func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidDuration),
		errors.Is(err, booking.ErrTooSoon),
		errors.Is(err, booking.ErrTooFarAhead),
		errors.Is(err, booking.ErrSelfBooking),
		errors.Is(err, booking.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrMentorNotFound),
		errors.Is(err, booking.ErrMenteeNotFound),
		errors.Is(err, booking.ErrNoAvailability),
		errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, booking.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Booking operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
