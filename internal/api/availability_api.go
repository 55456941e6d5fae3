package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mentorbook/internal/availability"
	"mentorbook/internal/booking"
	"mentorbook/internal/metrics"
	"mentorbook/internal/models"
	"mentorbook/internal/slots"
)

const (
	// MaxSlotDaysRange caps the slot query window.
	MaxSlotDaysRange = 90

	// DefaultSlotDaysRange is used when "to" is omitted.
	DefaultSlotDaysRange = 14
)

// AvailabilityDocument is the wire form of a mentor's weekly availability.
// Weekday keys are lowercase English day names.
type AvailabilityDocument struct {
	Weekly              map[string][]models.TimeRange `json:"weekly"`
	Timezone            string                        `json:"timezone"`
	SlotDurationMinutes int                           `json:"slot_duration_minutes"`
	UnavailableDates    []models.UnavailableDate      `json:"unavailable_dates,omitempty"`
	UpdatedAt           time.Time                     `json:"updated_at,omitempty"`
}

// SlotsResponse is the response for GET /api/v1/mentors/{id}/slots.
type SlotsResponse struct {
	MentorID string       `json:"mentor_id"`
	Timezone string       `json:"timezone"`
	Slots    []slots.Slot `json:"slots"`
	Period   struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"period"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// handleGetAvailability returns the mentor's availability profile.
// GET /api/v1/mentors/{id}/availability
func (s *HTTPServer) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_availability")

	p, err := s.bookings.GetAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, booking.ErrNoAvailability) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Get availability failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toDocument(p))
}

// handleSetAvailability replaces the mentor's availability profile.
// PUT /api/v1/mentors/{id}/availability
func (s *HTTPServer) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("set_availability")

	var doc AvailabilityDocument
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	profile, err := fromDocument(r.PathValue("id"), &doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.bookings.SetAvailability(r.Context(), profile); err != nil {
		var verr *availability.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, booking.ErrMentorNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error().Err(err).Msg("Set availability failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleMentorSlots returns the mentor's open slots for a date window.
// GET /api/v1/mentors/{id}/slots?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleMentorSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("mentor_slots")
	mentorID := r.PathValue("id")

	from, to, err := parseSlotWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	open, err := s.bookings.OpenSlots(r.Context(), mentorID, from, to)
	if err != nil {
		if errors.Is(err, booking.ErrNoAvailability) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Slot generation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if open == nil {
		open = []slots.Slot{}
	}

	resp := SlotsResponse{MentorID: mentorID, Slots: open}
	if p, err := s.bookings.GetAvailability(r.Context(), mentorID); err == nil {
		resp.Timezone = p.Timezone
	}
	resp.Period.From = from.Format("2006-01-02")
	resp.Period.To = to.Format("2006-01-02")
	writeJSON(w, http.StatusOK, resp)
}

func parseSlotWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	var from time.Time
	var err error
	if fromStr == "" {
		from = time.Now().UTC().Truncate(24 * time.Hour)
	} else if from, err = time.Parse("2006-01-02", fromStr); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date; expected YYYY-MM-DD")
	}

	var to time.Time
	if toStr == "" {
		to = from.AddDate(0, 0, DefaultSlotDaysRange)
	} else if to, err = time.Parse("2006-01-02", toStr); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date; expected YYYY-MM-DD")
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be before to")
	}
	if to.Sub(from) > MaxSlotDaysRange*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds maximum of %d days", MaxSlotDaysRange)
	}
	return from, to, nil
}

func toDocument(p *models.AvailabilityProfile) *AvailabilityDocument {
	doc := &AvailabilityDocument{
		Weekly:              map[string][]models.TimeRange{},
		Timezone:            p.Timezone,
		SlotDurationMinutes: p.SlotDurationMinutes,
		UnavailableDates:    p.UnavailableDates,
		UpdatedAt:           p.UpdatedAt,
	}
	for name, day := range weekdayNames {
		if ranges := p.Weekly[day]; len(ranges) > 0 {
			doc.Weekly[name] = ranges
		}
	}
	return doc
}

func fromDocument(mentorID string, doc *AvailabilityDocument) (*models.AvailabilityProfile, error) {
	p := &models.AvailabilityProfile{
		MentorID:            mentorID,
		Weekly:              map[time.Weekday][]models.TimeRange{},
		Timezone:            doc.Timezone,
		SlotDurationMinutes: doc.SlotDurationMinutes,
		UnavailableDates:    doc.UnavailableDates,
	}
	for name, ranges := range doc.Weekly {
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		p.Weekly[day] = ranges
	}
	return p, nil
}
