package booking

import "errors"

// The engine's error taxonomy. Business-rule and conflict errors are
// user-facing and non-retryable without changing input; side-effect
// failures never surface here at all.
var (
	ErrInvalidDuration  = errors.New("booking duration must equal the slot duration")
	ErrTooSoon          = errors.New("booking starts inside the minimum advance-notice window")
	ErrTooFarAhead      = errors.New("booking starts beyond the maximum horizon")
	ErrSelfBooking      = errors.New("mentor cannot book themselves")
	ErrMentorNotFound   = errors.New("mentor not found")
	ErrMenteeNotFound   = errors.New("mentee not found")
	ErrNoAvailability   = errors.New("mentor has no availability profile")
	ErrInvalidTimezone  = errors.New("unknown IANA timezone")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrForbidden        = errors.New("only a participant may cancel a booking")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
)
