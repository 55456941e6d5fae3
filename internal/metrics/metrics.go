package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentorbook",
			Name:      "booking_created_total",
			Help:      "Count of booking creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentorbook",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	calendarSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentorbook",
			Name:      "calendar_sync_total",
			Help:      "Count of calendar sync side effects by result.",
		},
		[]string{"action", "result"},
	)

	notification = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentorbook",
			Name:      "notification_total",
			Help:      "Count of notification dispatches by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentorbook",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, calendarSync, notification, httpRequests)
	})
}

func IncBookingCreated(outcome string) {
	bookingCreated.WithLabelValues(outcome).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncCalendarSync(action, result string) {
	calendarSync.WithLabelValues(action, result).Inc()
}

func IncNotification(result string) {
	notification.WithLabelValues(result).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
