package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawnly",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lawnly",
			Name:      "bookings_created_total",
			Help:      "Bookings placed since start.",
		},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawnly",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	ledgerSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawnly",
			Name:      "ledger_syncs_total",
			Help:      "Spreadsheet ledger sync attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests)
		prometheus.MustRegister(bookingsCreated)
		prometheus.MustRegister(bookingTransitions)
		prometheus.MustRegister(ledgerSyncs)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a newly placed booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncTransition counts a booking entering a status.
func IncTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncLedgerSync counts a ledger sync attempt; outcome is "ok" or "error".
func IncLedgerSync(outcome string) {
	ledgerSyncs.WithLabelValues(outcome).Inc()
}
