package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions.",
		},
		[]string{"status"},
	)

	gatewayRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "gateway_rejects_total",
			Help:      "Requests rejected by the gateway before reaching the server.",
		},
		[]string{"reason"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, gatewayRejects)
	})
}

// IncHTTP increments the counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBookingTransition counts a booking entering the given status.
func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncGatewayReject counts a request the gateway refused to forward.
func IncGatewayReject(reason string) {
	gatewayRejects.WithLabelValues(reason).Inc()
}
