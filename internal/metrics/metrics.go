// Package metrics holds the Prometheus collectors shared by the booking
// pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is private to flightdesk so tests can construct servers
// repeatedly without duplicate-registration panics.
var Registry = prometheus.NewRegistry()

var (
	// Searches counts inventory searches by source and outcome.
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_searches_total",
			Help: "Flight inventory searches by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// Bookings counts booking attempts by resulting status.
	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_bookings_total",
			Help: "Booking attempts by status",
		},
		[]string{"status"},
	)

	// RateFallbacks counts conversions served from the static fallback table.
	RateFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdesk_rate_fallbacks_total",
			Help: "Currency conversions that used the fallback rate table",
		},
	)

	// LLMCalls counts completion requests by agent and outcome.
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_llm_calls_total",
			Help: "LLM completion requests by agent and outcome",
		},
		[]string{"agent", "outcome"},
	)

	// HTTPRequests counts API requests by route pattern and status code.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_http_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	// HTTPDuration observes API latency by route pattern.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flightdesk_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	Registry.MustRegister(
		Searches,
		Bookings,
		RateFallbacks,
		LLMCalls,
		HTTPRequests,
		HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
