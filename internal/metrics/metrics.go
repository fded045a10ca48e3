package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes recorded by the weather service.
const (
	OutcomeLive          = "live"
	OutcomeCacheFallback = "cache_fallback"
	OutcomeError         = "error"
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weather_lookup",
			Name:      "fetch_total",
			Help:      "Weather service calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	providerRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weather_lookup",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of outbound weather provider requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint", "result"},
	)

	stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weather_lookup",
			Name:      "state_transitions_total",
			Help:      "UI state emissions by variant.",
		},
		[]string{"state"},
	)
)

// RecordFetch counts one service call outcome.
func RecordFetch(operation, outcome string) {
	fetchTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveProviderRequest records the latency of one provider call.
func ObserveProviderRequest(provider, endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	providerRequestSeconds.WithLabelValues(provider, endpoint, result).Observe(time.Since(start).Seconds())
}

// RecordTransition counts one emitted UI state.
func RecordTransition(state string) {
	stateTransitions.WithLabelValues(state).Inc()
}
