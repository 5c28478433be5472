// Package metrics exposes Prometheus counters for the pricing pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RateResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truegold_rate_resolutions_total",
			Help: "Exchange-rate resolutions by the tier that answered",
		},
		[]string{"source"},
	)

	Quotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truegold_quotes_total",
			Help: "Market quotes served by metal kind and source (live or fallback)",
		},
		[]string{"kind", "source"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truegold_provider_failures_total",
			Help: "Upstream provider failures that triggered a fallback",
		},
		[]string{"provider"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "truegold_upstream_request_duration_seconds",
			Help:    "Duration of upstream provider requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"provider"},
	)

	DegradedConversions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "truegold_degraded_conversions_total",
			Help: "Conversions that returned 0.0 because a rate was missing",
		},
	)
)

func RecordRateSource(source string) {
	RateResolutions.WithLabelValues(source).Inc()
}

func RecordQuote(kind, source string) {
	Quotes.WithLabelValues(kind, source).Inc()
}

func RecordProviderFailure(provider string) {
	ProviderFailures.WithLabelValues(provider).Inc()
}

func ObserveUpstream(provider string, seconds float64) {
	UpstreamDuration.WithLabelValues(provider).Observe(seconds)
}

func RecordDegradedConversion() {
	DegradedConversions.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
