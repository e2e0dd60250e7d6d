package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CarrierMetrics records outbound carrier API calls by operation.
type CarrierMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewCarrierMetrics registers the carrier metrics on reg. A nil registerer
// yields a no-op recorder.
func NewCarrierMetrics(reg prometheus.Registerer) *CarrierMetrics {
	if reg == nil {
		return &CarrierMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrier_request_duration_seconds",
		Help:    "Duration of carrier API calls in seconds.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"operation"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_requests_total",
		Help: "Carrier API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, requests)
	return &CarrierMetrics{duration: duration, requests: requests}
}

// Observe records one call. status is the HTTP status, or 0 when the call
// never produced a response.
func (c *CarrierMetrics) Observe(operation string, status int, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	c.requests.WithLabelValues(op, outcome(status)).Inc()
}

func outcome(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status >= 200 && status < 300:
		return "ok"
	default:
		return strconv.Itoa(status/100) + "xx"
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
