package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCarrierMetricsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCarrierMetrics(reg)

	m.Observe("calculate", 200, 120*time.Millisecond)
	m.Observe("calculate", 422, 80*time.Millisecond)
	m.Observe("calculate", 503, time.Second)
	m.Observe("cart", 0, time.Second)
	m.Observe("", 201, time.Millisecond)

	tests := []struct {
		op, outcome string
		want        float64
	}{
		{"calculate", "ok", 1},
		{"calculate", "4xx", 1},
		{"calculate", "5xx", 1},
		{"cart", "transport_error", 1},
		{"unknown", "ok", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.requests.WithLabelValues(tt.op, tt.outcome))
		if got != tt.want {
			t.Fatalf("%s/%s: expected %v got %v", tt.op, tt.outcome, tt.want, got)
		}
	}

	if n := testutil.CollectAndCount(m.duration, "carrier_request_duration_seconds"); n != 3 {
		t.Fatalf("expected 3 operation series, got %d", n)
	}
}

func TestHTTPMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/orders", 200, 10*time.Millisecond)
	m.Observe("GET", "/api/v1/orders", 200, 20*time.Millisecond)
	m.Observe("POST", "", 400, time.Millisecond)

	if n := testutil.CollectAndCount(m.duration, "http_request_duration_seconds"); n != 2 {
		t.Fatalf("expected 2 series, got %d", n)
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var c *CarrierMetrics
	c.Observe("x", 200, time.Second)
	NewCarrierMetrics(nil).Observe("x", 200, time.Second)
	var h *HTTPMetrics
	h.Observe("GET", "/", 200, time.Second)
}
