package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsRegistered(t *testing.T) {
	// Seed every collector so it appears in the gather output.
	RequestsTotal.WithLabelValues("mcp", "2xx").Inc()
	RequestDuration.WithLabelValues("mcp").Observe(0.1)
	StreamsActive.Inc()
	StreamsActive.Dec()
	AdmissionRejectedTotal.WithLabelValues("mcp").Inc()
	NotificationsTotal.WithLabelValues("mcp-post").Inc()
	HostDecisionsTotal.WithLabelValues("send-response", "applied").Inc()
	TimeoutsTotal.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"bruecke_requests_total":           false,
		"bruecke_request_duration_seconds": false,
		"bruecke_streams_active":           false,
		"bruecke_admission_rejected_total": false,
		"bruecke_notifications_total":      false,
		"bruecke_host_decisions_total":     false,
		"bruecke_host_timeouts_total":      false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, seen := range expected {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	before := counterValue(t, RequestsTotal, "mcp", "5xx")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	after := counterValue(t, RequestsTotal, "mcp", "5xx")
	if after != before+1 {
		t.Errorf("requests_total{mcp,5xx} = %v, want %v", after, before+1)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/mcp", "mcp"},
		{http.MethodDelete, "/mcp", "mcp"},
		{http.MethodGet, "/mcp", "subscribe"},
		{http.MethodPost, "/mcp/message", "message"},
		{http.MethodGet, "/health", "health"},
		{http.MethodPost, "/api/v1/orders", "api"},
		{http.MethodGet, "/favicon.ico", "other"},
	}
	for _, tt := range tests {
		if got := RouteLabel(tt.method, tt.path); got != tt.want {
			t.Errorf("RouteLabel(%s, %s) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := vec.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
