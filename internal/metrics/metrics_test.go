package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveExport(t *testing.T) {
	m := New()
	m.ObserveExport("xlsx", 0, false)
	m.ObserveExport("xlsx", 2, false)
	m.ObserveExport("pdf", 0, true)

	if got := testutil.ToFloat64(m.exports.WithLabelValues("xlsx", "ok")); got != 1 {
		t.Errorf("xlsx ok = %v", got)
	}
	if got := testutil.ToFloat64(m.exports.WithLabelValues("xlsx", "partial")); got != 1 {
		t.Errorf("xlsx partial = %v", got)
	}
	if got := testutil.ToFloat64(m.skippedTables.WithLabelValues("xlsx")); got != 2 {
		t.Errorf("skipped = %v", got)
	}
	if got := testutil.ToFloat64(m.exports.WithLabelValues("pdf", "failed")); got != 1 {
		t.Errorf("pdf failed = %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SetActiveSessions(3)
	m.ObserveRequest("GET", "/api/v1/survey", 200, 5*time.Millisecond)
	m.ObserveSnapshot("create")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		"wmsd_active_sessions 3",
		`wmsd_http_requests_total{method="GET",route="/api/v1/survey",status="200"} 1`,
		`wmsd_snapshot_operations_total{op="create"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
