package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage("analysis", time.Second, nil)
	m.ObserveStage("analysis", time.Second, errors.New("boom"))
	m.ObserveStage("modeling", time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageTotal.WithLabelValues("analysis", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageTotal.WithLabelValues("analysis", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.stageDuration))
}

func TestObserveRequestAndHandler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, "/analyze-financials", http.StatusOK, 50*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpTotal.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "financial_statements_http_requests_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage("analysis", time.Second, nil)
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
}
