package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/model"
)

func TestPrometheusRecorder_Counts(t *testing.T) {
	r := NewPrometheusRecorder("")

	r.ObserveAnalysis(model.StatusOK, 20*time.Millisecond)
	r.ObserveAnalysis(model.StatusDegraded, 40*time.Millisecond)
	r.ObserveAnalysis(model.StatusOK, time.Millisecond)
	r.ObserveClause(model.BandHigh)
	r.ObserveClause(model.BandLow)
	r.ObserveClause(model.BandLow)
	r.ObserveSemanticFallback(model.DiagExternalUnavailable)
	r.ObserveFailure("input_too_short")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("degraded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.clauses.WithLabelValues("Low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.clauses.WithLabelValues("High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("external_analysis_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("input_too_short")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	r := NewPrometheusRecorder("clauserisk")
	r.ObserveClause(model.BandMedium)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `clauserisk_clauses_total{band="Medium"} 1`)
	assert.Contains(t, body, "clauserisk_analysis_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestNopRecorder(t *testing.T) {
	r := NewNopRecorder()
	assert.NotPanics(t, func() {
		r.ObserveAnalysis(model.StatusOK, time.Second)
		r.ObserveFailure("x")
		r.ObserveClause(model.BandHigh)
		r.ObserveSemanticFallback(model.DiagMalformedExternal)
	})
}
