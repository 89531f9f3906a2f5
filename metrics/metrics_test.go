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

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLLM("analyze", time.Now(), nil)
		m.IncFallback("analyze")
		m.IncAnalysis("completed")
		m.IncQueue("diary_analysis", "enqueued")
		m.TaskStarted()
		m.TaskFinished()
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveLLM("advice", time.Now(), nil)
	m.ObserveLLM("advice", time.Now(), errors.New("boom"))
	m.IncFallback("advice")
	m.IncAnalysis("failed")
	m.IncAnalysis("failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("advice", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("advice", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("advice")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("failed")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.IncAnalysis("completed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `soulbin_diary_analyses_total{outcome="completed"} 1`)
}
