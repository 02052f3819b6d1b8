package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveCall(domain.CapabilityEmotion, 120*time.Millisecond, false)
	m.ObserveCall(domain.CapabilityEmotion, 3*time.Second, true)
	m.ObserveUnit(domain.ContentText)
	m.ObserveUnit(domain.ContentText)
	m.ObserveAbort()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed(domain.Analytics{TotalAdaptations: 3})

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}

	assert.InDelta(t, 2, values["kairos_capability_calls_total"], 1e-9)
	assert.InDelta(t, 1, values["kairos_capability_fallbacks_total"], 1e-9)
	assert.InDelta(t, 2, values["kairos_stream_units_total"], 1e-9)
	assert.InDelta(t, 1, values["kairos_stream_aborts_total"], 1e-9)
	assert.InDelta(t, 1, values["kairos_active_sessions"], 1e-9)
	assert.InDelta(t, 3, values["kairos_adaptations_total"], 1e-9)
	n, err := testutil.GatherAndCount(m.Registry(), "kairos_capability_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveUnit(domain.ContentVideoURL)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kairos_stream_units_total{type="video_url"} 1`)
}
