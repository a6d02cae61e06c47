package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)
	require.NotNil(t, m)

	m.PredictionsTotal.WithLabelValues("los").Inc()
	m.ModelPredictions.WithLabelValues("los").Inc()
	m.ErrorsTotal.Inc()

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["predictions_total"])
	assert.True(t, names["model_predictions_total"])
	assert.True(t, names["errors_total"])
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	// Two registries must not collide on metric names.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.ErrorsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ErrorsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ErrorsTotal))
}

func TestMetricsWrapper_ModelMetrics(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	w := NewWrapper(m)

	w.ModelPredictionsInc("los")
	w.ModelPredictionsInc("los")
	w.ModelPredictionsInc("patient_cost")
	w.ModelFailuresInc("insurance_cost")
	w.ModelTimeoutsInc("insurance_cost")
	w.ModelLatencyObserve("los", 0.02)
	w.ModelAgeSet("los", 3600)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ModelPredictions.WithLabelValues("los")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelPredictions.WithLabelValues("patient_cost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelFailures.WithLabelValues("insurance_cost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelTimeouts.WithLabelValues("insurance_cost")))
	assert.Equal(t, 3600.0, testutil.ToFloat64(m.ModelAge.WithLabelValues("los")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ModelLatency, "model_latency_seconds"))
}

func TestMetricsWrapper_RequestMetrics(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	w := NewWrapper(m)

	w.PredictionInc("cost")
	w.ValidationFailureInc("los")
	w.ValidationFailureInc("los")
	w.RequestDurationObserve("cost", 150*time.Millisecond)
	w.ErrorsInc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("cost")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("los")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationFailuresTotal.WithLabelValues("los")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}
