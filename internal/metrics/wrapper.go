package metrics

import "time"

// MetricsWrapper adapts Metrics to the narrow interfaces consumed by the
// model and request layers, so those packages never import prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) ModelPredictionsInc(model string) {
	w.m.ModelPredictions.WithLabelValues(model).Inc()
}

func (w *MetricsWrapper) ModelFailuresInc(model string) {
	w.m.ModelFailures.WithLabelValues(model).Inc()
}

func (w *MetricsWrapper) ModelTimeoutsInc(model string) {
	w.m.ModelTimeouts.WithLabelValues(model).Inc()
}

func (w *MetricsWrapper) ModelLatencyObserve(model string, seconds float64) {
	w.m.ModelLatency.WithLabelValues(model).Observe(seconds)
}

func (w *MetricsWrapper) ModelAgeSet(model string, seconds float64) {
	w.m.ModelAge.WithLabelValues(model).Set(seconds)
}

func (w *MetricsWrapper) PredictionInc(mode string) {
	w.m.PredictionsTotal.WithLabelValues(mode).Inc()
}

func (w *MetricsWrapper) ValidationFailureInc(mode string) {
	w.m.ValidationFailuresTotal.WithLabelValues(mode).Inc()
}

func (w *MetricsWrapper) RequestDurationObserve(mode string, d time.Duration) {
	w.m.RequestDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (w *MetricsWrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}
