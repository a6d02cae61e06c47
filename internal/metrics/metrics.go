// Package metrics provides Prometheus metrics for the predictor service.
// It covers request handling per prediction mode, input validation outcomes
// and per-model invocation counts and latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Request metrics, labelled by mode (los, cost)
	PredictionsTotal        *prometheus.CounterVec   // Completed predictions
	ValidationFailuresTotal *prometheus.CounterVec   // Submissions rejected as incomplete
	RequestDuration         *prometheus.HistogramVec // End-to-end request duration

	// Model metrics, labelled by model name
	ModelPredictions *prometheus.CounterVec   // Model invocations
	ModelFailures    *prometheus.CounterVec   // Failed model invocations
	ModelTimeouts    *prometheus.CounterVec   // Model invocations that hit the deadline
	ModelLatency     *prometheus.HistogramVec // Model invocation latency
	ModelAge         *prometheus.GaugeVec     // Artifact age at load time

	// System metrics
	ErrorsTotal prometheus.Counter // Unhandled errors surfaced to a caller
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of completed predictions",
		}, []string{"mode"}),
		ValidationFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "Total number of submissions rejected as incomplete",
		}, []string{"mode"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Prediction request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"mode"}),
		ModelPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_predictions_total",
			Help: "Total number of model invocations",
		}, []string{"model"}),
		ModelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_failures_total",
			Help: "Total number of failed model invocations",
		}, []string{"model"}),
		ModelTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_timeouts_total",
			Help: "Total number of model invocations that timed out",
		}, []string{"model"}),
		ModelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "model_latency_seconds",
			Help:    "Model invocation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"model"}),
		ModelAge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the model artifact in seconds when it was loaded",
		}, []string{"model"}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
