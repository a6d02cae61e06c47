// Package ml invokes the pre-trained regression models that estimate length
// of stay and hospital costs.
//
// Models are opaque artifacts: each one maps a named feature vector to a
// single float. Three artifact formats are supported: joblib pickles run
// through a Python bridge, a remote model service, and linear coefficient
// files evaluated in-process. Models are loaded once at startup and are
// read-only afterwards.
package ml

import (
	"context"
	"time"

	"hospredict/internal/features"
)

// Regressor is a black-box prediction function.
// Implementations must be deterministic for identical input vectors and safe
// for concurrent use.
type Regressor interface {
	Predict(ctx context.Context, v features.Vector) (float64, error)
}

// SchemaChecker is implemented by regressors that can verify, at load time,
// that a schema matches what the artifact was trained on.
type SchemaChecker interface {
	CheckSchema(ctx context.Context, schema features.Schema) error
}

// FeatureReporter is implemented by regressors whose artifact records the
// column names it was trained on. An empty list means the artifact does not
// know them.
type FeatureReporter interface {
	TrainedFeatures(ctx context.Context) ([]string, error)
}

// MetricsInterface defines metrics methods needed by the model layer
type MetricsInterface interface {
	ModelPredictionsInc(model string)
	ModelFailuresInc(model string)
	ModelTimeoutsInc(model string)
	ModelLatencyObserve(model string, seconds float64)
	ModelAgeSet(model string, seconds float64)
}

type instrumented struct {
	name    string
	next    Regressor
	metrics MetricsInterface
}

// Instrument wraps r so every call records count, failures and latency under
// name. A nil metrics returns r unchanged.
func Instrument(name string, r Regressor, metrics MetricsInterface) Regressor {
	if metrics == nil {
		return r
	}
	return &instrumented{name: name, next: r, metrics: metrics}
}

func (i *instrumented) Predict(ctx context.Context, v features.Vector) (float64, error) {
	start := time.Now()
	y, err := i.next.Predict(ctx, v)
	i.metrics.ModelLatencyObserve(i.name, time.Since(start).Seconds())
	if err != nil {
		i.metrics.ModelFailuresInc(i.name)
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			i.metrics.ModelTimeoutsInc(i.name)
		}
		return 0, err
	}
	i.metrics.ModelPredictionsInc(i.name)
	return y, nil
}

func (i *instrumented) CheckSchema(ctx context.Context, schema features.Schema) error {
	if sc, ok := i.next.(SchemaChecker); ok {
		return sc.CheckSchema(ctx, schema)
	}
	return nil
}
