package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"hospredict/internal/features"
)

// LinearRegressor evaluates intercept + sum(coefficient * value) in-process.
// It serves deployments that export their regression as plain coefficients
// instead of a pickled estimator.
type LinearRegressor struct {
	Version      string             `json:"version"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`

	// sorted coefficient names, fixes the summation order
	names []string
}

// LoadLinearRegressor reads a coefficient file:
//
//	{"version": "2024-05", "intercept": 3.2, "coefficients": {"Age": 0.04, ...}}
func LoadLinearRegressor(path string) (*LinearRegressor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read linear model %s: %w", path, err)
	}

	var lr LinearRegressor
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("parse linear model %s: %w", path, err)
	}
	if len(lr.Coefficients) == 0 {
		return nil, fmt.Errorf("linear model %s has no coefficients", path)
	}
	for name, w := range lr.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("linear model %s: coefficient %q is not finite", path, name)
		}
	}
	lr.names = sortedKeys(lr.Coefficients)
	return &lr, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (lr *LinearRegressor) Predict(_ context.Context, v features.Vector) (float64, error) {
	names := lr.names
	if names == nil {
		names = sortedKeys(lr.Coefficients)
	}

	y := lr.Intercept
	for _, name := range names {
		w := lr.Coefficients[name]
		x, ok := v.Get(name)
		if !ok {
			return 0, fmt.Errorf("%w: missing feature %q", features.ErrSchemaMismatch, name)
		}
		y += w * x
	}
	return y, nil
}

// CheckSchema requires every coefficient to name a schema column. Columns
// without a coefficient contribute zero.
func (lr *LinearRegressor) CheckSchema(_ context.Context, schema features.Schema) error {
	var unknown []string
	for name := range lr.Coefficients {
		if schema.Index(name) < 0 {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: coefficients for columns not in schema: %q", features.ErrSchemaMismatch, unknown)
	}
	return nil
}
