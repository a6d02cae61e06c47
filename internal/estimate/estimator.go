// Package estimate runs one prediction request end to end: normalize and
// validate the case, encode it per model schema, invoke the model(s) and
// apply the post-prediction adjustments.
//
// An Estimator holds no per-request state; it is safe for concurrent use.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hospredict/internal/features"
	"hospredict/internal/metrics"
	"hospredict/internal/ml"
	"hospredict/internal/patient"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LOSResult is the outcome of a length-of-stay prediction.
type LOSResult struct {
	RequestID string          `json:"requestId"`
	Raw       float64         `json:"raw"`
	Days      float64         `json:"days"`
	Display   string          `json:"display"`
	Features  features.Vector `json:"features"`
}

// CostResult is the outcome of a cost prediction.
type CostResult struct {
	RequestID string `json:"requestId"`

	// InsuranceModelUsed is false for uninsured patients, whose insurance
	// cost is fixed at zero.
	InsuranceModelUsed bool    `json:"insuranceModelUsed"`
	InsuranceRaw       float64 `json:"insuranceRaw"`
	PatientRaw         float64 `json:"patientRaw"`
	Costs              Costs   `json:"costs"`

	InsuranceDisplay string `json:"insuranceDisplay"`
	PatientDisplay   string `json:"patientDisplay"`
	TotalDisplay     string `json:"totalDisplay"`

	InsuranceFeatures features.Vector `json:"insuranceFeatures"`
	PatientFeatures   features.Vector `json:"patientFeatures"`
}

// Estimator wires the validation gate, encoder, models and adjuster.
type Estimator struct {
	models  *ml.ModelSet
	metrics *metrics.MetricsWrapper
}

// New creates an Estimator. m may be nil.
func New(models *ml.ModelSet, m *metrics.MetricsWrapper) (*Estimator, error) {
	if models == nil || models.LOS == nil || models.InsuranceCost == nil || models.PatientCost == nil {
		return nil, errors.New("estimator requires all three models")
	}
	return &Estimator{models: models, metrics: m}, nil
}

// Models returns the model set backing the estimator.
func (e *Estimator) Models() *ml.ModelSet { return e.models }

// PredictLOS predicts the length of stay for c. A *patient.ValidationError is
// returned before any model is invoked when the case is incomplete.
func (e *Estimator) PredictLOS(ctx context.Context, c patient.Case) (LOSResult, error) {
	start := time.Now()
	res := LOSResult{RequestID: uuid.NewString()}

	c = c.Normalize()
	if err := e.validate(res.RequestID, patient.ModeLOS, c); err != nil {
		return res, err
	}

	v, err := features.Encode(c, e.models.LOS.Schema)
	if err != nil {
		return res, e.fail(res.RequestID, patient.ModeLOS, fmt.Errorf("encode: %w", err))
	}
	res.Features = v

	raw, err := e.models.LOS.Predict(ctx, v)
	if err != nil {
		return res, e.fail(res.RequestID, patient.ModeLOS, fmt.Errorf("los prediction: %w", err))
	}

	res.Raw = raw
	res.Days = AdjustLOS(raw, c.CABGType)
	res.Display = FormatDays(res.Days)

	e.done(res.RequestID, patient.ModeLOS, start)
	log.Debug().
		Str("request_id", res.RequestID).
		Float64("raw", raw).
		Float64("days", res.Days).
		Msg("los adjusted")

	return res, nil
}

// PredictCosts predicts the insurance and patient cost for c. The insurance
// model is skipped for uninsured patients.
func (e *Estimator) PredictCosts(ctx context.Context, c patient.Case) (CostResult, error) {
	start := time.Now()
	res := CostResult{RequestID: uuid.NewString()}

	c = c.Normalize()
	if err := e.validate(res.RequestID, patient.ModeCost, c); err != nil {
		return res, err
	}

	if c.Insurance != patient.Free {
		v, err := features.Encode(c, e.models.InsuranceCost.Schema)
		if err != nil {
			return res, e.fail(res.RequestID, patient.ModeCost, fmt.Errorf("encode: %w", err))
		}
		res.InsuranceFeatures = v

		raw, err := e.models.InsuranceCost.Predict(ctx, v)
		if err != nil {
			return res, e.fail(res.RequestID, patient.ModeCost, fmt.Errorf("insurance cost prediction: %w", err))
		}
		res.InsuranceRaw = raw
		res.InsuranceModelUsed = true
	}

	v, err := features.Encode(c, e.models.PatientCost.Schema)
	if err != nil {
		return res, e.fail(res.RequestID, patient.ModeCost, fmt.Errorf("encode: %w", err))
	}
	res.PatientFeatures = v

	raw, err := e.models.PatientCost.Predict(ctx, v)
	if err != nil {
		return res, e.fail(res.RequestID, patient.ModeCost, fmt.Errorf("patient cost prediction: %w", err))
	}
	res.PatientRaw = raw

	res.Costs = AdjustCosts(res.InsuranceRaw, res.PatientRaw, c.Insurance)
	res.InsuranceDisplay = FormatUSD(res.Costs.Insurance)
	res.PatientDisplay = FormatUSD(res.Costs.Patient)
	res.TotalDisplay = FormatUSD(res.Costs.Total)

	e.done(res.RequestID, patient.ModeCost, start)
	return res, nil
}

func (e *Estimator) validate(requestID string, mode patient.Mode, c patient.Case) error {
	err := c.Validate(mode)
	if err == nil {
		return nil
	}

	var ve *patient.ValidationError
	if errors.As(err, &ve) {
		if e.metrics != nil {
			e.metrics.ValidationFailureInc(string(mode))
		}
		log.Info().
			Str("request_id", requestID).
			Str("mode", string(mode)).
			Str("field", ve.Field).
			Msg("incomplete input")
	}
	return err
}

func (e *Estimator) fail(requestID string, mode patient.Mode, err error) error {
	if e.metrics != nil {
		e.metrics.ErrorsInc()
	}
	log.Error().
		Err(err).
		Str("request_id", requestID).
		Str("mode", string(mode)).
		Msg("prediction failed")
	return err
}

func (e *Estimator) done(requestID string, mode patient.Mode, start time.Time) {
	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.PredictionInc(string(mode))
		e.metrics.RequestDurationObserve(string(mode), elapsed)
	}
	log.Info().
		Str("request_id", requestID).
		Str("mode", string(mode)).
		Dur("latency", elapsed).
		Msg("prediction complete")
}
