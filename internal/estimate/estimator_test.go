package estimate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hospredict/internal/features"
	"hospredict/internal/metrics"
	"hospredict/internal/ml"
	"hospredict/internal/patient"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegressor struct {
	mu    sync.Mutex
	out   float64
	err   error
	calls int
	last  features.Vector
}

func (s *stubRegressor) Predict(_ context.Context, v features.Vector) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = v
	return s.out, s.err
}

func (s *stubRegressor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	los, insurance, patientCost *stubRegressor
	metrics                     *metrics.Metrics
	est                         *Estimator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		los:         &stubRegressor{out: 5.0},
		insurance:   &stubRegressor{out: 12000},
		patientCost: &stubRegressor{out: 3000},
		metrics:     metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	set := &ml.ModelSet{
		LOS:           ml.NewModel(ml.LOSModel, features.LOSSchema, f.los, nil),
		InsuranceCost: ml.NewModel(ml.InsuranceCostModel, features.CostSchema, f.insurance, nil),
		PatientCost:   ml.NewModel(ml.PatientCostModel, features.CostSchema, f.patientCost, nil),
	}
	est, err := New(set, metrics.NewWrapper(f.metrics))
	require.NoError(t, err)
	f.est = est
	return f
}

func losCase() patient.Case {
	return patient.Case{
		Age:          50,
		Gender:       patient.Male,
		Intervention: patient.CABG,
		CABGType:     patient.OneArtery,
		Comorbidity:  patient.ComorbidityNo,
	}
}

func costCase(ins patient.Insurance) patient.Case {
	return patient.Case{
		Age:          67,
		Gender:       patient.Female,
		Intervention: patient.Angioplasty,
		Comorbidity:  patient.ComorbidityYes,
		Diseases:     []patient.Disease{patient.Kidney},
		Insurance:    ins,
		LengthOfStay: 6,
	}
}

func TestNew_RequiresAllModels(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New(&ml.ModelSet{}, nil)
	assert.Error(t, err)
}

func TestPredictLOS_OneArtery(t *testing.T) {
	f := newFixture(t)

	res, err := f.est.PredictLOS(context.Background(), losCase())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, 5.0, res.Raw)
	assert.Equal(t, 3.0, res.Days)
	assert.Equal(t, "3.00 Days", res.Display)
	assert.Equal(t, []string(features.LOSSchema), res.Features.Names())
	assert.True(t, res.Features.Equal(f.los.last))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PredictionsTotal.WithLabelValues("los")))
}

func TestPredictLOS_FlooredAtZero(t *testing.T) {
	f := newFixture(t)
	f.los.out = 1.5

	res, err := f.est.PredictLOS(context.Background(), losCase())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Days)
	assert.Equal(t, "0.00 Days", res.Display)
}

func TestPredictLOS_IgnoresHiddenSubtype(t *testing.T) {
	f := newFixture(t)
	c := losCase()
	c.Intervention = patient.Angioplasty

	res, err := f.est.PredictLOS(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Days)

	v, _ := res.Features.Get(features.ColCABGOneArtery)
	assert.Equal(t, 0.0, v)
}

func TestPredictLOS_ValidationSkipsModel(t *testing.T) {
	f := newFixture(t)
	c := losCase()
	c.CABGType = ""

	_, err := f.est.PredictLOS(context.Background(), c)
	require.Error(t, err)

	var ve *patient.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, patient.UserMessage, ve.UserMessage())
	assert.True(t, errors.Is(err, patient.ErrIncompleteInput))
	assert.Equal(t, 0, f.los.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationFailuresTotal.WithLabelValues("los")))
}

func TestPredictLOS_ModelErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("artifact exploded")
	f.los.err = boom

	_, err := f.est.PredictLOS(context.Background(), losCase())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, patient.ErrIncompleteInput))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ErrorsTotal))
}

func TestPredictCosts_Insured(t *testing.T) {
	f := newFixture(t)

	res, err := f.est.PredictCosts(context.Background(), costCase(patient.Private))
	require.NoError(t, err)

	assert.True(t, res.InsuranceModelUsed)
	assert.Equal(t, Costs{Insurance: 12000, Patient: 3000, Total: 15000}, res.Costs)
	assert.Equal(t, "12,000 USD", res.InsuranceDisplay)
	assert.Equal(t, "3,000 USD", res.PatientDisplay)
	assert.Equal(t, "15,000 USD", res.TotalDisplay)

	los, ok := res.PatientFeatures.Get(features.ColLOS)
	require.True(t, ok)
	assert.Equal(t, 6.0, los)
	private, _ := res.InsuranceFeatures.Get(features.ColInsurancePrivate)
	assert.Equal(t, 1.0, private)
}

func TestPredictCosts_FreeSkipsInsuranceModel(t *testing.T) {
	f := newFixture(t)

	res, err := f.est.PredictCosts(context.Background(), costCase(patient.Free))
	require.NoError(t, err)

	assert.False(t, res.InsuranceModelUsed)
	assert.Equal(t, 0, f.insurance.Calls())
	assert.Equal(t, 1, f.patientCost.Calls())
	assert.Equal(t, 0.0, res.Costs.Insurance)
	assert.Equal(t, 3000.0, res.Costs.Total)
	assert.Equal(t, "0 USD", res.InsuranceDisplay)
	assert.Equal(t, 0, res.InsuranceFeatures.Len())
}

func TestPredictCosts_NegativeInsuranceFloored(t *testing.T) {
	f := newFixture(t)
	f.insurance.out = -10

	res, err := f.est.PredictCosts(context.Background(), costCase(patient.ArmedForces))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Costs.Insurance)
	assert.Equal(t, res.Costs.Insurance+res.Costs.Patient, res.Costs.Total)
}

func TestPredictCosts_ValidationSkipsModels(t *testing.T) {
	f := newFixture(t)
	c := costCase("")

	_, err := f.est.PredictCosts(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, patient.ErrIncompleteInput))
	assert.Equal(t, 0, f.insurance.Calls())
	assert.Equal(t, 0, f.patientCost.Calls())
}

func TestPredictCosts_ModelErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("timeout")
	f.patientCost.err = boom

	_, err := f.est.PredictCosts(context.Background(), costCase(patient.Veterans))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, f.insurance.Calls())
}

func TestPredict_ConcurrentRequests(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.est.PredictLOS(context.Background(), losCase())
			assert.NoError(t, err)
			assert.Equal(t, 3.0, res.Days)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, f.los.Calls())
}
