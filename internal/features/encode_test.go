package features

import (
	"encoding/json"
	"errors"
	"testing"

	"hospredict/internal/patient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cabgColumns = []string{ColCABGOneArtery, ColCABGTwoArteries, ColCABGOneVein, ColCABGTwoOrMoreVeins}

var diseaseColumns = []string{ColMetabolic, ColNeurological, ColCardiovascular, ColRespiratory, ColKidney}

func mustGet(t *testing.T, v Vector, name string) float64 {
	t.Helper()
	val, ok := v.Get(name)
	require.True(t, ok, "column %q missing", name)
	return val
}

func TestEncodeLOS_AngioplastyNoComorbidity(t *testing.T) {
	c := patient.Case{
		Age:          50,
		Gender:       patient.Male,
		Intervention: patient.Angioplasty,
		Comorbidity:  patient.ComorbidityNo,
	}

	v := EncodeLOS(c)

	assert.Equal(t, []string(LOSSchema), v.Names())
	assert.Equal(t, 50.0, mustGet(t, v, ColAge))
	assert.Equal(t, 1.0, mustGet(t, v, ColGender))
	assert.Equal(t, 1.0, mustGet(t, v, ColAngioplasty))
	for _, col := range cabgColumns {
		assert.Zero(t, mustGet(t, v, col), col)
	}
	for _, col := range diseaseColumns {
		assert.Zero(t, mustGet(t, v, col), col)
	}
	assert.Zero(t, mustGet(t, v, ColComorbiditiesYesNo))
}

func TestEncodeLOS_ExactOrder(t *testing.T) {
	c := patient.Case{
		Age:          71,
		Gender:       patient.Female,
		Intervention: patient.CABG,
		CABGType:     patient.OneVein,
		Comorbidity:  patient.ComorbidityYes,
		Diseases:     []patient.Disease{patient.Respiratory, patient.Metabolic},
	}

	v := EncodeLOS(c)
	assert.Equal(t, []float64{71, 0, 0, 0, 0, 1, 0, 1, 1, 0, 0, 1, 0}, v.Values())
}

func TestEncode_CABGFlagsMutuallyExclusive(t *testing.T) {
	for _, ct := range patient.CABGTypes {
		t.Run(string(ct), func(t *testing.T) {
			c := patient.Case{
				Age:          60,
				Gender:       patient.Male,
				Intervention: patient.CABG,
				CABGType:     ct,
				Comorbidity:  patient.ComorbidityNo,
			}
			v := EncodeLOS(c)

			sum := 0.0
			for _, col := range cabgColumns {
				sum += mustGet(t, v, col)
			}
			assert.Equal(t, 1.0, sum)
			assert.Equal(t, 1.0, mustGet(t, v, ct.Label()))
			assert.Zero(t, mustGet(t, v, ColAngioplasty))
		})
	}
}

func TestEncode_HiddenSelectionsIgnored(t *testing.T) {
	c := patient.Case{
		Age:          40,
		Gender:       patient.Female,
		Intervention: patient.Angioplasty,
		CABGType:     patient.OneArtery,
		Comorbidity:  patient.ComorbidityNo,
		Diseases:     []patient.Disease{patient.Kidney},
	}
	v := EncodeLOS(c)
	assert.Zero(t, mustGet(t, v, ColCABGOneArtery))
	assert.Zero(t, mustGet(t, v, ColKidney))
}

func TestEncodeCost_InsuranceGroup(t *testing.T) {
	insuranceColumns := []string{ColInsuranceArmedForce, ColInsurancePrivate, ColInsuranceVeterans}

	testCases := []struct {
		insurance patient.Insurance
		hot       string
	}{
		{patient.ArmedForces, ColInsuranceArmedForce},
		{patient.Private, ColInsurancePrivate},
		{patient.Veterans, ColInsuranceVeterans},
		{patient.Free, ""},
	}

	for _, tc := range testCases {
		t.Run(string(tc.insurance), func(t *testing.T) {
			c := patient.Case{
				Age:          80,
				Gender:       patient.Female,
				Intervention: patient.Angioplasty,
				Comorbidity:  patient.ComorbidityNo,
				Insurance:    tc.insurance,
				LengthOfStay: 7,
			}
			v := EncodeCost(c)
			for _, col := range insuranceColumns {
				want := 0.0
				if col == tc.hot {
					want = 1
				}
				assert.Equal(t, want, mustGet(t, v, col), col)
			}
			_, hasFree := v.Get(ColInsuranceFree)
			assert.False(t, hasFree, "free is the baseline and has no column")
			assert.Equal(t, 7.0, mustGet(t, v, ColLOS))
		})
	}
}

func TestEncodeCost_ComorbidityFlags(t *testing.T) {
	c := patient.Case{
		Age:          55,
		Gender:       patient.Male,
		Intervention: patient.CABG,
		CABGType:     patient.TwoArteries,
		Comorbidity:  patient.ComorbidityYes,
		Diseases:     []patient.Disease{patient.Kidney, patient.Cardiovascular},
		Insurance:    patient.Veterans,
		LengthOfStay: 12,
	}
	v := EncodeCost(c)

	assert.Equal(t, []string(CostSchema), v.Names())
	assert.Equal(t, []float64{55, 1, 0, 0, 1, 12, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 1}, v.Values())
}

func TestEncode_Deterministic(t *testing.T) {
	c := patient.Case{
		Age:          33,
		Gender:       patient.Male,
		Intervention: patient.CABG,
		CABGType:     patient.TwoOrMoreVeins,
		Comorbidity:  patient.ComorbidityYes,
		Diseases:     []patient.Disease{patient.Neurological},
		Insurance:    patient.ArmedForces,
		LengthOfStay: 3,
	}
	assert.True(t, EncodeLOS(c).Equal(EncodeLOS(c)))
	assert.True(t, EncodeCost(c).Equal(EncodeCost(c)))
}

func TestEncode_CustomSchema(t *testing.T) {
	schema := Schema{ColInsuranceFree, ColAge}
	c := patient.Case{Age: 61, Insurance: patient.Free}

	v, err := Encode(c, schema)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 61}, v.Values())

	schema[0] = "Blood Type"
	assert.Equal(t, ColInsuranceFree, v.Names()[0], "vector must not alias the schema")
}

func TestEncode_UnknownColumn(t *testing.T) {
	_, err := Encode(patient.Case{}, Schema{ColAge, "BMI"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, LOSSchema.Validate())
	assert.NoError(t, CostSchema.Validate())

	testCases := []struct {
		name   string
		schema Schema
	}{
		{"empty", Schema{}},
		{"unknown", Schema{ColAge, "Height"}},
		{"duplicate", Schema{ColAge, ColGender, ColAge}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.schema.Validate()
			assert.True(t, errors.Is(err, ErrSchemaMismatch))
		})
	}
}

func TestVector(t *testing.T) {
	v := NewVector([]string{"a", "b"}, []float64{1, 2})
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, v.Map())

	vals := v.Values()
	vals[0] = 100
	got, _ := v.Get("a")
	assert.Equal(t, 1.0, got)

	assert.False(t, v.Equal(NewVector([]string{"b", "a"}, []float64{2, 1})))
	assert.Panics(t, func() { NewVector([]string{"a"}, nil) })
}

func TestVector_JSONKeepsOrder(t *testing.T) {
	v := NewVector([]string{"Age", "Gender"}, []float64{61, 1})

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Age","value":61},{"name":"Gender","value":1}]`, string(data))

	var back Vector
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, v.Equal(back))
}

func TestSchemaEqual(t *testing.T) {
	assert.True(t, CostSchema.Equal(CostSchema.Clone()))
	assert.False(t, CostSchema.Equal(LOSSchema))
	assert.False(t, Schema{ColAge, ColGender}.Equal(Schema{ColGender, ColAge}))
}
