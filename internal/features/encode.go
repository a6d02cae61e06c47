// Package features turns a validated patient case into the fixed-order,
// named numeric vector a regression model was trained on.
//
// Encoding is pure: the same case and schema always give the same vector.
package features

import (
	"fmt"

	"hospredict/internal/patient"
)

type extractor func(c patient.Case) float64

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func cabg(t patient.CABGType) extractor {
	return func(c patient.Case) float64 { return flag(c.IsCABG() && c.CABGType == t) }
}

func disease(d patient.Disease) extractor {
	return func(c patient.Case) float64 { return flag(c.HasDisease(d)) }
}

func insurance(i patient.Insurance) extractor {
	return func(c patient.Case) float64 { return flag(c.Insurance == i) }
}

func anyComorbidity(c patient.Case) float64 { return flag(c.Comorbidity == patient.ComorbidityYes) }

var extractors = map[string]extractor{
	ColAge:                 func(c patient.Case) float64 { return float64(c.Age) },
	ColGender:              func(c patient.Case) float64 { return flag(c.Gender == patient.Male) },
	ColAngioplasty:         func(c patient.Case) float64 { return flag(c.Intervention == patient.Angioplasty) },
	ColCABGOneArtery:       cabg(patient.OneArtery),
	ColCABGTwoArteries:     cabg(patient.TwoArteries),
	ColCABGOneVein:         cabg(patient.OneVein),
	ColCABGTwoOrMoreVeins:  cabg(patient.TwoOrMoreVeins),
	ColComorbiditiesYesNo:  anyComorbidity,
	ColComorbidity:         anyComorbidity,
	ColMetabolic:           disease(patient.Metabolic),
	ColNeurological:        disease(patient.Neurological),
	ColCardiovascular:      disease(patient.Cardiovascular),
	ColRespiratory:         disease(patient.Respiratory),
	ColKidney:              disease(patient.Kidney),
	ColInsuranceArmedForce: insurance(patient.ArmedForces),
	ColInsuranceFree:       insurance(patient.Free),
	ColInsurancePrivate:    insurance(patient.Private),
	ColInsuranceVeterans:   insurance(patient.Veterans),
	ColLOS:                 func(c patient.Case) float64 { return c.LengthOfStay },
}

// Encode projects c onto schema. The case is expected to have passed
// validation; Encode does not re-check it.
func Encode(c patient.Case, schema Schema) (Vector, error) {
	values := make([]float64, len(schema))
	for i, name := range schema {
		ex, ok := extractors[name]
		if !ok {
			return Vector{}, fmt.Errorf("%w: unknown column %q", ErrSchemaMismatch, name)
		}
		values[i] = ex(c)
	}
	return Vector{names: schema.Clone(), values: values}, nil
}

// EncodeLOS encodes c with the default length-of-stay schema.
func EncodeLOS(c patient.Case) Vector {
	v, _ := Encode(c, LOSSchema)
	return v
}

// EncodeCost encodes c with the default cost schema.
func EncodeCost(c patient.Case) Vector {
	v, _ := Encode(c, CostSchema)
	return v
}
