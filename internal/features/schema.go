package features

import (
	"errors"
	"fmt"
)

// Column names as the models were trained with them. These strings are a
// contract with the model artifacts and must not be reworded.
const (
	ColAge                 = "Age"
	ColGender              = "Gender"
	ColAngioplasty         = "Angioplasty"
	ColCABGOneArtery       = "CABG (One Artery)"
	ColCABGTwoArteries     = "CABG (Two Arteries)"
	ColCABGOneVein         = "CABG (One Vein)"
	ColCABGTwoOrMoreVeins  = "CABG (Two or More Veins)"
	ColComorbiditiesYesNo  = "Comorbidities (Yes, No)"
	ColComorbidity         = "Comorbidity"
	ColMetabolic           = "Metabolic and Endocrine Diseases"
	ColNeurological        = "Neurological and Brain Diseases"
	ColCardiovascular      = "Cardiovascular Diseases"
	ColRespiratory         = "Respiratory Diseases"
	ColKidney              = "Kidney Diseases"
	ColInsuranceArmedForce = "Insurance Type (ArmedForces)"
	ColInsuranceFree       = "Insurance Type (Free)"
	ColInsurancePrivate    = "Insurance Type (Private)"
	ColInsuranceVeterans   = "Insurance Type (Veterans)"
	ColLOS                 = "LOS"
)

// ErrSchemaMismatch is returned when a schema names a column the encoder
// cannot produce.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Schema is the ordered list of columns a model consumes.
type Schema []string

// LOSSchema is the column order of the length-of-stay model.
var LOSSchema = Schema{
	ColAge,
	ColGender,
	ColAngioplasty,
	ColCABGOneArtery,
	ColCABGTwoArteries,
	ColCABGOneVein,
	ColCABGTwoOrMoreVeins,
	ColComorbiditiesYesNo,
	ColMetabolic,
	ColNeurological,
	ColCardiovascular,
	ColRespiratory,
	ColKidney,
}

// CostSchema is the column order of both cost models. Free insurance is the
// all-zero baseline of the insurance group.
var CostSchema = Schema{
	ColAge,
	ColGender,
	ColInsuranceArmedForce,
	ColInsurancePrivate,
	ColInsuranceVeterans,
	ColLOS,
	ColAngioplasty,
	ColCABGOneArtery,
	ColCABGTwoArteries,
	ColCABGOneVein,
	ColCABGTwoOrMoreVeins,
	ColComorbidity,
	ColMetabolic,
	ColNeurological,
	ColCardiovascular,
	ColRespiratory,
	ColKidney,
}

// Known reports whether the encoder can produce column name.
func Known(name string) bool {
	_, ok := extractors[name]
	return ok
}

// Validate rejects empty schemas, unknown columns and duplicates.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty schema", ErrSchemaMismatch)
	}
	seen := make(map[string]bool, len(s))
	for _, name := range s {
		if !Known(name) {
			return fmt.Errorf("%w: unknown column %q", ErrSchemaMismatch, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate column %q", ErrSchemaMismatch, name)
		}
		seen[name] = true
	}
	return nil
}

// Equal reports whether s and o list the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	for i, n := range s {
		if n == name {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy.
func (s Schema) Clone() Schema {
	return append(Schema(nil), s...)
}
