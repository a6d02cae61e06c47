package patient

import (
	"fmt"
	"strings"
)

// Gender of the patient. The zero value means "not yet chosen".
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// Intervention is the cardiac procedure performed.
type Intervention string

const (
	Angioplasty Intervention = "Angioplasty"
	CABG        Intervention = "CABG"
)

// CABGType is the bypass subtype, by vessel count and type.
type CABGType string

const (
	OneArtery      CABGType = "OneArtery"
	TwoArteries    CABGType = "TwoArteries"
	OneVein        CABGType = "OneVein"
	TwoOrMoreVeins CABGType = "TwoOrMoreVeins"
)

// Comorbidity answers whether the patient has any comorbidity.
type Comorbidity string

const (
	ComorbidityYes Comorbidity = "Yes"
	ComorbidityNo  Comorbidity = "No"
)

// Disease is a comorbidity category.
type Disease string

const (
	Metabolic      Disease = "Metabolic"
	Neurological   Disease = "Neurological"
	Cardiovascular Disease = "Cardiovascular"
	Respiratory    Disease = "Respiratory"
	Kidney         Disease = "Kidney"
)

// Insurance is the payer category, used by the cost flow only.
type Insurance string

const (
	ArmedForces Insurance = "ArmedForces"
	Free        Insurance = "Free"
	Private     Insurance = "Private"
	Veterans    Insurance = "Veterans"
)

var (
	Genders       = []Gender{Male, Female}
	Interventions = []Intervention{Angioplasty, CABG}
	CABGTypes     = []CABGType{OneArtery, TwoArteries, OneVein, TwoOrMoreVeins}
	Comorbidities = []Comorbidity{ComorbidityYes, ComorbidityNo}
	Diseases      = []Disease{Metabolic, Neurological, Cardiovascular, Respiratory, Kidney}
	Insurances    = []Insurance{ArmedForces, Free, Private, Veterans}
)

var cabgLabels = map[CABGType]string{
	OneArtery:      "CABG (One Artery)",
	TwoArteries:    "CABG (Two Arteries)",
	OneVein:        "CABG (One Vein)",
	TwoOrMoreVeins: "CABG (Two or More Veins)",
}

var diseaseLabels = map[Disease]string{
	Metabolic:      "Metabolic and Endocrine Diseases",
	Neurological:   "Neurological and Brain Diseases",
	Cardiovascular: "Cardiovascular Diseases",
	Respiratory:    "Respiratory Diseases",
	Kidney:         "Kidney Diseases",
}

// Label returns the human readable name shown in the form.
func (c CABGType) Label() string { return cabgLabels[c] }

// Label returns the human readable name shown in the form.
func (d Disease) Label() string { return diseaseLabels[d] }

// Resolved reports whether a concrete value was chosen.
func (g Gender) Resolved() bool { return g == Male || g == Female }

// Resolved reports whether a concrete intervention was chosen.
func (i Intervention) Resolved() bool { return i == Angioplasty || i == CABG }

// Resolved reports whether c is one of the four CABG subtypes.
func (c CABGType) Resolved() bool {
	_, ok := cabgLabels[c]
	return ok
}

// Resolved reports whether the Yes/No question was answered.
func (c Comorbidity) Resolved() bool { return c == ComorbidityYes || c == ComorbidityNo }

// Resolved reports whether d is a known disease category.
func (d Disease) Resolved() bool {
	_, ok := diseaseLabels[d]
	return ok
}

// Resolved reports whether a concrete payer was chosen.
func (i Insurance) Resolved() bool {
	return i == ArmedForces || i == Free || i == Private || i == Veterans
}

// Empty strings and the form placeholders ("Select...") parse to the
// unresolved zero value without error.
func isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.HasPrefix(strings.ToLower(s), "select")
}

// ParseGender accepts "Male" or "Female", case-insensitively.
func ParseGender(s string) (Gender, error) {
	if isPlaceholder(s) {
		return "", nil
	}
	for _, g := range Genders {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// ParseIntervention accepts "Angioplasty" or "CABG", case-insensitively.
func ParseIntervention(s string) (Intervention, error) {
	if isPlaceholder(s) {
		return "", nil
	}
	for _, i := range Interventions {
		if strings.EqualFold(strings.TrimSpace(s), string(i)) {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown intervention %q", s)
}

// ParseCABGType accepts both the canonical value ("OneArtery") and the form
// label ("CABG (One Artery)").
func ParseCABGType(s string) (CABGType, error) {
	if isPlaceholder(s) {
		return "", nil
	}
	s = strings.TrimSpace(s)
	for _, c := range CABGTypes {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown CABG type %q", s)
}

// ParseComorbidity accepts yes/no answers, including true/false and 1/0.
func ParseComorbidity(s string) (Comorbidity, error) {
	if isPlaceholder(s) {
		return "", nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return ComorbidityYes, nil
	case "no", "false", "0":
		return ComorbidityNo, nil
	}
	return "", fmt.Errorf("unknown comorbidity answer %q", s)
}

// ParseDisease accepts both the canonical value and the form label.
func ParseDisease(s string) (Disease, error) {
	s = strings.TrimSpace(s)
	for _, d := range Diseases {
		if strings.EqualFold(s, string(d)) || strings.EqualFold(s, d.Label()) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown disease category %q", s)
}

// ParseInsurance accepts the canonical payer names, case-insensitively.
func ParseInsurance(s string) (Insurance, error) {
	if isPlaceholder(s) {
		return "", nil
	}
	for _, i := range Insurances {
		if strings.EqualFold(strings.TrimSpace(s), string(i)) {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown insurance type %q", s)
}
