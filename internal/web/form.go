package web

import (
	"net/http"
	"strconv"
	"strings"

	"hospredict/internal/patient"
)

type option struct {
	Value string
	Label string
}

type formOptions struct {
	Genders       []option
	Interventions []option
	CABGTypes     []option
	Comorbidities []option
	Diseases      []option
	Insurances    []option
}

var options = buildOptions()

func buildOptions() formOptions {
	var o formOptions
	for _, g := range patient.Genders {
		o.Genders = append(o.Genders, option{string(g), string(g)})
	}
	for _, i := range patient.Interventions {
		o.Interventions = append(o.Interventions, option{string(i), string(i)})
	}
	for _, c := range patient.CABGTypes {
		o.CABGTypes = append(o.CABGTypes, option{string(c), c.Label()})
	}
	for _, c := range patient.Comorbidities {
		o.Comorbidities = append(o.Comorbidities, option{string(c), string(c)})
	}
	for _, d := range patient.Diseases {
		o.Diseases = append(o.Diseases, option{string(d), d.Label()})
	}
	for _, i := range patient.Insurances {
		o.Insurances = append(o.Insurances, option{string(i), string(i)})
	}
	return o
}

// formValues echoes the submitted selections back into the re-rendered form.
type formValues struct {
	Age          string
	Gender       string
	Intervention string
	CABGType     string
	Comorbidity  string
	Diseases     map[string]bool
	Insurance    string
	LengthOfStay string
}

func defaultForm() formValues {
	return formValues{
		Age:          strconv.Itoa(patient.DefaultAge),
		LengthOfStay: strconv.Itoa(patient.MinLengthOfStay),
		Diseases:     map[string]bool{},
	}
}

func readForm(r *http.Request) formValues {
	f := formValues{
		Age:          strings.TrimSpace(r.PostFormValue("age")),
		Gender:       r.PostFormValue("gender"),
		Intervention: r.PostFormValue("intervention"),
		CABGType:     r.PostFormValue("cabgType"),
		Comorbidity:  r.PostFormValue("comorbidity"),
		Insurance:    r.PostFormValue("insuranceType"),
		LengthOfStay: strings.TrimSpace(r.PostFormValue("lengthOfStay")),
		Diseases:     map[string]bool{},
	}
	for _, d := range r.PostForm["diseases"] {
		f.Diseases[d] = true
	}
	return f
}

// toCase converts the submitted strings into a Case. Unparsable values are
// reported as incomplete input, the same as a missing selection.
func (f formValues) toCase(mode patient.Mode) (patient.Case, error) {
	var (
		c   patient.Case
		err error
	)

	if c.Age, err = strconv.Atoi(f.Age); err != nil {
		return c, &patient.ValidationError{Field: "age", Reason: "not a number"}
	}
	if c.Gender, err = patient.ParseGender(f.Gender); err != nil {
		return c, &patient.ValidationError{Field: "gender", Reason: err.Error()}
	}
	if c.Intervention, err = patient.ParseIntervention(f.Intervention); err != nil {
		return c, &patient.ValidationError{Field: "intervention", Reason: err.Error()}
	}
	if c.Intervention == patient.CABG {
		if c.CABGType, err = patient.ParseCABGType(f.CABGType); err != nil {
			return c, &patient.ValidationError{Field: "cabgType", Reason: err.Error()}
		}
	}
	if c.Comorbidity, err = patient.ParseComorbidity(f.Comorbidity); err != nil {
		return c, &patient.ValidationError{Field: "comorbidity", Reason: err.Error()}
	}
	if c.Comorbidity == patient.ComorbidityYes {
		for _, o := range options.Diseases {
			if !f.Diseases[o.Value] {
				continue
			}
			d, err := patient.ParseDisease(o.Value)
			if err != nil {
				return c, &patient.ValidationError{Field: "diseases", Reason: err.Error()}
			}
			c.Diseases = append(c.Diseases, d)
		}
	}

	if mode == patient.ModeCost {
		if c.Insurance, err = patient.ParseInsurance(f.Insurance); err != nil {
			return c, &patient.ValidationError{Field: "insuranceType", Reason: err.Error()}
		}
		if c.LengthOfStay, err = strconv.ParseFloat(f.LengthOfStay, 64); err != nil {
			return c, &patient.ValidationError{Field: "lengthOfStay", Reason: "not a number"}
		}
	}
	return c, nil
}
