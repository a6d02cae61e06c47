// Package patient defines the per-request patient case collected by the
// prediction form and the validation gate that must pass before any feature
// encoding happens.
//
// A Case is ephemeral: it is built from one form submission, used for one
// prediction and discarded.
package patient

import (
	"errors"
	"fmt"
)

// Mode selects which prediction flow a case is validated for.
type Mode string

const (
	ModeLOS  Mode = "los"
	ModeCost Mode = "cost"
)

// ParseMode parses "los" or "cost".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLOS, ModeCost:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown prediction mode %q", s)
}

// Age and length-of-stay domains accepted by the form.
const (
	MinAge          = 23
	MaxAge          = 94
	DefaultAge      = 50
	MinLengthOfStay = 1
	MaxLengthOfStay = 25
)

// UserMessage is the single message shown for any incomplete input.
const UserMessage = "Please complete all fields correctly."

// ErrIncompleteInput is the only error kind the prediction flow handles.
var ErrIncompleteInput = errors.New("incomplete input")

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrIncompleteInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrIncompleteInput }

// UserMessage returns the text to display to the user.
func (e *ValidationError) UserMessage() string { return UserMessage }

// Case holds the raw selections for one prediction request.
type Case struct {
	Age          int          `json:"age"`
	Gender       Gender       `json:"gender"`
	Intervention Intervention `json:"intervention"`
	CABGType     CABGType     `json:"cabgType,omitempty"`
	Comorbidity  Comorbidity  `json:"comorbidity"`
	Diseases     []Disease    `json:"diseases,omitempty"`

	// Cost flow only.
	Insurance    Insurance `json:"insuranceType,omitempty"`
	LengthOfStay float64   `json:"lengthOfStay,omitempty"`
}

// HasDisease reports whether d was selected. Selections are ignored unless
// the comorbidity answer is Yes.
func (c Case) HasDisease(d Disease) bool {
	if c.Comorbidity != ComorbidityYes {
		return false
	}
	for _, x := range c.Diseases {
		if x == d {
			return true
		}
	}
	return false
}

// IsCABG reports whether the intervention is a bypass graft.
func (c Case) IsCABG() bool { return c.Intervention == CABG }

// Normalize returns a copy with selections that the form would hide removed:
// the CABG subtype when the intervention is not CABG, and the disease set
// when the comorbidity answer is not Yes. Duplicate diseases are collapsed.
func (c Case) Normalize() Case {
	n := c
	if n.Intervention != CABG {
		n.CABGType = ""
	}
	if n.Comorbidity != ComorbidityYes {
		n.Diseases = nil
		return n
	}
	seen := make(map[Disease]bool, len(c.Diseases))
	n.Diseases = make([]Disease, 0, len(c.Diseases))
	for _, d := range c.Diseases {
		if !seen[d] {
			seen[d] = true
			n.Diseases = append(n.Diseases, d)
		}
	}
	return n
}

// Validate is the gate in front of the encoder. It returns a
// *ValidationError when any selection required by mode is unresolved.
func (c Case) Validate(mode Mode) error {
	if c.Age < MinAge || c.Age > MaxAge {
		return &ValidationError{Field: "age", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinAge, MaxAge, c.Age)}
	}
	if !c.Gender.Resolved() {
		return &ValidationError{Field: "gender", Reason: "not selected"}
	}
	if !c.Intervention.Resolved() {
		return &ValidationError{Field: "intervention", Reason: "not selected"}
	}
	if c.Intervention == CABG && !c.CABGType.Resolved() {
		return &ValidationError{Field: "cabgType", Reason: "required for CABG"}
	}
	if !c.Comorbidity.Resolved() {
		return &ValidationError{Field: "comorbidity", Reason: "not selected"}
	}
	if c.Comorbidity == ComorbidityYes {
		if len(c.Diseases) == 0 {
			return &ValidationError{Field: "diseases", Reason: "at least one category required"}
		}
		for _, d := range c.Diseases {
			if !d.Resolved() {
				return &ValidationError{Field: "diseases", Reason: fmt.Sprintf("unknown category %q", d)}
			}
		}
	}

	switch mode {
	case ModeLOS:
		return nil
	case ModeCost:
		if !c.Insurance.Resolved() {
			return &ValidationError{Field: "insuranceType", Reason: "not selected"}
		}
		if !(c.LengthOfStay >= MinLengthOfStay && c.LengthOfStay <= MaxLengthOfStay) {
			return &ValidationError{Field: "lengthOfStay", Reason: fmt.Sprintf("must be between %d and %d, got %g", MinLengthOfStay, MaxLengthOfStay, c.LengthOfStay)}
		}
		return nil
	default:
		return fmt.Errorf("unknown prediction mode %q", mode)
	}
}
