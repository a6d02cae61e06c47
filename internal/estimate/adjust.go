package estimate

import (
	"math"

	"hospredict/internal/patient"
)

// Days subtracted from the raw LOS prediction per CABG subtype. Subtypes not
// listed, and non-CABG interventions, are left unchanged.
var losReductions = map[patient.CABGType]float64{
	patient.OneArtery:   2,
	patient.TwoArteries: 1,
	patient.OneVein:     1,
}

// LOSReduction returns the days subtracted for t.
func LOSReduction(t patient.CABGType) float64 {
	return losReductions[t]
}

// floor clamps x to [0, +Inf). Non-finite model outputs become zero.
func floor(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

// AdjustLOS applies the CABG subtype correction to a raw prediction and
// floors the result at zero. cabgType must be empty for non-CABG cases.
func AdjustLOS(raw float64, cabgType patient.CABGType) float64 {
	return floor(raw - LOSReduction(cabgType))
}

// Costs are the adjusted cost components in USD.
type Costs struct {
	Insurance float64 `json:"insurance"`
	Patient   float64 `json:"patient"`
	Total     float64 `json:"total"`
}

// AdjustCosts floors both raw costs at zero, forces the insurance share to
// zero for uninsured patients and sums the adjusted parts.
func AdjustCosts(insuranceRaw, patientRaw float64, insurance patient.Insurance) Costs {
	c := Costs{
		Insurance: floor(insuranceRaw),
		Patient:   floor(patientRaw),
	}
	if insurance == patient.Free {
		c.Insurance = 0
	}
	c.Total = c.Insurance + c.Patient
	return c
}
