package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"hospredict/internal/estimate"
	"hospredict/internal/exitcode"
	"hospredict/internal/metrics"
	"hospredict/internal/ml"
	"hospredict/internal/patient"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type predictFlags struct {
	age          int
	gender       string
	intervention string
	cabgType     string
	comorbidity  string
	diseases     []string
	insurance    string
	lengthOfStay float64
	jsonOutput   bool
}

var predictOpts predictFlags

var predictCmd = &cobra.Command{
	Use:       "predict los|cost",
	Short:     "Run a single prediction and print the result",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(patient.ModeLOS), string(patient.ModeCost)},
	RunE:      runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.IntVar(&predictOpts.age, "age", patient.DefaultAge, "Patient age (23-94)")
	f.StringVar(&predictOpts.gender, "gender", "", "Male or Female")
	f.StringVar(&predictOpts.intervention, "intervention", "", "Angioplasty or CABG")
	f.StringVar(&predictOpts.cabgType, "cabg-type", "", "OneArtery, TwoArteries, OneVein or TwoOrMoreVeins (CABG only)")
	f.StringVar(&predictOpts.comorbidity, "comorbidity", "", "Yes or No")
	f.StringSliceVar(&predictOpts.diseases, "disease", nil, "Comorbidity category, repeatable: Metabolic, Neurological, Cardiovascular, Respiratory, Kidney")
	f.StringVar(&predictOpts.insurance, "insurance", "", "ArmedForces, Free, Private or Veterans (cost only)")
	f.Float64Var(&predictOpts.lengthOfStay, "los", 0, "Length of stay in days, 1-25 (cost only)")
	f.BoolVar(&predictOpts.jsonOutput, "json", false, "Print the full result as JSON")
	rootCmd.AddCommand(predictCmd)
}

// buildCase parses the flag values. Unknown values are usage errors; missing
// ones are left for validation.
func (p predictFlags) buildCase() (patient.Case, error) {
	var (
		c   patient.Case
		err error
	)
	c.Age = p.age
	c.LengthOfStay = p.lengthOfStay
	if c.Gender, err = patient.ParseGender(p.gender); err != nil {
		return c, err
	}
	if c.Intervention, err = patient.ParseIntervention(p.intervention); err != nil {
		return c, err
	}
	if c.CABGType, err = patient.ParseCABGType(p.cabgType); err != nil {
		return c, err
	}
	if c.Comorbidity, err = patient.ParseComorbidity(p.comorbidity); err != nil {
		return c, err
	}
	for _, d := range p.diseases {
		disease, err := patient.ParseDisease(d)
		if err != nil {
			return c, err
		}
		c.Diseases = append(c.Diseases, disease)
	}
	if c.Insurance, err = patient.ParseInsurance(p.insurance); err != nil {
		return c, err
	}
	return c, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	mode, err := patient.ParseMode(args[0])
	if err != nil {
		return withCode(exitcode.UsageError, err)
	}
	c, err := predictOpts.buildCase()
	if err != nil {
		return withCode(exitcode.UsageError, err)
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}

	// One-shot runs keep their metrics off the global registry.
	mw := metrics.NewWrapper(metrics.NewWithRegistry(prometheus.NewRegistry()))
	models, err := ml.LoadModels(cmd.Context(), s.LoadConfig(), mw)
	if err != nil {
		return withCode(exitcode.ModelLoadError, err)
	}
	est, err := estimate.New(models, mw)
	if err != nil {
		return withCode(exitcode.ModelLoadError, err)
	}

	return predictAndPrint(cmd, est, mode, c, predictOpts.jsonOutput)
}

func predictAndPrint(cmd *cobra.Command, est *estimate.Estimator, mode patient.Mode, c patient.Case, asJSON bool) error {
	out := cmd.OutOrStdout()

	var (
		result interface{}
		err    error
	)
	switch mode {
	case patient.ModeLOS:
		var res estimate.LOSResult
		res, err = est.PredictLOS(cmd.Context(), c)
		if err == nil && !asJSON {
			fmt.Fprintf(out, "Predicted Length of Stay: %s\n", res.Display)
		}
		result = res
	case patient.ModeCost:
		var res estimate.CostResult
		res, err = est.PredictCosts(cmd.Context(), c)
		if err == nil && !asJSON {
			fmt.Fprintf(out, "Insurance Cost: %s\n", res.InsuranceDisplay)
			fmt.Fprintf(out, "Patient Cost:   %s\n", res.PatientDisplay)
			fmt.Fprintf(out, "Total Cost:     %s\n", res.TotalDisplay)
		}
		result = res
	}

	if errors.Is(err, patient.ErrIncompleteInput) {
		fmt.Fprintln(cmd.ErrOrStderr(), patient.UserMessage)
		return withCode(exitcode.ValidationError, err)
	}
	if err != nil {
		return withCode(exitcode.PredictionError, err)
	}
	if asJSON {
		return writeJSON(out, result)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
