package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hospredict/internal/common"
	"hospredict/internal/estimate"
	"hospredict/internal/exitcode"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLinearModels writes three linear artifacts and points the
// configuration at them.
func setupLinearModels(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Setenv(common.EnvEnvFile, filepath.Join(dir, "missing.env"))
	t.Setenv(common.EnvConfigFile, "")
	t.Setenv(common.EnvModelFormat, "linear")
	t.Setenv(common.EnvLogLevel, "error")
	t.Setenv(common.EnvLOSModelPath, write("los.json", `{"intercept": 4, "coefficients": {"Age": 0.02}}`))
	t.Setenv(common.EnvInsuranceModelPath, write("insurance.json", `{"intercept": 9000, "coefficients": {"LOS": 500}}`))
	t.Setenv(common.EnvPatientModelPath, write("patient.json", `{"intercept": 1000, "coefficients": {"LOS": 100}}`))
}

func resetFlags() {
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	configFile, logLevel, logFormat = "", "", ""
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPredictLOS(t *testing.T) {
	setupLinearModels(t)

	out, err := run(t, "predict", "los",
		"--age", "50", "--gender", "Male", "--intervention", "CABG",
		"--cabg-type", "CABG (One Artery)", "--comorbidity", "No")
	require.NoError(t, err)
	assert.Equal(t, "Predicted Length of Stay: 3.00 Days\n", out)
}

func TestPredictCost(t *testing.T) {
	setupLinearModels(t)

	out, err := run(t, "predict", "cost",
		"--age", "61", "--gender", "Female", "--intervention", "Angioplasty",
		"--comorbidity", "Yes", "--disease", "Kidney", "--disease", "Respiratory",
		"--insurance", "Private", "--los", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Insurance Cost: 11,000 USD")
	assert.Contains(t, out, "Patient Cost:   1,400 USD")
	assert.Contains(t, out, "Total Cost:     12,400 USD")
}

func TestPredictCost_JSON(t *testing.T) {
	setupLinearModels(t)

	out, err := run(t, "predict", "cost", "--json",
		"--age", "61", "--gender", "Female", "--intervention", "Angioplasty",
		"--comorbidity", "No", "--insurance", "Free", "--los", "4")
	require.NoError(t, err)

	var res estimate.CostResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.InsuranceModelUsed)
	assert.Equal(t, 0.0, res.Costs.Insurance)
	assert.Equal(t, 1400.0, res.Costs.Total)
}

func TestPredict_ExitCodes(t *testing.T) {
	setupLinearModels(t)

	_, err := run(t, "predict", "los", "--gender", "Male", "--intervention", "CABG", "--comorbidity", "No")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitCodeOf(err))

	_, err = run(t, "predict", "cost", "--gender", "Female", "--intervention", "Angioplasty",
		"--comorbidity", "No", "--insurance", "Private", "--los", "NaN")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitCodeOf(err))

	_, err = run(t, "predict", "los", "--gender", "Robot")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitCodeOf(err))

	_, err = run(t, "predict", "weight")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitCodeOf(err))

	t.Setenv(common.EnvLOSModelPath, filepath.Join(t.TempDir(), "gone.json"))
	_, err = run(t, "predict", "los", "--gender", "Male", "--intervention", "Angioplasty", "--comorbidity", "No")
	require.Error(t, err)
	assert.Equal(t, exitcode.ModelLoadError, exitCodeOf(err))
}

func TestModelsCommand(t *testing.T) {
	setupLinearModels(t)

	out, err := run(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL")
	assert.Contains(t, out, "insurance_cost")
	assert.Contains(t, out, "los schema:")
	assert.Contains(t, out, "Comorbidities (Yes, No)")
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, exitcode.PredictionError, exitCodeOf(withCode(exitcode.PredictionError, errors.New("x"))))
	assert.Equal(t, exitcode.UsageError, exitCodeOf(errors.New("unknown flag")))
}
