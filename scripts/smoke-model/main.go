// Command smoke-model loads a single model artifact the way the service does
// and runs a few sample cases through it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"hospredict/internal/features"
	"hospredict/internal/ml"
	"hospredict/internal/patient"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		name       = flag.String("model", ml.LOSModel, "Model name: los, insurance_cost or patient_cost")
		path       = flag.String("path", "models/xgb_los_model.pkl", "Artifact path")
		format     = flag.String("format", "joblib", "Artifact format: joblib, remote or linear")
		serviceURL = flag.String("service-url", "", "Model service URL for the remote format")
		timeout    = flag.Duration("timeout", 10*time.Second, "Per-prediction timeout")
	)
	flag.Parse()

	f, err := ml.ParseFormat(*format)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid format")
	}

	schema := features.CostSchema
	if *name == ml.LOSModel {
		schema = features.LOSSchema
	}

	ctx := context.Background()
	model, err := ml.LoadModel(ctx, *name, *path, schema, ml.LoadConfig{
		Format:     f,
		ServiceURL: *serviceURL,
		Timeout:    *timeout,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model")
	}

	cases := []struct {
		name string
		c    patient.Case
	}{
		{"angioplasty, no comorbidity", patient.Case{
			Age: 50, Gender: patient.Male, Intervention: patient.Angioplasty,
			Comorbidity: patient.ComorbidityNo, Insurance: patient.Private, LengthOfStay: 3,
		}},
		{"CABG one artery, kidney disease", patient.Case{
			Age: 72, Gender: patient.Female, Intervention: patient.CABG, CABGType: patient.OneArtery,
			Comorbidity: patient.ComorbidityYes, Diseases: []patient.Disease{patient.Kidney},
			Insurance: patient.Veterans, LengthOfStay: 9,
		}},
		{"CABG two or more veins, multiple diseases", patient.Case{
			Age: 65, Gender: patient.Male, Intervention: patient.CABG, CABGType: patient.TwoOrMoreVeins,
			Comorbidity: patient.ComorbidityYes, Diseases: []patient.Disease{patient.Metabolic, patient.Cardiovascular},
			Insurance: patient.ArmedForces, LengthOfStay: 14,
		}},
	}

	failed := 0
	for _, tc := range cases {
		v, err := features.Encode(tc.c, model.Schema)
		if err != nil {
			log.Fatal().Err(err).Msg("Encoding failed")
		}
		start := time.Now()
		y, err := model.Predict(ctx, v)
		if err != nil {
			failed++
			log.Error().Err(err).Str("case", tc.name).Msg("Prediction failed")
			continue
		}
		fmt.Printf("%-45s %12.4f  (%v)\n", tc.name, y, time.Since(start).Round(time.Millisecond))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
