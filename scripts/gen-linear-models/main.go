// Command gen-linear-models writes a set of linear model artifacts, with
// metadata, that the service can load with MODEL_FORMAT=linear. The weights
// are illustrative and only meant for local runs without a Python runtime.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"time"

	"hospredict/internal/features"
	"hospredict/internal/ml"

	"github.com/rs/zerolog/log"
)

type artifact struct {
	Version      string             `json:"version"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

func main() {
	var (
		outDir  = flag.String("out", "models", "Output directory")
		version = flag.String("version", time.Now().UTC().Format("20060102"), "Version stamped into artifacts and metadata")
	)
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	shared := map[string]float64{
		features.ColAge:                0.04,
		features.ColAngioplasty:        -1.5,
		features.ColCABGOneArtery:      2.5,
		features.ColCABGTwoArteries:    2.0,
		features.ColCABGOneVein:        1.5,
		features.ColCABGTwoOrMoreVeins: 3.0,
		features.ColMetabolic:          0.8,
		features.ColNeurological:       1.2,
		features.ColCardiovascular:     1.0,
		features.ColRespiratory:        1.1,
		features.ColKidney:             1.4,
	}

	models := []struct {
		file      string
		target    string
		schema    features.Schema
		intercept float64
		extra     map[string]float64
		scale     float64
	}{
		{"los.json", "LOS", features.LOSSchema, 3.0, map[string]float64{features.ColComorbiditiesYesNo: 0.5}, 1},
		{"insurance_cost.json", "Insurance Cost", features.CostSchema, 6000, map[string]float64{
			features.ColLOS:                 650,
			features.ColInsuranceArmedForce: 1500,
			features.ColInsurancePrivate:    2500,
			features.ColInsuranceVeterans:   1200,
			features.ColComorbidity:         400,
		}, 400},
		{"patient_cost.json", "Patient Cost", features.CostSchema, 1500, map[string]float64{
			features.ColLOS:                 180,
			features.ColInsuranceArmedForce: -900,
			features.ColInsurancePrivate:    -600,
			features.ColInsuranceVeterans:   -1000,
			features.ColComorbidity:         150,
		}, 120},
	}

	for _, m := range models {
		coef := make(map[string]float64, len(m.schema))
		for name, w := range shared {
			if m.schema.Index(name) >= 0 {
				coef[name] = w * m.scale
			}
		}
		for name, w := range m.extra {
			coef[name] = w
		}

		path := filepath.Join(*outDir, m.file)
		if err := writeJSON(path, artifact{Version: *version, Intercept: m.intercept, Coefficients: coef}); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write artifact")
		}

		meta := ml.ModelMetadata{
			Version:   *version,
			TrainedAt: time.Now().UTC(),
			Target:    m.target,
			Features:  []string(m.schema),
		}
		metaPath := filepath.Join(*outDir, m.file[:len(m.file)-len(filepath.Ext(m.file))]+".meta.json")
		if err := writeJSON(metaPath, meta); err != nil {
			log.Fatal().Err(err).Str("path", metaPath).Msg("Failed to write metadata")
		}

		log.Info().Str("path", path).Int("coefficients", len(coef)).Msg("Wrote linear model")
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
