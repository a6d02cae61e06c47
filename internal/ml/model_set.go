package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hospredict/internal/features"

	"github.com/rs/zerolog/log"
)

// Model names. They label metrics and select remote endpoints.
const (
	LOSModel           = "los"
	InsuranceCostModel = "insurance_cost"
	PatientCostModel   = "patient_cost"
)

// Format is the artifact format of a model.
type Format string

const (
	FormatJoblib Format = "joblib"
	FormatRemote Format = "remote"
	FormatLinear Format = "linear"
)

// ParseFormat parses a format name; empty means joblib.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJoblib:
		return FormatJoblib, nil
	case FormatRemote:
		return FormatRemote, nil
	case FormatLinear:
		return FormatLinear, nil
	}
	return "", fmt.Errorf("unknown model format %q", s)
}

// ModelMetadata contains information about a loaded model
type ModelMetadata struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	Target       string    `json:"target,omitempty"`
	Features     []string  `json:"features,omitempty"`
	TrainingRows int       `json:"training_rows,omitempty"`
	RMSE         float64   `json:"rmse,omitempty"`
	R2           float64   `json:"r2,omitempty"`
}

// Model is one loaded regressor together with the schema it consumes.
type Model struct {
	Name     string
	Format   Format
	Path     string
	Schema   features.Schema
	Metadata ModelMetadata
	LoadedAt time.Time

	regressor Regressor
}

// Predict invokes the model. Errors are returned unchanged to the caller.
func (m *Model) Predict(ctx context.Context, v features.Vector) (float64, error) {
	return m.regressor.Predict(ctx, v)
}

// ModelSet holds the three models. It is built once at startup and never
// mutated.
type ModelSet struct {
	LOS           *Model
	InsuranceCost *Model
	PatientCost   *Model
}

// Models returns the set in a fixed order.
func (s *ModelSet) Models() []*Model {
	return []*Model{s.LOS, s.InsuranceCost, s.PatientCost}
}

// LoadConfig describes where the artifacts live and how to run them.
type LoadConfig struct {
	Format            Format
	LOSPath           string
	InsuranceCostPath string
	PatientCostPath   string
	ServiceURL        string
	PythonPath        string
	Timeout           time.Duration
}

// LoadModels loads all three models. Any failure is returned; there is no
// partial model set.
func LoadModels(ctx context.Context, cfg LoadConfig, metrics MetricsInterface) (*ModelSet, error) {
	specs := []struct {
		name   string
		path   string
		schema features.Schema
	}{
		{LOSModel, cfg.LOSPath, features.LOSSchema},
		{InsuranceCostModel, cfg.InsuranceCostPath, features.CostSchema},
		{PatientCostModel, cfg.PatientCostPath, features.CostSchema},
	}

	loaded := make([]*Model, 0, len(specs))
	for _, spec := range specs {
		m, err := LoadModel(ctx, spec.name, spec.path, spec.schema, cfg, metrics)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, m)
	}

	return &ModelSet{LOS: loaded[0], InsuranceCost: loaded[1], PatientCost: loaded[2]}, nil
}

// LoadModel loads a single model. When the artifact ships metadata listing
// its training columns, that list replaces defaultSchema. Otherwise column
// names recorded in the artifact itself are adopted when the encoder knows
// all of them.
func LoadModel(ctx context.Context, name, path string, defaultSchema features.Schema, cfg LoadConfig, metrics MetricsInterface) (*Model, error) {
	m := &Model{
		Name:     name,
		Format:   cfg.Format,
		Path:     path,
		Schema:   defaultSchema.Clone(),
		LoadedAt: time.Now(),
		Metadata: ModelMetadata{Version: "unknown"},
	}
	if m.Format == "" {
		m.Format = FormatJoblib
	}

	fromMetadata := false
	if m.Format != FormatRemote {
		if path == "" {
			return nil, fmt.Errorf("model %s: artifact path is required for format %s", name, m.Format)
		}
		md, err := loadModelMetadata(path)
		switch {
		case err == nil:
			m.Metadata = *md
			if len(md.Features) > 0 {
				m.Schema = features.Schema(md.Features)
				fromMetadata = true
			}
		case os.IsNotExist(err):
			log.Debug().Str("model", name).Msg("no model metadata, using default schema")
		default:
			return nil, fmt.Errorf("model %s: metadata: %w", name, err)
		}
	}

	if err := m.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	var (
		r   Regressor
		err error
	)
	switch m.Format {
	case FormatJoblib:
		var p *Predictor
		p, err = NewPredictor(ctx, name, path, BridgeOptions{PythonPath: cfg.PythonPath, Timeout: cfg.Timeout})
		if err == nil && metrics != nil {
			metrics.ModelAgeSet(name, time.Since(p.ModelCreated()).Seconds())
		}
		r = p
	case FormatRemote:
		r, err = NewRemoteRegressor(name, cfg.ServiceURL, cfg.Timeout)
	case FormatLinear:
		var lr *LinearRegressor
		lr, err = LoadLinearRegressor(path)
		if err == nil && lr.Version != "" && m.Metadata.Version == "unknown" {
			m.Metadata.Version = lr.Version
		}
		r = lr
	default:
		err = fmt.Errorf("unknown model format %q", m.Format)
	}
	if err != nil {
		return nil, err
	}

	if fr, ok := r.(FeatureReporter); ok && !fromMetadata {
		if err := m.adoptTrainedSchema(ctx, fr); err != nil {
			return nil, err
		}
	}

	if sc, ok := r.(SchemaChecker); ok {
		if err := sc.CheckSchema(ctx, m.Schema); err != nil {
			return nil, err
		}
	}

	m.regressor = Instrument(name, r, metrics)

	log.Info().
		Str("model", name).
		Str("format", string(m.Format)).
		Str("version", m.Metadata.Version).
		Int("columns", len(m.Schema)).
		Msg("model ready")

	return m, nil
}

// NewModel wraps an already constructed regressor, used by tests and by
// callers that embed their own model implementation.
func NewModel(name string, schema features.Schema, r Regressor, metrics MetricsInterface) *Model {
	return &Model{
		Name:      name,
		Schema:    schema.Clone(),
		Metadata:  ModelMetadata{Version: "unknown"},
		LoadedAt:  time.Now(),
		regressor: Instrument(name, r, metrics),
	}
}

// loadModelMetadata looks for <stem>.meta.json next to the artifact and
// falls back to the newest <stem>.meta.*.json.
func loadModelMetadata(modelPath string) (*ModelMetadata, error) {
	stem := strings.TrimSuffix(modelPath, filepath.Ext(modelPath))
	primary := stem + ".meta.json"

	md, err := decodeMetadata(primary)
	if err == nil || !os.IsNotExist(err) {
		return md, err
	}

	matches, globErr := filepath.Glob(stem + ".meta.*.json")
	if globErr != nil || len(matches) == 0 {
		return nil, err
	}
	sort.Strings(matches)                          // chronological order
	return decodeMetadata(matches[len(matches)-1]) // newest
}

func decodeMetadata(path string) (*ModelMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var md ModelMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if md.Version == "" {
		md.Version = "unknown"
	}
	return &md, nil
}

func (m *Model) adoptTrainedSchema(ctx context.Context, fr FeatureReporter) error {
	names, err := fr.TrainedFeatures(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	trained := features.Schema(names)
	if err := trained.Validate(); err != nil {
		// Left to CheckSchema, which reports the mismatch against the default.
		log.Warn().Err(err).Str("model", m.Name).Msg("trained columns not usable as schema")
		return nil
	}
	if !trained.Equal(m.Schema) {
		log.Info().
			Str("model", m.Name).
			Int("default_columns", len(m.Schema)).
			Int("trained_columns", len(trained)).
			Msg("using column names recorded in the model artifact")
	}
	m.Schema = trained.Clone()
	return nil
}
