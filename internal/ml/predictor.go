package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hospredict/internal/features"

	"github.com/rs/zerolog/log"
)

// ErrPredictionTimeout is returned when a model call exceeds its deadline.
var ErrPredictionTimeout = errors.New("prediction timeout")

func isTimeout(err error) bool { return errors.Is(err, ErrPredictionTimeout) }

// Predictor runs a joblib-serialized regressor through a Python subprocess.
// The artifact is verified once at construction; each prediction spawns the
// inference script with the feature vector on stdin.
type Predictor struct {
	name         string
	modelPath    string
	pythonPath   string
	scriptPath   string
	timeout      time.Duration
	modelCreated time.Time
	trained      []string
}

// BridgeOptions configure the Python bridge.
type BridgeOptions struct {
	// PythonPath overrides interpreter discovery when set.
	PythonPath string
	// ScriptPath overrides the embedded inference script when set.
	ScriptPath string
	Timeout    time.Duration
}

type bridgeRequest struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

type bridgeResponse struct {
	Prediction *float64 `json:"prediction,omitempty"`
	OK         bool     `json:"ok,omitempty"`
	Features   []string `json:"features,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// NewPredictor loads the artifact at path. Unlike a best-effort predictor it
// fails hard: a missing artifact, interpreter or dependency is a startup
// error.
func NewPredictor(ctx context.Context, name, path string, opts BridgeOptions) (*Predictor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model %s: artifact %s: %w", name, path, err)
	}

	pythonPath := opts.PythonPath
	if pythonPath == "" {
		pythonPath, err = findPython()
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
	}

	scriptPath := opts.ScriptPath
	if scriptPath == "" {
		scriptPath, err = sharedInferenceScript()
		if err != nil {
			return nil, fmt.Errorf("model %s: create inference script: %w", name, err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &Predictor{
		name:         name,
		modelPath:    path,
		pythonPath:   pythonPath,
		scriptPath:   scriptPath,
		timeout:      timeout,
		modelCreated: info.ModTime(),
	}

	resp, err := p.run(ctx, nil, "--check")
	if err != nil {
		return nil, fmt.Errorf("model %s: load check: %w", name, err)
	}
	p.trained = resp.Features

	log.Info().
		Str("model", name).
		Str("model_path", path).
		Str("python_path", pythonPath).
		Int("trained_features", len(resp.Features)).
		Msg("joblib model loaded")

	return p, nil
}

// ModelCreated returns the artifact modification time.
func (p *Predictor) ModelCreated() time.Time { return p.modelCreated }

// Predict returns the model output for v.
func (p *Predictor) Predict(ctx context.Context, v features.Vector) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("predictor is nil")
	}

	values := v.Values()
	for i, f := range values {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("feature %d (%s) is not finite", i, v.Names()[i])
		}
	}

	resp, err := p.run(ctx, &bridgeRequest{Columns: v.Names(), Values: values})
	if err != nil {
		return 0, err
	}
	if resp.Prediction == nil {
		return 0, fmt.Errorf("model %s: response has no prediction", p.name)
	}

	log.Debug().
		Str("model", p.name).
		Float64("prediction", *resp.Prediction).
		Msg("Prediction successful")

	return *resp.Prediction, nil
}

// TrainedFeatures returns the feature names stored in the artifact.
func (p *Predictor) TrainedFeatures(context.Context) ([]string, error) {
	return append([]string(nil), p.trained...), nil
}

// CheckSchema compares schema with the feature names stored in the artifact.
// Artifacts trained without column names are accepted as-is.
func (p *Predictor) CheckSchema(_ context.Context, schema features.Schema) error {
	if len(p.trained) == 0 {
		return nil
	}
	if len(p.trained) != len(schema) {
		return fmt.Errorf("%w: model %s trained on %d columns, schema has %d",
			features.ErrSchemaMismatch, p.name, len(p.trained), len(schema))
	}
	for i := range schema {
		if schema[i] != p.trained[i] {
			return fmt.Errorf("%w: model %s column %d is %q, schema has %q",
				features.ErrSchemaMismatch, p.name, i, p.trained[i], schema[i])
		}
	}
	return nil
}

func (p *Predictor) run(ctx context.Context, req *bridgeRequest, args ...string) (*bridgeResponse, error) {
	var stdin []byte
	if req != nil {
		var err error
		stdin, err = json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmdArgs := append([]string{p.scriptPath, p.modelPath}, args...)
	cmd := exec.CommandContext(ctx, p.pythonPath, cmdArgs...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("model", p.name).
			Str("python_path", p.pythonPath).
			Str("script_path", p.scriptPath).
			Str("model_path", p.modelPath).
			Str("stderr", stderr.String()).
			Str("stdout", stdout.String()).
			Dur("timeout", p.timeout).
			Msg("Python inference execution failed")

		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("model %s: %w after %v", p.name, ErrPredictionTimeout, p.timeout)
		}

		// The script reports its own failures as JSON on stdout.
		var resp bridgeResponse
		if jsonErr := json.Unmarshal(stdout.Bytes(), &resp); jsonErr == nil && resp.Error != "" {
			return nil, fmt.Errorf("model %s: python inference error: %s", p.name, resp.Error)
		}
		if strings.Contains(stderr.String(), "No such file or directory") {
			return nil, fmt.Errorf("model %s: model file not accessible: %w", p.name, err)
		}
		return nil, fmt.Errorf("model %s: python inference failed: %w, stderr: %s", p.name, err, stderr.String())
	}

	var resp bridgeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("model %s: failed to parse response: %w, stdout: %s", p.name, err, stdout.String())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("model %s: python inference error: %s", p.name, resp.Error)
	}
	return &resp, nil
}

const dependencyProbe = "import sys, joblib, pandas; print('Python', sys.version)"

func findPython() (string, error) {
	var candidates []string

	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates = append(candidates,
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		)
	}

	// Project virtual environments next to the executable
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		for _, root := range []string{execDir, filepath.Dir(execDir)} {
			candidates = append(candidates,
				filepath.Join(root, "venv", "bin", "python3"),
				filepath.Join(root, ".venv", "bin", "python3"),
			)
		}
	}

	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		output, err := exec.Command(candidate, "-c", dependencyProbe).Output()
		if err == nil && strings.Contains(string(output), "Python 3") {
			log.Info().Str("python_path", candidate).Msg("Using Python interpreter")
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no Python 3 interpreter with joblib and pandas found; set PYTHON_PATH")
}

var embeddedScript struct {
	once sync.Once
	path string
	err  error
}

// sharedInferenceScript writes the embedded script once per process to a
// private temp file and returns its path.
func sharedInferenceScript() (string, error) {
	embeddedScript.once.Do(func() {
		f, err := os.CreateTemp("", "hospredict_inference_*.py")
		if err != nil {
			embeddedScript.err = err
			return
		}
		path := f.Name()
		if err := f.Close(); err != nil {
			embeddedScript.err = err
			return
		}
		embeddedScript.path = path
		embeddedScript.err = createInferenceScript(path)
	})
	return embeddedScript.path, embeddedScript.err
}

func createInferenceScript(scriptPath string) error {
	if err := os.WriteFile(scriptPath, []byte(inferenceScript), 0o700); err != nil {
		return err
	}
	return os.Chmod(scriptPath, 0o700)
}

const inferenceScript = `#!/usr/bin/env python3
"""
Regression inference bridge for hospredict.

Usage: inference.py <model_path> [--check]
Reads {"columns": [...], "values": [...]} from stdin and prints
{"prediction": <float>} or {"error": "..."}.
"""
import sys
import json

try:
    import joblib
    import pandas as pd
except ImportError as e:
    print(json.dumps({"error": "missing dependency: %s" % e}))
    sys.exit(1)


def main():
    if len(sys.argv) < 2:
        print(json.dumps({"error": "Usage: inference.py <model_path> [--check]"}))
        sys.exit(1)

    model_path = sys.argv[1]

    try:
        model = joblib.load(model_path)

        if len(sys.argv) > 2 and sys.argv[2] == "--check":
            names = getattr(model, "feature_names_in_", None)
            features = [str(n) for n in names] if names is not None else []
            print(json.dumps({"ok": True, "features": features}))
            return

        request = json.load(sys.stdin)
        frame = pd.DataFrame([request["values"]], columns=request["columns"])
        prediction = float(model.predict(frame)[0])
        print(json.dumps({"prediction": prediction}))

    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`
