package ml

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"hospredict/internal/features"

	"github.com/go-resty/resty/v2"
)

// RemoteRegressor calls a model service that hosts the artifact.
//
//	POST {base}/predict/{model}  {"columns": [...], "values": [...]} -> {"prediction": 1.5}
//	GET  {base}/models/{model}   -> {"features": [...]}
type RemoteRegressor struct {
	name string
	base string
	rest *resty.Client
}

type remoteResponse struct {
	Prediction *float64 `json:"prediction"`
	Features   []string `json:"features"`
	Error      string   `json:"error"`
}

// NewRemoteRegressor creates a client for model name served at baseURL.
func NewRemoteRegressor(name, baseURL string, timeout time.Duration) (*RemoteRegressor, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("model %s: invalid model service URL %q", name, baseURL)
	}

	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")

	return &RemoteRegressor{
		name: name,
		base: strings.TrimRight(baseURL, "/"),
		rest: r,
	}, nil
}

func (r *RemoteRegressor) Predict(ctx context.Context, v features.Vector) (float64, error) {
	out := &remoteResponse{}
	resp, err := r.rest.R().
		SetContext(ctx).
		SetBody(bridgeRequest{Columns: v.Names(), Values: v.Values()}).
		SetResult(out).
		SetError(out).
		Post(r.base + "/predict/" + url.PathEscape(r.name))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("model %s: %w: %v", r.name, ErrPredictionTimeout, err)
		}
		return 0, fmt.Errorf("model %s: request failed: %w", r.name, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("model %s: service returned %s: %s", r.name, resp.Status(), out.Error)
	}
	if out.Error != "" {
		return 0, fmt.Errorf("model %s: service error: %s", r.name, out.Error)
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("model %s: response has no prediction", r.name)
	}
	return *out.Prediction, nil
}

// TrainedFeatures asks the service which columns the hosted model was
// trained on.
func (r *RemoteRegressor) TrainedFeatures(ctx context.Context) ([]string, error) {
	out := &remoteResponse{}
	resp, err := r.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(out).
		Get(r.base + "/models/" + url.PathEscape(r.name))
	if err != nil {
		return nil, fmt.Errorf("model %s: describe failed: %w", r.name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("model %s: describe returned %s: %s", r.name, resp.Status(), out.Error)
	}
	return out.Features, nil
}

// CheckSchema compares schema with the columns the service reports.
func (r *RemoteRegressor) CheckSchema(ctx context.Context, schema features.Schema) error {
	trained, err := r.TrainedFeatures(ctx)
	if err != nil {
		return err
	}
	if len(trained) == 0 {
		return nil
	}
	if strings.Join(trained, "\x00") != strings.Join(schema, "\x00") {
		return fmt.Errorf("%w: model %s serves columns %q, schema has %q",
			features.ErrSchemaMismatch, r.name, trained, []string(schema))
	}
	return nil
}
