package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hospredict/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteRegressor_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict/patient_cost", r.URL.Path)

		var req bridgeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Age", "LOS"}, req.Columns)
		assert.Equal(t, []float64{70, 4}, req.Values)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prediction": 18250.5}`))
	}))
	defer srv.Close()

	r, err := NewRemoteRegressor(PatientCostModel, srv.URL+"/", time.Second)
	require.NoError(t, err)

	y, err := r.Predict(context.Background(), features.NewVector([]string{"Age", "LOS"}, []float64{70, 4}))
	require.NoError(t, err)
	assert.Equal(t, 18250.5, y)
}

func TestRemoteRegressor_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "model not loaded"}`))
	}))
	defer srv.Close()

	r, err := NewRemoteRegressor(LOSModel, srv.URL, time.Second)
	require.NoError(t, err)

	_, err = r.Predict(context.Background(), features.NewVector([]string{"Age"}, []float64{70}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestRemoteRegressor_NoPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r, err := NewRemoteRegressor(LOSModel, srv.URL, time.Second)
	require.NoError(t, err)

	_, err = r.Predict(context.Background(), features.NewVector([]string{"Age"}, []float64{70}))
	assert.Error(t, err)
}

func TestRemoteRegressor_CheckSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/los", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"features": ["Age", "Gender"]}`))
	}))
	defer srv.Close()

	r, err := NewRemoteRegressor(LOSModel, srv.URL, time.Second)
	require.NoError(t, err)

	trained, err := r.TrainedFeatures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Gender"}, trained)

	assert.NoError(t, r.CheckSchema(context.Background(), features.Schema{"Age", "Gender"}))
	err = r.CheckSchema(context.Background(), features.Schema{"Gender", "Age"})
	assert.True(t, errors.Is(err, features.ErrSchemaMismatch))
}

func TestNewRemoteRegressor_InvalidURL(t *testing.T) {
	_, err := NewRemoteRegressor(LOSModel, "not a url", time.Second)
	assert.Error(t, err)
	_, err = NewRemoteRegressor(LOSModel, "", time.Second)
	assert.Error(t, err)
}
