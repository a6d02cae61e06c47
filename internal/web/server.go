// Package web serves the prediction form, the JSON prediction API and a
// WebSocket endpoint, all backed by the same estimator.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"hospredict/internal/estimate"
	"hospredict/internal/metrics"
	"hospredict/internal/ml"
	"hospredict/internal/patient"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Options configure a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.MetricsWrapper
}

// Server is the HTTP front end of the predictor.
type Server struct {
	estimator   *estimate.Estimator
	modelServer *ml.ModelServer
	metrics     *metrics.MetricsWrapper
	upgrader    websocket.Upgrader
	router      *mux.Router
	server      *http.Server
	isRunning   bool
	mu          sync.Mutex
}

// NewServer builds the router and the underlying http.Server.
func NewServer(est *estimate.Estimator, opts Options) *Server {
	s := &Server{
		estimator:   est,
		modelServer: ml.NewModelServer(est.Models()),
		metrics:     opts.Metrics,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := mux.NewRouter()
	r.Use(requestLogger)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/{mode:los|cost}", s.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/{mode:los|cost}", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/predict/{mode:los|cost}", s.handlePredictAPI).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.modelServer.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/model/info", s.modelServer.HandleModelInfo).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router = r

	readTimeout, writeTimeout := opts.ReadTimeout, opts.WriteTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves in the background. Listen errors other than a clean shutdown
// are sent on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil, fmt.Errorf("server is already running")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.server.Addr).Msg("Starting prediction server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Prediction server failed")
			errCh <- err
		}
		close(errCh)
	}()

	s.isRunning = true
	return errCh, nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown prediction server")
		return err
	}
	s.isRunning = false
	log.Info().Msg("Prediction server stopped")
	return nil
}

type pageData struct {
	Mode    string
	Form    formValues
	Options formOptions
	Error   string
	LOS     *estimate.LOSResult
	Cost    *estimate.CostResult

	MinAge, MaxAge int
	MinLOS, MaxLOS int
}

func newPage(mode patient.Mode, form formValues) pageData {
	return pageData{
		Mode:    string(mode),
		Form:    form,
		Options: options,
		MinAge:  patient.MinAge,
		MaxAge:  patient.MaxAge,
		MinLOS:  patient.MinLengthOfStay,
		MaxLOS:  patient.MaxLengthOfStay,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "page", newPage("", defaultForm()))
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	mode := patient.Mode(mux.Vars(r)["mode"])
	s.render(w, http.StatusOK, "page", newPage(mode, defaultForm()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	mode := patient.Mode(mux.Vars(r)["mode"])

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := readForm(r)
	page := newPage(mode, form)

	c, err := form.toCase(mode)
	if err != nil {
		s.countValidationFailure(mode)
		page.Error = patient.UserMessage
		s.render(w, http.StatusOK, "page", page)
		return
	}

	var requestID string
	switch mode {
	case patient.ModeLOS:
		var res estimate.LOSResult
		res, err = s.estimator.PredictLOS(r.Context(), c)
		requestID = res.RequestID
		if err == nil {
			page.LOS = &res
		}
	case patient.ModeCost:
		var res estimate.CostResult
		res, err = s.estimator.PredictCosts(r.Context(), c)
		requestID = res.RequestID
		if err == nil {
			page.Cost = &res
		}
	}

	if errors.Is(err, patient.ErrIncompleteInput) {
		page.Error = patient.UserMessage
		err = nil
	}
	if err != nil {
		s.render(w, http.StatusInternalServerError, "error-page", map[string]string{"RequestID": requestID})
		return
	}
	s.render(w, http.StatusOK, "page", page)
}

type apiError struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	mode := patient.Mode(mux.Vars(r)["mode"])

	var c patient.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}

	result, err := s.predict(r.Context(), mode, c)
	status, body := apiResponse(result, err)
	writeJSON(w, status, body)
}

func (s *Server) predict(ctx context.Context, mode patient.Mode, c patient.Case) (interface{}, error) {
	switch mode {
	case patient.ModeLOS:
		return s.estimator.PredictLOS(ctx, c)
	case patient.ModeCost:
		return s.estimator.PredictCosts(ctx, c)
	}
	return nil, fmt.Errorf("unknown prediction mode %q", mode)
}

// apiResponse maps a prediction outcome onto an HTTP status and body.
func apiResponse(result interface{}, err error) (int, interface{}) {
	if err == nil {
		return http.StatusOK, result
	}

	body := apiError{Error: "prediction failed"}
	switch res := result.(type) {
	case estimate.LOSResult:
		body.RequestID = res.RequestID
	case estimate.CostResult:
		body.RequestID = res.RequestID
	}

	var ve *patient.ValidationError
	if errors.As(err, &ve) {
		body.Error = ve.UserMessage()
		body.Field = ve.Field
		return http.StatusUnprocessableEntity, body
	}
	return http.StatusInternalServerError, body
}

type wsRequest struct {
	Mode string       `json:"mode"`
	Case patient.Case `json:"case"`
}

type wsResponse struct {
	Mode   string      `json:"mode,omitempty"`
	Status int         `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  *apiError   `json:"error,omitempty"`
}

// handleWebSocket processes one prediction per text message. A message is
// answered before the next one is read.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		resp := s.handleWSMessage(r.Context(), data)
		if err := conn.WriteJSON(resp); err != nil {
			log.Error().Err(err).Msg("Failed to send message to WebSocket client")
			return
		}
	}
}

func (s *Server) handleWSMessage(ctx context.Context, data []byte) wsResponse {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsResponse{Status: http.StatusBadRequest, Error: &apiError{Error: "invalid JSON message"}}
	}
	mode, err := patient.ParseMode(req.Mode)
	if err != nil {
		return wsResponse{Mode: req.Mode, Status: http.StatusBadRequest, Error: &apiError{Error: err.Error()}}
	}

	result, err := s.predict(ctx, mode, req.Case)
	status, body := apiResponse(result, err)
	if err != nil {
		e := body.(apiError)
		return wsResponse{Mode: req.Mode, Status: status, Error: &e}
	}
	return wsResponse{Mode: req.Mode, Status: status, Result: body}
}

func (s *Server) countValidationFailure(mode patient.Mode) {
	if s.metrics != nil {
		s.metrics.ValidationFailureInc(string(mode))
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
