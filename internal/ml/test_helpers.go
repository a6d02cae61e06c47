package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    map[string]int
	timeouts    map[string]int
	latencies   map[string]int
	modelAge    map[string]float64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		predictions: make(map[string]int),
		failures:    make(map[string]int),
		timeouts:    make(map[string]int),
		latencies:   make(map[string]int),
		modelAge:    make(map[string]float64),
	}
}

func (m *MockMetrics) ModelPredictionsInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[model]++
}

func (m *MockMetrics) ModelFailuresInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[model]++
}

func (m *MockMetrics) ModelTimeoutsInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts[model]++
}

func (m *MockMetrics) ModelLatencyObserve(model string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[model]++
}

func (m *MockMetrics) ModelAgeSet(model string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge[model] = v
}

func (m *MockMetrics) Predictions(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[model]
}

func (m *MockMetrics) Failures(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[model]
}

func (m *MockMetrics) Timeouts(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeouts[model]
}

func (m *MockMetrics) Latencies(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencies[model]
}

