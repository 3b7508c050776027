// Package telemetry exposes the counters and gauges reliability.Monitor
// reports through, backed by
// github.com/prometheus/client_golang. The Tracker interface's shape
// (Inc/Add/IncErr/Get) follows the teacher's stats.Tracker contract
// (cluster/mock/stats_mock.go mocked exactly this interface for tests);
// this package gives that shape a real Prometheus-backed implementation
// plus an equivalent in-memory mock for unit tests that don't want a
// live registry.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracker is the narrow metrics surface the rest of this module depends
// on — small enough that a test double can implement it trivially.
type Tracker interface {
	Inc(name string)
	IncErr(name string)
	Add(name string, val int64)
	Get(name string) int64
}

// Names of the counters this module's components report against.
const (
	MetricInvokesTotal   = "delegates_invokes_total"
	MetricInvokeErrors   = "delegates_invoke_errors_total"
	MetricAcksOutstanding = "delegates_acks_outstanding"
	MetricRetries        = "delegates_retries_total"
)

// PromTracker is the Prometheus-backed Tracker used outside of tests.
type PromTracker struct {
	reg      *prometheus.Registry
	counters map[string]*prometheus.CounterVec
	gauges   map[string]prometheus.Gauge
	mu       sync.Mutex
}

// NewPromTracker registers the module's metric families against reg (or
// a fresh private Registry if reg is nil).
func NewPromTracker(reg *prometheus.Registry) *PromTracker {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	t := &PromTracker{
		reg:      reg,
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]prometheus.Gauge),
	}
	for _, name := range []string{MetricInvokesTotal, MetricInvokeErrors, MetricRetries} {
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, nil)
		reg.MustRegister(cv)
		t.counters[name] = cv
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: MetricAcksOutstanding})
	reg.MustRegister(g)
	t.gauges[MetricAcksOutstanding] = g
	return t
}

func (t *PromTracker) Inc(name string) { t.Add(name, 1) }

func (t *PromTracker) IncErr(name string) { t.Add(name, 1) }

func (t *PromTracker) Add(name string, val int64) {
	if g, ok := t.gauges[name]; ok {
		g.Add(float64(val))
		return
	}
	if cv, ok := t.counters[name]; ok {
		cv.WithLabelValues().Add(float64(val))
	}
}

// Get is best-effort: Prometheus counters aren't designed for readback,
// so this always returns 0. Tests that need to assert on counts should
// use Mock instead.
func (t *PromTracker) Get(string) int64 { return 0 }

// Registry exposes the underlying prometheus.Registry so a caller can
// wire it to an HTTP /metrics handler.
func (t *PromTracker) Registry() *prometheus.Registry { return t.reg }

// Mock is an in-memory Tracker for unit tests, adapted from the
// teacher's no-op stats.Tracker test double into one that actually
// records what it's told.
type Mock struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMock returns a ready-to-use Mock tracker.
func NewMock() *Mock {
	return &Mock{values: make(map[string]int64)}
}

func (m *Mock) Inc(name string) { m.Add(name, 1) }

func (m *Mock) IncErr(name string) { m.Add(name, 1) }

func (m *Mock) Add(name string, val int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] += val
}

func (m *Mock) Get(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[name]
}
