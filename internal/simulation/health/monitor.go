package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/adsim/internal/simulation/batch"
)

// DefaultHistory is the number of recent batches the monitor keeps.
const DefaultHistory = 20

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor aggregates health from recent batch reports and dependency pings.
type Monitor struct {
	mu      sync.RWMutex
	history int
	reports []batch.Report
	times   []time.Time
	deps    map[string]Pinger
	now     func() time.Time
}

// NewMonitor creates a monitor keeping the last history reports.
func NewMonitor(history int) *Monitor {
	if history < 1 {
		history = DefaultHistory
	}
	return &Monitor{
		history: history,
		deps:    make(map[string]Pinger),
		now:     time.Now,
	}
}

// AddDependency registers a dependency checked on every report.
func (m *Monitor) AddDependency(name string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps[name] = p
}

// Record stores a finished batch report. It matches batch.WithObserver.
func (m *Monitor) Record(r batch.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	m.times = append(m.times, m.now())
	if over := len(m.reports) - m.history; over > 0 {
		m.reports = m.reports[over:]
		m.times = m.times[over:]
	}
}

// CheckHealth builds the current health report.
//
// An unreachable dependency degrades the system status but never makes it
// critical on its own.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.RLock()
	engine := m.engineHealth()
	deps := make(map[string]Pinger, len(m.deps))
	for name, p := range m.deps {
		deps[name] = p
	}
	m.mu.RUnlock()

	report := HealthReport{SystemStatus: engine.Status, Engine: engine}
	if len(deps) > 0 {
		report.Dependencies = make(map[string]SystemStatus, len(deps))
	}
	for name, p := range deps {
		status := StatusHealthy
		if err := p.Ping(ctx); err != nil {
			status = StatusDegraded
		}
		report.Dependencies[name] = status
		report.SystemStatus = worst(report.SystemStatus, status)
	}
	return report
}

func (m *Monitor) engineHealth() EngineHealth {
	h := EngineHealth{Status: StatusHealthy, Batches: len(m.reports)}
	for _, r := range m.reports {
		h.Requested += r.Requested
		h.Synthetic += r.Synthetic
		for _, w := range r.Windows {
			if w.Degraded {
				h.Degradations++
			}
		}
	}
	if h.Requested > 0 {
		h.SyntheticRatio = float64(h.Synthetic) / float64(h.Requested)
		h.Status = StatusForRatio(h.SyntheticRatio)
	}
	if n := len(m.times); n > 0 {
		last := m.times[n-1]
		h.LastBatchAt = &last
	}
	return h
}
