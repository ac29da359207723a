// Package health provides engine health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the engine or a dependency.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Thresholds on the synthetic outcome ratio of recent batches.
const (
	DegradedSyntheticRatio = 0.2
	CriticalSyntheticRatio = 0.8
)

// EngineHealth summarizes recent batch runs.
type EngineHealth struct {
	Status         SystemStatus `json:"status"`
	Batches        int          `json:"batches"`
	Requested      int          `json:"requested"`
	Synthetic      int          `json:"synthetic"`
	SyntheticRatio float64      `json:"synthetic_ratio"`
	Degradations   int          `json:"degradations"`
	LastBatchAt    *time.Time   `json:"last_batch_at,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus            `json:"system_status"`
	Engine       EngineHealth            `json:"engine"`
	Dependencies map[string]SystemStatus `json:"dependencies,omitempty"`
}

// StatusForRatio maps a synthetic ratio to a status.
func StatusForRatio(ratio float64) SystemStatus {
	switch {
	case ratio < DegradedSyntheticRatio:
		return StatusHealthy
	case ratio < CriticalSyntheticRatio:
		return StatusDegraded
	default:
		return StatusCritical
	}
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
