package probe

import (
	"time"
)

// Status is the overall health state reported by the monitored system.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Known reports whether s is one of the states the health contract allows.
func (s Status) Known() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusUnhealthy:
		return true
	}
	return false
}

// Snapshot is one result of probing the target's health endpoint.
// It is created fresh on every probe and never mutated afterwards.
type Snapshot struct {
	Status Status `json:"status"`
	Checks Checks `json:"checks"`

	// ResponseTime is the wall clock duration of the whole probe,
	// measured by the prober rather than reported by the target.
	ResponseTime time.Duration `json:"-"`
}

// Checks is the per-subsystem detail of a health payload.
// Subsystems the target did not report stay nil.
type Checks struct {
	Database         *DatabaseCheck         `json:"database"`
	Memory           *MemoryCheck           `json:"memory"`
	ExternalServices *ExternalServicesCheck `json:"external_services"`
}

// DatabaseCheck reports the database round trip in milliseconds.
type DatabaseCheck struct {
	ResponseTime float64 `json:"responseTime"`
	Status       string  `json:"status"`
}

// MemoryCheck reports process memory usage as a percentage.
type MemoryCheck struct {
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// ExternalServicesCheck reports the aggregate state of third party
// integrations, optionally with a per-service breakdown.
type ExternalServicesCheck struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
