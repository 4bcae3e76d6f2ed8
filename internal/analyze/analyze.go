// Package analyze turns a health snapshot into alert candidates by
// checking it against static thresholds. It is pure: no I/O, no clock,
// no state between calls.
package analyze

import (
	"fmt"
	"time"

	"github.com/securedep/watchdog/internal/alert"
	"github.com/securedep/watchdog/internal/probe"
)

// Thresholds are the static limits a snapshot is checked against.
type Thresholds struct {
	ResponseTime   time.Duration
	DBResponseTime time.Duration

	// MemoryUsage is a percentage.
	MemoryUsage float64

	// DiskUsage and ErrorRate are reserved: accepted in configuration
	// but no rule evaluates them yet.
	DiskUsage float64
	ErrorRate float64
}

// DefaultThresholds returns the platform runbook defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ResponseTime:   2000 * time.Millisecond,
		DBResponseTime: 1000 * time.Millisecond,
		MemoryUsage:    85,
		DiskUsage:      90,
		ErrorRate:      5,
	}
}

// Analyze evaluates every rule independently and returns one candidate
// per violation. Multiple violations in one snapshot all come back; a
// fully healthy snapshot returns nothing.
func Analyze(snap probe.Snapshot, t Thresholds) []alert.Candidate {
	var candidates []alert.Candidate

	if t.ResponseTime > 0 && snap.ResponseTime > t.ResponseTime {
		ms := float64(snap.ResponseTime.Microseconds()) / 1000
		candidates = append(candidates, alert.Candidate{
			Type:      alert.SeverityWarning,
			Message:   fmt.Sprintf("response time %.0fms exceeded threshold %dms", ms, t.ResponseTime.Milliseconds()),
			Metric:    "response_time",
			Value:     ms,
			Threshold: float64(t.ResponseTime.Milliseconds()),
		})
	}

	switch snap.Status {
	case probe.StatusUnhealthy:
		candidates = append(candidates, alert.Candidate{
			Type:    alert.SeverityCritical,
			Message: "system status is unhealthy",
			Metric:  "system_status",
			Value:   string(snap.Status),
		})
	case probe.StatusDegraded:
		candidates = append(candidates, alert.Candidate{
			Type:    alert.SeverityWarning,
			Message: "system status is degraded",
			Metric:  "system_status",
			Value:   string(snap.Status),
		})
	}

	if db := snap.Checks.Database; db != nil && t.DBResponseTime > 0 && db.ResponseTime > float64(t.DBResponseTime.Milliseconds()) {
		candidates = append(candidates, alert.Candidate{
			Type:      alert.SeverityWarning,
			Message:   fmt.Sprintf("database response time %.0fms exceeded threshold %dms", db.ResponseTime, t.DBResponseTime.Milliseconds()),
			Metric:    "db_response_time",
			Value:     db.ResponseTime,
			Threshold: float64(t.DBResponseTime.Milliseconds()),
		})
	}

	if mem := snap.Checks.Memory; mem != nil && t.MemoryUsage > 0 && mem.Percentage > t.MemoryUsage {
		candidates = append(candidates, alert.Candidate{
			Type:      alert.SeverityWarning,
			Message:   fmt.Sprintf("memory usage %.1f%% exceeded threshold %.1f%%", mem.Percentage, t.MemoryUsage),
			Metric:    "memory_usage",
			Value:     mem.Percentage,
			Threshold: t.MemoryUsage,
		})
	}

	if ext := snap.Checks.ExternalServices; ext != nil && ext.Status == string(probe.StatusUnhealthy) {
		var details map[string]interface{}
		if len(ext.Services) > 0 {
			details = map[string]interface{}{"services": ext.Services}
		}
		candidates = append(candidates, alert.Candidate{
			Type:    alert.SeverityWarning,
			Message: "one or more external services are unhealthy",
			Metric:  "external_services",
			Value:   ext.Status,
			Details: details,
		})
	}

	return candidates
}

// ProbeFailure converts a probe level error into the single CRITICAL
// candidate the dispatch path expects. This is a distinct failure path,
// not a threshold violation, so it bypasses Analyze.
func ProbeFailure(err error) alert.Candidate {
	return alert.Candidate{
		Type:    alert.SeverityCritical,
		Message: fmt.Sprintf("health check failed: %s", err),
		Metric:  "general",
	}
}
