package main

import (
	"context"

	"github.com/securedep/watchdog/internal/monitor"
)

// RunOneshot runs a single probe-analyze-dispatch cycle. Dispatched
// alerts show up on stdout through the alert log's console mirror.
// The exit status reports whether the target looked healthy.
func (cmd *WatchdogCommand) RunOneshot(ctx context.Context, m *monitor.Monitor) (exitCode int) {
	m.RunCycle(ctx)

	metrics := m.Status().Metrics
	if metrics.Failures > 0 || metrics.Alerts > 0 {
		return 1
	}
	return 0
}
