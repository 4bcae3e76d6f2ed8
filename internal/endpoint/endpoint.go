// Package endpoint implements the watchdog's own status API.
package endpoint

import (
	"context"
	"net/http"

	"github.com/NYTimes/gziphandler"

	"github.com/securedep/watchdog/internal/alert"
	"github.com/securedep/watchdog/internal/monitor"
)

// Source is the view of the running monitor the endpoints read from.
// *monitor.Monitor implements it.
type Source interface {
	// Status describes the process and its counters.
	Status() monitor.Status

	// Errors reports whether alert log writes are working.
	Errors() (healthy bool, messages []string)

	// RecentAlerts returns the newest dispatched alerts.
	RecentAlerts(ctx context.Context, limit int) ([]alert.Dispatched, error)
}

func New(s Source) http.Handler {
	m := http.NewServeMux()

	m.HandleFunc("/healthz", HealthzEndpoint(s))
	m.HandleFunc("/status.json", StatusEndpoint(s))
	m.HandleFunc("/alerts.json", AlertsEndpoint(s))

	m.Handle("/status", http.RedirectHandler("/status.json", http.StatusMovedPermanently))
	m.Handle("/alerts", http.RedirectHandler("/alerts.json", http.StatusMovedPermanently))

	return gziphandler.GzipHandler(m)
}
