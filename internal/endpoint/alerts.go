package endpoint

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/securedep/watchdog/internal/alert"
)

// DefaultAlertsLimit is how many alerts /alerts.json returns when the
// request has no limit parameter.
const DefaultAlertsLimit = 50

const maxAlertsLimit = 1000

// AlertsEndpoint is the http.HandlerFunc for the /alerts.json page.
// It serves the newest dispatched alerts, most recent first.
// The ?limit= parameter caps the result size.
func AlertsEndpoint(s Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := DefaultAlertsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit parameter", http.StatusBadRequest)
				return
			}
			if n > maxAlertsLimit {
				n = maxAlertsLimit
			}
			limit = n
		}

		alerts, err := s.RecentAlerts(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if alerts == nil {
			alerts = []alert.Dispatched{}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(alerts); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
