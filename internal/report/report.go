// Package report keeps the process lifetime counters and renders them
// into the daily report document.
package report

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/securedep/watchdog/internal/store"
	"github.com/securedep/watchdog/internal/wderr"
)

// Metrics are the running counters of one report period.
type Metrics struct {
	Checks   int64 `json:"checks"`
	Failures int64 `json:"failures"`
	Alerts   int64 `json:"alerts"`
}

// Counters is the mutable holder of Metrics.
// It is reset to zero at each report boundary.
type Counters struct {
	mu sync.Mutex
	m  Metrics
}

func (c *Counters) AddCheck() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.Checks++
}

func (c *Counters) AddFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.Failures++
}

func (c *Counters) AddAlert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.Alerts++
}

// Snapshot returns the current counters without resetting them.
func (c *Counters) Snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}

// TakeAndReset returns the current counters and starts a new period.
func (c *Counters) TakeAndReset() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.m
	c.m = Metrics{}
	return m
}

// Uptime describes how long the process has been running.
type Uptime struct {
	Seconds float64 `json:"seconds"`
	Human   string  `json:"human"`
}

// Summary aggregates the alerts of one report period.
type Summary struct {
	Total int64 `json:"total"`

	// Rate is alerts per check, 0 when no check ran.
	Rate float64 `json:"rate"`
}

// Daily is the once-per-period report document. Immutable once written.
type Daily struct {
	Date         string  `json:"date"`
	Metrics      Metrics `json:"metrics"`
	Uptime       Uptime  `json:"uptime"`
	AlertSummary Summary `json:"alertSummary"`

	// HealthRate is the percentage of probes that succeeded,
	// 100 when no probe ran during the period.
	HealthRate float64 `json:"healthRate"`
}

// HumanDuration renders a duration ending at now the way humans say it,
// like "3 hours".
func HumanDuration(d time.Duration, now time.Time) string {
	return strings.TrimSpace(humanize.RelTime(now.Add(-d), now, "", ""))
}

// Build renders one period's counters into the report document.
func Build(m Metrics, uptime time.Duration, now time.Time) Daily {
	healthRate := 100.0
	rate := 0.0
	if m.Checks > 0 {
		healthRate = (1 - float64(m.Failures)/float64(m.Checks)) * 100
		rate = float64(m.Alerts) / float64(m.Checks)
	}

	return Daily{
		Date:    now.Format("2006-01-02"),
		Metrics: m,
		Uptime: Uptime{
			Seconds: uptime.Seconds(),
			Human:   HumanDuration(uptime, now),
		},
		AlertSummary: Summary{
			Total: m.Alerts,
			Rate:  rate,
		},
		HealthRate: healthRate,
	}
}

// Writer writes report documents to dated files.
type Writer struct {
	pattern store.Pattern
}

// NewWriter creates a Writer. The path may contain %Y, %m and %d
// placeholders, like "reports/watchdog-report-%Y%m%d.json".
func NewWriter(pathPattern string) Writer {
	return Writer{pattern: store.ParsePattern(pathPattern)}
}

// Write stores the report in the file for time now and returns the path.
// An existing file of the same date is overwritten: the last report of a
// date wins, which is what the shutdown flush relies on.
func (w Writer) Write(d Daily, now time.Time) (string, error) {
	path := w.pattern.Build(now)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return path, wderr.New(wderr.ErrIO, err, "failed to prepare report directory")
		}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return path, wderr.New(wderr.ErrIO, err, "failed to encode report")
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return path, wderr.New(wderr.ErrIO, err, "failed to write report")
	}

	return path, nil
}
