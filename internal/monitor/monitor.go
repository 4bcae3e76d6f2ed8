// Package monitor drives the probe, analyze and dispatch pipeline, and
// owns the counters the daily report is built from.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/securedep/watchdog/internal/alert"
	"github.com/securedep/watchdog/internal/analyze"
	"github.com/securedep/watchdog/internal/history"
	"github.com/securedep/watchdog/internal/probe"
	"github.com/securedep/watchdog/internal/report"
	"github.com/securedep/watchdog/internal/store"
)

// Options holds everything a Monitor needs. Prober, Cooldown,
// Dispatcher and Logger are required; AlertLog and History are optional
// and only feed the status endpoints when present.
type Options struct {
	Prober      *probe.Prober
	Thresholds  analyze.Thresholds
	Cooldown    *alert.Cooldown
	Dispatcher  *alert.Dispatcher
	Reports     report.Writer
	Logger      *slog.Logger
	Environment string

	AlertLog *store.Store
	History  *history.Store

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Monitor runs probe cycles and periodic reports.
// All methods are safe for concurrent use.
type Monitor struct {
	prober      *probe.Prober
	thresholds  analyze.Thresholds
	cooldown    *alert.Cooldown
	dispatcher  *alert.Dispatcher
	reports     report.Writer
	logger      *slog.Logger
	environment string
	alertLog    *store.Store
	history     *history.Store
	now         func() time.Time

	startedAt time.Time
	metrics   report.Counters
	flushOnce sync.Once

	// cycleMu serializes probe cycles. A tick that arrives while the
	// previous cycle still runs is skipped, not queued.
	cycleMu sync.Mutex

	lastMu    sync.Mutex
	lastProbe *LastProbe
}

// LastProbe describes the most recent completed probe cycle.
type LastProbe struct {
	At           time.Time `json:"at"`
	Status       string    `json:"status"`
	ResponseTime string    `json:"responseTime"`
	Error        string    `json:"error,omitempty"`
}

func New(o Options) *Monitor {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		prober:      o.Prober,
		thresholds:  o.Thresholds,
		cooldown:    o.Cooldown,
		dispatcher:  o.Dispatcher,
		reports:     o.Reports,
		logger:      o.Logger,
		environment: o.Environment,
		alertLog:    o.AlertLog,
		history:     o.History,
		now:         now,
		startedAt:   now(),
	}
}

// RunCycle executes one probe-analyze-dispatch pass. A probe failure
// becomes a single critical alert candidate; a successful probe may
// produce any number of threshold violations. Candidates inside their
// cooldown window are dropped before dispatch.
func (m *Monitor) RunCycle(ctx context.Context) {
	if !m.cycleMu.TryLock() {
		m.logger.Warn("previous probe cycle still running, skipping this tick")
		return
	}
	defer m.cycleMu.Unlock()

	m.metrics.AddCheck()

	var candidates []alert.Candidate

	snap, err := m.prober.Probe(ctx)
	if err != nil {
		m.metrics.AddFailure()
		m.logger.Error("health probe failed", "target", m.prober.Target(), "error", err)
		candidates = []alert.Candidate{analyze.ProbeFailure(err)}
		m.recordLast(snap, err)
	} else {
		candidates = analyze.Analyze(snap, m.thresholds)
		m.logger.Debug("probe completed",
			"status", snap.Status,
			"response_time", snap.ResponseTime,
			"violations", len(candidates))
		m.recordLast(snap, nil)
	}

	for _, c := range candidates {
		if !m.cooldown.Allow(c, m.now()) {
			m.logger.Debug("alert suppressed by cooldown", "key", c.Key())
			continue
		}

		a := alert.NewDispatched(c, m.environment, m.now())
		m.logger.Info("dispatching alert",
			"id", a.ID,
			"severity", a.Type,
			"key", c.Key(),
			"message", a.Message)

		m.dispatcher.Dispatch(ctx, a)
		m.metrics.AddAlert()
	}
}

func (m *Monitor) recordLast(snap probe.Snapshot, err error) {
	last := &LastProbe{
		At:           m.now(),
		Status:       string(snap.Status),
		ResponseTime: snap.ResponseTime.String(),
	}
	if err != nil {
		last.Status = "unreachable"
		last.Error = err.Error()
	}

	m.lastMu.Lock()
	m.lastProbe = last
	m.lastMu.Unlock()
}

// GenerateDailyReport writes the report for the period since the last
// report and resets the counters for the next one.
func (m *Monitor) GenerateDailyReport() (report.Daily, error) {
	now := m.now()
	d := report.Build(m.metrics.TakeAndReset(), now.Sub(m.startedAt), now)

	path, err := m.reports.Write(d, now)
	if err != nil {
		m.logger.Error("failed to write daily report", "path", path, "error", err)
		return d, err
	}

	m.logger.Info("daily report written",
		"path", path,
		"checks", d.Metrics.Checks,
		"alerts", d.Metrics.Alerts,
		"health_rate", d.HealthRate)
	return d, nil
}

// Flush writes a final report covering the unreported remainder of the
// current period. Safe to call from several shutdown paths; only the
// first call does anything.
func (m *Monitor) Flush() {
	m.flushOnce.Do(func() {
		m.logger.Info("writing final report before shutdown")
		if _, err := m.GenerateDailyReport(); err != nil {
			m.logger.Error("final report failed", "error", err)
		}
	})
}

// Status is the document served at /status.json.
type Status struct {
	Environment string         `json:"environment"`
	Target      string         `json:"target"`
	StartedAt   time.Time      `json:"startedAt"`
	Uptime      report.Uptime  `json:"uptime"`
	Metrics     report.Metrics `json:"metrics"`
	LastProbe   *LastProbe     `json:"lastProbe,omitempty"`
}

func (m *Monitor) Status() Status {
	now := m.now()
	uptime := now.Sub(m.startedAt)

	m.lastMu.Lock()
	last := m.lastProbe
	m.lastMu.Unlock()

	return Status{
		Environment: m.environment,
		Target:      m.prober.Target().String(),
		StartedAt:   m.startedAt,
		Uptime: report.Uptime{
			Seconds: uptime.Seconds(),
			Human:   report.HumanDuration(uptime, now),
		},
		Metrics:   m.metrics.Snapshot(),
		LastProbe: last,
	}
}

// Errors reports the write health of the alert log, for /healthz.
// Without an alert log the monitor is always healthy.
func (m *Monitor) Errors() (healthy bool, messages []string) {
	if m.alertLog == nil {
		return true, nil
	}
	return m.alertLog.Errors()
}

// RecentAlerts returns the newest alerts from the history store, for
// /alerts.json. Without a history store it returns an empty list.
func (m *Monitor) RecentAlerts(ctx context.Context, limit int) ([]alert.Dispatched, error) {
	if m.history == nil {
		return []alert.Dispatched{}, nil
	}
	return m.history.Recent(ctx, limit)
}
