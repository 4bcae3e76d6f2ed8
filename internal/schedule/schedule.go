// Package schedule parses the probe and report timing specifications.
// A spec is either a Go duration like "30s", or a cron expression like
// "0 0 * * *" or "@daily".
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// DefaultProbeSchedule is used when no probe interval is configured.
	DefaultProbeSchedule = Schedule(IntervalSchedule{30 * time.Second})

	// DefaultReportSchedule matches the once-a-day reporting cadence.
	DefaultReportSchedule = Schedule(IntervalSchedule{24 * time.Hour})
)

type Schedule interface {
	cron.Schedule
	fmt.Stringer

	// NeedKickWhenStart reports whether the job should run immediately
	// on startup instead of waiting for the first tick.
	NeedKickWhenStart() bool
}

// Parse accepts an interval spec first, then falls back to cron syntax.
func Parse(spec string) (Schedule, error) {
	if s, err := ParseInterval(spec); err == nil {
		return s, nil
	}

	return ParseCron(spec)
}

// IntervalSchedule fires every Interval. Interval jobs also fire once at
// startup so that a freshly started watchdog probes right away.
type IntervalSchedule struct {
	Interval time.Duration
}

func ParseInterval(spec string) (IntervalSchedule, error) {
	d, err := time.ParseDuration(spec)
	if err != nil {
		return IntervalSchedule{}, err
	}
	if d <= 0 {
		return IntervalSchedule{}, fmt.Errorf("interval must be positive: %q", spec)
	}
	return IntervalSchedule{d}, nil
}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s IntervalSchedule) String() string {
	return s.Interval.String()
}

func (s IntervalSchedule) NeedKickWhenStart() bool {
	return true
}

// CronSchedule fires on a crontab expression. Cron jobs wait for their
// first scheduled time; a report scheduled for midnight should not also
// run at startup.
type CronSchedule struct {
	spec     string
	schedule cron.Schedule
}

var cronDelimiter = regexp.MustCompile("[ \t]+")

func ParseCron(spec string) (CronSchedule, error) {
	switch spec {
	case "@yearly", "@annually":
		spec = "0 0 1 1 ?"
	case "@monthly":
		spec = "0 0 1 * ?"
	case "@weekly":
		spec = "0 0 * * 0"
	case "@daily", "@midnight":
		spec = "0 0 * * ?"
	case "@hourly":
		spec = "0 * * * ?"
	default:
		ss := cronDelimiter.Split(strings.TrimSpace(spec), -1)
		if len(ss) == 4 {
			ss = append(ss, "?")
		}
		spec = strings.Join(ss, " ")
	}

	s, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional).Parse(spec)
	if err != nil {
		return CronSchedule{}, err
	}

	return CronSchedule{
		spec:     spec,
		schedule: s,
	}, nil
}

func (s CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s CronSchedule) String() string {
	return s.spec
}

func (s CronSchedule) NeedKickWhenStart() bool {
	return false
}
