// Package config loads the watchdog configuration from a YAML file,
// then applies environment variable overrides on top of it.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/securedep/watchdog/internal/wderr"
)

// Duration is a time.Duration that decodes from YAML strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// Target is the base URL of the monitored system.
	// The prober requests GET {target}/health.
	Target string `yaml:"target"`

	Interval     Duration `yaml:"interval"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
	Cooldown     Duration `yaml:"cooldown"`

	// ReportSchedule is an interval like "24h" or a cron spec like "@daily".
	ReportSchedule string `yaml:"report_schedule"`

	AlertLog string `yaml:"alert_log"`

	// ReportFile is a dated path pattern. %Y, %m and %d are replaced
	// with the date the report is written.
	ReportFile string `yaml:"report_file"`

	Thresholds Thresholds `yaml:"thresholds"`
	Channels   Channels   `yaml:"channels"`
	API        API        `yaml:"api"`
}

type Thresholds struct {
	ResponseTime   Duration `yaml:"response_time"`
	DBResponseTime Duration `yaml:"db_response_time"`
	MemoryUsage    float64  `yaml:"memory_usage"`

	// DiskUsage and ErrorRate are reserved. They are validated but no
	// analyzer rule reads them yet.
	DiskUsage float64 `yaml:"disk_usage"`
	ErrorRate float64 `yaml:"error_rate"`
}

type Channels struct {
	Webhook WebhookChannel `yaml:"webhook"`
	Email   EmailChannel   `yaml:"email"`
	History HistoryChannel `yaml:"history"`
}

type WebhookChannel struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

type EmailChannel struct {
	To string `yaml:"to"`
}

type HistoryChannel struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

type API struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`

	// UserInfo is a "username:password" pair for basic auth. Empty
	// disables authentication.
	UserInfo string `yaml:"user"`
}

// Default returns the configuration used when no file and no overrides
// are given. The threshold values follow the platform runbook defaults.
func Default() *Config {
	return &Config{
		Environment:    "production",
		LogLevel:       "info",
		Interval:       Duration(30 * time.Second),
		ProbeTimeout:   Duration(10 * time.Second),
		Cooldown:       Duration(5 * time.Minute),
		ReportSchedule: "24h",
		AlertLog:       "watchdog_alerts.log",
		ReportFile:     "watchdog-report-%Y%m%d.json",
		Thresholds: Thresholds{
			ResponseTime:   Duration(2 * time.Second),
			DBResponseTime: Duration(1 * time.Second),
			MemoryUsage:    85,
			DiskUsage:      90,
			ErrorRate:      5,
		},
		Channels: Channels{
			Webhook: WebhookChannel{Timeout: Duration(10 * time.Second)},
			History: HistoryChannel{DSN: "file:watchdog.db?_pragma=busy_timeout(5000)"},
		},
		API: API{Enabled: true, Port: 9080},
	}
}

// Load reads the YAML file at path if it is not empty, applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile is Load without the validation step, for callers that apply
// their own overrides before validating.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, wderr.New(wderr.ErrInvalidConfig, err, "failed to read %s", path)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, wderr.New(wderr.ErrInvalidConfig, err, "failed to parse %s", path)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Target = getEnv("WATCHDOG_TARGET", cfg.Target)
	cfg.Environment = getEnv("WATCHDOG_ENVIRONMENT", cfg.Environment)
	cfg.Channels.Webhook.URL = getEnv("WATCHDOG_WEBHOOK_URL", cfg.Channels.Webhook.URL)
	cfg.Channels.Email.To = getEnv("WATCHDOG_EMAIL", cfg.Channels.Email.To)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Validate reports every problem of the configuration at once.
func (cfg *Config) Validate() error {
	errs := &wderr.ListBuilder{What: wderr.ErrInvalidConfig}

	if cfg.Target == "" {
		errs.Pushf("target is required (set target in the config file or WATCHDOG_TARGET)")
	} else if u, err := url.Parse(cfg.Target); err != nil {
		errs.Pushf("target: %s", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs.Pushf("target: unsupported scheme %q", u.Scheme)
	} else if u.Hostname() == "" {
		errs.Pushf("target: missing host")
	}

	if cfg.Interval.Value() <= 0 {
		errs.Pushf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.ProbeTimeout.Value() <= 0 {
		errs.Pushf("probe_timeout must be positive, got %s", cfg.ProbeTimeout)
	}
	if cfg.Cooldown.Value() < 0 {
		errs.Pushf("cooldown must not be negative, got %s", cfg.Cooldown)
	}
	if cfg.ReportSchedule == "" {
		errs.Pushf("report_schedule is required")
	}
	if cfg.AlertLog == "" {
		errs.Pushf("alert_log is required")
	}
	if cfg.ReportFile == "" {
		errs.Pushf("report_file is required")
	}

	if cfg.Thresholds.ResponseTime.Value() <= 0 {
		errs.Pushf("thresholds.response_time must be positive")
	}
	if cfg.Thresholds.DBResponseTime.Value() <= 0 {
		errs.Pushf("thresholds.db_response_time must be positive")
	}
	if cfg.Thresholds.MemoryUsage <= 0 || cfg.Thresholds.MemoryUsage > 100 {
		errs.Pushf("thresholds.memory_usage must be a percentage in (0, 100], got %v", cfg.Thresholds.MemoryUsage)
	}
	if cfg.Thresholds.DiskUsage <= 0 || cfg.Thresholds.DiskUsage > 100 {
		errs.Pushf("thresholds.disk_usage must be a percentage in (0, 100], got %v", cfg.Thresholds.DiskUsage)
	}
	if cfg.Thresholds.ErrorRate < 0 {
		errs.Pushf("thresholds.error_rate must not be negative, got %v", cfg.Thresholds.ErrorRate)
	}

	if cfg.Channels.Webhook.URL != "" {
		if u, err := url.Parse(cfg.Channels.Webhook.URL); err != nil {
			errs.Pushf("channels.webhook.url: %s", err)
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs.Pushf("channels.webhook.url: unsupported scheme %q", u.Scheme)
		}
	}
	if cfg.Channels.History.Enabled && cfg.Channels.History.DSN == "" {
		errs.Pushf("channels.history.dsn is required when history is enabled")
	}

	if cfg.API.Enabled && (cfg.API.Port < 1 || cfg.API.Port > 65535) {
		errs.Pushf("api.port must be in 1-65535, got %d", cfg.API.Port)
	}

	return errs.Build()
}
