package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/template"

	"github.com/spf13/pflag"

	"github.com/securedep/watchdog/internal/alert"
	"github.com/securedep/watchdog/internal/analyze"
	"github.com/securedep/watchdog/internal/config"
	"github.com/securedep/watchdog/internal/history"
	"github.com/securedep/watchdog/internal/logging"
	"github.com/securedep/watchdog/internal/meta"
	"github.com/securedep/watchdog/internal/monitor"
	"github.com/securedep/watchdog/internal/probe"
	"github.com/securedep/watchdog/internal/report"
	"github.com/securedep/watchdog/internal/store"
)

type WatchdogCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	ConfigPath  string
	Target      string
	ListenPort  int
	AlertLog    string
	WebhookURL  string
	OneshotMode bool
	UserInfo    string
	ShowVersion bool
	ShowHelp    bool

	flags *pflag.FlagSet
}

var defaultWatchdogCommand = &WatchdogCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

//go:embed help.txt
var helpText string

func (cmd *WatchdogCommand) PrintUsage(detail bool) {
	tmpl := template.Must(template.New("help.txt").Parse(helpText))
	tmpl.Execute(cmd.ErrStream, map[string]interface{}{
		"Version": meta.Version,
		"Short":   !detail,
	})
}

func (cmd *WatchdogCommand) PrintVersion() {
	fmt.Fprintf(cmd.OutStream, "watchdog version %s (%s)\n", meta.Version, meta.Commit)
}

func (cmd *WatchdogCommand) ParseArgs(args []string) (exitCode int) {
	flags := pflag.NewFlagSet("watchdog", pflag.ContinueOnError)

	flags.StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file")
	flags.StringVarP(&cmd.Target, "target", "t", "", "Base URL of the monitored system")
	flags.IntVarP(&cmd.ListenPort, "port", "p", 9080, "HTTP listen port of the status API")
	flags.StringVarP(&cmd.AlertLog, "log-file", "f", "", "Path to the alert log file")
	flags.StringVarP(&cmd.WebhookURL, "webhook", "w", "", "Webhook URL for alert delivery")
	flags.BoolVarP(&cmd.OneshotMode, "oneshot", "1", false, "Probe once, print violations, and exit")
	flags.StringVarP(&cmd.UserInfo, "user", "u", "", "Username and password for the status API")
	flags.BoolVarP(&cmd.ShowVersion, "version", "v", false, "Show version")
	flags.BoolVarP(&cmd.ShowHelp, "help", "h", false, "Show help message")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	if cmd.ShowVersion || cmd.ShowHelp {
		return 0
	}

	if cmd.OneshotMode {
		if flags.Changed("port") {
			fmt.Fprintln(cmd.ErrStream, "warning: port option will be ignored in the oneshot mode.")
		}
		if flags.Changed("user") {
			fmt.Fprintln(cmd.ErrStream, "warning: user option will be ignored in the oneshot mode.")
		}
	}

	if rest := flags.Args(); len(rest) > 0 {
		fmt.Fprintf(cmd.ErrStream, "unexpected argument: %s\n", rest[0])
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	cmd.flags = flags

	return 0
}

// LoadConfig builds the effective configuration: file, then environment,
// then command line flags, validated as a whole.
func (cmd *WatchdogCommand) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cmd.ConfigPath)
	if err != nil {
		return nil, err
	}

	if cmd.Target != "" {
		cfg.Target = cmd.Target
	}
	if cmd.WebhookURL != "" {
		cfg.Channels.Webhook.URL = cmd.WebhookURL
	}
	if cmd.AlertLog != "" {
		cfg.AlertLog = cmd.AlertLog
	}
	if cmd.flags != nil && cmd.flags.Changed("port") {
		cfg.API.Port = cmd.ListenPort
	}
	if cmd.UserInfo != "" {
		cfg.API.UserInfo = cmd.UserInfo
	}

	// "-" means console only, like most log tools
	if cfg.AlertLog == "-" {
		cfg.AlertLog = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cmd *WatchdogCommand) Run(args []string) (exitCode int) {
	if code := cmd.ParseArgs(args); code != 0 {
		return code
	}

	if cmd.ShowVersion {
		cmd.PrintVersion()
		return 0
	}

	if cmd.ShowHelp {
		cmd.PrintUsage(true)
		return 0
	}

	cfg, err := cmd.LoadConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}

	logger := logging.New(cmd.ErrStream, cfg.LogLevel)

	alertStore, err := store.New(cfg.AlertLog, cmd.OutStream)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to open alert log: %s\n", err)
		return 1
	}
	defer alertStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channels := []alert.Channel{alert.LogFile{Store: alertStore}}

	if cfg.Channels.Webhook.URL != "" {
		webhook, err := alert.NewWebhook(cfg.Channels.Webhook.URL, cfg.Channels.Webhook.Timeout.Value())
		if err != nil {
			fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
			return 2
		}
		channels = append(channels, webhook)
	} else {
		logger.Warn("no webhook configured, alerts go to the log channels only")
	}

	if cfg.Channels.Email.To != "" {
		channels = append(channels, alert.NewEmail(cfg.Channels.Email.To))
	}

	var hist *history.Store
	if cfg.Channels.History.Enabled {
		hist, err = history.Open(cfg.Channels.History.DSN)
		if err == nil {
			err = hist.Init(ctx)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrStream, "error: failed to open alert history: %s\n", err)
			return 1
		}
		defer hist.Close()
		channels = append(channels, history.Channel{Store: hist})
	}

	prober, err := probe.New(cfg.Target, cfg.ProbeTimeout.Value())
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}

	m := monitor.New(monitor.Options{
		Prober: prober,
		Thresholds: analyze.Thresholds{
			ResponseTime:   cfg.Thresholds.ResponseTime.Value(),
			DBResponseTime: cfg.Thresholds.DBResponseTime.Value(),
			MemoryUsage:    cfg.Thresholds.MemoryUsage,
			DiskUsage:      cfg.Thresholds.DiskUsage,
			ErrorRate:      cfg.Thresholds.ErrorRate,
		},
		Cooldown:    alert.NewCooldown(cfg.Cooldown.Value()),
		Dispatcher:  alert.NewDispatcher(logger, channels...),
		Reports:     report.NewWriter(cfg.ReportFile),
		Logger:      logger,
		Environment: cfg.Environment,
		AlertLog:    alertStore,
		History:     hist,
	})

	if cmd.OneshotMode {
		exitCode = cmd.RunOneshot(ctx, m)
	} else {
		exitCode = cmd.RunServer(ctx, cfg, m, logger)
	}

	if healthy, _ := alertStore.Errors(); exitCode == 0 && !healthy {
		return 1
	}

	return exitCode
}

func main() {
	os.Exit(defaultWatchdogCommand.Run(os.Args))
}
