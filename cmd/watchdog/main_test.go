package main_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	main "github.com/securedep/watchdog/cmd/watchdog"
	"github.com/securedep/watchdog/internal/alert"
	"github.com/securedep/watchdog/internal/analyze"
	"github.com/securedep/watchdog/internal/logging"
	"github.com/securedep/watchdog/internal/monitor"
	"github.com/securedep/watchdog/internal/probe"
	"github.com/securedep/watchdog/internal/report"
)

func testLogger(w *bytes.Buffer) *slog.Logger {
	return logging.New(w, "error")
}

func TestWatchdogCommand_ParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name     string
		Args     []string
		Pattern  string
		ExitCode int
		Extra    func(*testing.T, main.WatchdogCommand)
	}{
		{
			Name:     "no-arguments",
			Args:     []string{"watchdog"},
			Pattern:  `^$`,
			ExitCode: 0,
		},
		{
			Name:     "unknown-flag",
			Args:     []string{"watchdog", "--no-such-option"},
			Pattern:  "^unknown flag: --no-such-option\n\nPlease see `watchdog -h` for more information\\.\n$",
			ExitCode: 2,
		},
		{
			Name:     "positional-argument",
			Args:     []string{"watchdog", "surprise"},
			Pattern:  "^unexpected argument: surprise\n",
			ExitCode: 2,
		},
		{
			Name:     "version-short-circuits",
			Args:     []string{"watchdog", "-v", "-1", "-p", "1234"},
			Pattern:  `^$`,
			ExitCode: 0,
			Extra: func(t *testing.T, cmd main.WatchdogCommand) {
				if !cmd.ShowVersion {
					t.Error("expected ShowVersion to be set")
				}
			},
		},
		{
			Name:     "oneshot-ignores-port",
			Args:     []string{"watchdog", "-1", "-p", "1234"},
			Pattern:  "warning: port option will be ignored in the oneshot mode\\.\n",
			ExitCode: 0,
		},
		{
			Name:     "oneshot-ignores-user",
			Args:     []string{"watchdog", "-1", "-u", "foo:bar"},
			Pattern:  "warning: user option will be ignored in the oneshot mode\\.\n",
			ExitCode: 0,
		},
		{
			Name:     "all-options",
			Args:     []string{"watchdog", "-t", "https://api.example.com", "-w", "https://hooks.example.com/x", "-f", "-", "-p", "8080"},
			Pattern:  `^$`,
			ExitCode: 0,
			Extra: func(t *testing.T, cmd main.WatchdogCommand) {
				if cmd.Target != "https://api.example.com" {
					t.Errorf("unexpected target: %q", cmd.Target)
				}
				if cmd.WebhookURL != "https://hooks.example.com/x" {
					t.Errorf("unexpected webhook: %q", cmd.WebhookURL)
				}
				if cmd.AlertLog != "-" {
					t.Errorf("unexpected alert log: %q", cmd.AlertLog)
				}
				if cmd.ListenPort != 8080 {
					t.Errorf("unexpected port: %d", cmd.ListenPort)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			cmd := main.WatchdogCommand{OutStream: buf, ErrStream: buf}

			if code := cmd.ParseArgs(tt.Args); code != tt.ExitCode {
				t.Errorf("unexpected exit code: expected %d but got %d", tt.ExitCode, code)
			}

			if ok, _ := regexp.MatchString(tt.Pattern, buf.String()); !ok {
				t.Errorf("output did not match %q:\n%s", tt.Pattern, buf.String())
			}

			if tt.Extra != nil {
				tt.Extra(t, cmd)
			}
		})
	}
}

func TestWatchdogCommand_LoadConfig(t *testing.T) {
	t.Run("flags-override-file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "watchdog.yaml")
		os.WriteFile(path, []byte("target: http://file.example.com\nenvironment: staging\n"), 0644)

		buf := bytes.NewBuffer(nil)
		cmd := main.WatchdogCommand{OutStream: buf, ErrStream: buf}
		if code := cmd.ParseArgs([]string{"watchdog", "-c", path, "-t", "http://flag.example.com", "-p", "1234"}); code != 0 {
			t.Fatalf("failed to parse args:\n%s", buf.String())
		}

		cfg, err := cmd.LoadConfig()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}

		if cfg.Target != "http://flag.example.com" {
			t.Errorf("flag should win over the file, got %q", cfg.Target)
		}
		if cfg.Environment != "staging" {
			t.Errorf("unexpected environment: %q", cfg.Environment)
		}
		if cfg.API.Port != 1234 {
			t.Errorf("unexpected port: %d", cfg.API.Port)
		}
	})

	t.Run("dash-disables-log-file", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		cmd := main.WatchdogCommand{OutStream: buf, ErrStream: buf}
		if code := cmd.ParseArgs([]string{"watchdog", "-t", "http://api.example.com", "-f", "-"}); code != 0 {
			t.Fatalf("failed to parse args:\n%s", buf.String())
		}

		cfg, err := cmd.LoadConfig()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if cfg.AlertLog != "" {
			t.Errorf("expected empty alert log path, got %q", cfg.AlertLog)
		}
	})

	t.Run("missing-target", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		cmd := main.WatchdogCommand{OutStream: buf, ErrStream: buf}
		if code := cmd.ParseArgs([]string{"watchdog"}); code != 0 {
			t.Fatalf("failed to parse args:\n%s", buf.String())
		}

		if _, err := cmd.LoadConfig(); err == nil {
			t.Error("expected an error about the missing target")
		}
	})
}

func TestWatchdogCommand_PrintVersion(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	cmd := main.WatchdogCommand{OutStream: buf, ErrStream: buf}

	cmd.PrintVersion()

	if ok, _ := regexp.MatchString(`^watchdog version .+ \(.+\)\n$`, buf.String()); !ok {
		t.Errorf("unexpected version output: %q", buf.String())
	}
}

func TestWatchdogCommand_PrintUsage(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	cmd := main.WatchdogCommand{OutStream: buf, ErrStream: buf}

	cmd.PrintUsage(false)
	short := buf.String()
	if ok, _ := regexp.MatchString(`^watchdog -- health monitor and alert dispatcher`, short); !ok {
		t.Errorf("unexpected short usage:\n%s", short)
	}

	buf.Reset()
	cmd.PrintUsage(true)
	long := buf.String()
	if len(long) <= len(short) {
		t.Error("detailed usage should be longer than the short one")
	}
	if ok, _ := regexp.MatchString(`WATCHDOG_TARGET`, long); !ok {
		t.Errorf("detailed usage should document environment variables:\n%s", long)
	}
}

func TestWatchdogCommand_RunOneshot(t *testing.T) {
	newTestMonitor := func(t *testing.T, target string) *monitor.Monitor {
		t.Helper()

		p, err := probe.New(target, time.Second)
		if err != nil {
			t.Fatalf("failed to create prober: %s", err)
		}

		buf := bytes.NewBuffer(nil)
		return monitor.New(monitor.Options{
			Prober:      p,
			Thresholds:  analyze.DefaultThresholds(),
			Cooldown:    alert.NewCooldown(alert.DefaultCooldown),
			Dispatcher:  alert.NewDispatcher(testLogger(buf)),
			Reports:     report.NewWriter(filepath.Join(t.TempDir(), "report-%Y%m%d.json")),
			Logger:      testLogger(buf),
			Environment: "test",
		})
	}

	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"healthy","checks":{}}`))
		}))
		t.Cleanup(srv.Close)

		cmd := main.WatchdogCommand{OutStream: bytes.NewBuffer(nil), ErrStream: bytes.NewBuffer(nil)}
		if code := cmd.RunOneshot(context.Background(), newTestMonitor(t, srv.URL)); code != 0 {
			t.Errorf("unexpected exit code: %d", code)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"unhealthy","checks":{}}`))
		}))
		t.Cleanup(srv.Close)

		cmd := main.WatchdogCommand{OutStream: bytes.NewBuffer(nil), ErrStream: bytes.NewBuffer(nil)}
		if code := cmd.RunOneshot(context.Background(), newTestMonitor(t, srv.URL)); code != 1 {
			t.Errorf("unexpected exit code: %d", code)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		cmd := main.WatchdogCommand{OutStream: bytes.NewBuffer(nil), ErrStream: bytes.NewBuffer(nil)}
		if code := cmd.RunOneshot(context.Background(), newTestMonitor(t, srv.URL)); code != 1 {
			t.Errorf("unexpected exit code: %d", code)
		}
	})
}
