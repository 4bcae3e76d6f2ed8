package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/securedep/watchdog/internal/config"
	"github.com/securedep/watchdog/internal/endpoint"
	"github.com/securedep/watchdog/internal/monitor"
	"github.com/securedep/watchdog/internal/schedule"
)

// RunServer runs the probe and report jobs on their schedules and
// serves the status API until ctx is cancelled.
func (cmd *WatchdogCommand) RunServer(ctx context.Context, cfg *config.Config, m *monitor.Monitor, logger *slog.Logger) (exitCode int) {
	reportSchedule, err := schedule.Parse(cfg.ReportSchedule)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: invalid report schedule %q: %s\n", cfg.ReportSchedule, err)
		return 2
	}
	probeSchedule := schedule.Schedule(schedule.IntervalSchedule{Interval: cfg.Interval.Value()})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// whatever path leaves this function, the current period is reported
	defer m.Flush()

	logger.Info("starting watchdog",
		"target", cfg.Target,
		"interval", probeSchedule.String(),
		"report_schedule", reportSchedule.String(),
		"environment", cfg.Environment)

	scheduler := cron.New()

	wg := &sync.WaitGroup{}

	probeJob := cron.FuncJob(func() { m.RunCycle(ctx) })
	if probeSchedule.NeedKickWhenStart() {
		wg.Add(1)
		go func() {
			probeJob.Run()
			wg.Done()
		}()
	}
	scheduler.Schedule(probeSchedule, probeJob)

	scheduler.Schedule(reportSchedule, cron.FuncJob(func() {
		if _, err := m.GenerateDailyReport(); err != nil {
			logger.Error("scheduled report failed", "error", err)
		}
	}))

	scheduler.Start()

	if !cfg.API.Enabled {
		<-ctx.Done()
		<-scheduler.Stop().Done()
		wg.Wait()
		return 0
	}

	listen := fmt.Sprintf("0.0.0.0:%d", cfg.API.Port)
	srv := &http.Server{
		Addr:    listen,
		Handler: endpoint.WithBasicAuth(endpoint.New(m), cfg.API.UserInfo),
	}

	logger.Info("status API listening", "address", listen)

	wg.Add(2)
	go func() {
		<-ctx.Done()

		go func() {
			<-scheduler.Stop().Done()
			wg.Done()
		}()

		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down status API", "error", err)
		}
		wg.Done()
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("status API failed", "error", err)
		exitCode = 1
	}
	cancel()

	wg.Wait()

	return exitCode
}
