package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haskel/powermon/internal/config"
	"github.com/haskel/powermon/internal/host"
	"github.com/haskel/powermon/internal/lifecycle"
	"github.com/haskel/powermon/internal/logger"
	"github.com/haskel/powermon/internal/metrics"
	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/server"
	"github.com/haskel/powermon/internal/storage"
	"github.com/haskel/powermon/internal/tailer"
	"github.com/haskel/powermon/internal/telemetry"
)

func runMonitor(cmd *cobra.Command, args []string) error {
	// Arguments are valid; further errors are runtime failures.
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return monitorRun(ctx, cfg, args[0], args[1], log)
}

// monitorRun wires one run and blocks until ctx is cancelled.
func monitorRun(ctx context.Context, cfg *config.Config, outputPath, logPath string, log *slog.Logger) error {
	log.Info("powermon starting",
		"version", Version,
		"config", cfgFile,
		"output", outputPath,
		"eval_log", logPath,
		"interval", cfg.SamplingInterval(),
	)

	logHostInfo(ctx, log)
	checkOutputDir(outputPath, log)

	tracker := progress.NewTracker()
	reader := telemetry.NewCommandReader(cfg.Telemetry.Command, cfg.TelemetryTimeout(), log)
	collector := monitor.NewCollector(reader, tracker, cfg.SamplingInterval(), log)

	m := metrics.New(metrics.Sources{
		Records:  collector,
		Tracker:  tracker,
		Failures: reader.Failures,
	})

	tail := tailer.New(logPath, tracker, tailer.Options{
		PollInterval: cfg.PollInterval(),
		FromStart:    cfg.Tailer.FromStart,
		Watch:        cfg.Tailer.Watch,
		OnMatch:      m.ObserveMatch,
	}, log)

	controller := lifecycle.New(lifecycle.Components{
		Tracker:   tracker,
		Collector: collector,
		Tailer:    tail,
		Writer:    storage.NewWriter(outputPath, log),
		Metrics:   m,
	}, cfg.CheckpointInterval(), log)

	if cfg.Server.Enabled {
		controller.AddService(server.New(cfg, controller, m.Handler(), log, Version))
	}

	if err := controller.Run(ctx); err != nil {
		return fmt.Errorf("monitoring failed: %w", err)
	}
	return nil
}

func logHostInfo(ctx context.Context, log *slog.Logger) {
	state, err := host.Collect(ctx)
	if err != nil {
		log.Debug("failed to collect host info", "error", err)
		return
	}

	log.Info("host",
		"hostname", state.Hostname,
		"platform", state.Platform,
		"cpus", state.CPUCount,
		"memory_total_bytes", state.MemoryTotal,
	)
}

// checkOutputDir warns early when the final save is bound to fail.
func checkOutputDir(outputPath string, log *slog.Logger) {
	dir := filepath.Dir(outputPath)
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("output directory does not exist, saves will fail", "dir", dir)
	case err != nil:
		log.Warn("cannot access output directory", "dir", dir, "error", err)
	case !info.IsDir():
		log.Warn("output directory is not a directory, saves will fail", "dir", dir)
	}
}
