package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ryanfowler/gokv/cmd/kvctl/commands"
	"github.com/ryanfowler/gokv/internal/logger"
	"github.com/ryanfowler/gokv/internal/telemetry"
	"github.com/ryanfowler/gokv/pkg/config"
	"github.com/ryanfowler/gokv/pkg/metrics"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	shutdown := bootstrapAmbientStack()
	defer shutdown()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrapAmbientStack initializes logging, metrics, telemetry, and
// profiling from whatever configuration is reachable at startup, and
// returns a func that flushes telemetry/profiling before exit. It never
// fails the process: a missing or invalid config file just means the
// defaults (info logging, telemetry/metrics/profiling disabled) remain in
// effect until the user runs a command that loads config explicitly.
func bootstrapAmbientStack() func() {
	cfg, err := config.Load("")
	if err != nil {
		return func() {}
	}

	if err := logger.Init(cfg.ToLoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logger: %v\n", err)
	}

	metrics.InitRegistry(cfg.Metrics.Enabled)
	if cfg.Metrics.Enabled {
		if _, err := metrics.StartServer(cfg.Metrics.MetricsAddr()); err != nil {
			logger.Error("failed to start metrics server", "error", err)
		} else {
			logger.Info("metrics server listening", "addr", cfg.Metrics.MetricsAddr())
		}
	}

	telemetryCfg := cfg.ToTelemetryConfig("kvctl", version)
	telemetryShutdown, err := telemetry.Init(context.Background(), telemetryCfg)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		telemetryShutdown = func(context.Context) error { return nil }
	}

	profilingCfg := cfg.ToProfilingConfig("kvctl", version)
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		logger.Error("failed to initialize profiling", "error", err)
		profilingShutdown = func() error { return nil }
	} else if profilingCfg.Enabled {
		logger.Info("profiling enabled", "endpoint", profilingCfg.Endpoint, "profile_types", profilingCfg.ProfileTypes)
	}

	return func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}
}
