package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hotelops/roster/adapter/cli"
	"github.com/hotelops/roster/adapter/cli/agenda"
	"github.com/hotelops/roster/adapter/cli/assign"
	"github.com/hotelops/roster/adapter/cli/calendar"
	"github.com/hotelops/roster/adapter/cli/convocation"
	"github.com/hotelops/roster/adapter/cli/demand"
	"github.com/hotelops/roster/adapter/cli/forecast"
	"github.com/hotelops/roster/adapter/cli/ingest"
	"github.com/hotelops/roster/adapter/cli/rules"
	"github.com/hotelops/roster/adapter/cli/schedule"
	"github.com/hotelops/roster/adapter/cli/stats"
	"github.com/hotelops/roster/adapter/cli/suggest"
	"github.com/hotelops/roster/internal/app"
	"github.com/hotelops/roster/pkg/config"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			// In development, allow CLI to run without database
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		// Fail any trace runs left RUNNING by a crashed invocation
		if swept, err := container.TraceSweeper.Sweep(ctx, time.Now().UTC()); err != nil {
			logger.Warn("failed to sweep stale runs", "error", err)
		} else if swept > 0 {
			logger.Info("swept stale runs", "count", swept)
		}

		cliApp = cli.NewApp(container)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(ingest.Cmd)
	cli.AddCommand(stats.Cmd)
	cli.AddCommand(forecast.Cmd)
	cli.AddCommand(demand.Cmd)
	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(assign.Cmd)
	cli.AddCommand(agenda.Cmd)
	cli.AddCommand(calendar.Cmd)
	cli.AddCommand(convocation.Cmd)
	cli.AddCommand(suggest.Cmd)
	cli.AddCommand(rules.Cmd)

	// Execute CLI
	cli.Execute()
}
