package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/valuescreen/internal/app"
	"github.com/ternarybob/valuescreen/internal/common"
	"github.com/ternarybob/valuescreen/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the screener on its cron schedule",
	Long: `Starts the in-process scheduler (default: Mondays 09:00) and, when enabled,
an HTTP server exposing /health, /api/status and POST /api/run.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer application.Close()

	if err := application.SchedulerService.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return err
	}

	if config.Scheduler.RunOnStart {
		logger.Info().Msg("Running once on start")
		application.SchedulerService.TriggerAsync()
	}

	var srv *server.Server
	if config.Server.Enabled {
		srv = server.New(application)
		common.SafeGo(logger, "http-server", func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Msg("HTTP server failed")
			}
		})
	}

	logger.Info().
		Str("schedule", config.Scheduler.Schedule).
		Bool("http", config.Server.Enabled).
		Msg("Serving - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}

	return nil
}
