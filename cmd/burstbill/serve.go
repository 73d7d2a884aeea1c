package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"burstbill/internal/billing"
	"burstbill/internal/config"
	"burstbill/internal/directory"
	"burstbill/internal/health"
	"burstbill/internal/logging"
	"burstbill/internal/mailer"
	"burstbill/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run monthly billing on a schedule",
	Long: `Sleep until each month rolls over (plus the configured delay, so the
storage backend has flushed the month's final samples), bill the month
that just ended, and deliver the report. Metrics and readiness are
served over HTTP while waiting.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New("burstbill")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	dsn, err := cfg.ResolveDSN()
	if err != nil {
		return err
	}
	// Held open for the readiness check; each run opens its own.
	store, err := directory.Open(ctx, directory.Config{
		DSN:         dsn,
		RRDBase:     cfg.RRD.Base,
		AliasPrefix: cfg.Directory.AliasPrefix,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening directory database: %w", err)
	}
	defer store.Close()

	metrics := observability.NewMetrics(nil)
	check := health.Check{Directory: store, RRDBase: cfg.RRD.Base, RRDTool: cfg.RRD.Command}
	obs := observability.Start(ctx, cfg.Serve.HTTPAddr, logger, metrics.Registry(), check.Ready)
	defer obs.Stop(context.Background())

	for {
		next := billing.NextMonthStart(time.Now()).Add(cfg.Serve.Delay)
		logger.Info("next billing run scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("shutting down")
			return nil
		case <-timer.C:
		}

		runLogger := logger.WithRunID(uuid.NewString())
		report, subject, err := runBilling(ctx, runLogger, cfg, billing.ModePrevious, metrics)
		if err != nil {
			runLogger.Errorf("billing run failed: %v", err)
			continue
		}
		if cfg.Serve.Email == "" {
			fmt.Println(report)
			continue
		}
		sender := mailer.New(mailerConfig(cfg))
		if err := sender.Send(ctx, cfg.Serve.Email, subject, report); err != nil {
			runLogger.Errorf("sending report to %s: %v", cfg.Serve.Email, err)
			continue
		}
		runLogger.Info("report sent", "to", cfg.Serve.Email, "subject", subject)
	}
}
