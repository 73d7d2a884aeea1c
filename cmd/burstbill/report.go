package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"burstbill/internal/billing"
	"burstbill/internal/config"
	"burstbill/internal/directory"
	"burstbill/internal/logging"
	"burstbill/internal/mailer"
	"burstbill/internal/rrd"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one billing report",
	Long: `Compute the 95th-percentile bill for every customer and print the
report, or mail it when --email is given. Bills the current month to
date by default; --prev bills the whole previous calendar month.`,
	RunE: runReport,
}

var (
	reportPrev       bool
	reportEmail      string
	reportRRDBase    string
	reportObsConfig  string
	reportDSN        string
	reportOmitFailed bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportPrev, "prev", false, "bill the previous calendar month")
	reportCmd.Flags().StringVar(&reportEmail, "email", "", "email address to send the report to (stdout when unset)")
	reportCmd.Flags().StringVar(&reportRRDBase, "rrd-base", "", "base path for RRD files")
	reportCmd.Flags().StringVar(&reportObsConfig, "observium-config", "", "path to Observium config.php")
	reportCmd.Flags().StringVar(&reportDSN, "dsn", "", "directory database DSN (overrides observium config)")
	reportCmd.Flags().BoolVar(&reportOmitFailed, "omit-failed", false, "omit customers with no readable interfaces instead of billing 0.00")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("rrd-base") {
		cfg.RRD.Base = reportRRDBase
	}
	if cmd.Flags().Changed("observium-config") {
		cfg.Directory.ObserviumConfig = reportObsConfig
	}
	if cmd.Flags().Changed("dsn") {
		cfg.Directory.DSN = reportDSN
	}
	if cmd.Flags().Changed("omit-failed") {
		cfg.Billing.OmitFailedCustomers = reportOmitFailed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	mode := billing.ModeCurrent
	if reportPrev {
		mode = billing.ModePrevious
	}

	logger := logging.New("burstbill").WithRunID(uuid.NewString())
	report, subject, err := runBilling(cmd.Context(), logger, cfg, mode, nil)
	if err != nil {
		return err
	}

	if reportEmail == "" {
		fmt.Println(report)
		return nil
	}
	sender := mailer.New(mailerConfig(cfg))
	if err := sender.Send(cmd.Context(), reportEmail, subject, report); err != nil {
		return fmt.Errorf("sending report to %s: %w", reportEmail, err)
	}
	logger.Info("report sent", "to", reportEmail, "subject", subject)
	return nil
}

// runBilling executes one full billing pass: discover customer groups,
// compute their percentiles, render the report. Shared by report and
// serve, which differ only in scheduling and delivery.
func runBilling(ctx context.Context, logger *logging.Logger, cfg config.Config, mode billing.Mode, metrics billing.Metrics) (report, subject string, err error) {
	period := billing.PeriodFor(mode, time.Now())
	logger.Info("billing period selected", "label", period.Label,
		"start", period.Start.Format(time.RFC3339), "end", period.End.Format(time.RFC3339))

	dsn, err := cfg.ResolveDSN()
	if err != nil {
		return "", "", err
	}
	store, err := directory.Open(ctx, directory.Config{
		DSN:         dsn,
		RRDBase:     cfg.RRD.Base,
		AliasPrefix: cfg.Directory.AliasPrefix,
	}, logger)
	if err != nil {
		return "", "", fmt.Errorf("opening directory database: %w", err)
	}
	defer store.Close()

	groups, err := store.CustomerGroups(ctx)
	if err != nil {
		return "", "", fmt.Errorf("discovering customers: %w", err)
	}
	if len(groups) == 0 {
		return "", "", errors.New("no billable customers discovered")
	}

	client := rrd.NewClient(rrd.Config{Command: cfg.RRD.Command, Daemon: cfg.RRD.Daemon})
	engine := billing.NewEngine(client, logger, billing.Config{
		Percentile:          cfg.Billing.Percentile,
		Concurrency:         cfg.Billing.Concurrency,
		FetchTimeout:        cfg.Billing.FetchTimeout,
		OmitFailedCustomers: cfg.Billing.OmitFailedCustomers,
	}, metrics)

	results, err := engine.Run(ctx, period, groups)
	if err != nil {
		return "", "", err
	}
	return billing.BuildReport(period, results), billing.Subject(period), nil
}

func mailerConfig(cfg config.Config) mailer.Config {
	return mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Sender:   cfg.SMTP.Sender,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Timeout:  cfg.SMTP.Timeout,
	}
}
