package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"burstbill/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	r := cfg.Redacted()
	fmt.Println("Configuration valid")
	fmt.Printf("  RRD base:        %s\n", r.RRD.Base)
	fmt.Printf("  rrdtool:         %s\n", r.RRD.Command)
	if r.RRD.Daemon != "" {
		fmt.Printf("  rrdcached:       %s\n", r.RRD.Daemon)
	}
	if r.Directory.DSN != "" {
		fmt.Printf("  Directory DSN:   %s\n", r.Directory.DSN)
	} else {
		fmt.Printf("  Observium config: %s\n", r.Directory.ObserviumConfig)
	}
	fmt.Printf("  Alias prefix:    %s\n", r.Directory.AliasPrefix)
	fmt.Printf("  Percentile:      %g\n", r.Billing.Percentile)
	fmt.Printf("  Concurrency:     %d\n", r.Billing.Concurrency)
	fmt.Printf("  Fetch timeout:   %s\n", r.Billing.FetchTimeout)
	fmt.Printf("  SMTP:            %s:%d (sender %s)\n", r.SMTP.Host, r.SMTP.Port, r.SMTP.Sender)
	return nil
}
