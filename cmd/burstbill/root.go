package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "burstbill",
	Short: "95th-percentile bandwidth billing from Observium traffic data",
	Long: `Burstbill computes percentile-based ("burstable") bandwidth bills.

It discovers customer-billable interfaces from an Observium database,
reads their traffic archives, computes each interface's 95th-percentile
rate over a billing month, and reports one billable Mbps figure per
customer.

Commands:
  burstbill report    # run one billing report now
  burstbill serve     # run monthly on a schedule, with metrics
  burstbill validate  # check the configuration`,
	SilenceUsage: true,
}

// Execute runs the CLI, exiting non-zero on any fatal error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}
