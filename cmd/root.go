// Package cmd defines and implements the CLI commands for the namehound
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namehound",
		Short: "Discovers the names exposed behind a prefix autocomplete API.",
		Long: `namehound explores a prefix-based autocomplete endpoint, independently
for each configured API version: it queries short prefixes, harvests the
names returned, and recursively queries each newly discovered name as a
new prefix up to a bounded depth, producing a report of every name the
endpoint will ever offer.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newHarvestCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "namehound: %v\n", err)
		os.Exit(1)
	}
}
