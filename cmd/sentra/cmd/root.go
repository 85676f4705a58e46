// Package cmd contains the sentra command-line entrypoints.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentra",
	Short: "Behavioral drift and wellbeing scoring service",
	Long: `Sentra turns passive behavioral signals and daily self-reports into
per-user wellbeing scores with status, momentum and driver attribution,
plus an anonymized organization rollup.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
