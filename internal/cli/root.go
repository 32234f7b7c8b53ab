// Package cli provides the Cobra command structure for fixpoint.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/fixpoint-dev/fixpoint/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root fixpoint command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "fixpoint",
		Short: "A diagnostic remediation pipeline for static-analysis findings",
		Long: `fixpoint scans a codebase with an external static analyzer, infers a
causal dependency graph over the reported diagnostics, clusters them by
probable root cause, and applies fixes in dependency order.

Fix application is guarded by dry-run mode, pre-mutation backups, per-file
locking, and a circuit breaker that halts a run after a window of
consecutive failures.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	// Add subcommands.
	rootCmd.AddCommand(newScanCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newFixCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}
