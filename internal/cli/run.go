package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fixpoint-dev/fixpoint/pkg/report"
)

func newRunCommand() *cobra.Command {
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full scan, analyze, and fix pipeline",
		Long: `Run all three phases in sequence: scan the project with the external
analyzer, build the causal dependency graph and clusters, then apply
fixes in dependency order.

Examples:
  fixpoint run                        # Full pipeline on the current directory
  fixpoint run --dry-run              # Preview fixes without writing
  fixpoint run --report run.json      # Also write a JSON report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAll(cmd, flags)
		},
	}

	addCommonFlags(cmd, flags)
	addFixFlags(cmd, flags)
	return cmd
}

func runAll(cmd *cobra.Command, flags *commonFlags) error {
	a, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	summary, err := a.pipe.Run(ctx)
	if err != nil {
		return err
	}

	cmd.Print(a.styles.FormatRunSummary(summary))

	if flags.reportPath != "" {
		if err := report.Write(ctx, flags.reportPath, report.FromSummary(summary)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
