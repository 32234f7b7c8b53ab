package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
	"github.com/fixpoint-dev/fixpoint/pkg/report"
)

func newFixCommand() *cobra.Command {
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Apply fixes to diagnostics in dependency order",
		Long: `Resolve the best candidate fix for each active diagnostic and apply it,
root causes first.

Files are backed up before mutation unless backups are disabled, and a
circuit breaker halts the run after a window of consecutive failures.
A circuit-broken run exits zero: partial progress is preserved and the
next run picks up where this one stopped.

Examples:
  fixpoint fix                     # Apply all available fixes
  fixpoint fix --dry-run           # Show what would change
  fixpoint fix --max-errors 10     # Cap attempts for this run
  fixpoint fix --report fix.json   # Also write a JSON report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFix(cmd, flags)
		},
	}

	addCommonFlags(cmd, flags)
	addFixFlags(cmd, flags)
	return cmd
}

func runFix(cmd *cobra.Command, flags *commonFlags) error {
	a, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	started := time.Now().UTC()

	result, err := a.pipe.RunFix(ctx)
	if err != nil {
		return err
	}

	summary := &pipeline.Summary{
		RunID:    a.pipe.RunID(),
		Started:  started,
		Finished: time.Now().UTC(),
		Fix:      result,
	}
	cmd.Print(a.styles.FormatRunSummary(summary))

	if flags.reportPath != "" {
		if err := report.Write(ctx, flags.reportPath, report.FromSummary(summary)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
