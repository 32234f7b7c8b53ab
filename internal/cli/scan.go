package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
	"github.com/fixpoint-dev/fixpoint/pkg/report"
)

func newScanCommand() *cobra.Command {
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the static analyzer and record diagnostics",
		Long: `Run the configured external static analyzer over the project and
reconcile its findings into the diagnostic store.

Diagnostics are deduplicated by content hash: a finding reported by an
earlier scan has its occurrence count incremented instead of creating a
duplicate record.

Examples:
  fixpoint scan                          # Scan the current directory
  fixpoint scan --project-root ./svc     # Scan a specific tree
  fixpoint scan --report scan.json       # Also write a JSON report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, flags)
		},
	}

	addCommonFlags(cmd, flags)
	return cmd
}

func runScan(cmd *cobra.Command, flags *commonFlags) error {
	a, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	started := time.Now().UTC()

	result, err := a.pipe.RunScan(ctx)
	if err != nil {
		return err
	}

	cmd.Print(a.styles.FormatScanSummaryOneLine(result))

	if flags.reportPath != "" {
		summary := &pipeline.Summary{
			RunID:    a.pipe.RunID(),
			Started:  started,
			Finished: time.Now().UTC(),
			Scan:     result,
		}
		if err := report.Write(ctx, flags.reportPath, report.FromSummary(summary)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
