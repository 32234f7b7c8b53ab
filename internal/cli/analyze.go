package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
	"github.com/fixpoint-dev/fixpoint/pkg/report"
)

func newAnalyzeCommand() *cobra.Command {
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build the causal dependency graph and clusters",
		Long: `Infer likely-causes relationships between recorded diagnostics, compute
the order fixes should be applied in, and group diagnostics that share a
probable root cause into clusters.

Examples:
  fixpoint analyze                       # Analyze recorded diagnostics
  fixpoint analyze --report graph.json   # Also write a JSON report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, flags)
		},
	}

	addCommonFlags(cmd, flags)
	return cmd
}

func runAnalyze(cmd *cobra.Command, flags *commonFlags) error {
	a, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	started := time.Now().UTC()

	result, err := a.pipe.RunAnalyze(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("%d diagnostics, %d causal edges, %d clusters, %d with a fix available\n",
		result.Diagnostics, result.Edges, len(result.Clusters), result.FixAvailable)
	if result.CyclesBroken > 0 {
		cmd.Printf("%s\n", a.styles.Warning.Render(
			fmt.Sprintf("%d dependency cycles broken", result.CyclesBroken)))
	}

	if flags.reportPath != "" {
		summary := &pipeline.Summary{
			RunID:    a.pipe.RunID(),
			Started:  started,
			Finished: time.Now().UTC(),
			Analyze:  result,
		}
		if err := report.Write(ctx, flags.reportPath, report.FromSummary(summary)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
