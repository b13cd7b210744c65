package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/pkg/pipeline"
	"github.com/matzehuels/dayview/pkg/schedule"
)

// layoutCommand creates the layout command for computing day layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "layout [events]",
		Short: "Compute the layout of a day of events",
		Long: `Compute the layout of a day of events.

The input is a JSON, YAML, TOML or iCalendar file, or an iCalendar feed given
with --feed. The output is a layout.json file (same format as 'render -f json')
that 'visualize' and 'preview' can read. Events the layout cannot place are
listed with the reason.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, cfg)
			if len(args) == 1 {
				opts.Input = args[0]
			}
			return c.runLayout(cmd.Context(), opts, flags.output, flags.noCache)
		},
	}

	flags.bindOutput(cmd, "output file (default: <input>.layout.json)")
	flags.bindImport(cmd)
	flags.bindLayout(cmd)

	return cmd
}

// runLayout imports the events, computes the layout, and writes it.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	l, stats, err := computeLayout(ctx, runner, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := layoutPath(output, opts.Input)
	if err := schedule.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	if len(l.Placements) == 0 {
		printWarning("No events could be placed")
	}
	printFile(outputPath)
	printStats(stats)
	printRejections(l.Rejected)
	printNewline()
	printNextStep("Render", appName+" visualize "+outputPath)

	return nil
}

// computeLayout runs the import and layout stages.
func computeLayout(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (schedule.Layout, layoutStats, error) {
	batch, err := runner.Import(ctx, opts)
	if err != nil {
		return schedule.Layout{}, layoutStats{}, fmt.Errorf("import: %w", err)
	}
	opts.MergeAxis(batch.Axis)

	l, hit, err := runner.ComputeLayoutWithCacheInfo(ctx, batch.Events, opts)
	if err != nil {
		return schedule.Layout{}, layoutStats{}, fmt.Errorf("compute layout: %w", err)
	}
	return l, statsFor(l, len(batch.Events), batch.Skipped, hit), nil
}
