package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/pkg/pipeline"
)

// renderCommand creates the render command: events to artifacts in one step.
func (c *CLI) renderCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "render [events]",
		Short: "Render a day of events to HTML, SVG, PNG, PDF and more",
		Long: `Render a day of events in one step.

This is 'layout' followed by 'visualize' without the intermediate file.
Artifacts are written next to the input as <input>.<format> unless --output
is given. With a single format, --output - writes to stdout.

Examples:
  dayview render today.yaml
  dayview render work.ics --day 2024-03-04 -f svg,png
  dayview render --feed work -f html --document -o today.html`,
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
			return c.runRender(cmd.Context(), opts, flags.output, flags.noCache)
		},
	}

	flags.bindOutput(cmd, "output file (single format), base path (multiple) or - for stdout")
	flags.bindImport(cmd)
	flags.bindLayout(cmd)
	flags.bindRender(cmd)

	return cmd
}

// runRender executes the whole pipeline and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.SetRenderDefaults()
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: res.Artifacts,
		formats:   opts.Formats,
		input:     opts.Input,
		output:    output,
	})
	if err != nil {
		return err
	}
	if output == stdoutPath {
		return nil
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(statsFor(res.Layout, res.Stats.Events, res.Stats.Skipped, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit))
	printRejections(res.Layout.Rejected)
	return nil
}
