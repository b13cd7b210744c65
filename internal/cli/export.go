package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/pkg/core/event"
	dvio "github.com/matzehuels/dayview/pkg/io"
	"github.com/matzehuels/dayview/pkg/pipeline"
)

// exportCommand creates the export command, which writes the imported events
// of a day as a plain event file.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		flags  pipelineFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "export [events]",
		Short: "Write the events of a day as JSON, YAML or TOML",
		Long: `Write the events of a day as JSON, YAML or TOML.

This is mostly useful for iCalendar input: recurring events are expanded for
the chosen day and times become minutes past the axis origin, so the result
can be edited by hand and fed back to 'layout' or 'render'.

Without --output the events are written to standard output in --format.`,
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
			return c.runExport(cmd.Context(), opts, flags.output, dvio.Format(format), flags.noCache)
		},
	}

	flags.bindOutput(cmd, "output file, .json, .yaml or .toml (default: stdout)")
	flags.bindImport(cmd)
	cmd.Flags().StringVar(&format, "format", string(dvio.FormatYAML), "stdout format: json, yaml, toml")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, opts pipeline.Options, output string, format dvio.Format, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	batch, err := runner.Import(ctx, opts)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	events, dropped := exportable(batch.Events)
	if dropped > 0 {
		c.Logger.Warn("dropped events without usable times", "count", dropped)
	}

	if output == "" || output == stdoutPath {
		return dvio.WriteEvents(stdout, format, events)
	}
	if err := dvio.ExportEvents(output, events); err != nil {
		return err
	}
	printSuccess("Exported %s", plural(len(events), "event"))
	printFile(output)
	if batch.Skipped > 0 {
		printDetail("%s skipped by the importer", plural(batch.Skipped, "calendar item"))
	}
	return nil
}

// exportable drops events with non-finite bounds, which no event file format
// can represent.
func exportable(events []event.Event) ([]event.Event, int) {
	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		if e.Check() == event.ReasonNonFinite {
			continue
		}
		out = append(out, e)
	}
	return out, len(events) - len(out)
}
