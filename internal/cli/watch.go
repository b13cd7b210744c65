package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/internal/config"
	"github.com/matzehuels/dayview/pkg/pipeline"
)

// watchDebounce collapses the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags    pipelineFlags
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "watch [events]",
		Short: "Re-render whenever the events change",
		Long: `Re-render whenever the events change.

With an events file, artifacts are rewritten each time the file is saved.
With --feed, the iCalendar feed is fetched again on a cron schedule
(--schedule, default from the config or every 15 minutes) and the current
day is re-rendered, so a wall display always shows today.

Examples:
  dayview watch today.yaml -f html --document
  dayview watch --feed work --schedule "*/5 * * * *" -o /srv/www/today.html`,
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
			if err := opts.ValidateForImport(); err != nil {
				return err
			}
			if err := opts.ValidateForRender(); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			w := &watcher{runner: runner, opts: opts, output: flags.output, logger: c.Logger}
			if opts.Feed != "" {
				spec := feedSchedule(cfg, flags.feed, schedule, cmd.Flags().Changed("schedule"))
				return w.pollFeed(cmd.Context(), spec)
			}
			return w.watchFile(cmd.Context())
		},
	}

	flags.bindOutput(cmd, "output file (single format) or base path (multiple)")
	flags.bindImport(cmd)
	flags.bindLayout(cmd)
	flags.bindRender(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", config.DefaultSchedule, "cron schedule for --feed")

	return cmd
}

// feedSchedule picks the polling schedule: the flag when set, then the
// configured feed's schedule, then the flag default.
func feedSchedule(cfg *config.Config, feed, flag string, changed bool) string {
	if changed {
		return flag
	}
	if f, ok := cfg.Feed(feed); ok && f.Schedule != "" {
		return f.Schedule
	}
	return flag
}

// watcher re-runs the pipeline and writes artifacts.
type watcher struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	output string
	logger *log.Logger
}

// rebuild runs the pipeline once. Failures are logged, not returned, so a
// broken save or an unreachable feed does not end the watch.
func (w *watcher) rebuild(ctx context.Context) {
	opts := w.opts
	opts.Logger = w.logger
	prog := newProgress(w.logger)

	res, err := w.runner.Execute(ctx, opts)
	if err != nil {
		w.logger.Error("render failed", "err", err)
		return
	}
	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: res.Artifacts,
		formats:   opts.Formats,
		input:     opts.Input,
		output:    w.output,
	})
	if err != nil {
		w.logger.Error("write failed", "err", err)
		return
	}
	for _, r := range res.Layout.Rejected {
		w.logger.Warn("rejected", "event", r.Message())
	}
	prog.done(fmt.Sprintf("Rendered %s (%s, %s)",
		plural(len(paths), "file"), plural(res.Stats.Placements, "event"), plural(res.Stats.Blocks, "block")))
}

// watchFile rebuilds on every change to the input file until ctx ends.
func (w *watcher) watchFile(ctx context.Context) error {
	w.rebuild(ctx)
	printInfo("Watching %s (Ctrl+C to stop)", w.opts.Input)
	return watchPath(ctx, w.opts.Input, watchDebounce, func() {
		w.logger.Debug("change detected", "path", w.opts.Input)
		w.rebuild(ctx)
	})
}

// watchPath calls onChange after path is written, created or replaced, at
// most once per quiet period of debounce. The parent directory is watched
// because editors often save by renaming a temp file over the original.
func watchPath(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		case <-timer.C:
			onChange()
		}
	}
}

// pollFeed rebuilds now and then on every tick of spec until ctx ends.
func (w *watcher) pollFeed(ctx context.Context, spec string) error {
	w.opts.Refresh = true
	w.rebuild(ctx)
	printInfo("Polling %s on %q (Ctrl+C to stop)", w.opts.Feed, spec)
	return runSchedule(ctx, spec, w.opts.Location(), func() {
		w.logger.Debug("scheduled refresh", "feed", w.opts.Feed)
		w.rebuild(ctx)
	})
}

// runSchedule calls fn on the cron schedule spec until ctx ends, then waits
// for a running call to finish.
func runSchedule(ctx context.Context, spec string, loc *time.Location, fn func()) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(fn))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
