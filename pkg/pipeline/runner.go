package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dayview/pkg/cache"
	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/core/layout"
	"github.com/matzehuels/dayview/pkg/errors"
	pkgio "github.com/matzehuels/dayview/pkg/io"
	"github.com/matzehuels/dayview/pkg/observability"
	"github.com/matzehuels/dayview/pkg/render/sink"
	"github.com/matzehuels/dayview/pkg/schedule"
	"github.com/matzehuels/dayview/pkg/source/ics"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state: multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer means [cache.DefaultKeyer]; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete import → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Import
	importStart := time.Now()
	batch, importHit, err := r.ImportWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	importTime := time.Since(importStart)

	result, err := r.run(ctx, batch, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ImportTime = importTime
	result.CacheInfo.ImportHit = importHit
	return result, nil
}

// ExecuteEvents runs layout → render on events that are already in memory.
func (r *Runner) ExecuteEvents(ctx context.Context, events []event.Event, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return r.run(ctx, Batch{Events: events}, opts)
}

func (r *Runner) run(ctx context.Context, batch Batch, opts Options) (*Result, error) {
	opts.MergeAxis(batch.Axis)

	result := &Result{
		Events:     batch.Events,
		EventsHash: HashEvents(batch.Events),
		Artifacts:  make(map[string][]byte),
	}
	result.Stats.Events = len(batch.Events)
	result.Stats.Skipped = batch.Skipped

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, batch.Events, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Placements = len(l.Placements)
	result.Stats.Blocks = l.Blocks
	result.Stats.Rejected = len(l.Rejected)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"events", len(batch.Events),
		"blocks", l.Blocks,
		"rejected", len(l.Rejected),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Import
// =============================================================================

// ImportWithCacheInfo reads the events named by opts and reports whether a
// feed body came from the cache.
func (r *Runner) ImportWithCacheInfo(ctx context.Context, opts Options) (Batch, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForImport(); err != nil {
		return Batch{}, false, err
	}

	source := opts.Input
	if opts.Feed != "" {
		source = opts.Feed
	}
	hooks := observability.Pipeline()
	hooks.OnImportStart(ctx, source)
	start := time.Now()

	batch, hit, err := r.importBatch(ctx, opts)
	hooks.OnImportComplete(ctx, source, len(batch.Events), time.Since(start), err)
	if err != nil {
		return Batch{}, false, err
	}

	opts.Logger.Debug("imported events",
		"source", source,
		"events", len(batch.Events),
		"skipped", batch.Skipped,
		"cached", hit)
	return batch, hit, nil
}

// Import is a convenience wrapper that discards the cache hit info.
func (r *Runner) Import(ctx context.Context, opts Options) (Batch, error) {
	b, _, err := r.ImportWithCacheInfo(ctx, opts)
	return b, err
}

func (r *Runner) importBatch(ctx context.Context, opts Options) (Batch, bool, error) {
	if opts.Feed != "" {
		body, hit, err := ics.NewFetcher(r.Cache, r.Keyer).Fetch(ctx, opts.Feed, opts.Refresh)
		if err != nil {
			return Batch{}, false, err
		}
		b, err := dayBatch(body, opts)
		return b, hit, err
	}

	if strings.EqualFold(filepath.Ext(opts.Input), ".ics") {
		body, err := os.ReadFile(opts.Input)
		if err != nil {
			if os.IsNotExist(err) {
				return Batch{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.Input)
			}
			return Batch{}, false, fmt.Errorf("open %s: %w", opts.Input, err)
		}
		b, err := dayBatch(body, opts)
		if err != nil {
			return Batch{}, false, fmt.Errorf("%s: %w", opts.Input, err)
		}
		return b, false, nil
	}

	events, err := pkgio.ImportEvents(opts.Input)
	if err != nil {
		return Batch{}, false, err
	}
	return Batch{Events: events}, false, nil
}

func dayBatch(body []byte, opts Options) (Batch, error) {
	res, err := ics.ParseDay(body, ics.DayOptions{
		Day:      opts.DayTime(),
		Origin:   opts.Origin,
		Location: opts.Location(),
	})
	if err != nil {
		return Batch{}, err
	}
	for _, uid := range res.Truncated {
		opts.Logger.Warn("recurrence truncated", "uid", uid)
	}
	return Batch{
		Events:  res.Events,
		Axis:    res.Axis(),
		Skipped: res.SkippedAllDay + res.SkippedOutside,
	}, nil
}

// =============================================================================
// Layout
// =============================================================================

// ComputeLayoutWithCacheInfo lays out events with caching and returns cache
// hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, events []event.Event, opts Options) (schedule.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return schedule.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(HashEvents(events), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := schedule.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Unreadable entries fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(events))
	start := time.Now()

	res := layout.LayOut(events)
	if opts.Verify {
		if err := layout.Verify(res); err != nil {
			hooks.OnLayoutComplete(ctx, 0, 0, time.Since(start), err)
			return schedule.Layout{}, false, err
		}
	}
	l := schedule.FromResult(res, opts.Axis(schedule.Axis{}))
	hooks.OnLayoutComplete(ctx, l.Blocks, len(l.Rejected), time.Since(start), nil)

	for _, rej := range l.Rejected {
		opts.Logger.Debug("rejected event", "detail", rej.Message())
	}

	if data, err := schedule.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, events []event.Event, opts Options) (schedule.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, events, opts)
	return l, err
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo renders every requested format with caching. The hit
// flag is true only when all artifacts came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l schedule.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := schedule.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		data, hit, err := r.renderFormat(ctx, l, layoutHash, format, opts)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, fmt.Errorf("%s: %w", format, err)
		}
		artifacts[format] = data
		allCached = allCached && hit
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l schedule.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

func (r *Runner) renderFormat(ctx context.Context, l schedule.Layout, layoutHash, format string, opts Options) ([]byte, bool, error) {
	// Caller-supplied renderers are opaque, so their output is never cached.
	if custom, ok := opts.Extra[sink.Format(format)]; ok {
		data, err := custom.Render(l)
		return data, false, err
	}

	cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	renderer, err := sink.ForFormat(sink.Format(format), opts.SinkOptions())
	if err != nil {
		return nil, false, err
	}
	data, err := renderer.Render(l)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// =============================================================================
// Helpers
// =============================================================================

// HashEvents returns a content hash of events. Non-finite bounds hash by
// their text form, so events the layout will reject still get stable keys.
func HashEvents(events []event.Event) string {
	type canonical struct {
		ID       string         `json:"id,omitempty"`
		Start    string         `json:"start"`
		End      string         `json:"end"`
		Title    string         `json:"title,omitempty"`
		Location string         `json:"location,omitempty"`
		Meta     map[string]any `json:"meta,omitempty"`
	}
	list := make([]canonical, len(events))
	for i, e := range events {
		list[i] = canonical{
			ID:       e.ID,
			Start:    strconv.FormatFloat(e.Start, 'g', -1, 64),
			End:      strconv.FormatFloat(e.End, 'g', -1, 64),
			Title:    e.Title,
			Location: e.Location,
			Meta:     e.Meta,
		}
	}
	if h, err := cache.HashJSON(list); err == nil {
		return h
	}
	// Meta held something JSON cannot encode.
	return cache.Hash([]byte(fmt.Sprintf("%#v", list)))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
