// Package pipeline provides the import → layout → render pipeline for dayview.
//
// The CLI and the HTTP server both drive layouts through a [Runner], so that
// caching, defaults and validation behave the same from every entry point.
//
// # Stages
//
//  1. Import: read events from a file (JSON, YAML, TOML, iCalendar) or fetch
//     an iCalendar feed and extract one day from it
//  2. Layout: group overlapping events into blocks and columns
//  3. Render: produce artifacts (HTML, SVG, PNG, PDF, JSON, text, DOT)
//
// Each stage can run on its own or as part of [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "today.yaml",
//	    Formats: []string{"html", "svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	page := res.Artifacts["html"]
//
// Run individual stages:
//
//	l, err := runner.ComputeLayout(ctx, events, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dayview/pkg/cache"
	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/render/sink"
	"github.com/matzehuels/dayview/pkg/schedule"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = string(sink.FormatHTML)

// DayLayout is the layout of the Day option.
const DayLayout = "2006-01-02"

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// It supports JSON serialization for API requests.
type Options struct {
	// Import options
	Input    string `json:"input,omitempty"`    // events file (.json, .yaml, .yml, .toml, .ics)
	Feed     string `json:"feed,omitempty"`     // iCalendar feed URL
	Day      string `json:"day,omitempty"`      // YYYY-MM-DD for iCalendar input; empty means today
	Timezone string `json:"timezone,omitempty"` // IANA zone for iCalendar input; empty means local
	Refresh  bool   `json:"refresh,omitempty"`  // bypass cached feeds and layouts

	// Layout options
	Title  string  `json:"title,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	Origin string  `json:"origin,omitempty"`
	Span   float64 `json:"span,omitempty"`
	Verify bool    `json:"verify,omitempty"` // re-check layout invariants after computing

	// Render options
	Formats       []string `json:"formats,omitempty"`
	Document      bool     `json:"document,omitempty"`
	FrameWidth    float64  `json:"frame_width,omitempty"`
	PixelsPerUnit float64  `json:"pixels_per_unit,omitempty"`
	Scale         float64  `json:"scale,omitempty"`
	Columns       int      `json:"columns,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger                   `json:"-"`
	Now    func() time.Time              `json:"-"`
	Extra  map[sink.Format]sink.Renderer `json:"-"` // renderers overriding or adding formats

	validated bool
}

// Batch is the output of the import stage.
type Batch struct {
	Events []event.Event

	// Axis is set by importers that know the time axis (iCalendar).
	Axis schedule.Axis

	// Skipped counts entries the importer dropped (all-day, other days).
	Skipped int
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Events are the imported events, including those the layout rejected.
	Events []event.Event

	// EventsHash is the content hash of Events.
	EventsHash string

	// Layout is the computed layout.
	Layout schedule.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Events     int
	Skipped    int
	Placements int
	Blocks     int
	Rejected   int
	ImportTime time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ImportHit bool // feed body came from cache
	LayoutHit bool
	RenderHit bool // every artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is known.
func ValidateFormat(format string) error {
	_, err := sink.ParseFormat(format)
	return err
}

// ValidateFormats checks that all formats are known.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOrigin checks an "HH:MM" origin label.
func ValidateOrigin(origin string) error {
	if origin == "" {
		return nil
	}
	if _, err := time.Parse("15:04", origin); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "origin %q must be HH:MM", origin)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForImport(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForImport checks that exactly one event source is set.
func (o *Options) ValidateForImport() error {
	switch {
	case o.Input == "" && o.Feed == "":
		return errors.New(errors.ErrCodeInvalidInput, "an events file or a feed URL is required")
	case o.Input != "" && o.Feed != "":
		return errors.New(errors.ErrCodeInvalidInput, "use either an events file or a feed URL, not both")
	}
	if o.Input != "" {
		if err := errors.ValidatePath(o.Input); err != nil {
			return err
		}
	}
	if o.Day != "" {
		if _, err := time.Parse(DayLayout, o.Day); err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "day %q must be YYYY-MM-DD", o.Day)
		}
	}
	if o.Timezone != "" {
		if _, err := time.LoadLocation(o.Timezone); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "timezone %q", o.Timezone)
		}
	}
	o.setRuntimeDefaults()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
// Axis fields stay empty so that an importer's axis can fill them.
func (o *Options) SetLayoutDefaults() {
	o.setRuntimeDefaults()
}

// ValidateForLayout validates the axis options.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.Span < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "span must not be negative")
	}
	return ValidateOrigin(o.Origin)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.setRuntimeDefaults()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	for _, f := range o.Formats {
		if _, ok := o.Extra[sink.Format(f)]; ok {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	if o.FrameWidth < 0 || o.PixelsPerUnit < 0 || o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "frame width, pixels per unit and scale must not be negative")
	}
	return nil
}

func (o *Options) setRuntimeDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Axis returns the layout axis: fields set on o win over base.
func (o *Options) Axis(base schedule.Axis) schedule.Axis {
	if o.Title != "" {
		base.Title = o.Title
	}
	if o.Unit != "" {
		base.Unit = o.Unit
	}
	if o.Origin != "" {
		base.Origin = o.Origin
	}
	if o.Span > 0 {
		base.Span = o.Span
	}
	return base
}

// MergeAxis fills the axis fields left empty on o from a, typically the axis
// an importer found.
func (o *Options) MergeAxis(a schedule.Axis) {
	axis := o.Axis(a)
	o.Title, o.Unit, o.Origin, o.Span = axis.Title, axis.Unit, axis.Origin, axis.Span
}

// Location returns the zone for iCalendar input.
func (o *Options) Location() *time.Location {
	if o.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DayTime returns the requested day in [Options.Location], or today.
func (o *Options) DayTime() time.Time {
	loc := o.Location()
	if o.Day != "" {
		if t, err := time.ParseInLocation(DayLayout, o.Day, loc); err == nil {
			return t
		}
	}
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().In(loc)
}

// SinkOptions returns the renderer settings.
func (o *Options) SinkOptions() sink.Options {
	return sink.Options{
		Document:      o.Document,
		FrameWidth:    o.FrameWidth,
		PixelsPerUnit: o.PixelsPerUnit,
		Scale:         o.Scale,
		Columns:       o.Columns,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Title:  o.Title,
		Unit:   o.Unit,
		Origin: o.Origin,
		Span:   o.Span,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:        format,
		Document:      o.Document,
		FrameWidth:    o.FrameWidth,
		PixelsPerUnit: o.PixelsPerUnit,
		Scale:         o.Scale,
		Columns:       o.Columns,
	}
}
