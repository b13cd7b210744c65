package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/internal/config"
	"github.com/matzehuels/dayview/pkg/pipeline"
)

// pipelineFlags holds the flags shared by commands that drive the pipeline.
// Only flags the user actually set override the config file.
type pipelineFlags struct {
	// import
	feed     string
	day      string
	timezone string
	refresh  bool
	noCache  bool

	// layout
	title  string
	unit   string
	origin string
	span   float64
	verify bool

	// render
	formats    string
	document   bool
	frameWidth float64
	ppu        float64
	scale      float64
	columns    int
	output     string
}

func (f *pipelineFlags) bindImport(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.feed, "feed", "", "iCalendar feed URL or the name of a configured feed")
	fs.StringVar(&f.day, "day", "", "day to extract from iCalendar input, YYYY-MM-DD (default: today)")
	fs.StringVar(&f.timezone, "tz", "", "IANA time zone for iCalendar input (default: config, then local)")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached feeds and layouts")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

func (f *pipelineFlags) bindLayout(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "title shown above the day")
	fs.StringVar(&f.unit, "unit", "", "axis unit label (default: minutes)")
	fs.StringVar(&f.origin, "origin", "", "clock time of axis zero, HH:MM (default: 09:00)")
	fs.Float64Var(&f.span, "span", 0, "axis length in units (default: 720, or the whole day for iCalendar)")
	fs.BoolVar(&f.verify, "verify", false, "re-check layout invariants after computing")
}

func (f *pipelineFlags) bindRender(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.formats, "format", "f", "", "output format(s): html, svg, png, pdf, json, txt, dot, conflicts (comma-separated)")
	fs.BoolVar(&f.document, "document", false, "wrap HTML output in a complete page")
	fs.Float64Var(&f.frameWidth, "width", 0, "frame width in pixels")
	fs.Float64Var(&f.ppu, "ppu", 0, "pixels per axis unit")
	fs.Float64Var(&f.scale, "scale", 0, "PNG resolution multiplier")
	fs.IntVar(&f.columns, "columns", 0, "text output width in cells")
}

func (f *pipelineFlags) bindOutput(cmd *cobra.Command, usage string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", usage)
}

// options merges the config with the flags set on cmd.
func (f *pipelineFlags) options(cmd *cobra.Command, cfg *config.Config) pipeline.Options {
	opts := cfg.PipelineOptions()
	changed := cmd.Flags().Changed

	if changed("feed") {
		opts.Feed = resolveFeed(cfg, f.feed)
	}
	if changed("day") {
		opts.Day = f.day
	}
	if changed("tz") {
		opts.Timezone = f.timezone
	}
	opts.Refresh = f.refresh

	if changed("title") {
		opts.Title = f.title
	}
	if changed("unit") {
		opts.Unit = f.unit
	}
	if changed("origin") {
		opts.Origin = f.origin
	}
	if changed("span") {
		opts.Span = f.span
	}
	if changed("verify") {
		opts.Verify = f.verify
	}

	if changed("format") {
		opts.Formats = parseFormats(f.formats)
	}
	if changed("document") {
		opts.Document = f.document
	}
	if changed("width") {
		opts.FrameWidth = f.frameWidth
	}
	if changed("ppu") {
		opts.PixelsPerUnit = f.ppu
	}
	if changed("scale") {
		opts.Scale = f.scale
	}
	if changed("columns") {
		opts.Columns = f.columns
	}
	return opts
}

// resolveFeed maps a configured feed name to its URL; anything else is
// taken as a URL.
func resolveFeed(cfg *config.Config, s string) string {
	if feed, ok := cfg.Feed(s); ok {
		return feed.URL
	}
	return s
}
