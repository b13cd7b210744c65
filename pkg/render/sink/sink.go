package sink

import (
	"strings"

	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/schedule"
)

// Format names an output sink.
type Format string

// Supported output formats.
const (
	FormatHTML      Format = "html"
	FormatSVG       Format = "svg"
	FormatPNG       Format = "png"
	FormatPDF       Format = "pdf"
	FormatJSON      Format = "json"
	FormatText      Format = "txt"
	FormatDOT       Format = "dot"
	FormatConflicts Format = "conflicts"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatHTML, FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatText, FormatDOT, FormatConflicts}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", s, formatList())
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	if f == FormatConflicts {
		return ".conflicts.svg"
	}
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatSVG, FormatConflicts:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Binary reports whether the format produces non-text output.
func (f Format) Binary() bool {
	return f == FormatPNG || f == FormatPDF
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Renderer turns a layout into the bytes of one output format.
type Renderer interface {
	Render(l schedule.Layout) ([]byte, error)
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(l schedule.Layout) ([]byte, error)

// Render calls f(l).
func (f RendererFunc) Render(l schedule.Layout) ([]byte, error) { return f(l) }

// Options are the settings shared by [ForFormat] renderers. Zero values pick
// each sink's defaults.
type Options struct {
	// Document wraps HTML output in a complete page.
	Document bool

	// FrameWidth is the drawing width in pixels (SVG, PNG, PDF, HTML page).
	FrameWidth float64

	// PixelsPerUnit is the vertical scale (SVG, PNG, PDF).
	PixelsPerUnit float64

	// Scale is the PNG resolution multiplier.
	Scale float64

	// Columns is the terminal width in cells.
	Columns int
}

// ForFormat returns the renderer for f configured with opts.
func ForFormat(f Format, opts Options) (Renderer, error) {
	svgOpts := svgOptions(opts)
	switch f {
	case FormatHTML:
		var htmlOpts []HTMLOption
		if opts.Document {
			htmlOpts = append(htmlOpts, WithHTMLDocument())
		}
		if opts.FrameWidth > 0 {
			htmlOpts = append(htmlOpts, WithHTMLWidth(opts.FrameWidth))
		}
		return RendererFunc(func(l schedule.Layout) ([]byte, error) {
			return RenderHTML(l, htmlOpts...), nil
		}), nil
	case FormatSVG:
		return RendererFunc(func(l schedule.Layout) ([]byte, error) {
			return RenderSVG(l, svgOpts...), nil
		}), nil
	case FormatPNG:
		pngOpts := []PNGOption{WithPNGSVGOptions(svgOpts...)}
		if opts.Scale > 0 {
			pngOpts = append(pngOpts, WithScale(opts.Scale))
		}
		return RendererFunc(func(l schedule.Layout) ([]byte, error) {
			return RenderPNG(l, pngOpts...)
		}), nil
	case FormatPDF:
		return RendererFunc(func(l schedule.Layout) ([]byte, error) {
			return RenderPDF(l, WithPDFSVGOptions(svgOpts...))
		}), nil
	case FormatJSON:
		return RendererFunc(RenderJSON), nil
	case FormatText:
		var termOpts []TerminalOption
		if opts.Columns > 0 {
			termOpts = append(termOpts, WithColumns(opts.Columns))
		}
		termOpts = append(termOpts, WithoutColor())
		return RendererFunc(func(l schedule.Layout) ([]byte, error) {
			return []byte(RenderTerminal(l, termOpts...)), nil
		}), nil
	case FormatDOT:
		return RendererFunc(func(l schedule.Layout) ([]byte, error) {
			return []byte(ToDOT(l)), nil
		}), nil
	case FormatConflicts:
		return RendererFunc(RenderConflicts), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", f, formatList())
	}
}

func svgOptions(opts Options) []SVGOption {
	var out []SVGOption
	if opts.FrameWidth > 0 {
		out = append(out, WithFrameWidth(opts.FrameWidth))
	}
	if opts.PixelsPerUnit > 0 {
		out = append(out, WithPixelsPerUnit(opts.PixelsPerUnit))
	}
	return out
}
