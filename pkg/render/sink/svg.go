package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/matzehuels/dayview/pkg/schedule"
)

const (
	defaultFrameWidth    = 600.0
	defaultPixelsPerUnit = 1.0
	axisGutter           = 56.0
	framePadding         = 12.0
	eventGap             = 2.0
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	frameWidth    float64
	pixelsPerUnit float64
	axis          bool
}

// WithFrameWidth sets the width of the event area in pixels.
func WithFrameWidth(px float64) SVGOption { return func(r *svgRenderer) { r.frameWidth = px } }

// WithPixelsPerUnit sets the vertical scale.
func WithPixelsPerUnit(px float64) SVGOption { return func(r *svgRenderer) { r.pixelsPerUnit = px } }

// WithoutAxis drops the time gutter and grid lines.
func WithoutAxis() SVGOption { return func(r *svgRenderer) { r.axis = false } }

// RenderSVG draws each placement as a labelled rectangle. Columns share the
// frame width evenly within their block.
func RenderSVG(l schedule.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{frameWidth: defaultFrameWidth, pixelsPerUnit: defaultPixelsPerUnit, axis: true}
	for _, opt := range opts {
		opt(&r)
	}
	l = l.WithDefaults()

	left := framePadding
	if r.axis {
		left += axisGutter
	}
	width := left + r.frameWidth + framePadding
	height := l.Span*r.pixelsPerUnit + 2*framePadding

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	buf.WriteString(`  <style>
    .event rect { stroke: #ffffff; stroke-width: 1; }
    .event text { font-family: -apple-system, "Helvetica Neue", Arial, sans-serif; fill: #ffffff; }
    .event .title { font-size: 12px; font-weight: 600; }
    .event .location { font-size: 10px; }
    .axis line { stroke: #dddddd; stroke-width: 1; }
    .axis text { font-family: monospace; font-size: 10px; fill: #666666; }
  </style>
`)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="#fafafa"/>`+"\n", width, height)

	if r.axis {
		renderAxis(&buf, l.Axis, left, r.frameWidth, r.pixelsPerUnit)
	}
	for _, p := range l.Placements {
		renderEventRect(&buf, p, left, r.frameWidth, r.pixelsPerUnit)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderAxis(buf *bytes.Buffer, axis schedule.Axis, left, frameWidth, ppu float64) {
	step := tickStep(axis)
	buf.WriteString(`  <g class="axis">` + "\n")
	for v := 0.0; v <= axis.Span+1e-9; v += step {
		y := framePadding + v*ppu
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", left, y, left+frameWidth, y)
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="end">%s</text>`+"\n", left-6, y+3.5, ClockLabel(axis, v))
	}
	buf.WriteString("  </g>\n")
}

func renderEventRect(buf *bytes.Buffer, p schedule.Placement, left, frameWidth, ppu float64) {
	x := left + p.Offset/100*frameWidth
	y := framePadding + p.Start*ppu
	w := math.Max(p.Width/100*frameWidth-eventGap, 1)
	h := math.Max((p.End-p.Start)*ppu-eventGap, 1)

	fmt.Fprintf(buf, `  <g class="event" data-block="%d" data-column="%d">`+"\n", p.Block, p.Column)
	if p.ID != "" {
		fmt.Fprintf(buf, `    <title>%s</title>`+"\n", html.EscapeString(p.ID))
	}
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="3" fill="%s"/>`+"\n", x, y, w, h, colorFor(p.Column))
	if h >= 14 {
		fmt.Fprintf(buf, `    <text class="title" x="%.2f" y="%.2f">%s</text>`+"\n", x+4, y+13, html.EscapeString(p.Label()))
	}
	if h >= 28 && p.Location != "" {
		fmt.Fprintf(buf, `    <text class="location" x="%.2f" y="%.2f">%s</text>`+"\n", x+4, y+26, html.EscapeString(p.Location))
	}
	buf.WriteString("  </g>\n")
}
