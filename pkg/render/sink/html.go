package sink

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"slices"

	"github.com/matzehuels/dayview/pkg/schedule"
)

// Placeholder text for events without a title or location.
const (
	PlaceholderTitle    = "Sample Item"
	PlaceholderLocation = "Sample Location"
)

const defaultHTMLWidth = 600.0

const htmlDocumentCSS = `
    body { margin: 0; padding: 24px; background: #ececec; font-family: -apple-system, "Helvetica Neue", Arial, sans-serif; }
    h1 { font-size: 18px; font-weight: 600; margin: 0 0 12px; color: #333; }
    #schedule { position: relative; box-sizing: content-box; padding: 0 10px; background: #e6e6e6; }
    .event { position: absolute; box-sizing: border-box; padding: 0 1px 1px 0; overflow: hidden; }
    .event .content { height: 100%; box-sizing: border-box; background: #fff; border: 1px solid #d5d5d5; border-left: 4px solid #4e79a7; }
    .event .inner-content { padding: 4px 8px; }
    .event-title { margin: 0; font-size: 12px; color: #4e79a7; }
    .event-location { margin: 0; font-size: 10px; color: #666; }`

// HTMLOption configures [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	document bool
	width    float64
	title    string
}

// WithHTMLDocument wraps the markup in a complete page with a #schedule
// container and default styling.
func WithHTMLDocument() HTMLOption { return func(r *htmlRenderer) { r.document = true } }

// WithHTMLWidth sets the #schedule container width in pixels (page only).
func WithHTMLWidth(px float64) HTMLOption { return func(r *htmlRenderer) { r.width = px } }

// WithHTMLTitle sets the page title, overriding the layout's axis title.
func WithHTMLTitle(s string) HTMLOption { return func(r *htmlRenderer) { r.title = s } }

// RenderHTML renders one absolutely positioned div.event per placement.
//
// Vertical position and height are in pixels, one pixel per axis unit;
// horizontal position and width are percentages of the container. Events are
// emitted block by block, column by column.
func RenderHTML(l schedule.Layout, opts ...HTMLOption) []byte {
	r := htmlRenderer{width: defaultHTMLWidth}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	if !r.document {
		writeEvents(&buf, l)
		return buf.Bytes()
	}

	l = l.WithDefaults()
	title := r.title
	if title == "" {
		title = l.Title
	}

	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	if title != "" {
		fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(title))
	}
	fmt.Fprintf(&buf, "<style>%s\n    #schedule { width: %spx; height: %spx; }\n</style>\n", htmlDocumentCSS, num(r.width), num(l.Span))
	buf.WriteString("</head>\n<body>\n")
	if title != "" {
		fmt.Fprintf(&buf, "<h1>%s</h1>\n", html.EscapeString(title))
	}
	buf.WriteString(`<div id="schedule">`)
	writeEvents(&buf, l)
	buf.WriteString("</div>\n</body>\n</html>\n")
	return buf.Bytes()
}

func writeEvents(buf *bytes.Buffer, l schedule.Layout) {
	for _, p := range markupOrder(l.Placements) {
		writeEvent(buf, p)
	}
}

func writeEvent(buf *bytes.Buffer, p schedule.Placement) {
	title, location := p.Title, p.Location
	if title == "" {
		title = PlaceholderTitle
	}
	if location == "" {
		location = PlaceholderLocation
	}

	fmt.Fprintf(buf, `<div class="event" style="top: %spx;left: %s%%;height: %spx;width: %s%%;">`,
		num(p.Start), num(p.Offset), num(p.End-p.Start), num(p.Width))
	buf.WriteString(`   <div class="content">`)
	buf.WriteString(`       <div class="inner-content">`)
	fmt.Fprintf(buf, `           <h3 class="event-title">%s</h3>`, html.EscapeString(title))
	fmt.Fprintf(buf, `           <p class="event-location">%s</p>`, html.EscapeString(location))
	buf.WriteString(`       </div>`)
	buf.WriteString(`   </div>`)
	buf.WriteString(`</div>`)
}

// markupOrder returns placements grouped by block, then column, keeping start
// order inside a column.
func markupOrder(ps []schedule.Placement) []schedule.Placement {
	out := slices.Clone(ps)
	slices.SortStableFunc(out, func(a, b schedule.Placement) int {
		if c := cmp.Compare(a.Block, b.Block); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return out
}
