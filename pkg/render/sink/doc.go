// Package sink renders a [schedule.Layout] into output formats.
//
// # Formats
//
//   - HTML ([RenderHTML]): one absolutely positioned div.event per placement,
//     either as a markup fragment or as a complete page ([WithHTMLDocument]).
//   - SVG ([RenderSVG]): labelled rectangles over an hourly grid.
//   - PNG and PDF ([RenderPNG], [RenderPDF]): SVG converted by rsvg-convert.
//   - JSON ([RenderJSON]): the layout document itself.
//   - Text ([RenderTerminal]): a character grid for terminals.
//   - DOT and conflicts ([ToDOT], [RenderConflicts]): the overlap graph of the
//     day, one cluster per block, rendered with the embedded Graphviz.
//
// [ForFormat] picks a [Renderer] by [Format] so callers can loop over the
// formats a user asked for:
//
//	for _, f := range formats {
//	    r, err := sink.ForFormat(f, sink.Options{Document: true})
//	    if err != nil {
//	        return err
//	    }
//	    data, err := r.Render(l)
//	    ...
//	}
//
// Every sink fills missing axis fields with [schedule.Layout.WithDefaults]:
// minutes past 09:00 over at least twelve hours.
package sink
