// Package pkg provides the libraries behind dayview, a day-view calendar
// layout tool.
//
// # Overview
//
// dayview takes the events of one day, each an interval on a shared time
// axis, and positions them the way a calendar's day view does: events that
// overlap share the width of the frame side by side, and events that do not
// overlap take the full width. The pkg directory is organized as:
//
//  1. [core/event] and [core/layout] - the data model and the pure layout
//     algorithm (blocks of overlapping events, columns within a block)
//  2. [schedule] - the serialized layout (JSON/BSON) shared by every consumer
//  3. [io] and [source/ics] - importers for JSON, YAML, TOML and iCalendar
//  4. [render/sink] - HTML, SVG, PNG, PDF, JSON, text and conflict-graph output
//  5. [pipeline] - orchestration (import → layout → render) with caching
//  6. [cache], [store], [server] - infrastructure for repeat runs and the API
//
// # Architecture
//
//	events file / iCalendar feed
//	         ↓
//	    [io], [source/ics]     (decode, expand recurrences for the day)
//	         ↓
//	    [core/layout]          (validate, group into blocks, assign columns)
//	         ↓
//	    [schedule]             (serialized layout, cached by [pipeline])
//	         ↓
//	    [render/sink]          (HTML, SVG, PNG, PDF, JSON, text, DOT)
//
// # Quick Start
//
//	events, _ := io.ImportEvents("today.yaml")
//	res := layout.LayOut(events)
//	l := schedule.FromResult(res, schedule.Axis{Title: "Monday"})
//	page := sink.RenderHTML(l, sink.WithHTMLDocument())
//
// Or through the pipeline, which adds caching and validation:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	out, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "today.yaml",
//	    Formats: []string{"html", "svg"},
//	})
//
// [core/event]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/core/event
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/core/layout
// [schedule]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/schedule
// [io]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/io
// [source/ics]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/source/ics
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/server
package pkg
