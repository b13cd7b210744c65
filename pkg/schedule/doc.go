// Package schedule provides the serialization format for computed day layouts.
//
// A [Layout] is the wire form of a [layout.Result]: it is what the CLI writes
// to layout.json, what the HTTP API returns, what the cache stores and what
// every renderer in pkg/render/sink consumes. Renderers never call the layout
// core themselves.
//
// # Format
//
//	{
//	  "title": "Monday",
//	  "unit": "minutes",
//	  "origin": "09:00",
//	  "span": 720,
//	  "blocks": 1,
//	  "placements": [
//	    {"id": "A", "start": 0, "end": 90, "offset": 0, "width": 50, "block": 0, "column": 0, "columns": 2}
//	  ],
//	  "rejected": [
//	    {"index": 3, "id": "bad", "start": 10, "end": 5, "reason": "end_not_after_start"}
//	  ]
//	}
//
// Rejected bounds that are not finite numbers are written as null.
//
// # Usage
//
//	res := layout.LayOut(events)
//	l := schedule.FromResult(res, schedule.Axis{Unit: "minutes", Origin: "09:00"})
//	schedule.WriteLayoutFile(l, "day.layout.json")
//
//	l, err := schedule.ReadLayoutFile("day.layout.json")
//
// [layout.Result]: github.com/matzehuels/dayview/pkg/core/layout.Result
package schedule
