// Package io reads and writes event lists in JSON, YAML and TOML.
//
// # Formats
//
// JSON and YAML accept either a bare list or an object with an "events" list:
//
//	[
//	  {"id": "standup", "start": 0, "end": 15, "title": "Standup", "location": "Room 1"},
//	  {"id": "review", "start": 30, "end": 90}
//	]
//
//	events:
//	  - id: standup
//	    start: 0
//	    end: 15
//
// TOML uses an array of tables:
//
//	[[events]]
//	id = "standup"
//	start = 0
//	end = 15
//
// # Fields
//
// Recognized keys are id, start, end, title and location. Every other key is
// kept in the event's Meta map and passed through to renderers untouched.
//
// A missing or non-numeric start or end does not fail the import: the bound is
// set to NaN so the layout rejects that one event with a reason, and the rest
// of the file is still laid out.
package io
