// Package ics turns an iCalendar feed into the events of a single day.
//
// [ParseDay] reads a VCALENDAR payload and returns the timed events that
// intersect one day, measured in minutes past an origin time (09:00 unless
// configured otherwise). Events are clipped to the window between the origin
// and midnight. All-day entries and entries outside the window are counted
// and skipped.
//
// Recurring entries are materialized for the requested day only: an RRULE
// with its EXDATEs is evaluated for the window and each occurrence becomes a
// plain event. Occurrences replaced by a RECURRENCE-ID override are dropped in
// favour of the override.
//
// [Fetcher] downloads feeds over HTTP(S) with retries and a cache in front:
//
//	f := ics.NewFetcher(c, nil)
//	body, _, err := f.Fetch(ctx, "webcal://example.com/team.ics", false)
//	if err != nil {
//	    return err
//	}
//	res, err := ics.ParseDay(body, ics.DayOptions{Day: time.Now()})
package ics
