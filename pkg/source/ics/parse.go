package ics

import (
	"bytes"
	"math"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/schedule"
)

const propDuration ical.ComponentProperty = "DURATION"

// maxOccurrences caps how many instances of one RRULE are materialized for a
// single day.
const maxOccurrences = 500

// DayOptions selects the day to extract.
type DayOptions struct {
	// Day is any instant on the wanted day. Its date is taken in Location.
	Day time.Time

	// Origin is the "HH:MM" time that maps to 0 on the axis.
	// Empty means 09:00.
	Origin string

	// Location interprets floating times and defines midnight.
	// Nil means Day's location.
	Location *time.Location
}

// Result is the outcome of [ParseDay].
type Result struct {
	// Events are the day's events in minutes past WindowStart, in feed order.
	Events []event.Event

	WindowStart time.Time
	WindowEnd   time.Time

	SkippedAllDay  int
	SkippedOutside int

	// Truncated lists UIDs whose recurrence hit the per-day cap.
	Truncated []string
}

// Axis returns the axis matching the extracted window.
func (r Result) Axis() schedule.Axis {
	return schedule.Axis{
		Title:  r.WindowStart.Format("Mon 2 Jan 2006"),
		Unit:   schedule.DefaultUnit,
		Origin: r.WindowStart.Format("15:04"),
		Span:   r.WindowEnd.Sub(r.WindowStart).Minutes(),
	}
}

// window is the time range being extracted.
type window struct {
	start, end time.Time
	loc        *time.Location
}

// minutes converts t to the axis.
func (w window) minutes(t time.Time) float64 {
	return t.Sub(w.start).Minutes()
}

// ParseDay extracts the events of one day from an iCalendar payload.
func ParseDay(body []byte, opts DayOptions) (Result, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "empty calendar")
	}
	w, err := newWindow(opts)
	if err != nil {
		return Result{}, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse calendar")
	}

	res := Result{WindowStart: w.start, WindowEnd: w.end}
	vevents := cal.Events()
	overridden := overrides(vevents, w.loc)

	for _, ve := range vevents {
		item, ok := readVEvent(ve, w.loc)
		if !ok {
			res.Events = append(res.Events, item.invalid())
			continue
		}
		if item.allDay {
			res.SkippedAllDay++
			continue
		}
		if item.rrule == "" {
			id := item.uid
			if item.recurrenceID != nil {
				id = occurrenceID(item.uid, *item.recurrenceID)
			}
			if e, ok := clip(item, item.start, item.end, id, w); ok {
				res.Events = append(res.Events, e)
			} else {
				res.SkippedOutside++
			}
			continue
		}

		starts, truncated, err := item.occurrences(w)
		if err != nil {
			res.Events = append(res.Events, item.invalid())
			continue
		}
		if truncated {
			res.Truncated = append(res.Truncated, item.uid)
		}
		var emitted int
		for _, s := range starts {
			if isOverridden(overridden[item.uid], s) {
				continue
			}
			e, ok := clip(item, s, s.Add(item.end.Sub(item.start)), occurrenceID(item.uid, s), w)
			if !ok {
				continue
			}
			e.Meta = withMeta(e.Meta, "recurring", true)
			res.Events = append(res.Events, e)
			emitted++
		}
		if emitted == 0 {
			res.SkippedOutside++
		}
	}
	return res, nil
}

func newWindow(opts DayOptions) (window, error) {
	loc := opts.Location
	if loc == nil {
		loc = opts.Day.Location()
	}
	origin := opts.Origin
	if origin == "" {
		origin = schedule.DefaultOrigin
	}
	clock, err := time.Parse("15:04", origin)
	if err != nil {
		return window{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "origin %q must be HH:MM", origin)
	}

	day := opts.Day.In(loc)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return window{
		start: time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc),
		end:   midnight.AddDate(0, 0, 1),
		loc:   loc,
	}, nil
}

// =============================================================================
// VEVENT Reading
// =============================================================================

type vevent struct {
	uid         string
	summary     string
	location    string
	description string

	start, end time.Time
	allDay     bool

	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
}

// readVEvent extracts the fields of ve. It reports false when DTSTART is
// missing or malformed; the returned value still carries the display fields.
func readVEvent(ve *ical.VEvent, loc *time.Location) (vevent, bool) {
	v := vevent{
		uid:         propValue(ve, ical.ComponentPropertyUniqueId),
		summary:     propValue(ve, ical.ComponentPropertySummary),
		location:    propValue(ve, ical.ComponentPropertyLocation),
		description: propValue(ve, ical.ComponentPropertyDescription),
		rrule:       propValue(ve, ical.ComponentPropertyRrule),
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return v, false
	}
	start, allDay, err := propTime(dtstart, loc)
	if err != nil {
		return v, false
	}
	v.start, v.allDay = start, allDay

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err := propTime(ve.GetProperty(ical.ComponentPropertyDtEnd), loc)
		if err != nil {
			return v, false
		}
		v.end = end
	case ve.GetProperty(propDuration) != nil:
		d, err := parseDuration(propValue(ve, propDuration))
		if err != nil {
			return v, false
		}
		v.end = start.Add(d)
	case allDay:
		v.end = start.AddDate(0, 0, 1)
	default:
		// A timed VEVENT without DTEND or DURATION has zero duration.
		v.end = start
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, _, err := parseTime(part, tzid(p.ICalParameters), loc); err == nil {
				v.exdates = append(v.exdates, t)
			}
		}
	}

	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil {
		if t, _, err := propTime(rid, loc); err == nil {
			v.recurrenceID = &t
		}
	}
	return v, true
}

// invalid returns an event the layout will reject for non-finite bounds.
func (v vevent) invalid() event.Event {
	return v.toEvent(v.uid, math.NaN(), math.NaN())
}

func (v vevent) toEvent(id string, start, end float64) event.Event {
	e := event.Event{
		ID:       id,
		Start:    start,
		End:      end,
		Title:    v.summary,
		Location: v.location,
	}
	if v.description != "" {
		e.Meta = withMeta(e.Meta, "description", v.description)
	}
	return e
}

// occurrences returns the starts of the instances of a recurring event that
// may intersect w.
func (v vevent) occurrences(w window) ([]time.Time, bool, error) {
	rule, err := rrule.StrToRRule(v.rrule)
	if err != nil {
		return nil, false, err
	}
	rule.DTStart(v.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range v.exdates {
		set.ExDate(ex.In(v.start.Location()))
	}

	// An instance starting up to one duration before the window still
	// reaches into it.
	from := w.start.Add(-v.end.Sub(v.start)).In(v.start.Location())
	to := w.end.In(v.start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrences {
		return starts[:maxOccurrences], true, nil
	}
	return starts, false, nil
}

// clip converts the instance [start, end) to axis units, trimmed to w.
// Zero-length instances inside the window are kept so the layout reports them.
func clip(v vevent, start, end time.Time, id string, w window) (event.Event, bool) {
	if !end.After(start) {
		if start.Before(w.start) || !start.Before(w.end) {
			return event.Event{}, false
		}
		return v.toEvent(id, w.minutes(start), w.minutes(end)), true
	}
	if !end.After(w.start) || !start.Before(w.end) {
		return event.Event{}, false
	}

	clipped := false
	if start.Before(w.start) {
		start, clipped = w.start, true
	}
	if end.After(w.end) {
		end, clipped = w.end, true
	}
	e := v.toEvent(id, w.minutes(start), w.minutes(end))
	if clipped {
		e.Meta = withMeta(e.Meta, "clipped", true)
	}
	return e, true
}

// overrides indexes RECURRENCE-ID instants by UID.
func overrides(vevents []*ical.VEvent, loc *time.Location) map[string][]time.Time {
	out := make(map[string][]time.Time)
	for _, ve := range vevents {
		rid := ve.GetProperty("RECURRENCE-ID")
		if rid == nil {
			continue
		}
		t, _, err := propTime(rid, loc)
		if err != nil {
			continue
		}
		uid := propValue(ve, ical.ComponentPropertyUniqueId)
		out[uid] = append(out[uid], t)
	}
	for _, ts := range out {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	}
	return out
}

func isOverridden(ids []time.Time, start time.Time) bool {
	for _, t := range ids {
		if t.Equal(start) {
			return true
		}
	}
	return false
}

func occurrenceID(uid string, start time.Time) string {
	return uid + "@" + start.UTC().Format("20060102T150405Z")
}

func withMeta(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = make(map[string]any, 1)
	}
	m[key] = value
	return m
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
