package ics

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
)

var testDay = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func calendar(vevents ...string) []byte {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//dayview//test//EN"}
	for _, v := range vevents {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, strings.Split(strings.TrimSpace(v), "\n")...)
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR")
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func parse(t *testing.T, body []byte) Result {
	t.Helper()
	res, err := ParseDay(body, DayOptions{Day: testDay, Location: time.UTC})
	if err != nil {
		t.Fatalf("ParseDay() error: %v", err)
	}
	return res
}

func findEvent(events []event.Event, id string) (event.Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return event.Event{}, false
}

func TestParseDayTimedEvents(t *testing.T) {
	res := parse(t, calendar(`
UID:a
SUMMARY:Standup
LOCATION:Room 1
DESCRIPTION:daily sync
DTSTART:20250310T090000Z
DTEND:20250310T100000Z`, `
UID:b
DTSTART:20250310T093000Z
DTEND:20250310T110000Z`, `
UID:dur
DTSTART:20250310T120000Z
DURATION:PT45M`))

	if len(res.Events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(res.Events), res.Events)
	}
	a := res.Events[0]
	if a.ID != "a" || a.Start != 0 || a.End != 60 || a.Title != "Standup" || a.Location != "Room 1" {
		t.Errorf("event a = %+v", a)
	}
	if a.Meta["description"] != "daily sync" {
		t.Errorf("description not kept: %v", a.Meta)
	}
	if b := res.Events[1]; b.Start != 30 || b.End != 120 {
		t.Errorf("event b = %+v", b)
	}
	if d := res.Events[2]; d.Start != 180 || d.End != 225 {
		t.Errorf("DURATION event = %+v", d)
	}
}

func TestParseDaySkips(t *testing.T) {
	res := parse(t, calendar(`
UID:allday
DTSTART;VALUE=DATE:20250310
DTEND;VALUE=DATE:20250311`, `
UID:tomorrow
DTSTART:20250311T090000Z
DTEND:20250311T100000Z`, `
UID:before-origin
DTSTART:20250310T070000Z
DTEND:20250310T080000Z`, `
UID:kept
DTSTART:20250310T150000Z
DTEND:20250310T160000Z`))

	if res.SkippedAllDay != 1 {
		t.Errorf("SkippedAllDay = %d, want 1", res.SkippedAllDay)
	}
	if res.SkippedOutside != 2 {
		t.Errorf("SkippedOutside = %d, want 2", res.SkippedOutside)
	}
	if len(res.Events) != 1 || res.Events[0].ID != "kept" {
		t.Errorf("Events = %+v", res.Events)
	}
}

func TestParseDayClipsToWindow(t *testing.T) {
	res := parse(t, calendar(`
UID:early
DTSTART:20250310T080000Z
DTEND:20250310T093000Z`, `
UID:late
DTSTART:20250310T230000Z
DTEND:20250311T010000Z`))

	early, ok := findEvent(res.Events, "early")
	if !ok || early.Start != 0 || early.End != 30 || early.Meta["clipped"] != true {
		t.Errorf("early = %+v", early)
	}
	late, ok := findEvent(res.Events, "late")
	if !ok || late.Start != 840 || late.End != 900 || late.Meta["clipped"] != true {
		t.Errorf("late = %+v", late)
	}
}

func TestParseDayInvalidEvents(t *testing.T) {
	res := parse(t, calendar(`
UID:nostart
SUMMARY:Broken`, `
UID:instant
DTSTART:20250310T100000Z`))

	broken, ok := findEvent(res.Events, "nostart")
	if !ok || !math.IsNaN(broken.Start) || broken.Title != "Broken" {
		t.Errorf("missing DTSTART = %+v", broken)
	}
	if broken.Check() != event.ReasonNonFinite {
		t.Errorf("missing DTSTART should be rejected as non-finite")
	}

	instant, ok := findEvent(res.Events, "instant")
	if !ok || instant.Start != 60 || instant.End != 60 {
		t.Errorf("zero-duration event = %+v", instant)
	}
	if instant.Check() != event.ReasonEmptyRange {
		t.Errorf("zero-duration event should be rejected as empty range")
	}
}

func TestParseDayRecurrence(t *testing.T) {
	res := parse(t, calendar(`
UID:daily
SUMMARY:Review
DTSTART:20250303T140000Z
DTEND:20250303T143000Z
RRULE:FREQ=DAILY;COUNT=30`, `
UID:excluded
DTSTART:20250301T150000Z
DTEND:20250301T153000Z
RRULE:FREQ=DAILY
EXDATE:20250310T150000Z`, `
UID:moved
DTSTART:20250301T160000Z
DTEND:20250301T163000Z
RRULE:FREQ=DAILY`, `
UID:moved
RECURRENCE-ID:20250310T160000Z
DTSTART:20250310T170000Z
DTEND:20250310T173000Z`, `
UID:ended
DTSTART:20250301T100000Z
DTEND:20250301T110000Z
RRULE:FREQ=DAILY;COUNT=3`))

	daily, ok := findEvent(res.Events, "daily@20250310T140000Z")
	if !ok || daily.Start != 300 || daily.End != 330 || daily.Title != "Review" {
		t.Errorf("daily occurrence = %+v (events %+v)", daily, res.Events)
	}
	if daily.Meta["recurring"] != true {
		t.Errorf("occurrence should be marked recurring: %v", daily.Meta)
	}

	for _, e := range res.Events {
		if strings.HasPrefix(e.ID, "excluded@") {
			t.Errorf("EXDATE instance emitted: %+v", e)
		}
		if strings.HasPrefix(e.ID, "ended@") {
			t.Errorf("finished rule emitted: %+v", e)
		}
	}

	moved, ok := findEvent(res.Events, "moved@20250310T160000Z")
	if !ok || moved.Start != 480 || moved.End != 510 {
		t.Errorf("override = %+v", moved)
	}
	var movedCount int
	for _, e := range res.Events {
		if strings.HasPrefix(e.ID, "moved@") {
			movedCount++
		}
	}
	if movedCount != 1 {
		t.Errorf("override should replace the base instance, got %d moved events", movedCount)
	}
}

func TestParseDayOrigin(t *testing.T) {
	body := calendar(`
UID:a
DTSTART:20250310T090000Z
DTEND:20250310T100000Z`)

	res, err := ParseDay(body, DayOptions{Day: testDay, Origin: "00:00", Location: time.UTC})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 1 || res.Events[0].Start != 540 {
		t.Errorf("Events = %+v", res.Events)
	}
	axis := res.Axis()
	if axis.Origin != "00:00" || axis.Span != 1440 || axis.Unit != "minutes" || axis.Title != "Mon 10 Mar 2025" {
		t.Errorf("Axis() = %+v", axis)
	}

	if _, err := ParseDay(body, DayOptions{Day: testDay, Origin: "9am"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad origin error = %v", err)
	}
}

func TestParseDayFloatingAndTZID(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	body := calendar(`
UID:floating
DTSTART:20250310T100000
DTEND:20250310T110000`, `
UID:ny
DTSTART;TZID=America/New_York:20250310T050000
DTEND;TZID=America/New_York:20250310T060000`)

	res, err := ParseDay(body, DayOptions{Day: testDay, Location: berlin})
	if err != nil {
		t.Fatal(err)
	}
	floating, ok := findEvent(res.Events, "floating")
	if !ok || floating.Start != 60 || floating.End != 120 {
		t.Errorf("floating = %+v", floating)
	}
	// 05:00 New York (EDT, UTC-4) is 10:00 Berlin (CET, UTC+1).
	ny, ok := findEvent(res.Events, "ny")
	if !ok || ny.Start != 60 {
		t.Errorf("TZID event = %+v", ny)
	}
}

func TestParseDayErrors(t *testing.T) {
	if _, err := ParseDay(nil, DayOptions{Day: testDay}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty body error = %v", err)
	}
	if _, err := ParseDay([]byte("   \n"), DayOptions{Day: testDay}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("blank body error = %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"PT1H30M", 90 * time.Minute, false},
		{"P1D", 24 * time.Hour, false},
		{"P1W", 7 * 24 * time.Hour, false},
		{"-PT15M", -15 * time.Minute, false},
		{"P1DT2H", 26 * time.Hour, false},
		{"PT10S", 10 * time.Second, false},
		{"1H", 0, true},
		{"P", 0, true},
		{"PT5", 0, true},
		{"P1H", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
