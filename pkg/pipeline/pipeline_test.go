package pipeline

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/dayview/pkg/cache"
	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/render/sink"
	"github.com/matzehuels/dayview/pkg/schedule"
)

const eventsJSON = `[
	{"id": "a", "start": 0, "end": 120, "title": "Planning"},
	{"id": "b", "start": 30, "end": 90},
	{"id": "c", "start": 60, "end": 150},
	{"id": "d", "start": 200, "end": 260, "title": "Lunch"},
	{"id": "bad", "start": 40, "end": 40}
]`

const dayICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//dayview//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review\r\n" +
	"SUMMARY:Review\r\n" +
	"DTSTART:20240304T100000Z\r\n" +
	"DTEND:20240304T113000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:offsite\r\n" +
	"DTSTART;VALUE=DATE:20240304\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"html", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"txt", false},
		{"dot", false},
		{"conflicts", false},
		{"SVG", false}, // case-insensitive
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "html"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Invalid format error = %v", err)
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateOrigin(t *testing.T) {
	for _, origin := range []string{"", "09:00", "23:59", "00:00"} {
		if err := ValidateOrigin(origin); err != nil {
			t.Errorf("ValidateOrigin(%q) error: %v", origin, err)
		}
	}
	for _, origin := range []string{"9am", "25:00", "09:60", "0900"} {
		if err := ValidateOrigin(origin); err == nil {
			t.Errorf("ValidateOrigin(%q) should fail", origin)
		}
	}
}

func TestOptionsValidateForImport(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"no source", Options{}, true},
		{"both sources", Options{Input: "a.json", Feed: "https://example.com/a.ics"}, true},
		{"traversal", Options{Input: "../a.json"}, true},
		{"bad day", Options{Input: "a.ics", Day: "04/03/2024"}, true},
		{"bad timezone", Options{Input: "a.ics", Timezone: "Mars/Olympus"}, true},
		{"file", Options{Input: "a.json"}, false},
		{"feed with day", Options{Feed: "webcal://example.com/a.ics", Day: "2024-03-04", Timezone: "UTC"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForImport()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForImport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.opts.Logger == nil {
				t.Error("ValidateForImport should set a logger")
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatalf("ValidateForRender() error: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}

	bad := []Options{
		{Formats: []string{"gif"}},
		{Span: -1},
		{Origin: "noon"},
		{FrameWidth: -10},
	}
	for _, o := range bad {
		if err := o.ValidateForRender(); err == nil {
			t.Errorf("ValidateForRender(%+v) should fail", o)
		}
	}

	custom := Options{
		Formats: []string{"csv"},
		Extra:   map[sink.Format]sink.Renderer{"csv": sink.RendererFunc(func(schedule.Layout) ([]byte, error) { return nil, nil })},
	}
	if err := custom.ValidateForRender(); err != nil {
		t.Errorf("formats with a custom renderer should pass: %v", err)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Input: "a.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	opts.Formats = []string{"not-a-format"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestOptionsAxis(t *testing.T) {
	base := schedule.Axis{Title: "Mon 4 Mar 2024", Unit: "minutes", Origin: "09:00", Span: 900}

	opts := Options{Title: "Team day", Span: 600}
	got := opts.Axis(base)
	want := schedule.Axis{Title: "Team day", Unit: "minutes", Origin: "09:00", Span: 600}
	if got != want {
		t.Errorf("Axis() = %+v, want %+v", got, want)
	}

	if got := (&Options{}).Axis(base); got != base {
		t.Errorf("empty options should keep base axis, got %+v", got)
	}

	opts.MergeAxis(base)
	if opts.Title != "Team day" || opts.Unit != "minutes" || opts.Origin != "09:00" || opts.Span != 600 {
		t.Errorf("MergeAxis() left %+v", opts)
	}
}

func TestOptionsDayTime(t *testing.T) {
	opts := Options{Day: "2024-03-04", Timezone: "Europe/Berlin"}
	got := opts.DayTime()
	if got.Year() != 2024 || got.Month() != 3 || got.Day() != 4 || got.Location().String() != "Europe/Berlin" {
		t.Errorf("DayTime() = %v", got)
	}
}

func TestKeyOpts(t *testing.T) {
	opts := Options{Title: "T", Origin: "08:00", Span: 600, Document: true, Scale: 3}
	if k := opts.LayoutKeyOpts(); k.Title != "T" || k.Origin != "08:00" || k.Span != 600 {
		t.Errorf("LayoutKeyOpts() = %+v", k)
	}
	if k := opts.ArtifactKeyOpts("png"); k.Format != "png" || !k.Document || k.Scale != 3 {
		t.Errorf("ArtifactKeyOpts() = %+v", k)
	}
}

func TestHashEvents(t *testing.T) {
	a := []event.Event{{ID: "x", Start: 0, End: 30}, {Start: math.NaN(), End: 10}}
	b := []event.Event{{ID: "x", Start: 0, End: 30}, {Start: math.NaN(), End: 10}}
	c := []event.Event{{ID: "x", Start: 0, End: 31}, {Start: math.NaN(), End: 10}}

	if HashEvents(a) != HashEvents(b) {
		t.Error("equal events should hash equally, NaN included")
	}
	if HashEvents(a) == HashEvents(c) {
		t.Error("different events should hash differently")
	}
	if len(HashEvents(nil)) != 64 {
		t.Errorf("hash length = %d, want 64", len(HashEvents(nil)))
	}
}

func TestExecuteEventsFile(t *testing.T) {
	path := writeFile(t, "day.json", eventsJSON)
	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{Input: path, Formats: []string{"html", "json"}, Verify: true}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Stats.Events != 5 || res.Stats.Placements != 4 || res.Stats.Blocks != 2 || res.Stats.Rejected != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Errorf("first run should miss the cache: %+v", res.CacheInfo)
	}
	if !strings.Contains(string(res.Artifacts["html"]), `<h3 class="event-title">Planning</h3>`) {
		t.Errorf("html artifact:\n%s", res.Artifacts["html"])
	}
	l, err := schedule.UnmarshalLayout(res.Artifacts["json"])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(l.Rejected) != 1 || l.Rejected[0].ID != "bad" {
		t.Errorf("rejected = %+v", l.Rejected)
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run should hit the cache: %+v", again.CacheInfo)
	}
	if again.EventsHash != res.EventsHash {
		t.Error("events hash changed between runs")
	}
	if string(again.Artifacts["html"]) != string(res.Artifacts["html"]) {
		t.Error("cached html differs from rendered html")
	}
}

func TestExecuteRefreshSkipsLayoutCache(t *testing.T) {
	path := writeFile(t, "day.yaml", "- {id: a, start: 0, end: 30}\n")
	r := newFileRunner(t)
	ctx := context.Background()

	if _, err := r.Execute(ctx, Options{Input: path, Formats: []string{"json"}}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Input: path, Formats: []string{"json"}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("refresh should recompute the layout")
	}
}

func TestExecuteICSFile(t *testing.T) {
	path := writeFile(t, "day.ics", dayICS)
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{
		Input:    path,
		Day:      "2024-03-04",
		Timezone: "UTC",
		Formats:  []string{"json"},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Stats.Events != 1 || res.Stats.Skipped != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	l := res.Layout
	if l.Title != "Mon 4 Mar 2024" || l.Origin != "09:00" || l.Span != 900 {
		t.Errorf("axis = %+v", l.Axis)
	}
	if len(l.Placements) != 1 || l.Placements[0].Start != 60 || l.Placements[0].End != 150 {
		t.Errorf("placements = %+v", l.Placements)
	}
}

func TestExecuteFeed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(dayICS))
	}))
	defer srv.Close()

	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{Feed: srv.URL + "/team.ics", Day: "2024-03-04", Timezone: "UTC", Title: "Team", Formats: []string{"txt"}}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.CacheInfo.ImportHit {
		t.Error("first fetch should not come from the cache")
	}
	if res.Layout.Title != "Team" {
		t.Errorf("title option should win over the feed axis, got %q", res.Layout.Title)
	}
	if !strings.Contains(string(res.Artifacts["txt"]), "Review") {
		t.Errorf("txt artifact:\n%s", res.Artifacts["txt"])
	}

	res, err = r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.ImportHit || hits.Load() != 1 {
		t.Errorf("second run: ImportHit=%v hits=%d", res.CacheInfo.ImportHit, hits.Load())
	}
}

func TestExecuteMissingFile(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Input: filepath.Join(t.TempDir(), "none.json")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExecuteEventsInMemory(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	events := []event.Event{
		{ID: "a", Start: 0, End: 60},
		{ID: "b", Start: 30, End: 90},
		{ID: "nan", Start: math.NaN(), End: 10},
	}

	var called int
	opts := Options{
		Formats: []string{"count", "svg"},
		Extra: map[sink.Format]sink.Renderer{
			"count": sink.RendererFunc(func(l schedule.Layout) ([]byte, error) {
				called++
				return []byte{byte(len(l.Placements))}, nil
			}),
		},
	}
	res, err := r.ExecuteEvents(context.Background(), events, opts)
	if err != nil {
		t.Fatalf("ExecuteEvents() error: %v", err)
	}
	if called != 1 || len(res.Artifacts["count"]) != 1 || res.Artifacts["count"][0] != 2 {
		t.Errorf("custom renderer: called=%d artifact=%v", called, res.Artifacts["count"])
	}
	if !strings.HasPrefix(string(res.Artifacts["svg"]), "<svg") {
		t.Errorf("svg artifact should start with <svg, got %.40q", res.Artifacts["svg"])
	}
	if res.Stats.Rejected != 1 || res.Layout.Rejected[0].Start != nil {
		t.Errorf("rejected = %+v", res.Layout.Rejected)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Render(context.Background(), schedule.Layout{}, Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestComputeLayoutDefaultsAxisLater(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	l, err := r.ComputeLayout(context.Background(), []event.Event{{ID: "a", Start: 0, End: 30}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if l.Unit != "" || l.Span != 0 {
		t.Errorf("axis should stay empty for sinks to default: %+v", l.Axis)
	}
	if d := l.WithDefaults(); d.Unit != schedule.DefaultUnit || d.Span != schedule.DefaultSpan {
		t.Errorf("WithDefaults() = %+v", d.Axis)
	}
}

func TestNewRunnerWithoutCacheNeverHits(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if _, ok := r.Cache.(*cache.NullCache); !ok {
		t.Fatalf("NewRunner(nil) cache = %T, want *cache.NullCache", r.Cache)
	}

	input := writeFile(t, "today.json", eventsJSON)
	opts := Options{Input: input, Formats: []string{"json"}}
	for i := range 2 {
		res, err := r.Execute(context.Background(), opts)
		if err != nil {
			t.Fatalf("Execute() run %d error: %v", i, err)
		}
		if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
			t.Errorf("run %d reported a cache hit: %+v", i, res.CacheInfo)
		}
	}
}
