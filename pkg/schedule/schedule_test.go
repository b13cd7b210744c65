package schedule

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/core/layout"
	"github.com/matzehuels/dayview/pkg/errors"
)

func sampleResult() layout.Result {
	return layout.LayOut([]event.Event{
		{ID: "A", Start: 0, End: 90, Title: "Standup", Meta: map[string]any{"room": "1"}},
		{ID: "B", Start: 30, End: 150},
		{ID: "nan", Start: math.NaN(), End: 10},
		{ID: "back", Start: 10, End: 5},
	})
}

func TestFromResult(t *testing.T) {
	l := FromResult(sampleResult(), Axis{Title: "Mon"})

	if l.Blocks != 1 {
		t.Errorf("Blocks = %d, want 1", l.Blocks)
	}
	if len(l.Placements) != 2 {
		t.Fatalf("Placements = %d, want 2", len(l.Placements))
	}
	a := l.Placements[0]
	if a.ID != "A" || a.Title != "Standup" || a.Columns != 2 || a.Width != 50 || a.Meta["room"] != "1" {
		t.Errorf("placement A = %+v", a)
	}
	if l.Placements[1].Offset != 50 || l.Placements[1].Column != 1 {
		t.Errorf("placement B = %+v", l.Placements[1])
	}

	if len(l.Rejected) != 2 {
		t.Fatalf("Rejected = %d, want 2", len(l.Rejected))
	}
	nan := l.Rejected[0]
	if nan.Start != nil || nan.End == nil || *nan.End != 10 {
		t.Errorf("non-finite start should serialize as nil: %+v", nan)
	}
	if nan.Reason != string(event.ReasonNonFinite) {
		t.Errorf("Reason = %q", nan.Reason)
	}
}

func TestMarshalLayoutHandlesNaNRejections(t *testing.T) {
	data, err := MarshalLayout(FromResult(sampleResult(), Axis{}))
	if err != nil {
		t.Fatalf("MarshalLayout() error: %v", err)
	}
	if !strings.Contains(string(data), `"start": null`) {
		t.Errorf("expected null start for NaN rejection:\n%s", data)
	}

	back, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout() error: %v", err)
	}
	if len(back.Placements) != 2 || len(back.Rejected) != 2 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestMarshalEmptyLayout(t *testing.T) {
	data, err := MarshalLayout(FromResult(layout.LayOut(nil), Axis{}))
	if err != nil {
		t.Fatalf("MarshalLayout() error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if p, ok := raw["placements"].([]any); !ok || len(p) != 0 {
		t.Errorf("placements = %v, want empty array", raw["placements"])
	}
}

func TestUnmarshalLayoutValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"blocks":1,"placements":[{"start":0,"end":1,"offset":0,"width":100,"block":0}]}`, false},
		{"empty", `{"placements":[]}`, false},
		{"zero width", `{"blocks":1,"placements":[{"start":0,"end":1,"offset":0,"width":0}]}`, true},
		{"too wide", `{"blocks":1,"placements":[{"start":0,"end":1,"offset":50,"width":60}]}`, true},
		{"negative offset", `{"blocks":1,"placements":[{"start":0,"end":1,"offset":-1,"width":50}]}`, true},
		{"backwards", `{"blocks":1,"placements":[{"start":2,"end":1,"offset":0,"width":100}]}`, true},
		{"bad block", `{"blocks":1,"placements":[{"start":0,"end":1,"offset":0,"width":100,"block":3}]}`, true},
		{"malformed", `{"placements":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalLayout([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalLayout() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	l := Layout{Placements: []Placement{{Start: 0, End: 900}}}.WithDefaults()
	if l.Unit != DefaultUnit || l.Origin != DefaultOrigin {
		t.Errorf("axis = %+v", l.Axis)
	}
	if l.Span != 900 {
		t.Errorf("Span = %v, want 900 (latest end)", l.Span)
	}

	custom := Layout{Axis: Axis{Unit: "hours", Origin: "00:00", Span: 24}}.WithDefaults()
	if custom.Unit != "hours" || custom.Origin != "00:00" || custom.Span != 24 {
		t.Errorf("explicit axis overwritten: %+v", custom.Axis)
	}
}

func TestLayoutFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.layout.json")
	l := FromResult(sampleResult(), Axis{Title: "Mon", Unit: "minutes"})

	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile() error: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile() error: %v", err)
	}
	if got.Title != "Mon" || len(got.Placements) != 2 {
		t.Errorf("ReadLayoutFile() = %+v", got)
	}
}

func TestReadLayoutFileMissing(t *testing.T) {
	_, err := ReadLayoutFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEventsAndBlockPlacements(t *testing.T) {
	l := FromResult(layout.LayOut([]event.Event{
		{ID: "x", Start: 0, End: 10},
		{ID: "y", Start: 20, End: 30},
		{ID: "z", Start: 25, End: 35},
	}), Axis{})

	if got := len(l.BlockPlacements(1)); got != 2 {
		t.Errorf("BlockPlacements(1) = %d, want 2", got)
	}
	events := l.Events()
	if len(events) != 3 || events[2].ID != "z" || events[2].End != 35 {
		t.Errorf("Events() = %+v", events)
	}
	if l.End() != 35 {
		t.Errorf("End() = %v, want 35", l.End())
	}
}

func TestRejectionMessage(t *testing.T) {
	five := 5.0
	r := Rejection{Index: 2, Start: nil, End: &five, Reason: string(event.ReasonNonFinite)}
	if got := r.Message(); got != "#2 [?, 5]: start and end must be finite numbers" {
		t.Errorf("Message() = %q", got)
	}
}
