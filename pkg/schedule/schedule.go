package schedule

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/core/layout"
	"github.com/matzehuels/dayview/pkg/errors"
)

// Default axis values: minutes past 09:00 over a twelve hour day.
const (
	DefaultUnit   = "minutes"
	DefaultOrigin = "09:00"
	DefaultSpan   = 720.0
)

// =============================================================================
// Layout - Serialized Day Layout
// =============================================================================

// Axis describes the time axis events are measured on.
type Axis struct {
	Title  string  `json:"title,omitempty" bson:"title,omitempty"`
	Unit   string  `json:"unit,omitempty" bson:"unit,omitempty"`
	Origin string  `json:"origin,omitempty" bson:"origin,omitempty"`
	Span   float64 `json:"span,omitempty" bson:"span,omitempty"`
}

// Layout is the serialized form of a computed day layout.
type Layout struct {
	Axis `bson:",inline"`

	Blocks     int         `json:"blocks" bson:"blocks"`
	Placements []Placement `json:"placements" bson:"placements"`
	Rejected   []Rejection `json:"rejected,omitempty" bson:"rejected,omitempty"`
}

// Placement is a positioned event.
type Placement struct {
	ID       string         `json:"id,omitempty" bson:"id,omitempty"`
	Title    string         `json:"title,omitempty" bson:"title,omitempty"`
	Location string         `json:"location,omitempty" bson:"location,omitempty"`
	Start    float64        `json:"start" bson:"start"`
	End      float64        `json:"end" bson:"end"`
	Offset   float64        `json:"offset" bson:"offset"`
	Width    float64        `json:"width" bson:"width"`
	Block    int            `json:"block" bson:"block"`
	Column   int            `json:"column" bson:"column"`
	Columns  int            `json:"columns" bson:"columns"`
	Meta     map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Label returns the title, falling back to the ID.
func (p Placement) Label() string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}

// Event reconstructs the event the placement was computed from.
func (p Placement) Event() event.Event {
	return event.Event{ID: p.ID, Start: p.Start, End: p.End, Title: p.Title, Location: p.Location, Meta: p.Meta}
}

// Rejection is an input event excluded from the layout.
// Start and End are nil when the original bound was not a finite number.
type Rejection struct {
	Index  int      `json:"index" bson:"index"`
	ID     string   `json:"id,omitempty" bson:"id,omitempty"`
	Title  string   `json:"title,omitempty" bson:"title,omitempty"`
	Start  *float64 `json:"start" bson:"start"`
	End    *float64 `json:"end" bson:"end"`
	Reason string   `json:"reason" bson:"reason"`
}

// Message returns a human-readable description of the rejection.
func (r Rejection) Message() string {
	return fmt.Sprintf("#%d %s: %s", r.Index, r.describe(), event.Reason(r.Reason).Text())
}

func (r Rejection) describe() string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("[%s, %s]", fmtBound(r.Start), fmtBound(r.End))
}

func fmtBound(f *float64) string {
	if f == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *f)
}

// =============================================================================
// Conversion
// =============================================================================

// FromResult converts a layout result into its serialized form.
// Zero axis fields are left empty; use [Layout.WithDefaults] to fill them.
func FromResult(r layout.Result, axis Axis) Layout {
	l := Layout{
		Axis:       axis,
		Blocks:     len(r.Blocks),
		Placements: make([]Placement, len(r.Placements)),
	}
	for i, p := range r.Placements {
		l.Placements[i] = Placement{
			ID:       p.Event.ID,
			Title:    p.Event.Title,
			Location: p.Event.Location,
			Start:    p.Event.Start,
			End:      p.Event.End,
			Offset:   p.Offset,
			Width:    p.Width,
			Block:    p.Block,
			Column:   p.Column,
			Columns:  r.Columns(p),
			Meta:     p.Event.Meta,
		}
	}
	for _, rej := range r.Rejected {
		l.Rejected = append(l.Rejected, Rejection{
			Index:  rej.Index,
			ID:     rej.Event.ID,
			Title:  rej.Event.Title,
			Start:  finitePtr(rej.Event.Start),
			End:    finitePtr(rej.Event.End),
			Reason: string(rej.Reason),
		})
	}
	return l
}

func finitePtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// WithDefaults returns a copy of l with empty axis fields set to the default
// minutes-past-09:00 axis. A zero span is widened to fit the latest event.
func (l Layout) WithDefaults() Layout {
	if l.Unit == "" {
		l.Unit = DefaultUnit
	}
	if l.Origin == "" {
		l.Origin = DefaultOrigin
	}
	if l.Span <= 0 {
		l.Span = max(DefaultSpan, l.End())
	}
	return l
}

// End returns the latest end among all placements, or 0 for an empty layout.
func (l Layout) End() float64 {
	end := 0.0
	for _, p := range l.Placements {
		end = max(end, p.End)
	}
	return end
}

// Events reconstructs the placed events in placement order.
func (l Layout) Events() []event.Event {
	out := make([]event.Event, len(l.Placements))
	for i, p := range l.Placements {
		out[i] = p.Event()
	}
	return out
}

// BlockPlacements returns the placements of block b.
func (l Layout) BlockPlacements(b int) []Placement {
	var out []Placement
	for _, p := range l.Placements {
		if p.Block == b {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	if l.Placements == nil {
		l.Placements = []Placement{}
	}
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and validates the
// placement geometry.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "unmarshal layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks that every placement is inside the frame and consistent
// with its block.
func (l Layout) Validate() error {
	for i, p := range l.Placements {
		if p.End <= p.Start {
			return errors.New(errors.ErrCodeInvalidInput, "placement %d: end %g not after start %g", i, p.End, p.Start)
		}
		if p.Width <= 0 || p.Width > layout.FullWidth+layout.Epsilon {
			return errors.New(errors.ErrCodeInvalidInput, "placement %d: width %g outside (0, 100]", i, p.Width)
		}
		if p.Offset < 0 || p.Offset+p.Width > layout.FullWidth+layout.Epsilon {
			return errors.New(errors.ErrCodeInvalidInput, "placement %d: offset %g outside frame", i, p.Offset)
		}
		if p.Block < 0 || p.Block >= max(l.Blocks, 1) {
			return errors.New(errors.ErrCodeInvalidInput, "placement %d: block %d out of range", i, p.Block)
		}
	}
	return nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
