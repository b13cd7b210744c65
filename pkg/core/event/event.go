// Package event defines the time-bounded event consumed by the layout core.
//
// An [Event] carries two numeric bounds on a shared axis (for example minutes
// past 09:00) plus display fields the layout never inspects. [SortAndValidate]
// is the first stage of every layout: it rejects malformed events with a
// [Reason] and returns the rest sorted by start, leaving the input untouched.
package event

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/dayview/pkg/errors"
)

// Event is a single time-bounded item on the day axis.
//
// Start and End share one caller-defined unit. ID, Title, Location and Meta
// are opaque to the layout and pass through to placements unchanged.
type Event struct {
	ID       string         `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty" bson:"id,omitempty"`
	Start    float64        `json:"start" yaml:"start" toml:"start" bson:"start"`
	End      float64        `json:"end" yaml:"end" toml:"end" bson:"end"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty" bson:"title,omitempty"`
	Location string         `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty" bson:"location,omitempty"`
	Meta     map[string]any `json:"meta,omitempty" yaml:"meta,omitempty" toml:"meta,omitempty" bson:"meta,omitempty"`
}

// Duration returns End - Start.
func (e Event) Duration() float64 { return e.End - e.Start }

// Overlaps reports whether e and o share a non-empty interval.
// Touching events (one ends exactly when the other starts) do not overlap.
func (e Event) Overlaps(o Event) bool {
	return e.Start < o.End && o.Start < e.End
}

// Label returns the title, falling back to the ID.
func (e Event) Label() string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}

// Check returns the reason e would be rejected, or "" when it is valid.
func (e Event) Check() Reason {
	if !finite(e.Start) || !finite(e.End) {
		return ReasonNonFinite
	}
	if e.End <= e.Start {
		return ReasonEmptyRange
	}
	return ""
}

// Validate returns an INVALID_EVENT error when e cannot be laid out.
func (e Event) Validate() error {
	if r := e.Check(); r != "" {
		return errors.New(errors.ErrCodeInvalidEvent, "event %s: %s", e.describe(), r.Text())
	}
	return nil
}

func (e Event) describe() string {
	if e.ID != "" {
		return fmt.Sprintf("%q", e.ID)
	}
	return fmt.Sprintf("[%g, %g]", e.Start, e.End)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// =============================================================================
// Rejections
// =============================================================================

// Reason classifies why an event was excluded from a layout.
type Reason string

const (
	// ReasonNonFinite marks an event with a missing, NaN or infinite bound.
	ReasonNonFinite Reason = "non_finite_bounds"

	// ReasonEmptyRange marks an event whose end is not after its start.
	ReasonEmptyRange Reason = "end_not_after_start"
)

// Text returns a short human-readable description of the reason.
func (r Reason) Text() string {
	switch r {
	case ReasonNonFinite:
		return "start and end must be finite numbers"
	case ReasonEmptyRange:
		return "end must be greater than start"
	default:
		return string(r)
	}
}

// Rejection reports an input event that was excluded from the layout.
type Rejection struct {
	// Index is the position of the event in the caller's input.
	Index  int
	Event  Event
	Reason Reason
}

// Err returns the rejection as an INVALID_EVENT error.
func (r Rejection) Err() error {
	return errors.New(errors.ErrCodeInvalidEvent, "event #%d %s: %s", r.Index, r.Event.describe(), r.Reason.Text())
}

// =============================================================================
// Sort & Validate
// =============================================================================

// SortAndValidate splits events into valid events sorted by start and
// rejections in input order.
//
// The sort is stable: events with equal starts keep their input order. The
// input slice is never modified. A nil or empty input yields nil, nil.
func SortAndValidate(events []Event) ([]Event, []Rejection) {
	if len(events) == 0 {
		return nil, nil
	}

	valid := make([]Event, 0, len(events))
	var rejected []Rejection
	for i, e := range events {
		if r := e.Check(); r != "" {
			rejected = append(rejected, Rejection{Index: i, Event: e, Reason: r})
			continue
		}
		valid = append(valid, e)
	}

	slices.SortStableFunc(valid, func(a, b Event) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return valid, rejected
}
