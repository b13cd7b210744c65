package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
)

type document struct {
	Events []event.Event `json:"events" yaml:"events" toml:"events"`
}

// WriteEvents encodes events as {"events": [...]} in the given format.
// Events with non-finite bounds cannot be encoded and return an error.
func WriteEvents(w io.Writer, format Format, events []event.Event) error {
	for i, e := range events {
		if e.Check() == event.ReasonNonFinite {
			return errors.New(errors.ErrCodeInvalidEvent, "event %d has non-finite bounds", i)
		}
	}
	doc := document{Events: events}
	if doc.Events == nil {
		doc.Events = []event.Event{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown event format %q", format)
	}
}

// ExportEvents writes events to path, choosing the encoder from its extension.
func ExportEvents(path string, events []event.Event) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteEvents(f, format, events); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
