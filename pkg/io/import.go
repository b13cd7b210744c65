package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
)

// Format identifies an event file encoding.
type Format string

// Supported event file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported event file %q (want .json, .yaml, .yml or .toml)", filepath.Base(path))
	}
}

// ReadEvents decodes an event list from r.
//
// Malformed documents return an INVALID_INPUT error. Malformed individual
// events are returned with NaN bounds so that the layout reports them.
// ReadEvents does not close r.
func ReadEvents(r io.Reader, format Format) ([]event.Event, error) {
	var doc any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode yaml")
		}
	case FormatTOML:
		var table map[string]any
		if _, err := toml.NewDecoder(r).Decode(&table); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode toml")
		}
		doc = table
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown event format %q", format)
	}
	return fromDocument(doc)
}

// ImportEvents reads the event file at path, choosing the decoder from its
// extension.
func ImportEvents(path string) ([]event.Event, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	events, err := ReadEvents(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// =============================================================================
// Document Conversion
// =============================================================================

func fromDocument(doc any) ([]event.Event, error) {
	var items []any
	switch d := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		items = d
	case map[string]any:
		raw, ok := d["events"]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, `document has no "events" list`)
		}
		switch list := raw.(type) {
		case []any:
			items = list
		case []map[string]any:
			items = make([]any, len(list))
			for i, m := range list {
				items[i] = m
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput, `"events" must be a list, got %T`, raw)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "expected a list of events, got %T", doc)
	}

	events := make([]event.Event, len(items))
	for i, item := range items {
		events[i] = fromItem(item)
	}
	return events, nil
}

func fromItem(item any) event.Event {
	m, ok := item.(map[string]any)
	if !ok {
		return event.Event{Start: math.NaN(), End: math.NaN(), Meta: map[string]any{"value": item}}
	}

	e := event.Event{
		Start: number(m["start"]),
		End:   number(m["end"]),
	}
	for k, v := range m {
		switch k {
		case "start", "end":
		case "id":
			e.ID = text(v)
		case "title":
			e.Title = text(v)
		case "location":
			e.Location = text(v)
		case "meta":
			// Files written by WriteEvents nest extra keys under "meta".
			if nested, ok := normalize(v).(map[string]any); ok {
				if e.Meta == nil {
					e.Meta = make(map[string]any, len(nested))
				}
				for nk, nv := range nested {
					e.Meta[nk] = nv
				}
				continue
			}
			if e.Meta == nil {
				e.Meta = make(map[string]any)
			}
			e.Meta[k] = normalize(v)
		default:
			if e.Meta == nil {
				e.Meta = make(map[string]any)
			}
			e.Meta[k] = normalize(v)
		}
	}
	return e
}

// number converts a decoded scalar to float64; anything else becomes NaN.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// normalize converts json.Number values in Meta to float64 or int64 so that
// every encoder downstream sees plain numbers.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	default:
		return v
	}
}
