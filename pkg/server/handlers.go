package server

import (
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/dayview/pkg/buildinfo"
	"github.com/matzehuels/dayview/pkg/core/event"
	"github.com/matzehuels/dayview/pkg/errors"
	pkgio "github.com/matzehuels/dayview/pkg/io"
	"github.com/matzehuels/dayview/pkg/pipeline"
	"github.com/matzehuels/dayview/pkg/render/sink"
	"github.com/matzehuels/dayview/pkg/schedule"
	"github.com/matzehuels/dayview/pkg/store"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// =============================================================================
// Stateless Layout and Render
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	events, err := s.readEvents(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	l, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), events, opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.writeLayout(w, http.StatusOK, l, hit)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	events, err := s.readEvents(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	res, err := s.runner.ExecuteEvents(r.Context(), events, opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	setCacheHeader(w, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
	writeArtifact(w, opts.Formats[0], res.Artifacts[opts.Formats[0]])
}

// =============================================================================
// Stored Layouts
// =============================================================================

type layoutSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Title      string    `json:"title,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Blocks     int       `json:"blocks"`
	Placements int       `json:"placements"`
	Rejected   int       `json:"rejected"`
}

func summarize(d store.Document) layoutSummary {
	return layoutSummary{
		ID:         d.ID,
		Name:       d.Name,
		Title:      d.Layout.Title,
		CreatedAt:  d.CreatedAt,
		Blocks:     d.Layout.Blocks,
		Placements: len(d.Layout.Placements),
		Rejected:   len(d.Layout.Rejected),
	}
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	events, err := s.readEvents(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	l, err := s.runner.ComputeLayout(r.Context(), events, opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	doc := &store.Document{
		Name:       r.URL.Query().Get("name"),
		EventsHash: pipeline.HashEvents(events),
		Layout:     l,
	}
	if err := s.store.Save(r.Context(), doc); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Location", "/v1/layouts/"+doc.ID)
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, s.logger, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	docs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]layoutSummary, len(docs))
	for i, d := range docs {
		out[i] = summarize(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"layouts": out})
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenderStored(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), doc.Layout, opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	setCacheHeader(w, hit)
	writeArtifact(w, opts.Formats[0], artifacts[opts.Formats[0]])
}

// =============================================================================
// Request Decoding
// =============================================================================

// readEvents decodes the request body as an event file whose encoding is
// chosen by Content-Type.
func (s *Server) readEvents(w http.ResponseWriter, r *http.Request) ([]event.Event, error) {
	format, err := bodyFormat(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	return pkgio.ReadEvents(body, format)
}

func bodyFormat(contentType string) (pkgio.Format, error) {
	if contentType == "" {
		return pkgio.FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "content type %q", contentType)
	}
	switch mediaType {
	case "application/json", "text/json":
		return pkgio.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return pkgio.FormatYAML, nil
	case "application/toml", "text/toml":
		return pkgio.FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported content type %q (want JSON, YAML or TOML)", mediaType)
	}
}

// options builds pipeline options from the server defaults and the query.
func (s *Server) options(q url.Values) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	opts.Formats = slices.Clone(opts.Formats)
	opts.Logger = s.logger

	if f := q.Get("format"); f != "" {
		format, err := sink.ParseFormat(f)
		if err != nil {
			return opts, err
		}
		opts.Formats = []string{string(format)}
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.DefaultFormat}
	}
	opts.Formats = opts.Formats[:1]

	for key, dst := range map[string]*string{"title": &opts.Title, "unit": &opts.Unit, "origin": &opts.Origin} {
		if v := q.Get(key); v != "" {
			*dst = v
		}
	}
	for key, dst := range map[string]*float64{"span": &opts.Span, "width": &opts.FrameWidth, "ppu": &opts.PixelsPerUnit, "scale": &opts.Scale} {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a number", key)
			}
			*dst = f
		}
	}
	if v := q.Get("columns"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "columns must be an integer")
		}
		opts.Columns = n
	}
	for key, dst := range map[string]*bool{"verify": &opts.Verify, "document": &opts.Document} {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean", key)
			}
			*dst = b
		}
	}

	if err := opts.ValidateForRender(); err != nil {
		return opts, err
	}
	return opts, nil
}

// =============================================================================
// Response Helpers
// =============================================================================

func (s *Server) writeLayout(w http.ResponseWriter, status int, l schedule.Layout, hit bool) {
	data, err := schedule.MarshalLayout(l)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	setCacheHeader(w, hit)
	writeBytes(w, status, "application/json; charset=utf-8", append(data, '\n'))
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	writeBytes(w, http.StatusOK, sink.Format(format).ContentType(), data)
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}
