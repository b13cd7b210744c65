package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/pipeline"
	"github.com/matzehuels/dayview/pkg/schedule"
	"github.com/matzehuels/dayview/pkg/store"
)

const eventsBody = `[
	{"id": "a", "start": 0, "end": 120, "title": "Planning"},
	{"id": "b", "start": 30, "end": 90},
	{"id": "c", "start": 200, "end": 260},
	{"id": "bad", "start": 50, "end": 10}
]`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := New(cfg, pipeline.NewRunner(nil, nil, logger), store.NewMemoryStore(), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("error body is not JSON: %s", data)
	}
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{Username: "u", Password: "p"})
	resp, data := do(t, http.MethodGet, ts.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"status": "ok"`) {
		t.Errorf("body = %s", data)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t, Config{})
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want abc-123", got)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/layout?title=Monday", "application/json", eventsBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	l, err := schedule.UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("response is not a layout: %v", err)
	}
	if l.Title != "Monday" || l.Blocks != 2 || len(l.Placements) != 3 || len(l.Rejected) != 1 {
		t.Errorf("layout = %+v", l)
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("X-Cache = %q", resp.Header.Get("X-Cache"))
	}
}

func TestLayoutEndpointYAMLAndTOML(t *testing.T) {
	ts := newTestServer(t, Config{})

	yamlBody := "events:\n  - {id: a, start: 0, end: 30}\n  - {id: b, start: 10, end: 40}\n"
	resp, data := do(t, http.MethodPost, ts.URL+"/v1/layout", "application/yaml", yamlBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("yaml status = %d: %s", resp.StatusCode, data)
	}
	if l, _ := schedule.UnmarshalLayout(data); len(l.Placements) != 2 || l.Placements[1].Offset != 50 {
		t.Errorf("yaml layout = %s", data)
	}

	tomlBody := "[[events]]\nid = \"a\"\nstart = 0\nend = 30\n"
	resp, data = do(t, http.MethodPost, ts.URL+"/v1/layout", "application/toml; charset=utf-8", tomlBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toml status = %d: %s", resp.StatusCode, data)
	}
}

func TestLayoutEndpointErrors(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
		status      int
		code        errors.Code
	}{
		{"malformed json", "/v1/layout", "application/json", `[{"start": 1`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unsupported content type", "/v1/layout", "text/csv", "a,b", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad span", "/v1/layout?span=wide", "application/json", "[]", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad origin", "/v1/layout?origin=noon", "application/json", "[]", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown format", "/v1/render?format=gif", "application/json", "[]", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown route", "/v2/nothing", "", "", http.StatusNotFound, errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.body == "" {
				method = http.MethodGet
			}
			resp, data := do(t, method, ts.URL+tt.url, tt.contentType, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, data)
			}
			if e := decodeError(t, data); e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestRenderEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/render", "", eventsBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("default format content type = %q", ct)
	}
	if strings.Count(string(data), `<div class="event"`) != 3 {
		t.Errorf("html body:\n%s", data)
	}

	resp, data = do(t, http.MethodPost, ts.URL+"/v1/render?format=svg&width=400", "", eventsBody)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("svg: status=%d type=%q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(data), `width="480"`) { // 400 plus axis gutter and padding
		t.Errorf("svg should honor width: %.200s", data)
	}
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t, Config{Username: "admin", Password: "secret"})

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/layout", "", "[]")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
	if e := decodeError(t, data); e.Code != errors.ErrCodeUnauthorized {
		t.Errorf("code = %s", e.Code)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/layout", strings.NewReader("[]"))
	req.SetBasicAuth("admin", "secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d", authed.StatusCode)
	}
}

func TestStoredLayouts(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, data := do(t, http.MethodPost, ts.URL+"/v1/layouts?name=monday", "", eventsBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" || doc.Name != "monday" || doc.EventsHash == "" || doc.Layout.Blocks != 2 {
		t.Errorf("created document = %+v", doc)
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/layouts/"+doc.ID {
		t.Errorf("Location = %q", loc)
	}

	resp, data = do(t, http.MethodGet, ts.URL+"/v1/layouts", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list struct {
		Layouts []layoutSummary `json:"layouts"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Layouts) != 1 || list.Layouts[0].ID != doc.ID || list.Layouts[0].Placements != 3 || list.Layouts[0].Rejected != 1 {
		t.Errorf("list = %+v", list.Layouts)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/layouts/"+doc.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get status = %d", resp.StatusCode)
	}

	resp, data = do(t, http.MethodGet, ts.URL+"/v1/layouts/"+doc.ID+"/render?format=txt&columns=50", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "Planning") {
		t.Errorf("render stored: status=%d body:\n%s", resp.StatusCode, data)
	}

	resp, _ = do(t, http.MethodDelete, ts.URL+"/v1/layouts/"+doc.ID, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp, data = do(t, http.MethodGet, ts.URL+"/v1/layouts/"+doc.ID, "", "")
	if resp.StatusCode != http.StatusNotFound || decodeError(t, data).Code != errors.ErrCodeLayoutNotFound {
		t.Errorf("get deleted: status=%d body=%s", resp.StatusCode, data)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/layouts/not-a-uuid", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/v1/layouts?limit=-1", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", resp.StatusCode)
	}
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 16})
	resp, _ := do(t, http.MethodPost, ts.URL+"/v1/layout", "", eventsBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized body status = %d, want 400", resp.StatusCode)
	}
}

func TestBodyFormat(t *testing.T) {
	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{"", false},
		{"application/json", false},
		{"application/json; charset=utf-8", false},
		{"application/x-yaml", false},
		{"text/toml", false},
		{"text/plain", true},
		{";;", true},
	}
	for _, tt := range tests {
		if _, err := bodyFormat(tt.contentType); (err != nil) != tt.wantErr {
			t.Errorf("bodyFormat(%q) error = %v, wantErr %v", tt.contentType, err, tt.wantErr)
		}
	}
}
