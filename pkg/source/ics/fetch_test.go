package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/dayview/pkg/cache"
	"github.com/matzehuels/dayview/pkg/errors"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"webcal://example.com/a.ics", "https://example.com/a.ics"},
		{"WEBCAL://example.com/a.ics", "https://example.com/a.ics"},
		{"webcals://example.com/a.ics", "https://example.com/a.ics"},
		{" https://example.com/a.ics ", "https://example.com/a.ics"},
		{"http://example.com/a.ics", "http://example.com/a.ics"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFetcherCachesFeed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c, nil).WithHTTPClient(srv.Client())
	ctx := context.Background()

	body, cached, err := f.Fetch(ctx, srv.URL+"/team.ics", false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if cached || len(body) == 0 {
		t.Errorf("first fetch: cached=%v len=%d", cached, len(body))
	}

	_, cached, err = f.Fetch(ctx, srv.URL+"/team.ics", false)
	if err != nil || !cached {
		t.Errorf("second fetch: cached=%v err=%v", cached, err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}

	_, cached, err = f.Fetch(ctx, srv.URL+"/team.ics", true)
	if err != nil || cached {
		t.Errorf("refresh fetch: cached=%v err=%v", cached, err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits after refresh = %d, want 2", hits.Load())
	}
}

func TestFetcherNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(nil, nil).WithHTTPClient(srv.Client())
	_, _, err := f.Fetch(context.Background(), srv.URL+"/missing.ics", false)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestFetcherRejectsBadScheme(t *testing.T) {
	f := NewFetcher(nil, nil)
	_, _, err := f.Fetch(context.Background(), "ftp://example.com/a.ics", false)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
