package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/dayview/pkg/cache"
	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/observability"
)

const (
	fetchTimeout = 15 * time.Second
	maxFeedBytes = 10 << 20
)

// Fetcher downloads iCalendar feeds through a cache.
type Fetcher struct {
	http  *http.Client
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewFetcher returns a Fetcher backed by c. A nil cache disables caching and a
// nil keyer uses [cache.DefaultKeyer].
func NewFetcher(c cache.Cache, keyer cache.Keyer) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Fetcher{
		http:  &http.Client{Timeout: fetchTimeout},
		cache: c,
		keyer: keyer,
		ttl:   cache.TTLFeed,
	}
}

// WithHTTPClient replaces the HTTP client.
func (f *Fetcher) WithHTTPClient(c *http.Client) *Fetcher {
	f.http = c
	return f
}

// WithTTL sets how long fetched feeds stay cached.
func (f *Fetcher) WithTTL(ttl time.Duration) *Fetcher {
	f.ttl = ttl
	return f
}

// Fetch returns the feed body and whether it came from the cache.
// refresh bypasses the cached copy but still stores the fresh one.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, refresh bool) ([]byte, bool, error) {
	url := NormalizeURL(rawURL)
	if err := errors.ValidateURL(url); err != nil {
		return nil, false, err
	}

	key := f.keyer.FeedKey(url)
	if !refresh {
		if data, ok, _ := f.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "feed")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "feed")
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		b, err := f.get(ctx, url)
		body = b
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if err := f.cache.Set(ctx, key, body, f.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "feed", len(body))
	}
	return body, false, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	if len(body) > maxFeedBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "feed exceeds %d bytes", maxFeedBytes)
	}
	return body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, cache.ErrNotFound, "feed not found")
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

// NormalizeURL rewrites webcal:// and webcals:// to https://.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, scheme := range []string{"webcals://", "webcal://"} {
		if len(raw) >= len(scheme) && strings.EqualFold(raw[:len(scheme)], scheme) {
			return "https://" + raw[len(scheme):]
		}
	}
	return raw
}
