// Package cache stores computed layouts, rendered artifacts and fetched
// calendar feeds behind a small byte-oriented interface.
//
// Three backends ship with the package: [FileCache] for the CLI,
// [RedisCache] for the HTTP server when several instances share state, and
// [NullCache] when caching is disabled. Keys are produced by a [Keyer] so
// that the backends never need to understand what they store.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind.
const (
	// TTLLayout applies to computed layouts. Layouts are pure functions of
	// their input, so the TTL only bounds disk usage.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered output (HTML, SVG, PNG, PDF).
	TTLArtifact = 7 * 24 * time.Hour

	// TTLFeed applies to downloaded iCalendar feeds.
	TTLFeed = 15 * time.Minute
)

// Cache is a key/value store for opaque byte payloads.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
