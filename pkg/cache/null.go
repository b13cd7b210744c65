package cache

import (
	"context"
	"time"
)

// NullCache never stores anything. The CLI uses it for --no-cache runs and
// for cache.backend "none", and [pipeline.NewRunner] falls back to it when
// given a nil cache, so every feed, layout and artifact lookup is a miss.
//
// [pipeline.NewRunner]: https://pkg.go.dev/github.com/matzehuels/dayview/pkg/pipeline#NewRunner
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
