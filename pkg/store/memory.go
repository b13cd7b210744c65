package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/dayview/pkg/errors"
)

// MemoryStore keeps documents in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
	ttl  time.Duration
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// WithTTL makes newly saved documents expire after ttl.
func (s *MemoryStore) WithTTL(ttl time.Duration) *MemoryStore {
	s.ttl = ttl
	return s
}

func (s *MemoryStore) Save(ctx context.Context, doc *Document) error {
	if doc.ID != "" {
		if err := errors.ValidateLayoutID(doc.ID); err != nil {
			return err
		}
	}
	prepare(doc, s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = *doc
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	if err := errors.ValidateLayoutID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	if doc.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, notFound(id)
	}
	return &doc, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Document, error) {
	s.mu.RLock()
	out := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		if !d.IsExpired() {
			out = append(out, d)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return notFound(id)
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// sortNewestFirst orders by creation time descending, then by ID.
func sortNewestFirst(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

var _ Store = (*MemoryStore)(nil)
