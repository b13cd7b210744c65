// Package store keeps computed day layouts so they can be fetched, listed and
// re-rendered later.
//
// Three backends implement [Store]:
//   - [MemoryStore]: process-local, for tests and single-instance servers
//   - [FileStore]: one JSON file per document, for the CLI
//   - [MongoStore]: a MongoDB collection, for shared deployments
//
// Documents are identified by random UUIDs assigned on [Store.Save].
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/schedule"
)

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 50

// Document is a stored layout.
type Document struct {
	ID         string          `json:"id" bson:"_id"`
	Name       string          `json:"name,omitempty" bson:"name,omitempty"`
	EventsHash string          `json:"events_hash,omitempty" bson:"events_hash,omitempty"`
	Layout     schedule.Layout `json:"layout" bson:"layout"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at"`

	// ExpiresAt is zero for documents that never expire.
	ExpiresAt time.Time `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
}

// IsExpired reports whether the document has passed its expiry time.
func (d *Document) IsExpired() bool {
	return !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt)
}

// Store is the interface for layout document backends.
type Store interface {
	// Save assigns an ID and creation time when they are empty, then stores doc.
	Save(ctx context.Context, doc *Document) error

	// Get returns the document with id, or a LAYOUT_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns up to limit documents, newest first.
	List(ctx context.Context, limit int) ([]Document, error)

	// Delete removes the document with id, or returns LAYOUT_NOT_FOUND.
	Delete(ctx context.Context, id string) error

	Close() error
}

// prepare fills the generated fields of doc.
func prepare(doc *Document, ttl time.Duration) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if ttl > 0 && doc.ExpiresAt.IsZero() {
		doc.ExpiresAt = doc.CreatedAt.Add(ttl)
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
