package project

import (
	"context"
	"io"
	"time"
)

// Store is the tabular data service holding project rows.
type Store interface {
	Fetch(ctx context.Context, query FetchQuery) ([]Project, error)
	Insert(ctx context.Context, p Project) error
	Close() error
}

// BlobStore writes export artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes domain events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher digests export bodies so readers can verify a snapshot.
type Hasher interface {
	Hash(data []byte) (string, error)
}
