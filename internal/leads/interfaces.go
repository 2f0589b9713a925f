package leads

import (
	"context"
	"io"
	"time"
)

// SearchResult is one raw item returned by the search capability.
type SearchResult struct {
	URL     string
	Title   string
	Snippet string
}

// SearchResponse carries the parsed items plus the raw response body
// for optional archival.
type SearchResponse struct {
	Results []SearchResult
	Raw     []byte
}

// Searcher issues a single query against the external search capability.
type Searcher interface {
	Search(ctx context.Context, query string) (SearchResponse, error)
}

// Store persists leads keyed by id.
type Store interface {
	// Put conditionally inserts the lead. It reports true when a new
	// row was written and false when the id was already present.
	Put(ctx context.Context, lead Lead) (bool, error)
	// Get returns the lead for an id, or ok=false when absent.
	Get(ctx context.Context, id string) (Lead, bool, error)
	Close()
}

// Notifier delivers the human-readable run report. Delivery is
// fire-and-forget: errors are logged by the caller and never change
// the run outcome.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Publisher emits the machine-readable run summary to an event bus.
// Same fire-and-forget contract as Notifier.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
}

// BlobStore archives raw search responses and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Hasher computes digests for lead id derivation.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (swappable for tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run ids.
type IDGenerator interface {
	NewID() (string, error)
}
