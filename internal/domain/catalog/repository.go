package catalog

import "context"

// Provider serves the reference catalog to the matching engine.  Snapshot
// order is the catalog's stable order; the engine relies on it to break score
// ties deterministically.  Implementations must be safe for concurrent use.
type Provider interface {
	// Snapshot returns every entry, in stable catalog order.  Entries in
	// the returned slice must not be mutated by the caller.
	Snapshot(ctx context.Context) ([]Entry, error)

	// Get returns one entry by id, or an ErrCodeNotFound error.
	Get(ctx context.Context, id string) (*Entry, error)

	// Search returns the entries passing the filter, in catalog order.
	Search(ctx context.Context, filter Filter) ([]Entry, error)
}
