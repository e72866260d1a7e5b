// Package file provides a catalog.Provider backed by a JSON document on
// disk.  It is the default catalog source for development and the CLI; larger
// deployments use the PostgreSQL store.
package file

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// Provider serves catalog snapshots from a JSON file.  File order is the
// stable catalog order.  Safe for concurrent use; Reload swaps the snapshot
// atomically.
type Provider struct {
	path   string
	logger logging.Logger

	mu       sync.RWMutex
	entries  []catalog.Entry
	loadedAt time.Time
}

// NewProvider loads the catalog file and validates every entry.  A file that
// fails to parse or contains an invalid entry is rejected outright rather
// than partially loaded.
func NewProvider(path string, log logging.Logger) (*Provider, error) {
	p := &Provider{path: path, logger: log.Named("catalog.file")}
	if err := p.Reload(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the catalog file.  On failure the previous snapshot is
// kept.
func (p *Provider) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCancelled, "catalog access interrupted")
	}

	raw, err := os.ReadFile(p.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCatalogProvider, "failed to read catalog file").
			WithDetail("path=" + p.path)
	}

	var entries []catalog.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return errors.Wrap(err, errors.ErrCodeCatalogProvider, "failed to parse catalog file").
			WithDetail("path=" + p.path)
	}

	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[entries[i].ID]; dup {
			return errors.New(errors.ErrCodeValidation, "duplicate catalog entry id").
				WithDetail("id=" + entries[i].ID)
		}
		seen[entries[i].ID] = struct{}{}
	}

	p.mu.Lock()
	p.entries = entries
	p.loadedAt = time.Now()
	p.mu.Unlock()

	p.logger.Info("Catalog file loaded",
		logging.String("path", p.path),
		logging.Int("entries", len(entries)),
	)
	return nil
}

// Snapshot returns a copy of the catalog in file order.
func (p *Provider) Snapshot(ctx context.Context) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCancelled, "catalog access interrupted")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]catalog.Entry, len(p.entries))
	copy(out, p.entries)
	return out, nil
}

// Get returns a single entry by id.
func (p *Provider) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCancelled, "catalog access interrupted")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := range p.entries {
		if p.entries[i].ID == id {
			e := p.entries[i]
			return &e, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "catalog entry not found").WithDetail("id=" + id)
}

// Search lists entries matching the filter, in file order.
func (p *Provider) Search(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCancelled, "catalog access interrupted")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []catalog.Entry
	for i := range p.entries {
		if f.Matches(&p.entries[i]) {
			out = append(out, p.entries[i])
		}
	}
	return out, nil
}

// LoadedAt reports when the current snapshot was read.
func (p *Provider) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedAt
}
