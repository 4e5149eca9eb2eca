package knowncache

import (
	"context"
	"fmt"
	"log/slog"

	"structmeta/internal/compound"
	"structmeta/internal/logging"
)

// Loader reads the stored identifiers. A missing store yields an empty
// slice and a nil error.
type Loader func(ctx context.Context) ([]compound.Identifier, error)

// Cache is the set of identifiers resolved by earlier runs.
type Cache struct {
	known map[compound.Identifier]struct{}
}

// Load builds the cache from one call to loader. Any loader error is
// returned; skipping the cache would resolve stored identifiers again.
func Load(ctx context.Context, loader Loader, logger *slog.Logger) (*Cache, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "knowncache"))
	c := &Cache{known: make(map[compound.Identifier]struct{})}
	if loader == nil {
		return c, nil
	}
	ids, err := loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known identifiers: %w", err)
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		c.known[id] = struct{}{}
	}
	logger.Debug("known identifiers loaded", logging.Int("count", len(c.known)))
	return c, nil
}

// New returns a cache seeded with ids.
func New(ids ...compound.Identifier) *Cache {
	c := &Cache{known: make(map[compound.Identifier]struct{}, len(ids))}
	for _, id := range ids {
		c.known[id] = struct{}{}
	}
	return c
}

// Known reports whether id was resolved by an earlier run. A nil cache
// knows nothing.
func (c *Cache) Known(id compound.Identifier) bool {
	if c == nil {
		return false
	}
	_, ok := c.known[id]
	return ok
}

// Count returns the number of known identifiers.
func (c *Cache) Count() int {
	if c == nil {
		return 0
	}
	return len(c.known)
}
