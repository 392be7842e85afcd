package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

// ErrChallengeNotFound is returned by Get for unknown ids
var ErrChallengeNotFound = fmt.Errorf("challenge %w", models.ErrNotFound)

// Source provides challenges maintained outside the seed list
type Source interface {
	Challenges(ctx context.Context) ([]models.Challenge, error)
}

// StoreSource reads challenges from the challenges collection
type StoreSource struct {
	store storage.Store
}

// NewStoreSource creates a source over the document store
func NewStoreSource(store storage.Store) *StoreSource {
	return &StoreSource{store: store}
}

// Challenges returns the stored challenges in store order
func (s *StoreSource) Challenges(ctx context.Context) ([]models.Challenge, error) {
	docs, err := s.store.Query(ctx, storage.CollectionChallenges, storage.Query{})
	if err != nil {
		return nil, err
	}

	result := make([]models.Challenge, 0, len(docs))
	for _, doc := range docs {
		var c models.Challenge
		if err := doc.Decode(&c); err != nil {
			slog.Warn("skipping malformed challenge", "id", doc.ID, "error", err)
			continue
		}
		if c.ID == "" {
			c.ID = doc.ID
		}
		applyDefaults(&c)
		result = append(result, c)
	}
	return result, nil
}

// Catalog combines the seed list with an external source
type Catalog struct {
	seed   *Loader
	source Source
}

// New creates a catalog. source may be nil, in which case only the seed is served.
func New(seed *Loader, source Source) *Catalog {
	return &Catalog{seed: seed, source: source}
}

// Load returns the seed challenges followed by the external ones whose ids
// the seed does not already use. When the external source fails the seed
// list is returned alone.
func (c *Catalog) Load(ctx context.Context) []models.Challenge {
	seed := c.seed.List()
	result := make([]models.Challenge, 0, len(seed))
	seen := make(map[string]bool, len(seed))
	for _, ch := range seed {
		result = append(result, *ch)
		seen[ch.ID] = true
	}

	if c.source == nil {
		return result
	}

	external, err := c.source.Challenges(ctx)
	if err != nil {
		slog.Warn("external challenges unavailable, serving seed only", "error", err)
		return result
	}

	for _, ch := range external {
		if seen[ch.ID] {
			continue
		}
		seen[ch.ID] = true
		result = append(result, ch)
	}
	return result
}

// Get returns the challenge with the given id from the merged list
func (c *Catalog) Get(ctx context.Context, id string) (*models.Challenge, error) {
	if ch := c.seed.Get(id); ch != nil {
		cp := *ch
		return &cp, nil
	}

	for _, ch := range c.Load(ctx) {
		if ch.ID == id {
			return &ch, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrChallengeNotFound)
}
