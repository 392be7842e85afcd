package feed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

//go:embed seed/essays.yaml
var defaultSeed []byte

type seedFile struct {
	Essays []models.Submission `yaml:"essays"`
}

// DefaultSeed returns the built-in community essays
func DefaultSeed() ([]models.Submission, error) {
	var sf seedFile
	if err := yaml.Unmarshal(defaultSeed, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed essays: %w", err)
	}

	for i := range sf.Essays {
		e := &sf.Essays[i]
		e.Status = models.SubmissionPublished
		e.ValidatedByPartner = true
		e.IsPublic = true
		if e.PublishedAt != nil {
			e.CreatedAt = *e.PublishedAt
			e.UpdatedAt = *e.PublishedAt
			e.ApprovedAt = e.PublishedAt
		}
		e.Versions = []models.Version{{Content: e.Content, SavedAt: e.CreatedAt}}
	}
	return sf.Essays, nil
}

// EnsureSeeded writes the seed essays that are not stored yet.
// Stored copies are left alone so their counters survive restarts.
func (f *Feed) EnsureSeeded(ctx context.Context, essays []models.Submission) error {
	added := 0
	err := f.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		added = 0
		for _, e := range essays {
			found, err := tx.Get(ctx, storage.CollectionEssays, e.ID, &models.Submission{})
			if err != nil {
				return err
			}
			if found {
				continue
			}
			if err := tx.Put(ctx, storage.CollectionEssays, e.ID, e); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed feed: %w", err)
	}

	slog.Info("feed seeded", "added", added, "total", len(essays))
	return nil
}
