package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

type failingSource struct{}

func (failingSource) Challenges(ctx context.Context) ([]models.Challenge, error) {
	return nil, errors.New("backend unreachable")
}

func TestDefaultLoader(t *testing.T) {
	l, err := DefaultLoader()
	require.NoError(t, err)

	list := l.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "1", list[0].ID)

	stoic := l.Get("12")
	require.NotNil(t, stoic)
	assert.True(t, stoic.IsPaid())
	assert.Equal(t, 49, stoic.Price)

	free := l.Get("2")
	require.NotNil(t, free)
	assert.False(t, free.IsPaid())
	assert.Equal(t, models.ChallengeSkill, free.Type)
	for _, task := range free.Tasks {
		assert.Equal(t, "pending", task.Status)
	}
}

func TestLoadFromFileSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := []byte(`challenges:
  - id: a
    title: First
  - title: No id
  - id: b
    title: Second
    type: skill
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	l := NewLoader()
	require.NoError(t, l.LoadFromFile(path))

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, models.ChallengeEssay, list[0].Type)
	assert.Equal(t, models.ChallengeSkill, list[1].Type)
}

func TestLoadMergesSeedAndStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	seed := NewLoader()
	seed.Add(&models.Challenge{ID: "1", Title: "Seed one"})
	seed.Add(&models.Challenge{ID: "2", Title: "Seed two"})

	require.NoError(t, store.Put(ctx, storage.CollectionChallenges, "2", models.Challenge{ID: "2", Title: "Stored two"}))
	require.NoError(t, store.Put(ctx, storage.CollectionChallenges, "x", models.Challenge{Title: "Stored x"}))
	require.NoError(t, store.Put(ctx, storage.CollectionChallenges, "y", models.Challenge{ID: "y", Title: "Stored y"}))

	c := New(seed, NewStoreSource(store))
	list := c.Load(ctx)

	ids := make([]string, len(list))
	for i, ch := range list {
		ids[i] = ch.ID
	}
	assert.Equal(t, []string{"1", "2", "x", "y"}, ids)
	assert.Equal(t, "Seed two", list[1].Title)

	got, err := c.Get(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, "Stored y", got.Title)
}

func TestLoadFallsBackToSeed(t *testing.T) {
	seed := NewLoader()
	seed.Add(&models.Challenge{ID: "1", Title: "Seed one"})

	c := New(seed, failingSource{})
	list := c.Load(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
}

func TestGetUnknown(t *testing.T) {
	c := New(NewLoader(), nil)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
