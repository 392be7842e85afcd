package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

var ada = &models.Principal{UID: "u1", Name: "Ada"}

func newSeededFeed(t *testing.T) (*Feed, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	f := New(store)
	essays, err := DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, f.EnsureSeeded(context.Background(), essays))
	return f, store
}

func ids(items []*Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestDefaultSeed(t *testing.T) {
	essays, err := DefaultSeed()
	require.NoError(t, err)
	require.Len(t, essays, 3)

	first := essays[0]
	assert.Equal(t, "Finding Stoicism in the Subway", first.Title)
	assert.Equal(t, 142, first.Likes)
	assert.Equal(t, 28, first.CommentCount)
	assert.Equal(t, 1834, first.Views)
	assert.Equal(t, 8, first.ReadTimeMinutes)
	assert.True(t, first.IsPublic)
	assert.True(t, first.ValidatedByPartner)
	require.NotNil(t, first.PublishedAt)
}

func TestEnsureSeededKeepsStoredCounters(t *testing.T) {
	ctx := context.Background()
	f, _ := newSeededFeed(t)

	_, err := f.View(ctx, "seed-1")
	require.NoError(t, err)

	essays, err := DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, f.EnsureSeeded(ctx, essays))

	item, err := f.View(ctx, "seed-1")
	require.NoError(t, err)
	assert.Equal(t, 1836, item.Views)
}

func TestAllOrdersByPublishedAt(t *testing.T) {
	ctx := context.Background()
	f, store := newSeededFeed(t)

	published := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"b", "a"} {
		require.NoError(t, store.Put(ctx, storage.CollectionEssays, id, models.Submission{
			ID: id, Title: id, IsPublic: true, ValidatedByPartner: true,
			Status: models.SubmissionPublished, PublishedAt: &published,
		}))
	}
	require.NoError(t, store.Put(ctx, storage.CollectionEssays, "private", models.Submission{
		ID: "private", Title: "hidden", Status: models.SubmissionApproved,
	}))

	items, err := f.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "seed-1", "seed-2", "seed-3"}, ids(items))
}

func TestAllIsRestartable(t *testing.T) {
	ctx := context.Background()
	f, store := newSeededFeed(t)
	seq := f.All(ctx)

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)

	published := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, storage.CollectionEssays, "new", models.Submission{
		ID: "new", IsPublic: true, PublishedAt: &published,
	}))

	var all []string
	for item, err := range seq {
		require.NoError(t, err)
		all = append(all, item.ID)
	}
	assert.Equal(t, []string{"new", "seed-1", "seed-2", "seed-3"}, all)
}

func TestLikeToggles(t *testing.T) {
	ctx := context.Background()
	f, store := newSeededFeed(t)

	_, _, err := f.Like(ctx, nil, "seed-2")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	liked, likes, err := f.Like(ctx, ada, "seed-2")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 90, likes)

	var profile models.Profile
	_, err = store.Get(ctx, storage.CollectionUsers, "u1", &profile)
	require.NoError(t, err)
	assert.Equal(t, []string{"seed-2"}, profile.LikedSubmissions)

	liked, likes, err = f.Like(ctx, ada, "seed-2")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 89, likes)

	profile = models.Profile{}
	_, err = store.Get(ctx, storage.CollectionUsers, "u1", &profile)
	require.NoError(t, err)
	assert.Empty(t, profile.LikedSubmissions)

	_, _, err = f.Like(ctx, ada, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLikeNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	f, store := newSeededFeed(t)

	require.NoError(t, store.Put(ctx, storage.CollectionEssays, "z", models.Submission{ID: "z", IsPublic: true}))
	require.NoError(t, store.Update(ctx, storage.CollectionUsers, "u1", map[string]any{
		"likedSubmissions": []string{"z"},
	}, true))

	liked, likes, err := f.Like(ctx, ada, "z")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)
}

func TestComment(t *testing.T) {
	ctx := context.Background()
	f, _ := newSeededFeed(t)

	_, err := f.Comment(ctx, ada, "seed-3", "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	c, err := f.Comment(ctx, ada, "seed-3", "Beautiful piece")
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Author)
	_, err = f.Comment(ctx, ada, "seed-3", "Read it twice")
	require.NoError(t, err)

	comments, err := f.Comments(ctx, "seed-3")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Beautiful piece", comments[0].Text)
	assert.Equal(t, "Read it twice", comments[1].Text)

	item, err := f.View(ctx, "seed-3")
	require.NoError(t, err)
	assert.Equal(t, 43, item.CommentCount)

	empty, err := f.Comments(ctx, "seed-1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.Comment(ctx, ada, "missing", "hello")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestViewCountsAndHidesPrivate(t *testing.T) {
	ctx := context.Background()
	f, store := newSeededFeed(t)

	item, err := f.View(ctx, "seed-2")
	require.NoError(t, err)
	assert.Equal(t, 1204, item.Views)

	require.NoError(t, store.Put(ctx, storage.CollectionEssays, "draft", models.Submission{ID: "draft"}))
	_, err = f.View(ctx, "draft")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
