package feed

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

// ErrEmptyComment is returned for blank comments
var ErrEmptyComment = errors.New("comment text is empty")

// Item is one public submission as shown in the feed
type Item = models.Submission

// commentList is the document kept per submission in the comments collection
type commentList struct {
	SubmissionID string           `json:"submissionId"`
	Comments     []models.Comment `json:"comments"`
}

// Feed is the public listing of shared submissions
type Feed struct {
	store storage.Store
	now   func() time.Time
}

// New creates a feed over the document store
func New(store storage.Store) *Feed {
	return &Feed{store: store, now: time.Now}
}

// All yields the public submissions, newest first with ties broken by id.
// Nothing is read until iteration starts and every iteration reads afresh.
func (f *Feed) All(ctx context.Context) iter.Seq2[*Item, error] {
	return func(yield func(*Item, error) bool) {
		docs, err := f.store.Query(ctx, storage.CollectionEssays, storage.Query{
			Where: []storage.Filter{{Field: "isPublic", Value: true}},
		})
		if err != nil {
			yield(nil, err)
			return
		}

		items := make([]*Item, 0, len(docs))
		for _, doc := range docs {
			var item Item
			if err := doc.Decode(&item); err != nil {
				if !yield(nil, fmt.Errorf("failed to decode submission %s: %w", doc.ID, err)) {
					return
				}
				continue
			}
			items = append(items, &item)
		}
		slices.SortStableFunc(items, compareItems)

		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// ListPublic collects All into a slice
func (f *Feed) ListPublic(ctx context.Context) ([]*Item, error) {
	var items []*Item
	for item, err := range f.All(ctx) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Like toggles the principal's like on a public submission and
// reports whether it is liked afterwards together with the new count
func (f *Feed) Like(ctx context.Context, principal *models.Principal, id string) (bool, int, error) {
	if principal == nil {
		return false, 0, models.ErrNotAuthenticated
	}

	var (
		liked bool
		likes int
	)
	err := f.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		item, err := getPublic(ctx, tx, id)
		if err != nil {
			return err
		}

		var profile models.Profile
		if _, err := tx.Get(ctx, storage.CollectionUsers, principal.UID, &profile); err != nil {
			return err
		}

		set := profile.LikedSubmissions
		delta := 1
		if i := slices.Index(set, id); i >= 0 {
			set = slices.Delete(set, i, i+1)
			delta = -1
		} else {
			set = append(set, id)
		}
		if set == nil {
			set = []string{}
		}

		liked = delta > 0
		likes = max(0, item.Likes+delta)
		if err := tx.Update(ctx, storage.CollectionUsers, principal.UID, map[string]any{
			"likedSubmissions": set,
		}, true); err != nil {
			return err
		}
		return tx.Update(ctx, storage.CollectionEssays, id, map[string]any{"likes": likes}, false)
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}

// Comment appends a comment to a public submission
func (f *Feed) Comment(ctx context.Context, principal *models.Principal, id, text string) (*models.Comment, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	comment := models.Comment{
		ID:       uuid.NewString(),
		AuthorID: principal.UID,
		Author:   cmp.Or(principal.Name, "Anonymous"),
		Text:     text,
		PostedAt: f.now().UTC(),
	}

	err := f.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		item, err := getPublic(ctx, tx, id)
		if err != nil {
			return err
		}

		list := commentList{SubmissionID: id}
		if _, err := tx.Get(ctx, storage.CollectionComments, id, &list); err != nil {
			return err
		}
		list.Comments = append(list.Comments, comment)
		if err := tx.Put(ctx, storage.CollectionComments, id, list); err != nil {
			return err
		}
		return tx.Update(ctx, storage.CollectionEssays, id, map[string]any{
			"commentCount": item.CommentCount + 1,
		}, false)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments returns the comments of a public submission, oldest first
func (f *Feed) Comments(ctx context.Context, id string) ([]models.Comment, error) {
	if _, err := getPublic(ctx, f.store, id); err != nil {
		return nil, err
	}

	var list commentList
	if _, err := f.store.Get(ctx, storage.CollectionComments, id, &list); err != nil {
		return nil, err
	}
	if list.Comments == nil {
		return []models.Comment{}, nil
	}
	return list.Comments, nil
}

// View returns a public submission and counts the view
func (f *Feed) View(ctx context.Context, id string) (*Item, error) {
	var item *Item
	err := f.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		var err error
		item, err = getPublic(ctx, tx, id)
		if err != nil {
			return err
		}
		item.Views++
		return tx.Update(ctx, storage.CollectionEssays, id, map[string]any{"views": item.Views}, false)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func getPublic(ctx context.Context, store storage.Store, id string) (*Item, error) {
	var item Item
	found, err := store.Get(ctx, storage.CollectionEssays, id, &item)
	if err != nil {
		return nil, err
	}
	if !found || !item.IsPublic {
		return nil, fmt.Errorf("feed item %s: %w", id, models.ErrNotFound)
	}
	return &item, nil
}

func compareItems(a, b *Item) int {
	at, bt := publishedAt(a), publishedAt(b)
	if c := bt.Compare(at); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func publishedAt(item *Item) time.Time {
	if item.PublishedAt != nil {
		return *item.PublishedAt
	}
	return item.CreatedAt
}
