package submission

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

// DefaultChallengeLabel names the challenge of a submission published without one
const DefaultChallengeLabel = "Your Challenge"

// Thread is the accountability conversation the workflow writes to
type Thread interface {
	// Notify appends a message from the user's partner
	Notify(ctx context.Context, uid, text string) (*models.Message, error)
	// Post appends a message from the user
	Post(ctx context.Context, uid, text string) (*models.Message, error)
}

// EnrollmentChecker tells whether a user joined a challenge
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, uid, challengeID string) (bool, error)
}

// ChallengeLookup resolves challenge ids
type ChallengeLookup interface {
	Get(ctx context.Context, id string) (*models.Challenge, error)
}

// PublishInput is what a user writes when publishing or drafting
type PublishInput struct {
	ChallengeID string `json:"challengeId"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// Service drives submissions through draft, review, approval and publication
type Service struct {
	store       storage.Store
	thread      Thread
	enrollments EnrollmentChecker
	challenges  ChallengeLookup
	policy      EditPolicy
	now         func() time.Time
}

// NewService creates a submission workflow service
func NewService(store storage.Store, thread Thread, enrollments EnrollmentChecker, challenges ChallengeLookup, policy EditPolicy) *Service {
	return &Service{
		store:       store,
		thread:      thread,
		enrollments: enrollments,
		challenges:  challenges,
		policy:      policy,
		now:         time.Now,
	}
}

// ReviewRequest is the partner notification sent when a submission enters review
func ReviewRequest(title string) string {
	return fmt.Sprintf("I'll review your essay \"%s\" and give you feedback!", title)
}

// Acknowledgement is the author's reply once the partner approved
func Acknowledgement(title string) string {
	return fmt.Sprintf("Thanks for the feedback! \"%s\" looks great.", title)
}

// Publish creates a submission and sends it straight to partner review
func (s *Service) Publish(ctx context.Context, principal *models.Principal, in PublishInput) (*models.Submission, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, models.ErrMissingFields
	}

	sub, err := s.create(ctx, principal, in, models.SubmissionDraft)
	if err != nil {
		return nil, err
	}
	if err := submitForReview(sub, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, storage.CollectionEssays, sub.ID, sub); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	slog.Info("submission sent for review", "submission_id", sub.ID, "author_id", principal.UID)
	s.requestReview(ctx, sub)
	return sub, nil
}

// SaveDraft stores a submission as a draft without asking for review
func (s *Service) SaveDraft(ctx context.Context, principal *models.Principal, in PublishInput) (*models.Submission, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.ErrMissingFields
	}

	sub, err := s.create(ctx, principal, in, models.SubmissionDraft)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, storage.CollectionEssays, sub.ID, sub); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	return sub, nil
}

// Submit sends a draft to partner review
func (s *Service) Submit(ctx context.Context, principal *models.Principal, id string) (*models.Submission, error) {
	sub, err := s.transition(ctx, principal, id, func(sub *models.Submission, now time.Time) error {
		return submitForReview(sub, now)
	})
	if err != nil {
		return nil, err
	}
	s.requestReview(ctx, sub)
	return sub, nil
}

// Validate records the partner's approval of a submission under review
func (s *Service) Validate(ctx context.Context, principal *models.Principal, id, feedback string) (*models.Submission, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, models.ErrMissingFeedback
	}

	sub, err := s.transition(ctx, principal, id, func(sub *models.Submission, now time.Time) error {
		return approve(sub, feedback, now)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("submission approved", "submission_id", sub.ID)
	if _, err := s.thread.Post(ctx, principal.UID, Acknowledgement(sub.Title)); err != nil {
		slog.Warn("failed to post acknowledgement", "submission_id", sub.ID, "error", err)
	}
	return sub, nil
}

// SharePublicly publishes an approved submission to the community feed.
// The returned bool is false when the submission was already public.
func (s *Service) SharePublicly(ctx context.Context, principal *models.Principal, id string) (*models.Submission, bool, error) {
	if principal == nil {
		return nil, false, models.ErrNotAuthenticated
	}

	var (
		sub     models.Submission
		changed bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if err := s.load(ctx, tx, principal, id, &sub); err != nil {
			return err
		}

		var err error
		changed, err = share(&sub, s.now().UTC())
		if err != nil || !changed {
			return err
		}
		if err := tx.Put(ctx, storage.CollectionEssays, sub.ID, sub); err != nil {
			return err
		}

		var profile models.Profile
		if _, err := tx.Get(ctx, storage.CollectionUsers, principal.UID, &profile); err != nil {
			return err
		}
		if slices.Contains(profile.PublishedEssays, sub.ID) {
			return nil
		}
		return tx.Update(ctx, storage.CollectionUsers, principal.UID, map[string]any{
			"publishedEssays": append(profile.PublishedEssays, sub.ID),
		}, true)
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		slog.Info("submission shared", "submission_id", sub.ID, "author_id", principal.UID)
	}
	return &sub, changed, nil
}

// EditDraft replaces the content of an unpublished submission
func (s *Service) EditDraft(ctx context.Context, principal *models.Principal, id, content string) (*models.Submission, error) {
	return s.transition(ctx, principal, id, func(sub *models.Submission, now time.Time) error {
		return edit(sub, content, s.policy, now)
	})
}

// Get returns one of the principal's submissions
func (s *Service) Get(ctx context.Context, principal *models.Principal, id string) (*models.Submission, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	var sub models.Submission
	if err := s.load(ctx, s.store, principal, id, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByAuthor returns the principal's submissions, newest first
func (s *Service) ListByAuthor(ctx context.Context, principal *models.Principal) ([]models.Submission, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}

	docs, err := s.store.Query(ctx, storage.CollectionEssays, storage.Query{
		Where:   []storage.Filter{{Field: "authorId", Value: principal.UID}},
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.Submission, 0, len(docs))
	for _, doc := range docs {
		var sub models.Submission
		if err := doc.Decode(&sub); err != nil {
			return nil, fmt.Errorf("failed to decode submission %s: %w", doc.ID, err)
		}
		result = append(result, sub)
	}
	return result, nil
}

func (s *Service) create(ctx context.Context, principal *models.Principal, in PublishInput, status models.SubmissionStatus) (*models.Submission, error) {
	label := DefaultChallengeLabel
	if in.ChallengeID != "" {
		enrolled, err := s.enrollments.IsEnrolled(ctx, principal.UID, in.ChallengeID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, ErrNotEnrolled
		}
		challenge, err := s.challenges.Get(ctx, in.ChallengeID)
		if err != nil {
			return nil, err
		}
		label = challenge.Title
	}

	author := *principal
	if author.Name == "" {
		author.Name = "Anonymous"
	}

	sub := newSubmission(uuid.NewString(), &author, strings.TrimSpace(in.Title), in.Content, status, s.now().UTC())
	sub.ChallengeID = in.ChallengeID
	sub.Challenge = label
	return sub, nil
}

// transition loads the principal's submission, applies fn and stores the result atomically
func (s *Service) transition(ctx context.Context, principal *models.Principal, id string, fn func(*models.Submission, time.Time) error) (*models.Submission, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}

	var sub models.Submission
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if err := s.load(ctx, tx, principal, id, &sub); err != nil {
			return err
		}
		if err := fn(&sub, s.now().UTC()); err != nil {
			return err
		}
		return tx.Put(ctx, storage.CollectionEssays, sub.ID, sub)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// load reads a submission owned by principal; other users' submissions are reported as missing
func (s *Service) load(ctx context.Context, store storage.Store, principal *models.Principal, id string, dst *models.Submission) error {
	found, err := store.Get(ctx, storage.CollectionEssays, id, dst)
	if err != nil {
		return err
	}
	if !found || dst.AuthorID != principal.UID {
		return fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Service) requestReview(ctx context.Context, sub *models.Submission) {
	if _, err := s.thread.Notify(ctx, sub.AuthorID, ReviewRequest(sub.Title)); err != nil {
		slog.Warn("failed to notify partner", "submission_id", sub.ID, "error", err)
	}
}
