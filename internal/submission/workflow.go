package submission

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// Workflow rejections. A rejected transition leaves the submission unchanged.
var (
	ErrNotDraft         = errors.New("submission is not a draft")
	ErrNotUnderReview   = errors.New("submission is not awaiting review")
	ErrNotApproved      = errors.New("submission has not been approved by a partner")
	ErrAlreadyPublished = errors.New("submission is already published")
	ErrNotEnrolled      = errors.New("not enrolled in this challenge")
)

const (
	// ExcerptLength is the number of characters of content shown as excerpt
	ExcerptLength = 150
	// WordsPerMinute is the reading speed behind ReadTime
	WordsPerMinute = 200
)

// EditPolicy decides what editing does to an approved submission
type EditPolicy int

const (
	// KeepApproval leaves an approved submission approved after an edit
	KeepApproval EditPolicy = iota
	// ResetApproval sends an edited approved submission back to review
	ResetApproval
)

// Excerpt returns the first ExcerptLength characters of content
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content
	}
	return string([]rune(content)[:ExcerptLength])
}

// ReadTime estimates the reading time of content in whole minutes
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

func newSubmission(id string, author *models.Principal, title, content string, status models.SubmissionStatus, now time.Time) *models.Submission {
	s := &models.Submission{
		ID:        id,
		Title:     title,
		AuthorID:  author.UID,
		Author:    author.Name,
		Status:    status,
		Versions:  []models.Version{},
		CreatedAt: now,
	}
	setContent(s, content, now)
	return s
}

func setContent(s *models.Submission, content string, now time.Time) {
	s.Content = content
	s.Excerpt = Excerpt(content)
	s.ReadTimeMinutes = ReadTime(content)
	s.Versions = append(s.Versions, models.Version{Content: content, SavedAt: now})
	s.UpdatedAt = now
}

// submitForReview moves a draft to pending_review
func submitForReview(s *models.Submission, now time.Time) error {
	if s.Status != models.SubmissionDraft {
		return ErrNotDraft
	}
	if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Content) == "" {
		return models.ErrMissingFields
	}
	s.Status = models.SubmissionPendingReview
	s.UpdatedAt = now
	return nil
}

// approve records the partner's feedback on a submission under review
func approve(s *models.Submission, feedback string, now time.Time) error {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return models.ErrMissingFeedback
	}
	if s.Status != models.SubmissionPendingReview {
		return ErrNotUnderReview
	}
	s.Status = models.SubmissionApproved
	s.ValidatedByPartner = true
	s.Feedback = feedback
	s.ApprovedAt = &now
	s.UpdatedAt = now
	return nil
}

// share makes an approved submission public. Sharing a published
// submission again reports false without error.
func share(s *models.Submission, now time.Time) (bool, error) {
	if s.Status == models.SubmissionPublished && s.IsPublic {
		return false, nil
	}
	if s.Status != models.SubmissionApproved || !s.ValidatedByPartner {
		return false, ErrNotApproved
	}
	s.Status = models.SubmissionPublished
	s.IsPublic = true
	s.PublishedAt = &now
	s.UpdatedAt = now
	return true, nil
}

// edit replaces the content of an unpublished submission, keeping every earlier version
func edit(s *models.Submission, content string, policy EditPolicy, now time.Time) error {
	if s.Status == models.SubmissionPublished {
		return ErrAlreadyPublished
	}
	if strings.TrimSpace(content) == "" {
		return models.ErrMissingFields
	}

	setContent(s, content, now)

	if policy == ResetApproval && s.Status == models.SubmissionApproved {
		s.Status = models.SubmissionPendingReview
		s.ValidatedByPartner = false
		s.Feedback = ""
		s.ApprovedAt = nil
	}
	return nil
}
