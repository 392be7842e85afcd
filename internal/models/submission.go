package models

import "time"

// SubmissionStatus represents where a submission is in the review workflow
type SubmissionStatus string

const (
	SubmissionDraft         SubmissionStatus = "draft"
	SubmissionPendingReview SubmissionStatus = "pending_review"
	SubmissionApproved      SubmissionStatus = "approved"
	SubmissionPublished     SubmissionStatus = "published"
)

// Submission is a piece of written or created work tied to a challenge
type Submission struct {
	ID                 string           `json:"id" yaml:"id"`
	Title              string           `json:"title" yaml:"title"`
	AuthorID           string           `json:"authorId" yaml:"author_id"`
	Author             string           `json:"author" yaml:"author"`
	ChallengeID        string           `json:"challengeId" yaml:"challenge_id"`
	Challenge          string           `json:"challenge" yaml:"challenge"`
	Content            string           `json:"content" yaml:"content"`
	Excerpt            string           `json:"excerpt" yaml:"excerpt"`
	ReadTimeMinutes    int              `json:"readTime" yaml:"read_time"`
	Versions           []Version        `json:"versions" yaml:"-"`
	Likes              int              `json:"likes" yaml:"likes"`
	CommentCount       int              `json:"commentCount" yaml:"comments"`
	Views              int              `json:"views" yaml:"views"`
	Status             SubmissionStatus `json:"status" yaml:"-"`
	ValidatedByPartner bool             `json:"validatedByPartner" yaml:"-"`
	IsPublic           bool             `json:"isPublic" yaml:"-"`
	Feedback           string           `json:"feedback,omitempty" yaml:"-"`
	CreatedAt          time.Time        `json:"createdAt" yaml:"-"`
	UpdatedAt          time.Time        `json:"updatedAt" yaml:"-"`
	ApprovedAt         *time.Time       `json:"approvedAt,omitempty" yaml:"-"`
	PublishedAt        *time.Time       `json:"publishedAt,omitempty" yaml:"published_at"`
}

// Version is a content snapshot taken on every save
type Version struct {
	Content string    `json:"content"`
	SavedAt time.Time `json:"savedAt"`
}

// Comment is an append-only remark on a public submission
type Comment struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"authorId"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"postedAt"`
}
