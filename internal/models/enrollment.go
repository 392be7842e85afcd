package models

import "time"

// EnrollmentActive is the only status an enrollment takes today
const EnrollmentActive = "active"

// Enrollment links a user to a challenge they joined.
// At most one exists per (UserID, ChallengeID).
type Enrollment struct {
	UserID          string    `json:"userId"`
	ChallengeID     string    `json:"challengeId"`
	EnrolledAt      time.Time `json:"enrolledAt"`
	PaymentID       *string   `json:"paymentId"`
	AmountPaidCents int64     `json:"amountPaid"`
	Status          string    `json:"status"`
}

// EnrollmentID returns the document key of the (user, challenge) pair
func EnrollmentID(userID, challengeID string) string {
	return userID + "_" + challengeID
}

// PaymentInfo describes a completed payment backing an enrollment
type PaymentInfo struct {
	PaymentID   string `json:"paymentId"`
	AmountCents int64  `json:"amount"`
}

// Profile is the per-user document kept in the users collection
type Profile struct {
	UID                string    `json:"uid,omitempty"`
	Email              string    `json:"email,omitempty"`
	Name               string    `json:"name,omitempty"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
	EnrolledChallenges []string  `json:"enrolledChallenges"`
	PublishedEssays    []string  `json:"publishedEssays"`
	LikedSubmissions   []string  `json:"likedSubmissions"`
}
