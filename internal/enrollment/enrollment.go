package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/payment"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
)

// checkout binds a payment intent, keyed by its client secret, to the
// user and challenge it was opened for
type checkout struct {
	UserID      string    `json:"userId"`
	ChallengeID string    `json:"challengeId"`
	AmountCents int64     `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *checkout) match(uid, challengeID string) error {
	if c.UserID != uid || c.ChallengeID != challengeID {
		return ErrPaymentMismatch
	}
	return nil
}

// Tracker records which challenges each user joined
type Tracker struct {
	store   storage.Store
	gateway payment.Gateway
	now     func() time.Time
}

// NewTracker creates an enrollment tracker
func NewTracker(store storage.Store, gateway payment.Gateway) *Tracker {
	return &Tracker{
		store:   store,
		gateway: gateway,
		now:     time.Now,
	}
}

// Enroll joins a free challenge. Paid challenges return a
// *models.PaymentRequiredError and must go through checkout.
// The returned bool reports whether a new enrollment was written.
func (t *Tracker) Enroll(ctx context.Context, principal *models.Principal, challenge *models.Challenge) (*models.Enrollment, bool, error) {
	if principal == nil {
		return nil, false, models.ErrNotAuthenticated
	}
	if challenge.IsPaid() {
		if existing, err := t.get(ctx, principal.UID, challenge.ID); err != nil || existing != nil {
			return existing, false, err
		}
		return nil, false, &models.PaymentRequiredError{Challenge: challenge}
	}
	return t.Record(ctx, principal.UID, challenge.ID, nil)
}

// Record writes the enrollment and adds the challenge to the user's
// profile in one transaction. An existing enrollment is returned unchanged.
func (t *Tracker) Record(ctx context.Context, uid, challengeID string, info *models.PaymentInfo) (*models.Enrollment, bool, error) {
	if uid == "" {
		return nil, false, models.ErrNotAuthenticated
	}
	if challengeID == "" {
		return nil, false, models.ErrMissingFields
	}

	id := models.EnrollmentID(uid, challengeID)
	var result models.Enrollment
	created := false

	err := t.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		found, err := tx.Get(ctx, storage.CollectionEnrollments, id, &result)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		result = models.Enrollment{
			UserID:      uid,
			ChallengeID: challengeID,
			EnrolledAt:  t.now().UTC(),
			Status:      models.EnrollmentActive,
		}
		if info != nil {
			paymentID := info.PaymentID
			result.PaymentID = &paymentID
			result.AmountPaidCents = info.AmountCents
		}
		if err := tx.Put(ctx, storage.CollectionEnrollments, id, result); err != nil {
			return err
		}

		var profile models.Profile
		if _, err := tx.Get(ctx, storage.CollectionUsers, uid, &profile); err != nil {
			return err
		}
		enrolled := profile.EnrolledChallenges
		if !slices.Contains(enrolled, challengeID) {
			enrolled = append(enrolled, challengeID)
		}
		created = true
		return tx.Update(ctx, storage.CollectionUsers, uid, map[string]any{
			"enrolledChallenges": enrolled,
		}, true)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to record enrollment: %w", err)
	}

	if created {
		slog.Info("enrollment recorded",
			"user_id", uid,
			"challenge_id", challengeID,
			"paid", info != nil,
		)
	}
	return &result, created, nil
}

// StartCheckout prepares the payment for a paid challenge.
// An empty key falls back to payment.DefaultIdempotencyKey.
func (t *Tracker) StartCheckout(ctx context.Context, principal *models.Principal, challenge *models.Challenge, key string) (*payment.Intent, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	if !challenge.IsPaid() {
		return nil, fmt.Errorf("challenge %s is free: %w", challenge.ID, ErrNothingToPay)
	}
	if key == "" {
		key = payment.DefaultIdempotencyKey(principal.UID, challenge.ID)
	}

	amount := payment.CentsFor(challenge.Price)
	intent, err := t.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
		UserID:         principal.UID,
		ChallengeID:    challenge.ID,
		AmountCents:    amount,
		IdempotencyKey: key,
	})
	if err != nil {
		slog.Warn("payment intent failed", "user_id", principal.UID, "challenge_id", challenge.ID, "error", err)
		return nil, err
	}

	// A reused idempotency key may hand back an intent opened by someone else
	want := checkout{UserID: principal.UID, ChallengeID: challenge.ID, AmountCents: amount, CreatedAt: t.now().UTC()}
	err = t.store.RunInTx(ctx, func(ctx context.Context, tx storage.Store) error {
		var existing checkout
		found, err := tx.Get(ctx, storage.CollectionPayments, intent.ClientSecret, &existing)
		if err != nil {
			return err
		}
		if found {
			return existing.match(principal.UID, challenge.ID)
		}
		return tx.Put(ctx, storage.CollectionPayments, intent.ClientSecret, want)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}
	return intent, nil
}

// CompleteCheckout confirms the payment and only then records the enrollment
func (t *Tracker) CompleteCheckout(ctx context.Context, principal *models.Principal, challenge *models.Challenge, clientSecret string, card payment.Card) (*models.Enrollment, error) {
	if principal == nil {
		return nil, models.ErrNotAuthenticated
	}
	if clientSecret == "" {
		return nil, models.ErrMissingFields
	}

	var started checkout
	found, err := t.store.Get(ctx, storage.CollectionPayments, clientSecret, &started)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no checkout started for this payment: %w", ErrPaymentMismatch)
	}
	if err := started.match(principal.UID, challenge.ID); err != nil {
		slog.Warn("payment reused for another checkout",
			"user_id", principal.UID,
			"challenge_id", challenge.ID,
			"started_by", started.UserID,
			"started_for", started.ChallengeID,
		)
		return nil, err
	}

	res, err := t.gateway.ConfirmPayment(ctx, clientSecret, card)
	if err != nil {
		slog.Warn("payment confirmation failed", "user_id", principal.UID, "challenge_id", challenge.ID, "error", err)
		return nil, err
	}
	if due := payment.CentsFor(challenge.Price); res.AmountCents < due {
		return nil, fmt.Errorf("paid %d of %d cents: %w", res.AmountCents, due, ErrPaymentMismatch)
	}

	enrollment, _, err := t.Record(ctx, principal.UID, challenge.ID, &models.PaymentInfo{
		PaymentID:   res.PaymentID,
		AmountCents: res.AmountCents,
	})
	return enrollment, err
}

// IsEnrolled reports whether the user joined the challenge
func (t *Tracker) IsEnrolled(ctx context.Context, uid, challengeID string) (bool, error) {
	e, err := t.get(ctx, uid, challengeID)
	return e != nil, err
}

// List returns the user's enrollments, oldest first
func (t *Tracker) List(ctx context.Context, uid string) ([]models.Enrollment, error) {
	docs, err := t.store.Query(ctx, storage.CollectionEnrollments, storage.Query{
		Where:   []storage.Filter{{Field: "userId", Value: uid}},
		OrderBy: "enrolledAt",
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.Enrollment, 0, len(docs))
	for _, doc := range docs {
		var e models.Enrollment
		if err := doc.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode enrollment %s: %w", doc.ID, err)
		}
		result = append(result, e)
	}
	return result, nil
}

func (t *Tracker) get(ctx context.Context, uid, challengeID string) (*models.Enrollment, error) {
	var e models.Enrollment
	found, err := t.store.Get(ctx, storage.CollectionEnrollments, models.EnrollmentID(uid, challengeID), &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}
