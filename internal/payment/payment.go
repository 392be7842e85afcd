package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// Errors returned by gateways
var (
	ErrDeclined      = errors.New("payment declined")
	ErrUnknownIntent = fmt.Errorf("payment intent %w", models.ErrNotFound)
)

// DeclinedError carries the card network's decline message
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string {
	return "payment declined: " + e.Message
}

func (e *DeclinedError) Is(target error) bool {
	return target == ErrDeclined
}

// IntentRequest asks the gateway to prepare a charge
type IntentRequest struct {
	UserID         string `json:"userId"`
	ChallengeID    string `json:"challengeId"`
	AmountCents    int64  `json:"amount"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// Intent is a prepared charge awaiting confirmation
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amount"`
}

// Card holds the payment method details entered by the user
type Card struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
	CVC      string `json:"cvc"`
	Name     string `json:"name,omitempty"`
}

// Result describes a confirmed charge
type Result struct {
	PaymentID   string `json:"id"`
	AmountCents int64  `json:"amount"`
	Status      string `json:"status"`
}

// Gateway is the payment collaborator
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmPayment(ctx context.Context, clientSecret string, card Card) (*Result, error)
}

// DefaultIdempotencyKey derives the key used when the caller supplies none.
// It is stable for a (user, challenge) pair so retried checkouts never double charge.
func DefaultIdempotencyKey(userID, challengeID string) string {
	return userID + "_" + challengeID
}

// CentsFor converts a price in whole currency units to cents
func CentsFor(price int) int64 {
	return int64(math.Round(float64(price) * 100))
}
