package models

import (
	"errors"
	"fmt"
)

// Errors shared across the workflow
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMissingFields    = errors.New("required fields are missing")
	ErrMissingFeedback  = errors.New("feedback is required")
	ErrPaymentRequired  = errors.New("payment required")
	ErrExternalService  = errors.New("external service failure")
	ErrNotFound         = errors.New("not found")
)

// PaymentRequiredError is returned when enrolling into a paid challenge
// without a completed payment
type PaymentRequiredError struct {
	Challenge *Challenge
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("challenge %q requires payment of %d", e.Challenge.ID, e.Challenge.Price)
}

func (e *PaymentRequiredError) Is(target error) bool {
	return target == ErrPaymentRequired
}
