package enrollment

import "errors"

var (
	// ErrNothingToPay is returned when checking out a free challenge
	ErrNothingToPay = errors.New("challenge does not require payment")
	// ErrPaymentMismatch is returned when a payment was not started by this
	// user for this challenge, or does not cover its price
	ErrPaymentMismatch = errors.New("payment does not match this checkout")
)
