package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DeclineCardNumber is the test card the simulated gateway always declines
const DeclineCardNumber = "4000000000000002"

// SimulatedGateway approves every charge locally, except for DeclineCardNumber.
// Intents are keyed by idempotency key so repeated requests reuse one intent.
type SimulatedGateway struct {
	mu      sync.Mutex
	byKey   map[string]*Intent
	pending map[string]*Intent
	results map[string]*Result
}

// NewSimulatedGateway creates a local gateway
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{
		byKey:   make(map[string]*Intent),
		pending: make(map[string]*Intent),
		results: make(map[string]*Result),
	}
}

// CreatePaymentIntent returns the intent for the idempotency key, creating it once
func (g *SimulatedGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = DefaultIdempotencyKey(req.UserID, req.ChallengeID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if intent, ok := g.byKey[req.IdempotencyKey]; ok {
		cp := *intent
		return &cp, nil
	}

	id := "pi_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		AmountCents:  req.AmountCents,
	}
	g.byKey[req.IdempotencyKey] = intent
	g.pending[intent.ClientSecret] = intent

	cp := *intent
	return &cp, nil
}

// ConfirmPayment settles the intent behind clientSecret.
// Confirming an already settled intent returns the original result.
func (g *SimulatedGateway) ConfirmPayment(ctx context.Context, clientSecret string, card Card) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if res, ok := g.results[clientSecret]; ok {
		cp := *res
		return &cp, nil
	}

	intent, ok := g.pending[clientSecret]
	if !ok {
		return nil, ErrUnknownIntent
	}

	number := strings.ReplaceAll(card.Number, " ", "")
	switch {
	case number == "":
		return nil, &DeclinedError{Message: "Your card number is incomplete."}
	case number == DeclineCardNumber:
		return nil, &DeclinedError{Message: "Your card was declined."}
	}

	res := &Result{
		PaymentID:   intent.ID,
		AmountCents: intent.AmountCents,
		Status:      "succeeded",
	}
	g.results[clientSecret] = res
	delete(g.pending, clientSecret)

	cp := *res
	return &cp, nil
}
