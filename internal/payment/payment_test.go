package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

func TestCentsFor(t *testing.T) {
	assert.Equal(t, int64(4900), CentsFor(49))
	assert.Equal(t, int64(0), CentsFor(0))
}

func TestDefaultIdempotencyKey(t *testing.T) {
	assert.Equal(t, "u1_12", DefaultIdempotencyKey("u1", "12"))
	assert.Equal(t, DefaultIdempotencyKey("u1", "12"), DefaultIdempotencyKey("u1", "12"))
}

func TestSimulatedGateway(t *testing.T) {
	ctx := context.Background()
	g := NewSimulatedGateway()

	intent, err := g.CreatePaymentIntent(ctx, IntentRequest{UserID: "u1", ChallengeID: "12", AmountCents: 4900})
	require.NoError(t, err)
	assert.Equal(t, int64(4900), intent.AmountCents)
	assert.NotEmpty(t, intent.ClientSecret)

	again, err := g.CreatePaymentIntent(ctx, IntentRequest{UserID: "u1", ChallengeID: "12", AmountCents: 4900})
	require.NoError(t, err)
	assert.Equal(t, intent.ClientSecret, again.ClientSecret)

	_, err = g.ConfirmPayment(ctx, intent.ClientSecret, Card{Number: "4000 0000 0000 0002"})
	assert.ErrorIs(t, err, ErrDeclined)

	res, err := g.ConfirmPayment(ctx, intent.ClientSecret, Card{Number: "4242424242424242"})
	require.NoError(t, err)
	assert.Equal(t, intent.ID, res.PaymentID)
	assert.Equal(t, int64(4900), res.AmountCents)

	replay, err := g.ConfirmPayment(ctx, intent.ClientSecret, Card{Number: "4242424242424242"})
	require.NoError(t, err)
	assert.Equal(t, res.PaymentID, replay.PaymentID)

	_, err = g.ConfirmPayment(ctx, "unknown", Card{Number: "4242424242424242"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHTTPGateway(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments/create-intent", func(w http.ResponseWriter, r *http.Request) {
		var req IntentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1_12", req.IdempotencyKey)
		assert.Equal(t, int64(4900), req.AmountCents)
		json.NewEncoder(w).Encode(map[string]any{"id": "pi_1", "clientSecret": "pi_1_secret"})
	})
	mux.HandleFunc("POST /payments/confirm", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ClientSecret string `json:"clientSecret"`
			Card         Card   `json:"card"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Card.Number == DeclineCardNumber {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]string{"error": "Your card was declined."})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"paymentIntent": map[string]any{"id": "pi_1", "amount": 4900, "status": "succeeded"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	g := NewHTTPGateway(srv.URL, WithHTTPClient(srv.Client()))

	intent, err := g.CreatePaymentIntent(ctx, IntentRequest{UserID: "u1", ChallengeID: "12", AmountCents: 4900})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(4900), intent.AmountCents)

	_, err = g.ConfirmPayment(ctx, intent.ClientSecret, Card{Number: DeclineCardNumber})
	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "Your card was declined.", declined.Message)

	res, err := g.ConfirmPayment(ctx, intent.ClientSecret, Card{Number: "4242424242424242"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", res.PaymentID)
}

func TestHTTPGatewayServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL)
	_, err := g.CreatePaymentIntent(context.Background(), IntentRequest{UserID: "u1", ChallengeID: "12", AmountCents: 100})
	assert.ErrorIs(t, err, models.ErrExternalService)
	assert.Contains(t, err.Error(), "boom")
}

func TestHTTPGatewayMissingClientSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pi_1"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL)
	_, err := g.CreatePaymentIntent(context.Background(), IntentRequest{UserID: "u1", ChallengeID: "12", AmountCents: 100})
	assert.ErrorIs(t, err, models.ErrExternalService)
}
