package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// HTTPGateway talks to the payment backend over JSON
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the gateway
type Option func(*HTTPGateway)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(g *HTTPGateway) {
		g.httpClient = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(g *HTTPGateway) {
		g.httpClient.Timeout = timeout
	}
}

// NewHTTPGateway creates a gateway rooted at baseURL (e.g. http://localhost:3001/api)
func NewHTTPGateway(baseURL string, opts ...Option) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// CreatePaymentIntent prepares a charge for the requested amount
func (g *HTTPGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = DefaultIdempotencyKey(req.UserID, req.ChallengeID)
	}

	var intent Intent
	if err := g.post(ctx, "/payments/create-intent", req, &intent); err != nil {
		return nil, err
	}
	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: invalid response from payment server", models.ErrExternalService)
	}
	if intent.AmountCents == 0 {
		intent.AmountCents = req.AmountCents
	}
	return &intent, nil
}

// ConfirmPayment confirms a prepared charge with the given card
func (g *HTTPGateway) ConfirmPayment(ctx context.Context, clientSecret string, card Card) (*Result, error) {
	body := struct {
		ClientSecret string `json:"clientSecret"`
		Card         Card   `json:"card"`
	}{clientSecret, card}

	var resp struct {
		PaymentIntent *Result `json:"paymentIntent"`
	}
	if err := g.post(ctx, "/payments/confirm", body, &resp); err != nil {
		return nil, err
	}
	if resp.PaymentIntent == nil || resp.PaymentIntent.PaymentID == "" {
		return nil, fmt.Errorf("%w: invalid response from payment server", models.ErrExternalService)
	}
	return resp.PaymentIntent, nil
}

// post sends a JSON request and decodes a JSON response into out
func (g *HTTPGateway) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", models.ErrExternalService, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", models.ErrExternalService, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		if resp.StatusCode == http.StatusPaymentRequired {
			return &DeclinedError{Message: apiErr.Error}
		}
		if apiErr.Error == "" {
			apiErr.Error = string(respBody)
		}
		return fmt.Errorf("%w: HTTP %d: %s", models.ErrExternalService, resp.StatusCode, apiErr.Error)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %w", models.ErrExternalService, err)
	}
	return nil
}
