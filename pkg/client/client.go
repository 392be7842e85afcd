package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/payment"
)

// Client is a Go SDK for the academy API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken starts the client with an existing access token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new academy client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reply of the API
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.StatusCode, e.Code, e.Message)
}

// IsPaymentRequired reports whether err asks the caller to go through checkout
func IsPaymentRequired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "payment_required"
}

// Grant is returned on sign-up and sign-in
type Grant struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      *models.Principal `json:"user"`
}

// Partner is the caller's accountability partner
type Partner struct {
	models.PartnerAssignment
	Matched bool `json:"matched"`
}

// Draft is a submission as written by its author
type Draft struct {
	ChallengeID string `json:"challengeId,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// Like is the outcome of toggling a like
type Like struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// Token returns the access token in use
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SignUp creates an account and keeps its access token
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*Grant, error) {
	var grant Grant
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &grant)
	if err != nil {
		return nil, err
	}
	c.setToken(grant.Token)
	return &grant, nil
}

// SignIn opens a session and keeps its access token
func (c *Client) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	var grant Grant
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &grant)
	if err != nil {
		return nil, err
	}
	c.setToken(grant.Token)
	return &grant, nil
}

// SignOut ends the session and forgets the token
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.call(ctx, http.MethodPost, "/api/v1/auth/signout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// Profile returns the signed-in user's profile
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.call(ctx, http.MethodGet, "/api/v1/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListChallenges returns the catalog, optionally narrowed to a category
func (c *Client) ListChallenges(ctx context.Context, category string) ([]models.Challenge, error) {
	path := "/api/v1/challenges"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var challenges []models.Challenge
	if err := c.call(ctx, http.MethodGet, path, nil, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

// GetChallenge returns one challenge
func (c *Client) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := c.call(ctx, http.MethodGet, "/api/v1/challenges/"+url.PathEscape(id), nil, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// Enroll joins a free challenge. Paid challenges fail with an error
// for which IsPaymentRequired is true.
func (c *Client) Enroll(ctx context.Context, challengeID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := c.call(ctx, http.MethodPost, "/api/v1/challenges/"+url.PathEscape(challengeID)+"/enroll", nil, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// StartCheckout prepares the payment of a paid challenge
func (c *Client) StartCheckout(ctx context.Context, challengeID, idempotencyKey string) (*payment.Intent, error) {
	var intent payment.Intent
	err := c.call(ctx, http.MethodPost, "/api/v1/challenges/"+url.PathEscape(challengeID)+"/checkout", map[string]string{
		"idempotencyKey": idempotencyKey,
	}, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// ConfirmCheckout pays and enrolls
func (c *Client) ConfirmCheckout(ctx context.Context, challengeID, clientSecret string, card payment.Card) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := c.call(ctx, http.MethodPost, "/api/v1/challenges/"+url.PathEscape(challengeID)+"/checkout/confirm", map[string]any{
		"clientSecret": clientSecret,
		"card":         card,
	}, &enrollment)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Enrollments lists the signed-in user's enrollments
func (c *Client) Enrollments(ctx context.Context) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := c.call(ctx, http.MethodGet, "/api/v1/enrollments", nil, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Partner returns the caller's accountability partner
func (c *Client) Partner(ctx context.Context) (*Partner, error) {
	var partner Partner
	if err := c.call(ctx, http.MethodGet, "/api/v1/partner", nil, &partner); err != nil {
		return nil, err
	}
	return &partner, nil
}

// Messages returns the partner thread
func (c *Client) Messages(ctx context.Context) (*models.Thread, error) {
	var thread models.Thread
	if err := c.call(ctx, http.MethodGet, "/api/v1/partner/messages", nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// SendMessage writes to the partner and returns the message with its reply
func (c *Client) SendMessage(ctx context.Context, text string) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.call(ctx, http.MethodPost, "/api/v1/partner/messages", map[string]string{"text": text}, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Publish creates a submission and sends it to partner review
func (c *Client) Publish(ctx context.Context, draft Draft) (*models.Submission, error) {
	return c.createSubmission(ctx, draft, false)
}

// SaveDraft creates a submission without sending it to review
func (c *Client) SaveDraft(ctx context.Context, draft Draft) (*models.Submission, error) {
	return c.createSubmission(ctx, draft, true)
}

// Submissions lists the caller's own submissions
func (c *Client) Submissions(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	if err := c.call(ctx, http.MethodGet, "/api/v1/submissions", nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Edit replaces the content of one of the caller's submissions
func (c *Client) Edit(ctx context.Context, id, content string) (*models.Submission, error) {
	return c.submissionCall(ctx, http.MethodPut, id, "", map[string]string{"content": content})
}

// Submit sends a draft to partner review
func (c *Client) Submit(ctx context.Context, id string) (*models.Submission, error) {
	return c.submissionCall(ctx, http.MethodPost, id, "/submit", nil)
}

// Validate records partner approval with feedback
func (c *Client) Validate(ctx context.Context, id, feedback string) (*models.Submission, error) {
	return c.submissionCall(ctx, http.MethodPost, id, "/validate", map[string]string{"feedback": feedback})
}

// Share publishes an approved submission to the community feed.
// The bool is false when it was already public.
func (c *Client) Share(ctx context.Context, id string) (*models.Submission, bool, error) {
	var result struct {
		models.Submission
		Shared bool `json:"shared"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/submissions/"+url.PathEscape(id)+"/share", nil, &result); err != nil {
		return nil, false, err
	}
	return &result.Submission, result.Shared, nil
}

// Feed returns the public feed, newest first
func (c *Client) Feed(ctx context.Context) ([]models.Submission, error) {
	var items []models.Submission
	if err := c.call(ctx, http.MethodGet, "/api/v1/feed", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Like toggles the caller's like on a feed item
func (c *Client) Like(ctx context.Context, id string) (*Like, error) {
	var like Like
	if err := c.call(ctx, http.MethodPost, "/api/v1/feed/"+url.PathEscape(id)+"/like", nil, &like); err != nil {
		return nil, err
	}
	return &like, nil
}

// Comment adds a comment to a feed item
func (c *Client) Comment(ctx context.Context, id, text string) (*models.Comment, error) {
	var comment models.Comment
	if err := c.call(ctx, http.MethodPost, "/api/v1/feed/"+url.PathEscape(id)+"/comments", map[string]string{"text": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments lists the comments of a feed item
func (c *Client) Comments(ctx context.Context, id string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := c.call(ctx, http.MethodGet, "/api/v1/feed/"+url.PathEscape(id)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) createSubmission(ctx context.Context, draft Draft, asDraft bool) (*models.Submission, error) {
	body := struct {
		Draft
		AsDraft bool `json:"draft"`
	}{draft, asDraft}

	var sub models.Submission
	if err := c.call(ctx, http.MethodPost, "/api/v1/submissions", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) submissionCall(ctx context.Context, method, id, suffix string, body any) (*models.Submission, error) {
	var sub models.Submission
	if err := c.call(ctx, method, "/api/v1/submissions/"+url.PathEscape(id)+suffix, body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// call performs a request and unwraps the response envelope into out
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	status, resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error == nil {
			result.Error = &APIError{Code: "unknown", Message: http.StatusText(status)}
		}
		result.Error.StatusCode = status
		return result.Error
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
