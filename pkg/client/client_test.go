package client

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

func writeEnvelope(w http.ResponseWriter, status int, data any, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{"success": status < 300}
	if data != nil {
		resp["data"] = data
	}
	if code != "" {
		resp["error"] = map[string]string{"code": code, "message": message}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func TestSignInKeepsToken(t *testing.T) {
	var authHeaders []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/auth/signin":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ada@example.com", body["email"])
			writeEnvelope(w, http.StatusOK, map[string]any{
				"token": "tok-1",
				"user":  map[string]string{"uid": "u1", "email": "ada@example.com", "name": "Ada"},
			}, "", "")
		case "/api/v1/auth/me":
			writeEnvelope(w, http.StatusOK, models.Profile{UID: "u1", Name: "Ada"}, "", "")
		case "/api/v1/auth/signout":
			writeEnvelope(w, http.StatusOK, map[string]string{"status": "signed_out"}, "", "")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	ctx := context.Background()

	grant, err := c.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", grant.User.UID)
	assert.Equal(t, "tok-1", c.Token())

	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)

	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token())

	assert.Equal(t, []string{"", "Bearer tok-1", "Bearer tok-1"}, authHeaders)
}

func TestAPIErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/challenges/12/enroll":
			writeEnvelope(w, http.StatusPaymentRequired, nil, "payment_required", "challenge requires payment")
		case "/api/v1/challenges/404":
			writeEnvelope(w, http.StatusNotFound, nil, "not_found", "challenge not found")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, WithToken("tok"))
	ctx := context.Background()

	_, err := c.Enroll(ctx, "12")
	require.Error(t, err)
	assert.True(t, IsPaymentRequired(err))

	_, err = c.GetChallenge(ctx, "404")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.False(t, IsPaymentRequired(err))
}

func TestSubmissionCalls(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/submissions":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, true, body["draft"])
			assert.Equal(t, "Notes", body["title"])
			writeEnvelope(w, http.StatusCreated, models.Submission{ID: "s1", Title: "Notes", Status: models.SubmissionDraft}, "", "")
		case r.URL.Path == "/api/v1/submissions/s1/share":
			writeEnvelope(w, http.StatusOK, map[string]any{"id": "s1", "status": "published", "shared": true}, "", "")
		case r.URL.Path == "/api/v1/feed/s1/like":
			writeEnvelope(w, http.StatusOK, Like{Liked: true, Likes: 3}, "", "")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, WithToken("tok"))
	ctx := context.Background()

	sub, err := c.SaveDraft(ctx, Draft{Title: "Notes"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionDraft, sub.Status)

	shared, ok, err := c.Share(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.SubmissionPublished, shared.Status)

	like, err := c.Like(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, &Like{Liked: true, Likes: 3}, like)
}
