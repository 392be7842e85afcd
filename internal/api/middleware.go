package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5/request"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// Authenticator resolves bearer tokens to principals
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// tokenExtractor reads "Authorization: Bearer <token>" or, for websocket
// clients that cannot set headers, the access_token query parameter
var tokenExtractor = request.MultiExtractor{
	request.AuthorizationHeaderExtractor,
	request.ArgumentExtractor{"access_token"},
}

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate attaches the principal to the context when a valid token is
// sent. Requests without a token pass through anonymously; invalid tokens
// are rejected.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := tokenExtractor.ExtractToken(r)
		if err != nil {
			if errors.Is(err, request.ErrNoTokenInRequest) {
				next.ServeHTTP(w, r)
				return
			}
			respondError(w, http.StatusUnauthorized, "not_authenticated", "malformed authorization header")
			return
		}

		principal, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrNotAuthenticated) {
				slog.Debug("rejected token", "remote_addr", r.RemoteAddr, "error", err)
				respondError(w, http.StatusUnauthorized, "not_authenticated", "session is invalid or has ended")
				return
			}
			writeServiceError(w, err, "authenticate")
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "not_authenticated", "please sign in")
			return
		}
		next.ServeHTTP(w, r)
	})
}
