package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/enrollment"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/feed"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/identity"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/payment"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/submission"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeJSON reads the request body into dst, replying 400 on failure.
// An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps domain errors onto HTTP responses
func writeServiceError(w http.ResponseWriter, err error, op string) {
	var declined *payment.DeclinedError

	switch {
	case errors.Is(err, models.ErrPaymentRequired):
		respondError(w, http.StatusPaymentRequired, "payment_required", err.Error())
	case errors.As(err, &declined):
		respondError(w, http.StatusPaymentRequired, "payment_declined", declined.Message)
	case errors.Is(err, models.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "not_authenticated", "please sign in")
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, models.ErrMissingFields),
		errors.Is(err, models.ErrMissingFeedback),
		errors.Is(err, feed.ErrEmptyComment),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, enrollment.ErrNothingToPay):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, enrollment.ErrPaymentMismatch):
		respondError(w, http.StatusConflict, "payment_mismatch", err.Error())
	case errors.Is(err, submission.ErrNotEnrolled):
		respondError(w, http.StatusForbidden, "not_enrolled", err.Error())
	case errors.Is(err, submission.ErrNotDraft),
		errors.Is(err, submission.ErrNotUnderReview),
		errors.Is(err, submission.ErrNotApproved),
		errors.Is(err, submission.ErrAlreadyPublished):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, models.ErrExternalService):
		slog.Error("external service failed", "op", op, "error", err)
		respondError(w, http.StatusBadGateway, "external_service", "an upstream service failed, please retry")
	default:
		slog.Error("request failed", "op", op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+op)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	report := s.deps.Health.Report(r.Context())
	if !report.Ready {
		slog.Warn("readiness check failed", "checks", report.Checks)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(apiResponse{
			Data:  report,
			Error: &apiError{Code: "not_ready", Message: "service not ready"},
		}); err != nil {
			slog.Error("failed to encode error response", "error", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}
