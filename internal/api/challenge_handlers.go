package api

import (
	"cmp"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/payment"
)

type checkoutRequest struct {
	IdempotencyKey string `json:"idempotencyKey"`
}

type confirmCheckoutRequest struct {
	ClientSecret string       `json:"clientSecret"`
	Card         payment.Card `json:"card"`
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges := s.deps.Catalog.Load(r.Context())

	category := r.URL.Query().Get("category")
	if category == "" {
		respondJSON(w, http.StatusOK, challenges)
		return
	}

	filtered := make([]models.Challenge, 0, len(challenges))
	for _, ch := range challenges {
		if ch.Category == category {
			filtered = append(filtered, ch)
		}
	}
	respondJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, ok := s.challenge(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	challenge, ok := s.challenge(w, r)
	if !ok {
		return
	}

	enrollment, created, err := s.deps.Enrollments.Enroll(r.Context(), PrincipalFromContext(r.Context()), challenge)
	if err != nil {
		writeServiceError(w, err, "enroll")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, enrollment)
}

func (s *Server) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	challenge, ok := s.challenge(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key := cmp.Or(r.Header.Get("Idempotency-Key"), req.IdempotencyKey)

	intent, err := s.deps.Enrollments.StartCheckout(r.Context(), PrincipalFromContext(r.Context()), challenge, key)
	if err != nil {
		writeServiceError(w, err, "start checkout")
		return
	}

	respondJSON(w, http.StatusOK, intent)
}

func (s *Server) handleConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	challenge, ok := s.challenge(w, r)
	if !ok {
		return
	}

	var req confirmCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	enrollment, err := s.deps.Enrollments.CompleteCheckout(r.Context(), PrincipalFromContext(r.Context()), challenge, req.ClientSecret, req.Card)
	if err != nil {
		writeServiceError(w, err, "confirm checkout")
		return
	}

	respondJSON(w, http.StatusCreated, enrollment)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	enrollments, err := s.deps.Enrollments.List(r.Context(), principal.UID)
	if err != nil {
		writeServiceError(w, err, "list enrollments")
		return
	}

	respondJSON(w, http.StatusOK, enrollments)
}

// challenge resolves the {id} URL parameter, replying on failure
func (s *Server) challenge(w http.ResponseWriter, r *http.Request) (*models.Challenge, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge id is required")
		return nil, false
	}

	challenge, err := s.deps.Catalog.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "load challenge")
		return nil, false
	}
	return challenge, true
}
