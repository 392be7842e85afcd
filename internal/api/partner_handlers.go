package api

import (
	"net/http"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

type partnerResponse struct {
	*models.PartnerAssignment
	Matched bool `json:"matched"`
}

func (s *Server) handleGetPartner(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	assignment, err := s.deps.Pairing.Assignment(r.Context(), principal.UID)
	if err != nil {
		writeServiceError(w, err, "load partner")
		return
	}
	if assignment != nil {
		respondJSON(w, http.StatusOK, partnerResponse{PartnerAssignment: assignment})
		return
	}

	// Users created before pairing was enabled are matched on first visit
	assignment, created, err := s.deps.Pairing.AssignIfAbsent(r.Context(), principal.UID)
	if err != nil {
		writeServiceError(w, err, "load partner")
		return
	}

	respondJSON(w, http.StatusOK, partnerResponse{PartnerAssignment: assignment, Matched: created})
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	thread, err := s.deps.Pairing.Thread(r.Context(), principal.UID)
	if err != nil {
		writeServiceError(w, err, "load messages")
		return
	}

	respondJSON(w, http.StatusOK, thread)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	principal := PrincipalFromContext(r.Context())
	msgs, err := s.deps.Pairing.SendMessage(r.Context(), principal.UID, req.Text)
	if err != nil {
		writeServiceError(w, err, "send message")
		return
	}

	respondJSON(w, http.StatusCreated, msgs)
}
