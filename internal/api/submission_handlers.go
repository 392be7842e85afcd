package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/submission"
)

type createSubmissionRequest struct {
	submission.PublishInput
	Draft bool `json:"draft"`
}

type editSubmissionRequest struct {
	Content string `json:"content"`
}

type validateSubmissionRequest struct {
	Feedback string `json:"feedback"`
}

type shareResponse struct {
	*models.Submission
	Shared bool `json:"shared"`
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.deps.Submissions.ListByAuthor(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "list submissions")
		return
	}

	respondJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	principal := PrincipalFromContext(r.Context())

	var (
		sub *models.Submission
		err error
	)
	if req.Draft {
		sub, err = s.deps.Submissions.SaveDraft(r.Context(), principal, req.PublishInput)
	} else {
		sub, err = s.deps.Submissions.Publish(r.Context(), principal, req.PublishInput)
	}
	if err != nil {
		writeServiceError(w, err, "create submission")
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.deps.Submissions.Get(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "get submission")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func (s *Server) handleEditSubmission(w http.ResponseWriter, r *http.Request) {
	var req editSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := s.deps.Submissions.EditDraft(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeServiceError(w, err, "edit submission")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubmitSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.deps.Submissions.Submit(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "submit for review")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func (s *Server) handleValidateSubmission(w http.ResponseWriter, r *http.Request) {
	var req validateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := s.deps.Submissions.Validate(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), req.Feedback)
	if err != nil {
		writeServiceError(w, err, "validate submission")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func (s *Server) handleShareSubmission(w http.ResponseWriter, r *http.Request) {
	sub, shared, err := s.deps.Submissions.SharePublicly(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "share submission")
		return
	}

	respondJSON(w, http.StatusOK, shareResponse{Submission: sub, Shared: shared})
}
