package api

import (
	"net/http"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/identity"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := s.deps.Identity.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, err, "sign up")
		return
	}

	respondJSON(w, http.StatusCreated, grant)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := s.deps.Identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "sign in")
		return
	}

	respondJSON(w, http.StatusOK, grant)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Identity.SignOut(r.Context(), PrincipalFromContext(r.Context())); err != nil {
		writeServiceError(w, err, "sign out")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	profile, err := s.deps.Identity.Profile(r.Context(), principal.UID)
	if err != nil {
		writeServiceError(w, err, "load profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd identity.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	principal := PrincipalFromContext(r.Context())
	profile, err := s.deps.Identity.UpdateProfile(r.Context(), principal.UID, upd)
	if err != nil {
		writeServiceError(w, err, "update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
