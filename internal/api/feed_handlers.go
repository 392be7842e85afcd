package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/feed"
)

type commentRequest struct {
	Text string `json:"text"`
}

type likeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// handleListFeed serves the public feed, optionally narrowed to one
// challenge and capped by ?limit
func (s *Server) handleListFeed(w http.ResponseWriter, r *http.Request) {
	challengeID := r.URL.Query().Get("challengeId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	items := make([]*feed.Item, 0)
	for item, err := range s.deps.Feed.All(r.Context()) {
		if err != nil {
			writeServiceError(w, err, "load feed")
			return
		}
		if challengeID != "" && item.ChallengeID != challengeID {
			continue
		}
		items = append(items, item)
		if limit > 0 && len(items) == limit {
			break
		}
	}

	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetFeedItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Feed.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "load feed item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.deps.Feed.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "load comments")
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	liked, likes, err := s.deps.Feed.Like(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "like")
		return
	}

	respondJSON(w, http.StatusOK, likeResponse{Liked: liked, Likes: likes})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := s.deps.Feed.Comment(r.Context(), PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeServiceError(w, err, "comment")
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}
