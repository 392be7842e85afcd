package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/catalog"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/config"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/enrollment"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/feed"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/health"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/identity"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/pairing"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/submission"
)

// Deps are the services the API exposes
type Deps struct {
	Identity    *identity.Provider
	Catalog     *catalog.Catalog
	Enrollments *enrollment.Tracker
	Pairing     *pairing.Service
	Submissions *submission.Service
	Feed        *feed.Feed
	Health      *health.Registry
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	deps           Deps
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		config:         cfg,
		deps:           deps,
		authMiddleware: NewAuthMiddleware(deps.Identity),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		// Identify the caller when a token is sent; public routes stay open
		r.Use(s.authMiddleware.Authenticate)

		// Websocket streams outlive the request timeout
		r.With(s.authMiddleware.RequireAuth).Get("/partner/ws", s.handlePartnerWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", s.handleSignUp)
				r.Post("/signin", s.handleSignIn)
				r.With(s.authMiddleware.RequireAuth).Post("/signout", s.handleSignOut)
				r.With(s.authMiddleware.RequireAuth).Get("/me", s.handleGetProfile)
				r.With(s.authMiddleware.RequireAuth).Patch("/me", s.handleUpdateProfile)
			})

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", s.handleListChallenges)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetChallenge)
					r.With(s.authMiddleware.RequireAuth).Post("/enroll", s.handleEnroll)
					r.With(s.authMiddleware.RequireAuth).Post("/checkout", s.handleStartCheckout)
					r.With(s.authMiddleware.RequireAuth).Post("/checkout/confirm", s.handleConfirmCheckout)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware.RequireAuth)

				r.Get("/enrollments", s.handleListEnrollments)

				r.Get("/partner", s.handleGetPartner)
				r.Get("/partner/messages", s.handleGetThread)
				r.Post("/partner/messages", s.handleSendMessage)

				r.Route("/submissions", func(r chi.Router) {
					r.Get("/", s.handleListSubmissions)
					r.Post("/", s.handleCreateSubmission)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", s.handleGetSubmission)
						r.Put("/", s.handleEditSubmission)
						r.Post("/submit", s.handleSubmitSubmission)
						r.Post("/validate", s.handleValidateSubmission)
						r.Post("/share", s.handleShareSubmission)
					})
				})
			})

			r.Route("/feed", func(r chi.Router) {
				r.Get("/", s.handleListFeed)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetFeedItem)
					r.Get("/comments", s.handleListComments)
					r.With(s.authMiddleware.RequireAuth).Post("/like", s.handleLike)
					r.With(s.authMiddleware.RequireAuth).Post("/comments", s.handleComment)
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
