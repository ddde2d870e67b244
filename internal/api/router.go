package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"jobboard/internal/domain"
	"jobboard/internal/middleware"
)

// RouterConfig holds the ambient middleware settings.
type RouterConfig struct {
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	RateLimit          middleware.RateLimitConfig // disabled when RequestsPerSecond <= 0
	Metrics            http.Handler               // served at /metrics when non-nil
}

// NewRouter mounts every route family. Each family's gate is attached to
// the route group, so a handler only runs after its gate admits the request.
func NewRouter(ctx context.Context, h *Handler, gate *middleware.Gate, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(middleware.RateLimiter(ctx, cfg.RateLimit))
		}

		r.Post("/billing/webhooks", h.StripeWebhook)

		r.With(gate.Authenticate).Get("/auth/me", h.Me)

		r.Route("/admin", func(r chi.Router) {
			r.Use(gate.RequireRoles(domain.AdminRoles))
			r.Get("/users", h.ListUsers)
			r.Patch("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)
			r.Post("/subscriptions/{id}/cancel", h.CancelSubscription)
		})

		r.Route("/recruiter", func(r chi.Router) {
			r.Use(gate.RequireRoles(domain.RecruiterRoles))
			r.Post("/embeddings", h.CreateEmbedding)
		})

		r.Route("/candidate", func(r chi.Router) {
			r.Use(gate.RequireRoles(domain.CandidateRoles))
			r.Post("/resume-upload", h.ResumeUpload)
		})
	})

	return r
}
