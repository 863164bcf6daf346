package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/webhookd/internal/api/middleware"
	"github.com/eldtechnologies/webhookd/internal/config"
	"github.com/eldtechnologies/webhookd/internal/handlers"
	"github.com/eldtechnologies/webhookd/internal/ingest"
	"github.com/eldtechnologies/webhookd/internal/store"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 64 * 1024

// webhookPath accepts any content type; the body is checked by signature.
const webhookPath = "/webhook"

// NewRouter creates and configures the HTTP router. redisStore may be nil.
func NewRouter(logger zerolog.Logger, cfg *config.Config, st store.MessageStore, redisStore *store.RedisStore) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(MaxBodyBytes))
	r.Use(middleware.ValidateRequest(webhookPath))

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting, a no-op without Redis
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
		Whitelist:        cfg.RateLimitWhitelist,
		AutoBlockEnabled: cfg.AutoBlockEnabled,
	})
	r.Use(limiter.Middleware)

	// Read endpoints may be called from dashboards
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", handlers.SignatureHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	svc := ingest.NewService(cfg.WebhookSecret, st, logger)
	h := handlers.NewHandler(st, redisStore, svc, logger)

	if cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/", h.Root)

	r.Get("/health", h.Health)
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Post(webhookPath, h.Webhook)
	r.Get("/messages", h.ListMessages)
	r.Get("/stats", h.Stats)

	return r
}
