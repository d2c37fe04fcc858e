package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/reviews-service/pkg/health"
	"github.com/utafrali/reviews-service/pkg/middleware"
)

// RouterConfig carries everything the router needs beyond the handlers.
type RouterConfig struct {
	TokenValidator     middleware.TokenValidator
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// NewRouter creates a chi router with all reviews service routes registered.
func NewRouter(
	reviewHandler *ReviewHandler,
	authHandler *AuthHandler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("reviews-service"))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

	// Probes and metrics
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Service health with backend detail
	r.Get("/api/reviews/health", reviewHandler.Health)

	// Auth endpoints
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.With(middleware.RequireAuth(cfg.TokenValidator)).Get("/verify", authHandler.Verify)
	})

	// Review API endpoints (nested under products)
	r.Route("/api/products/{productId}", func(r chi.Router) {
		r.Get("/rating", reviewHandler.GetRating)
		r.Get("/reviews", reviewHandler.ListReviews)
		r.With(middleware.OptionalAuth(cfg.TokenValidator)).Post("/reviews", reviewHandler.CreateReview)
	})

	// Admin endpoints
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.TokenValidator))
		r.Use(middleware.RequireRole("admin"))

		r.Delete("/reviews/{reviewId}", reviewHandler.DeleteReview)
	})

	return r
}
