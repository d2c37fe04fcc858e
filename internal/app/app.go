// Package app wires together all dependencies and runs the reviews service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/reviews-service/internal/auth"
	"github.com/utafrali/reviews-service/internal/cache"
	"github.com/utafrali/reviews-service/internal/config"
	"github.com/utafrali/reviews-service/internal/event"
	handler "github.com/utafrali/reviews-service/internal/handler/http"
	"github.com/utafrali/reviews-service/internal/service"
	"github.com/utafrali/reviews-service/internal/store"
	"github.com/utafrali/reviews-service/internal/store/commercetools"
	"github.com/utafrali/reviews-service/internal/store/memory"
	storepg "github.com/utafrali/reviews-service/internal/store/postgres"
	"github.com/utafrali/reviews-service/pkg/database"
	"github.com/utafrali/reviews-service/pkg/health"
	pkgkafka "github.com/utafrali/reviews-service/pkg/kafka"
)

// App wires together all dependencies and runs the reviews service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates an application instance, initializing all dependencies.
// Backend initialization failures fall back to the in-memory store so
// the service always comes up.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	reviewStore, backend := a.initStore(ctx)

	// Kafka producer, only when brokers are configured.
	var events service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Redis rating cache, only when a host is configured.
	var ratings cache.RatingCache = cache.Noop{}
	if cfg.RedisHost != "" {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("redis unavailable, rating cache disabled", slog.String("error", err.Error()))
		} else {
			a.redis = client
			ratings = cache.NewRedis(client, cfg.RatingCacheTTL, logger)
			logger.Info("redis rating cache initialized", slog.String("host", cfg.RedisHost))
		}
	}

	limits := service.Limits{
		MinRating:           cfg.MinRating,
		MaxRating:           cfg.MaxRating,
		MaxCommentLength:    cfg.MaxCommentLength,
		MaxAuthorNameLength: cfg.MaxAuthorNameLength,
	}
	reviewService := service.NewReviewService(reviewStore, backend, limits, ratings, events, logger)

	tokens := auth.NewTokenManager(cfg.JWTSecret, "reviews-service", cfg.JWTExpiry)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("store", func(ctx context.Context) error {
		if !reviewStore.Ping(ctx) {
			return fmt.Errorf("%s backend unreachable", backend)
		}
		return nil
	})
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}
	if a.redis != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	router := handler.NewRouter(
		handler.NewReviewHandler(reviewService, logger),
		handler.NewAuthHandler(tokens, demoCredentials, logger),
		healthHandler,
		handler.RouterConfig{
			TokenValidator:     tokens.Verify,
			RateLimitRPS:       cfg.RateLimitRPS,
			RateLimitBurst:     cfg.RateLimitBurst,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger,
	)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// initStore constructs the configured review store, falling back to the
// in-memory one whenever the chosen backend cannot be initialized.
func (a *App) initStore(ctx context.Context) (store.Store, string) {
	switch a.cfg.SelectedBackend() {
	case config.BackendCommercetools:
		client, err := commercetools.NewClient(ctx, commercetools.Config{
			ProjectKey:   a.cfg.CTProjectKey,
			ClientID:     a.cfg.CTClientID,
			ClientSecret: a.cfg.CTClientSecret,
			AuthURL:      a.cfg.CTAuthURL,
			APIURL:       a.cfg.CTAPIURL,
			Scopes:       a.cfg.CTScopes,
		}, a.logger)
		if err != nil {
			a.logger.Warn("commercetools unavailable, falling back to memory store",
				slog.String("error", err.Error()),
			)
			return a.memoryStore(), config.BackendMemory
		}
		a.logger.Info("using commercetools review store",
			slog.String("project", a.cfg.CTProjectKey),
		)
		return commercetools.New(client, a.logger), config.BackendCommercetools

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
			Host:            a.cfg.PostgresHost,
			Port:            a.cfg.PostgresPort,
			User:            a.cfg.PostgresUser,
			Password:        a.cfg.PostgresPass,
			DBName:          a.cfg.PostgresDB,
			SSLMode:         a.cfg.PostgresSSL,
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		}, a.logger)
		if err != nil {
			a.logger.Warn("postgres unavailable, falling back to memory store",
				slog.String("error", err.Error()),
			)
			return a.memoryStore(), config.BackendMemory
		}
		a.pool = pool
		a.logger.Info("using postgres review store",
			slog.String("host", a.cfg.PostgresHost),
			slog.String("database", a.cfg.PostgresDB),
		)
		return storepg.New(pool), config.BackendPostgres

	default:
		a.logger.Info("using in-memory review store")
		return a.memoryStore(), config.BackendMemory
	}
}

func (a *App) memoryStore() *memory.Store {
	st := memory.New()
	if a.cfg.Environment == "development" {
		st.Seed(demoReviews())
		a.logger.Info("seeded demo reviews", slog.String("product", demoProductID))
	}
	return st
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return nil
}
