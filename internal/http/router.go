// Package httpapi wires the HTTP transport (Gin) to the relay services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-topic-relay/docs"
	"github.com/tbourn/go-topic-relay/internal/config"
	"github.com/tbourn/go-topic-relay/internal/domain"
	"github.com/tbourn/go-topic-relay/internal/http/handlers"
	"github.com/tbourn/go-topic-relay/internal/http/middleware"
	"github.com/tbourn/go-topic-relay/internal/repo"
	"github.com/tbourn/go-topic-relay/internal/services"
)

// Deps are the collaborators the routes need besides configuration.
type Deps struct {
	DB *gorm.DB
	// Checker verifies bot credentials when a topic is created.
	Checker services.CredentialChecker
	// Dispatcher receives notification jobs; nil disables notifications.
	Dispatcher services.Enqueuer
}

// topicRepoShim adapts the repository free functions to services.TopicRepo.
type topicRepoShim struct{}

// CreateTopic proxies repo.CreateTopic.
func (topicRepoShim) CreateTopic(ctx context.Context, db *gorm.DB, name string, cfg domain.JSON) (*domain.Topic, error) {
	return repo.CreateTopic(ctx, db, name, cfg)
}

// GetTopic proxies repo.GetTopic.
func (topicRepoShim) GetTopic(ctx context.Context, db *gorm.DB, id string) (*domain.Topic, error) {
	return repo.GetTopic(ctx, db, id)
}

// idempotencyStore backs handlers.IdempotencyStore with the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Exists reports whether a live record exists for (topicID, key). It
// satisfies middleware.IdempotencyLookup.
func (s idempotencyStore) Exists(ctx context.Context, topicID, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.db, topicID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Record stores the outcome. A concurrent request that already recorded the
// same key wins; that is not an error for the caller.
func (s idempotencyStore) Record(ctx context.Context, topicID, key string, messageID uint, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, topicID, key, messageID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII and credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics (then /metrics, /health, /ping, which are never rate limited)
//  7. CORS, gzip and security headers
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per client IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) error {
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Api-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and probes
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// 7) CORS, compression, security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 8) Idempotency validation (before rate limiting)
	idem := idempotencyStore{db: deps.DB, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Exists))

	// 9) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services <- repo/db/notifier
	topicSvc := services.NewTopicService(deps.DB, topicRepoShim{}, deps.Checker)
	msgSvc := &services.MessageService{
		DB:         deps.DB,
		Topics:     topicSvc,
		Dispatcher: deps.Dispatcher,
	}
	h := handlers.New(topicSvc, msgSvc, idem)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/topics", h.CreateTopic)
		api.POST("/topics/:id/messages", h.PostMessage)
		api.GET("/topics/:id/messages", middleware.BearerAuth(cfg.ContactToken), h.ListMessages)
	}
	return nil
}

// corsMiddleware allows any origin when none are configured (credentials
// are then disabled), otherwise only the allowlist.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", handlers.HeaderReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
