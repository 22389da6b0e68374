// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
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

	"github.com/tbourn/go-scorecard-backend/internal/config"
	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/http/handlers"
	"github.com/tbourn/go-scorecard-backend/internal/http/middleware"
	"github.com/tbourn/go-scorecard-backend/internal/repo"
	"github.com/tbourn/go-scorecard-backend/internal/services"
)

// configStoreShim adapts the repository free functions to the
// services.ConfigStore interface expected by the ConfigService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type configStoreShim struct{}

// ListFields proxies repo.ListFields.
func (configStoreShim) ListFields(ctx context.Context, db *gorm.DB) ([]domain.Field, error) {
	return repo.ListFields(ctx, db)
}

// ListCategories proxies repo.ListCategories.
func (configStoreShim) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	return repo.ListCategories(ctx, db)
}

// GetSettings proxies repo.GetSettings.
func (configStoreShim) GetSettings(ctx context.Context, db *gorm.DB) (domain.Settings, error) {
	return repo.GetSettings(ctx, db)
}

// UpsertField proxies repo.UpsertField.
func (configStoreShim) UpsertField(ctx context.Context, db *gorm.DB, f *domain.Field) error {
	return repo.UpsertField(ctx, db, f)
}

// RenameField proxies repo.RenameField.
func (configStoreShim) RenameField(ctx context.Context, db *gorm.DB, oldID string, f *domain.Field) error {
	return repo.RenameField(ctx, db, oldID, f)
}

// DeleteField proxies repo.DeleteField.
func (configStoreShim) DeleteField(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteField(ctx, db, id)
}

// SaveFieldPositions proxies repo.SaveFieldPositions.
func (configStoreShim) SaveFieldPositions(ctx context.Context, db *gorm.DB, positions map[string]int) error {
	return repo.SaveFieldPositions(ctx, db, positions)
}

// CreateCategory proxies repo.CreateCategory.
func (configStoreShim) CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return repo.CreateCategory(ctx, db, c)
}

// RenameCategory proxies repo.RenameCategory.
func (configStoreShim) RenameCategory(ctx context.Context, db *gorm.DB, id, oldName, newName string) error {
	return repo.RenameCategory(ctx, db, id, oldName, newName)
}

// DeleteCategory proxies repo.DeleteCategory.
func (configStoreShim) DeleteCategory(ctx context.Context, db *gorm.DB, id, name string) error {
	return repo.DeleteCategory(ctx, db, id, name)
}

// SaveCategoryPositions proxies repo.SaveCategoryPositions.
func (configStoreShim) SaveCategoryPositions(ctx context.Context, db *gorm.DB, positions map[string]int) error {
	return repo.SaveCategoryPositions(ctx, db, positions)
}

// SaveSettings proxies repo.SaveSettings.
func (configStoreShim) SaveSettings(ctx context.Context, db *gorm.DB, s domain.Settings) error {
	return repo.SaveSettings(ctx, db, s)
}

// ReplaceAll proxies repo.ReplaceAll.
func (configStoreShim) ReplaceAll(ctx context.Context, db *gorm.DB, fields []domain.Field, categories []domain.Category, settings domain.Settings) error {
	return repo.ReplaceAll(ctx, db, fields, categories, settings)
}

// draftStoreShim adapts the draft repository free functions to the
// services.DraftStore interface.
type draftStoreShim struct{}

// GetDraft proxies repo.GetDraft.
func (draftStoreShim) GetDraft(ctx context.Context, db *gorm.DB, userID string) (map[string]string, error) {
	return repo.GetDraft(ctx, db, userID)
}

// SaveDraft proxies repo.SaveDraft.
func (draftStoreShim) SaveDraft(ctx context.Context, db *gorm.DB, userID string, scores map[string]string) error {
	return repo.SaveDraft(ctx, db, userID, scores)
}

// DeleteDraft proxies repo.DeleteDraft.
func (draftStoreShim) DeleteDraft(ctx context.Context, db *gorm.DB, userID string) error {
	return repo.DeleteDraft(ctx, db, userID)
}

// NewConfigService builds the ConfigService over the repository shim. Main
// calls Load on the returned service before serving traffic.
func NewConfigService(db *gorm.DB) *services.ConfigService {
	return services.NewConfigService(db, configStoreShim{})
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and
// rate limiting, CORS and security headers, health and metrics endpoints,
// and then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression (JSON reports and config exports compress well)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfgSvc *services.ConfigService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB covers the largest interchange documents)
	r.Use(limitBody(1 << 20))

	// 6) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation for configuration imports (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		"config",
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	repSvc := &services.ReportService{
		DB:     db,
		Config: cfgSvc,
		Drafts: draftStoreShim{},
	}
	h := handlers.New(cfgSvc, repSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Configuration aggregate
		api.GET("/config", h.GetConfig)
		api.GET("/config/status", h.GetConfigStatus)
		api.GET("/config/export", h.ExportConfig)
		api.POST("/config/import", h.ImportConfig)

		// Fields
		api.GET("/fields", h.ListFields)
		api.POST("/fields", h.CreateField)
		api.PUT("/fields/order", h.ReorderFields)
		api.GET("/fields/search", h.SearchFields)
		api.PUT("/fields/:id", h.UpdateField)
		api.DELETE("/fields/:id", h.DeleteField)

		// Categories
		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
		api.PUT("/categories/order", h.ReorderCategories)
		api.PUT("/categories/:id", h.RenameCategory)
		api.DELETE("/categories/:id", h.DeleteCategory)

		// Settings
		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)

		// Reports
		api.POST("/reports", h.GenerateReport)
		api.POST("/reports/pdf", h.ReportPDF)
		api.POST("/reports/xlsx", h.ReportXLSX)

		// Drafts
		api.GET("/drafts", h.GetDraft)
		api.PUT("/drafts", h.PutDraft)
		api.DELETE("/drafts", h.DeleteDraft)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the
// cap will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
