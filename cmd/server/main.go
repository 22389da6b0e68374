// Command server runs the scorecard backend: a REST API over the scoring
// form configuration (fields, categories, settings), score submission and
// report generation, document export, and per-user drafts.
//
// Startup order: environment → config → logging → database → tracing →
// in-memory configuration snapshot → HTTP server. Shutdown is graceful on
// SIGINT/SIGTERM.
//
// @title        Scorecard Backend API
// @version      1.0
// @description  REST API for the configurable scoring form: field catalog, categories, settings, report generation, and import/export.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/tbourn/go-scorecard-backend/docs"
	"github.com/tbourn/go-scorecard-backend/internal/config"
	httpapi "github.com/tbourn/go-scorecard-backend/internal/http"
	"github.com/tbourn/go-scorecard-backend/internal/observability"
	"github.com/tbourn/go-scorecard-backend/internal/repo"
	"github.com/tbourn/go-scorecard-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging before anything that can fail.
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("opentelemetry setup failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("gorm tracing plugin failed")
		}
	}

	cfgSvc := httpapi.NewConfigService(db)
	if err := cfgSvc.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("configuration load failed")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfgSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Periodic cleanup of expired idempotency records.
	purgeCtx, cancelPurge := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case now := <-t.C:
				if err := repo.PurgeExpiredIdempotency(purgeCtx, db, now); err != nil {
					log.Warn().Err(err).Msg("idempotency purge failed")
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	cancelPurge()
	shutCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown failed")
	}
	log.Info().Msg("server stopped")
}
