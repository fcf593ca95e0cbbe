package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fieldline/equipcat/internal/config"
	dbRedis "github.com/fieldline/equipcat/internal/db/redis"
	"github.com/fieldline/equipcat/internal/domain/similarity"
	logpkg "github.com/fieldline/equipcat/internal/logger"
	"github.com/fieldline/equipcat/internal/metrics"
	catalogrepo "github.com/fieldline/equipcat/internal/repository/catalog"
	mfrrepo "github.com/fieldline/equipcat/internal/repository/manufacturer"
	statusrepo "github.com/fieldline/equipcat/internal/repository/status"
	chiTransport "github.com/fieldline/equipcat/internal/transport/chi"
	cataloguc "github.com/fieldline/equipcat/internal/usecase/catalog"
	healthuc "github.com/fieldline/equipcat/internal/usecase/health"
	readinessuc "github.com/fieldline/equipcat/internal/usecase/readiness"
	similaruc "github.com/fieldline/equipcat/internal/usecase/similar"
	"github.com/fieldline/equipcat/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting equipcat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register catalog metrics explicitly (no init())
	metrics.RegisterCatalogMetrics()

	scorer, err := similarity.NewScorer(scoringParams(cfg.Scoring))
	if err != nil {
		logger.Fatal("Invalid scoring configuration", zap.Error(err))
	}

	// Create repositories (domain-native, no adapters)
	modelRepo := catalogrepo.New(store)
	manufacturerRepo := mfrrepo.New(store)

	// Create use case services
	catalogSvc := cataloguc.New(modelRepo, manufacturerRepo).
		WithPagination(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	similarSvc := similaruc.New(modelRepo, scorer)
	readinessSvc := readinessuc.New(catalogSvc, modelRepo, similarSvc, readinessConfig(cfg.Readiness)).
		WithReportStore(statusrepo.New(store))
	healthSvc := healthuc.New(store, modelRepo)

	// Create chi server
	server := chiTransport.NewServer(catalogSvc, similarSvc, readinessSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// scoringParams maps scoring config onto scorer parameters; unset fields keep
// the defaults.
func scoringParams(cfg config.ScoringConfig) similarity.Params {
	params := similarity.DefaultParams()
	if cfg.HPTolerance > 0 {
		params.HPTolerance = cfg.HPTolerance
	}
	if cfg.HPWeight != nil {
		params.Weights.HP = *cfg.HPWeight
	}
	if cfg.CategoryWeight != nil {
		params.Weights.Category = *cfg.CategoryWeight
	}
	if cfg.TransmissionWeight != nil {
		params.Weights.Transmission = *cfg.TransmissionWeight
	}
	return params
}

func readinessConfig(cfg config.ReadinessConfig) readinessuc.Config {
	return readinessuc.Config{
		QueryLatencyMax:      time.Duration(cfg.QueryLatencyMaxMs) * time.Millisecond,
		FilterLatencyMax:     time.Duration(cfg.FilterLatencyMaxMs) * time.Millisecond,
		SimilarityLatencyMax: time.Duration(cfg.SimilarityLatencyMaxMs) * time.Millisecond,
		Workers:              cfg.Workers,
		Iterations:           cfg.Iterations,
		MinCategories:        cfg.MinCategories,
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
