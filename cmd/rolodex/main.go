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

	"github.com/rolodex-hq/rolodex/internal/config"
	"github.com/rolodex-hq/rolodex/internal/db"
	dbRedis "github.com/rolodex-hq/rolodex/internal/db/redis"
	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/search/query"
	logpkg "github.com/rolodex-hq/rolodex/internal/logger"
	"github.com/rolodex-hq/rolodex/internal/metrics"
	"github.com/rolodex-hq/rolodex/internal/repository/embcache"
	itemrepo "github.com/rolodex-hq/rolodex/internal/repository/item"
	savedsearchrepo "github.com/rolodex-hq/rolodex/internal/repository/savedsearch"
	chiTransport "github.com/rolodex-hq/rolodex/internal/transport/chi"
	openaiEmb "github.com/rolodex-hq/rolodex/internal/transport/openai"
	enrichuc "github.com/rolodex-hq/rolodex/internal/usecase/enrich"
	healthuc "github.com/rolodex-hq/rolodex/internal/usecase/health"
	itemuc "github.com/rolodex-hq/rolodex/internal/usecase/item"
	searchuc "github.com/rolodex-hq/rolodex/internal/usecase/search"
	savedsearchuc "github.com/rolodex-hq/rolodex/internal/usecase/savedsearch"
	"github.com/rolodex-hq/rolodex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rolodex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
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

	// Register domain metrics explicitly (no init())
	metrics.Register()

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	itemRepo := itemrepo.NewRepository(store, cfg.Embedding.Dimensions)
	searchRepo := savedsearchrepo.NewRepository(store)

	// Background enrichment
	enricher := enrichuc.New(itemRepo, embedder, enrichuc.Config{
		Workers:      cfg.Enrich.Workers,
		QueueSize:    cfg.Enrich.QueueSize,
		EmbedTimeout: time.Duration(cfg.Enrich.EmbedTimeoutSec) * time.Second,
	}, logger)

	enrichCtx, stopEnricher := context.WithCancel(ctx)
	enricherDone := make(chan struct{})
	go func() {
		defer close(enricherDone)
		if err := enricher.Run(enrichCtx); err != nil {
			logger.Error("Enricher stopped with error", zap.Error(err))
		}
	}()

	// Use case services
	itemSvc := itemuc.NewService(itemRepo, enricher)
	searchSvc := searchuc.NewService(itemRepo, embedder, searchuc.Config{
		Threshold:    cfg.Search.Threshold,
		Dimensions:   cfg.Embedding.Dimensions,
		QueryTimeout: time.Duration(cfg.Search.QueryTimeoutSec) * time.Second,
	})
	savedSearchSvc := savedsearchuc.NewService(searchRepo)
	healthSvc := healthuc.NewService(store, newEmbeddingHealthChecker(embedder), 5*time.Second)

	server := chiTransport.NewServer(itemSvc, searchSvc, savedSearchSvc, healthSvc, query.Limits{
		Default: cfg.Search.DefaultPageSize,
		Max:     cfg.Search.MaxPageSize,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.Enabled, cfg.Auth.APIKeys))
	if cfg.RateLimit.Enabled {
		r.Use(chiTransport.RateLimitMiddleware(
			store, cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSec)*time.Second, logger,
		))
	}
	r.Use(metrics.Middleware())
	server.Mount(r)

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

	// Stop enrichment workers after the server stops accepting writes.
	stopEnricher()
	select {
	case <-enricherDone:
	case <-shutdownCtx.Done():
		logger.Warn("Enricher did not stop in time")
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement the health check contract.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if cfg.Embedding.CacheTTLSec <= 0 {
		return base
	}
	return embcache.NewEmbedder(
		base, store, cfg.Embedding.Model,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
	)
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
