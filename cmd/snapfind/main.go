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

	"github.com/kailas-cloud/snapfind/internal/config"
	dbRedis "github.com/kailas-cloud/snapfind/internal/db/redis"
	logpkg "github.com/kailas-cloud/snapfind/internal/logger"
	"github.com/kailas-cloud/snapfind/internal/metrics"
	catalogrepo "github.com/kailas-cloud/snapfind/internal/repository/catalog"
	"github.com/kailas-cloud/snapfind/internal/retry"
	chiTransport "github.com/kailas-cloud/snapfind/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/snapfind/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/snapfind/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/snapfind/internal/usecase/health"
	rerankuc "github.com/kailas-cloud/snapfind/internal/usecase/rerank"
	retrievaluc "github.com/kailas-cloud/snapfind/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/snapfind/internal/usecase/search"
	settingsuc "github.com/kailas-cloud/snapfind/internal/usecase/settings"
	telemetryuc "github.com/kailas-cloud/snapfind/internal/usecase/telemetry"
	visionuc "github.com/kailas-cloud/snapfind/internal/usecase/vision"
	"github.com/kailas-cloud/snapfind/internal/version"
)

const visionMaxAttempts = 3

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

	logger.Info("Starting snapfind API server",
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

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Provider transports
	vision := openaiTransport.NewVision(&openaiTransport.VisionConfig{
		APIKey:          cfg.Providers.Vision.APIKey,
		BaseURL:         cfg.Providers.Vision.BaseURL,
		Model:           cfg.Providers.Vision.Model,
		Provider:        "openai",
		Temperature:     cfg.Providers.Vision.Temperature,
		MaxOutputTokens: cfg.Providers.Vision.MaxOutputTokens,
		Logger:          logger,
	})
	reranker := openaiTransport.NewReranker(&openaiTransport.RerankerConfig{
		APIKey:          cfg.Providers.Rerank.APIKey,
		BaseURL:         cfg.Providers.Rerank.BaseURL,
		Model:           cfg.Providers.Rerank.Model,
		Provider:        "openai",
		Temperature:     cfg.Providers.Rerank.Temperature,
		MaxOutputTokens: cfg.Providers.Rerank.MaxOutputTokens,
		Logger:          logger,
	})

	// Repository and use case services
	catalogRepo := catalogrepo.New(store, cfg.Storage.KeyPrefix, cfg.Pipeline.MaxDescriptionLen)

	catalogSvc := cataloguc.New(catalogRepo)
	if err := catalogSvc.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create product index", zap.Error(err))
	}

	settingsProvider, err := settingsuc.NewProvider(cfg.Pipeline)
	if err != nil {
		logger.Fatal("Invalid pipeline settings", zap.Error(err))
	}

	telemetrySink := telemetryuc.NewSink(cfg.Telemetry.Capacity)

	visionSvc := visionuc.New(vision,
		retry.New(visionMaxAttempts, retry.Fixed(500*time.Millisecond)), logger)
	retrievalSvc := retrievaluc.New(catalogRepo, logger)
	rerankSvc := rerankuc.New(reranker, logger)

	searchSvc := searchuc.New(
		visionSvc, retrievalSvc, rerankSvc, settingsProvider, telemetrySink, logger,
	)

	healthSvc := healthuc.New(store, vision)

	// Create chi server
	server := chiTransport.NewServer(
		searchSvc, catalogSvc, settingsProvider, telemetrySink, healthSvc,
		cfg.HTTP.MaxImageBytes, logger,
	)

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
			ctx := logpkg.ContextWith(r.Context(), reqLogger)

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
