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

	"github.com/kailas-cloud/curriqa/internal/chunker"
	"github.com/kailas-cloud/curriqa/internal/config"
	dbRedis "github.com/kailas-cloud/curriqa/internal/db/redis"
	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/loader"
	logpkg "github.com/kailas-cloud/curriqa/internal/logger"
	"github.com/kailas-cloud/curriqa/internal/metrics"
	"github.com/kailas-cloud/curriqa/internal/repository/embcache"
	"github.com/kailas-cloud/curriqa/internal/repository/registry"
	"github.com/kailas-cloud/curriqa/internal/repository/vecindex"
	chiTransport "github.com/kailas-cloud/curriqa/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/curriqa/internal/transport/openai"
	"github.com/kailas-cloud/curriqa/internal/transport/rerank"
	chatuc "github.com/kailas-cloud/curriqa/internal/usecase/chat"
	"github.com/kailas-cloud/curriqa/internal/usecase/contextualize"
	healthuc "github.com/kailas-cloud/curriqa/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/curriqa/internal/usecase/indexing"
	"github.com/kailas-cloud/curriqa/internal/version"
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

	logger.Info("Starting curriqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_path", cfg.Vector.Path),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
	)

	ctx := context.Background()

	// Register metrics explicitly (no init())
	metrics.Register()

	// Optional embedding cache
	var cacheStore *dbRedis.Store
	if cfg.Cache.Enabled() {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		if err := cacheStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache")
	}

	// Document registry + chat log (Postgres)
	reg := registry.Connect(cfg.Registry.DSN, cfg.Registry.Debug)
	defer reg.Close()

	if err := reg.Init(ctx); err != nil {
		logger.Fatal("Failed to init registry schema", zap.Error(err))
	}
	logger.Info("Connected to registry")

	// Embedder chain: OpenAI -> Cached
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	baseEmbedder := embedder
	if cacheStore != nil {
		embedder = embcache.New(
			embedder,
			cacheStore,
			time.Duration(cfg.Cache.TTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal,
			logger,
		)
	}

	// Embedded vector index
	index, err := vecindex.New(vecindex.Config{
		Path:          cfg.Vector.Path,
		Collection:    cfg.Vector.Collection,
		DocEmbedder:   embedder,
		QueryEmbedder: embedder,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to open vector index", zap.Error(err))
	}
	logger.Info("Vector index ready",
		zap.String("collection", cfg.Vector.Collection),
		zap.String("path", cfg.Vector.Path),
	)

	// Chat models: a cheap one for pipeline plumbing, per-request ones for answers
	contextModel := openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.ContextModel,
		Purpose: "context",
		Logger:  logger,
	})
	chatModel := openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.ChatModel,
		Purpose: "chat",
		Logger:  logger,
	})

	reranker := rerank.NewClient(&rerank.Config{
		BaseURL: cfg.Rerank.BaseURL,
		APIKey:  cfg.Rerank.APIKey,
		Model:   cfg.Rerank.Model,
		Logger:  logger,
	})

	// Use case services
	annotator := contextualize.New(contextModel, logger)
	split := chunker.New(chunker.DefaultChunkSize, chunker.DefaultChunkOverlap)
	docSvc := indexinguc.New(reg, index, annotator, split, loader.LoadPDF)

	chatSvc := chatuc.New(reg, index, reranker, modelResolver(chatModel, cfg.LLM), chatuc.Config{
		PoolK:       cfg.Retrieval.PoolK,
		MaxVariants: cfg.Retrieval.MaxVariants,
		TopN:        cfg.Rerank.TopN,
	})

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(reg, cachePinger, providerChecker(baseEmbedder), providerChecker(chatModel))

	// Create chi server
	server := chiTransport.NewServer(chatSvc, docSvc, healthSvc, chiTransport.UploadConfig{
		TempDir:  cfg.Upload.TempDir,
		MaxBytes: int64(cfg.Upload.MaxSizeMB) << 20,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

	logger.Info("Server stopped gracefully")
}

// modelResolver maps a requested model name to a bound chat model. Empty
// means the configured default; anything outside the allowlist is rejected.
func modelResolver(base *openaiTransport.ChatModel, cfg config.LLMConfig) chatuc.ModelResolver {
	allowed := make(map[string]struct{}, len(cfg.AllowModels))
	for _, m := range cfg.AllowModels {
		allowed[m] = struct{}{}
	}

	return func(name string) (domain.ChatModel, error) {
		if name == "" {
			return base, nil
		}
		if _, ok := allowed[name]; !ok {
			return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownModel)
		}
		if name == base.Model() {
			return base, nil
		}
		return base.WithModel(name), nil
	}
}

// providerChecker adapts anything with an optional HealthCheck method to
// health.ProviderChecker.
type healthCheckerAdapter struct {
	target any
}

func providerChecker(target any) healthuc.ProviderChecker {
	return &healthCheckerAdapter{target: target}
}

func (h *healthCheckerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := h.target.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("provider health check: %w", err)
		}
	}
	return nil
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
