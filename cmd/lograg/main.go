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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/answerer/extractive"
	"github.com/kailas-cloud/lograg/internal/chunker"
	"github.com/kailas-cloud/lograg/internal/config"
	"github.com/kailas-cloud/lograg/internal/db"
	dbValkey "github.com/kailas-cloud/lograg/internal/db/valkey"
	"github.com/kailas-cloud/lograg/internal/domain"
	domrag "github.com/kailas-cloud/lograg/internal/domain/rag"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/mode"
	"github.com/kailas-cloud/lograg/internal/embedder/hashing"
	logpkg "github.com/kailas-cloud/lograg/internal/logger"
	"github.com/kailas-cloud/lograg/internal/metrics"
	"github.com/kailas-cloud/lograg/internal/repository/embcache"
	"github.com/kailas-cloud/lograg/internal/repository/memory"
	recordrepo "github.com/kailas-cloud/lograg/internal/repository/record"
	chiTransport "github.com/kailas-cloud/lograg/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/lograg/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/lograg/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lograg/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/lograg/internal/usecase/indexing"
	raguc "github.com/kailas-cloud/lograg/internal/usecase/rag"
	retrievaluc "github.com/kailas-cloud/lograg/internal/usecase/retrieval"
	"github.com/kailas-cloud/lograg/internal/version"
)

// vectorStore is what both record backends provide.
type vectorStore interface {
	indexinguc.RecordStore
	retrievaluc.Searcher
	EnsureIndex(ctx context.Context) error
}

// answerer is a rag.Answerer that can report its health.
type answerer interface {
	domrag.Answerer
	healthuc.Checker
}

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lograg API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRAGMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()
	dims := cfg.Embedding.Dimensions

	// Pass nil interfaces (not typed nil pointers) when running in memory.
	var (
		kv      db.KVStore
		pinger  healthuc.Pinger
		records vectorStore
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		records = memory.New(dims)
		logger.Warn("Using in-memory record store; data is lost on restart")
	default:
		// valkey and redis 8 speak the same search dialect
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		kv, pinger = store, store
		records = recordrepo.New(store, dims, recordrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
			EFRuntime:   cfg.Index.HNSWEFRuntime,
		})
	}
	if err := records.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create record index", zap.Error(err))
	}

	docEmbedder, err := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, kv, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	queryEmbedder, err := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, kv, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", dims),
	)

	embeddings := embeddinguc.NewService(docEmbedder, queryEmbedder, embeddinguc.Config{
		Model:         cfg.Embedding.Model,
		Dimensions:    dims,
		MaxInputChars: cfg.Embedding.MaxInputChars,
		BatchSize:     cfg.Embedding.BatchSize,
		Workers:       cfg.Embedding.Workers,
	}, logger)

	split := chunker.New(chunker.Config{
		MinSize:     cfg.Chunking.MinSize,
		MaxSize:     cfg.Chunking.MaxSize,
		Overlap:     *cfg.Chunking.Overlap,
		SampleLines: cfg.Chunking.SampleLines,
	})

	ans := buildAnswerer(cfg.Answerer, logger)

	indexSvc := indexinguc.New(records, split, embeddings, indexinguc.Config{
		Workers:      cfg.Indexing.Workers,
		MaxBatchSize: cfg.Indexing.MaxBatchSize,
	}, logger)
	retrievalSvc := retrievaluc.New(records, embeddings, retrievaluc.Config{
		Weights: retrievaluc.Weights{
			Vector:  cfg.Retrieval.VectorWeight,
			Lexical: cfg.Retrieval.LexicalWeight,
		},
		Overfetch: cfg.Retrieval.Overfetch,
	}, logger)
	pipeline := raguc.New(embeddings, retrievalSvc, ans, raguc.Config{
		MaxContextChars:       cfg.Answerer.MaxContextChars,
		AnswererTimeout:       time.Duration(cfg.Answerer.TimeoutSec) * time.Second,
		RetryBackoff:          time.Duration(*cfg.Answerer.RetryBackoffMs) * time.Millisecond,
		AnswerWithoutEvidence: cfg.Answerer.AnswerWithoutEvidence,
	}, logger)
	healthSvc := healthuc.New(pinger, embeddings, ans)

	server := chiTransport.NewServer(indexSvc, retrievalSvc, pipeline, healthSvc, logger).
		WithDefaultMode(mode.Mode(cfg.Retrieval.DefaultMode)).
		WithMaxBodyBytes(int64(cfg.HTTP.MaxBodyMB) << 20)

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

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented -> instruction.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	kv db.KVStore,
	logger *zap.Logger,
) (domain.Embedder, error) {
	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderHashing:
		h, err := hashing.New(cfg.Dimensions, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("hashing embedder: %w", err)
		}
		base = h
	default:
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	}

	embedder := base
	if kv != nil && cfg.CacheTTLSec >= 0 {
		ttl := time.Duration(cfg.CacheTTLSec) * time.Second
		embedder = embcache.New(base, kv, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// outermost, so the cache key includes the instruction
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction), nil
	}
	return embedder, nil
}

func buildAnswerer(cfg config.AnswererConfig, logger *zap.Logger) answerer {
	if cfg.Provider == config.ProviderExtractive {
		return extractive.New(cfg.MaxLines)
	}
	return openaiTransport.NewAnswerer(&openaiTransport.AnswererConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		Logger:       logger,
	})
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// tenant ids only, never document text or questions
			reqLogger.Info("http_request",
				zap.String("project_id", r.Header.Get(chiTransport.HeaderProjectID)),
				zap.String("user_id", r.Header.Get(chiTransport.HeaderUserID)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("embedding_tokens", ww.Header().Get("X-Embedding-Tokens")),
			)
		})
	}
}
