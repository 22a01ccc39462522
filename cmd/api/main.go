// Package main implements the Cosmos Nexus search API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/answer"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/embed"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/events"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/generate"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/prompt"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/retrieval"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/semantic"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/metrics"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/mid"
	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/pkg/resilience"
)

// Config holds all environment-based configuration, read once at startup.
type Config struct {
	Port           string
	GeminiAPIKey   string
	GeminiBaseURL  string
	EmbedModel     string
	EmbedDimension int
	ChatModel      string
	IndexBackend   string // "qdrant" or "memory"
	QdrantURL      string
	Collection     string
	SnapshotPath   string
	NATSURL        string
	CORSOrigin     string
	MaxRecordChars int
	EmbedTimeout   time.Duration
	SearchTimeout  time.Duration
	GenTimeout     time.Duration
	RetryAttempts  int
}

func loadConfig() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:  envOr("GEMINI_BASE_URL", ""),
		EmbedModel:     envOr("EMBED_MODEL", "text-embedding-004"),
		EmbedDimension: envIntOr("EMBED_DIMENSION", 768),
		ChatModel:      envOr("CHAT_MODEL", generate.DefaultModel),
		IndexBackend:   envOr("INDEX_BACKEND", "qdrant"),
		QdrantURL:      envOr("QDRANT_URL", "localhost:6334"),
		Collection:     envOr("QDRANT_COLLECTION", "cosmos"),
		SnapshotPath:   envOr("SNAPSHOT_PATH", "records.jsonl"),
		NATSURL:        os.Getenv("NATS_URL"),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
		MaxRecordChars: envIntOr("MAX_RECORD_CHARS", prompt.DefaultMaxRecordRunes),
		EmbedTimeout:   envDurOr("EMBED_TIMEOUT", 10*time.Second),
		SearchTimeout:  envDurOr("SEARCH_TIMEOUT", 5*time.Second),
		GenTimeout:     envDurOr("GENERATE_TIMEOUT", 30*time.Second),
		RetryAttempts:  envIntOr("RETRY_ATTEMPTS", 3),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	// --- Vector index ---
	var index semantic.Index
	var health func(context.Context) error
	switch cfg.IndexBackend {
	case "memory":
		snap, err := semantic.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		logger.Info("memory index loaded", "records", snap.Len(), "path", cfg.SnapshotPath)
		index = snap
		health = func(context.Context) error { return nil }
	case "qdrant":
		q, err := semantic.NewQdrant(cfg.QdrantURL, cfg.Collection)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer q.Close()
		index = q
		health = q.Healthy
	default:
		return fmt.Errorf("unknown INDEX_BACKEND %q", cfg.IndexBackend)
	}

	// --- Provider clients ---
	embedder := embed.NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.EmbedModel, cfg.EmbedDimension)
	generator := generate.NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.ChatModel)
	breaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)

	// --- Optional NATS events ---
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats connect failed, query events disabled", "err", err)
		} else {
			defer nc.Drain()
			publisher = events.NewPublisher(nc, logger)
		}
	}

	// --- Query service ---
	reg := metrics.New()

	opts := answer.DefaultOptions()
	opts.EmbedTimeout = cfg.EmbedTimeout
	opts.SearchTimeout = cfg.SearchTimeout
	opts.GenerateTimeout = cfg.GenTimeout
	opts.Retry.MaxAttempts = cfg.RetryAttempts
	opts.ObserveStage = stageObserver(reg)

	svc := answer.New(
		embedder,
		retrieval.New(index, logger),
		prompt.New(cfg.MaxRecordChars),
		generator,
		breaker,
		opts,
		logger,
	)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", handleSearch(svc, publisher, reg, logger))
	mux.HandleFunc("GET /health", handleHealth(health))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("cosmos-nexus-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "index", cfg.IndexBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func handleHealth(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		indexOK := true
		if err := check(r.Context()); err != nil {
			status = "degraded"
			indexOK = false
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":          status,
			"index_connected": indexOK,
		})
	}
}
