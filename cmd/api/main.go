package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/api/handlers"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/embeddings"
	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/prompt"
	"github.com/askdb/askdb/internal/repository"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/pkg/database"
)

const questionEmbeddingCacheSize = 256

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Artifact store: Postgres/pgvector when configured, local snapshot otherwise
	store, closeStore, err := openArtifactStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open artifact store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Embedding client (OpenAI-compatible), rate limited
	var embedOpts []embeddings.OpenAIOption
	if cfg.EmbedAPIBase != "" {
		embedOpts = append(embedOpts, embeddings.WithBaseURL(cfg.EmbedAPIBase))
	}
	if cfg.EmbedDimensions > 0 {
		embedOpts = append(embedOpts, embeddings.WithDimensions(cfg.EmbedDimensions))
	}

	openaiClient := embeddings.NewOpenAIClient(cfg.EmbedAPIKey, cfg.EmbedModelName, embedOpts...)

	var embeddingClient service.EmbeddingClient = openaiClient
	if cfg.EmbedRateLimit > 0 {
		embeddingClient = embeddings.NewRateLimitedClient(openaiClient, cfg.EmbedRateLimit)
	}

	// Text generator: completion-style endpoint when INFERENCE_URL is set,
	// chat-style otherwise
	generator := newGenerator(cfg)

	// Target database the generated SQL runs against
	exec, err := executor.Open(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to target database", "error", err, "dbType", cfg.DBType)
		os.Exit(1)
	}
	defer exec.Close()

	questionCache, err := lru.New[string, []float32](questionEmbeddingCacheSize)
	if err != nil {
		slog.Error("Failed to create question embedding cache", "error", err)
		os.Exit(1)
	}

	retriever := service.NewRetriever(service.RetrieverParams{
		EmbeddingClient: embeddingClient,
		Store:           store,
		Limits: service.RetrievalLimits{
			QASamples:   cfg.RetrievalQALimit,
			SchemaFacts: cfg.RetrievalDDLLimit,
			DocFacts:    cfg.RetrievalDocLimit,
		},
		QueryCache: questionCache,
	})

	queryService := service.NewQueryService(service.QueryServiceParams{
		Retriever:       retriever,
		Assembler:       prompt.NewAssembler(dialectName(cfg.DBType), cfg.PromptMaxChars),
		Generator:       generator,
		Executor:        exec,
		GenerateTimeout: cfg.GenerateTimeout,
		ExecuteTimeout:  cfg.ExecuteTimeout,
	})

	trainingService := service.NewTrainingService(service.TrainingServiceParams{
		Store:           store,
		EmbeddingClient: embeddingClient,
		ListLimit:       cfg.TrainingListLimit,
		Timeout:         cfg.TrainingTimeout,
	})

	router := api.NewRouter(api.RouterParams{
		Query:    handlers.NewQueryHandler(queryService),
		Training: handlers.NewTrainingHandler(trainingService, cfg.TrainingListLimit),
		Health:   handlers.NewHealthHandler(exec),
		APIKey:   cfg.ServiceAPIKey,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "dbType", cfg.DBType)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// openArtifactStore selects the artifact store backing. When
// VECTOR_DATABASE_URL is set artifacts live in Postgres with pgvector,
// otherwise in a local JSON snapshot (or purely in memory when no path is
// configured).
func openArtifactStore(
	ctx context.Context, cfg *config.Config,
) (service.ArtifactStore, func(), error) {
	if cfg.VectorDatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.VectorDatabaseURL,
			database.WithAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
				return pgxvec.RegisterTypes(ctx, conn)
			}))
		if err != nil {
			return nil, nil, err
		}

		store := repository.NewPostgresArtifacts(pool)
		if err := store.EnsureSchema(ctx, cfg.EmbedDimensions); err != nil {
			pool.Close()
			return nil, nil, err
		}

		slog.Info("Artifact store: postgres/pgvector", "dimensions", cfg.EmbedDimensions)

		return store, pool.Close, nil
	}

	store, err := repository.OpenLocalArtifacts(cfg.ArtifactStorePath)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Artifact store: local snapshot", "path", cfg.ArtifactStorePath)

	return store, func() {}, nil
}

func newGenerator(cfg *config.Config) service.TextGenerator {
	if cfg.InferenceURL != "" {
		slog.Info("Inference backend: completion endpoint", "url", cfg.InferenceURL, "model", cfg.Model)

		return llm.NewCompletionClient(llm.CompletionParams{
			URL:         cfg.InferenceURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		})
	}

	slog.Info("Inference backend: chat endpoint", "model", cfg.Model)

	return llm.NewChatClient(llm.ChatParams{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	})
}

// dialectName maps the configured database type onto the name used in prompts.
func dialectName(dbType string) string {
	switch dbType {
	case config.DialectPostgres:
		return "PostgreSQL"
	default:
		return "MySQL"
	}
}

// setupLogging configures slog with the specified log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
