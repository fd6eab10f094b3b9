// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported target database dialects.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	LogLevel string

	// ServiceAPIKey protects the HTTP API when set. Empty disables auth.
	ServiceAPIKey string

	// Inference endpoint selection: when InferenceURL is set the
	// completion-style backend is used, otherwise the chat-style backend.
	InferenceURL string
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	TopP         float64
	MaxTokens    int

	// Embedding provider (OpenAI-compatible).
	EmbedAPIKey     string
	EmbedAPIBase    string
	EmbedModelName  string
	EmbedDimensions int
	EmbedRateLimit  float64

	// Target database the generated SQL runs against.
	DBType     string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Artifact store backing: Postgres/pgvector when VectorDatabaseURL is
	// set, otherwise a local snapshot file.
	VectorDatabaseURL string
	ArtifactStorePath string

	// Bounds.
	MaxResultRows     int
	TrainingListLimit int
	RetrievalQALimit  int
	RetrievalDDLLimit int
	RetrievalDocLimit int
	PromptMaxChars    int

	// Per-stage timeouts.
	GenerateTimeout time.Duration
	ExecuteTimeout  time.Duration
	TrainingTimeout time.Duration
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a duration (e.g. "30s")
// or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// Returns default values for any missing environment variables; the target
// database coordinates are required and an error is returned when they are
// not set.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	dbType := strings.ToLower(getEnv("DB_TYPE", DialectMySQL))
	if dbType == "postgresql" {
		dbType = DialectPostgres
	}
	if dbType != DialectMySQL && dbType != DialectPostgres {
		return nil, fmt.Errorf("unsupported DB_TYPE %q (supported: mysql, postgres)", dbType)
	}

	defaultDBPort := 3306
	if dbType == DialectPostgres {
		defaultDBPort = 5432
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ServiceAPIKey: os.Getenv("SERVICE_API_KEY"),

		InferenceURL: os.Getenv("INFERENCE_URL"),
		APIKey:       os.Getenv("API_KEY"),
		BaseURL:      os.Getenv("BASE_URL"),
		Model:        getEnv("MODEL", "gpt-3.5-turbo"),
		Temperature:  getEnvAsFloat("TEMPERATURE", 0.7),
		TopP:         getEnvAsFloat("TOP_P", 1.0),
		MaxTokens:    getEnvAsInt("MAX_TOKENS", 2048),

		EmbedAPIKey:     os.Getenv("EMBED_API_KEY"),
		EmbedAPIBase:    os.Getenv("EMBED_API_BASE"),
		EmbedModelName:  getEnv("EMBED_MODEL_NAME", "text-embedding-3-small"),
		EmbedDimensions: getEnvAsInt("EMBED_DIMENSIONS", 1536),
		EmbedRateLimit:  getEnvAsFloat("EMBED_RATE_LIMIT", 10),

		DBType:     dbType,
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvAsInt("DB_PORT", defaultDBPort),
		DBName:     os.Getenv("DB_NAME"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),

		VectorDatabaseURL: os.Getenv("VECTOR_DATABASE_URL"),
		ArtifactStorePath: getEnv("ARTIFACT_STORE_PATH", "artifact_store.json"),

		MaxResultRows:     getEnvAsInt("MAX_RESULT_ROWS", 10),
		TrainingListLimit: getEnvAsInt("TRAINING_LIST_LIMIT", 25),
		RetrievalQALimit:  getEnvAsInt("RETRIEVAL_QA_LIMIT", 10),
		RetrievalDDLLimit: getEnvAsInt("RETRIEVAL_DDL_LIMIT", 10),
		RetrievalDocLimit: getEnvAsInt("RETRIEVAL_DOC_LIMIT", 10),
		PromptMaxChars:    getEnvAsInt("PROMPT_MAX_CHARS", 24000),

		GenerateTimeout: getEnvAsDuration("GENERATE_TIMEOUT", 60*time.Second),
		ExecuteTimeout:  getEnvAsDuration("EXECUTE_TIMEOUT", 30*time.Second),
		TrainingTimeout: getEnvAsDuration("TRAINING_TIMEOUT", 60*time.Second),
	}

	if cfg.DBHost == "" || cfg.DBName == "" || cfg.DBUser == "" {
		return nil, errors.New("DB_HOST, DB_NAME and DB_USER environment variables are required")
	}

	if cfg.InferenceURL == "" && cfg.APIKey == "" {
		return nil, errors.New("either INFERENCE_URL or API_KEY must be set to reach an inference backend")
	}

	if cfg.MaxResultRows <= 0 {
		return nil, errors.New("MAX_RESULT_ROWS must be a positive integer")
	}

	if cfg.TrainingListLimit <= 0 {
		return nil, errors.New("TRAINING_LIST_LIMIT must be a positive integer")
	}

	if cfg.RetrievalQALimit <= 0 || cfg.RetrievalDDLLimit <= 0 || cfg.RetrievalDocLimit <= 0 {
		return nil, errors.New("retrieval limits must be positive integers")
	}

	if cfg.PromptMaxChars <= 0 {
		return nil, errors.New("PROMPT_MAX_CHARS must be a positive integer")
	}

	if cfg.EmbedDimensions <= 0 {
		return nil, errors.New("EMBED_DIMENSIONS must be a positive integer")
	}

	return cfg, nil
}
