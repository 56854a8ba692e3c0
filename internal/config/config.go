// Package config loads process configuration from the environment, with an
// optional .env overlay for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// Config holds the full process configuration. Defaults mirror the values
// the QA pipeline was tuned with.
type Config struct {
	// Server
	Host string
	Port int

	// OpenAI
	OpenAIAPIKey   string
	EmbeddingModel string
	LLMModel       string
	Temperature    float64
	MaxTokens      int

	// Processing
	ChunkSize           int
	ChunkOverlap        int
	MaxChunksPerQuery   int
	SimilarityThreshold float64

	// Storage
	IndexDir string
	DataDir  string

	// Optional infrastructure
	RedisURL       string
	DatabaseURL    string
	AnswerCacheTTL int // seconds
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	cfg := &Config{
		Host:                getEnv("HOST", "0.0.0.0"),
		Port:                getEnvInt("PORT", 8080),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMModel:            getEnv("OPENAI_LLM_MODEL", "gpt-3.5-turbo"),
		Temperature:         getEnvFloat("OPENAI_TEMPERATURE", 0.1),
		MaxTokens:           getEnvInt("OPENAI_MAX_TOKENS", 500),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 200),
		MaxChunksPerQuery:   getEnvInt("MAX_CHUNKS_PER_QUERY", 5),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),
		IndexDir:            getEnv("INDEX_DIR", "vector_db"),
		DataDir:             getEnv("DATA_DIR", "data"),
		RedisURL:            getEnv("REDIS_URL", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		AnswerCacheTTL:      getEnvInt("ANSWER_CACHE_TTL_SEC", 300),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required: %w", domain.ErrInvalidArgument)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive: %w", domain.ErrInvalidArgument)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE): %w", domain.ErrInvalidArgument)
	}
	if c.MaxChunksPerQuery <= 0 {
		return fmt.Errorf("MAX_CHUNKS_PER_QUERY must be positive: %w", domain.ErrInvalidArgument)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1]: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
