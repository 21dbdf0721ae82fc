// Package config loads the server's runtime configuration from environment
// variables, in the teacher's layered style: a typed Config struct
// populated by Load, documented defaults per field, and secrets read
// either directly from an env var or from a mounted file (the
// getSecret convention the teacher uses for DB_PASSWORD).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rag-orchestrator/internal/infra/ratelimit"
)

// Config is the fully resolved runtime configuration (spec §11.2).
type Config struct {
	Env         string
	DataDir     string
	Server      ServerConfig
	Embedder    ProviderConfig
	LLM         ProviderConfig
	Reranker    ProviderConfig
	Chunker     ChunkerConfig
	HybridAlpha float64
	Session     SessionConfig
	Ingest      IngestConfig
	RateLimit   map[string]ratelimit.ProviderConfig
}

type ServerConfig struct {
	ListenAddr string
}

// ProviderConfig describes one HTTP-backed model provider: embedding,
// rerank, or LLM generation, each independently pointed at an
// Ollama-compatible endpoint.
type ProviderConfig struct {
	BaseURL      string
	Model        string
	APIKey       string
	Timeout      time.Duration
	EmbeddingDim int // only meaningful for the embedder provider
}

type ChunkerConfig struct {
	ChunkSize int
	Overlap   int
}

type SessionConfig struct {
	MaxTurns int
	MaxAge   time.Duration
}

type IngestConfig struct {
	Concurrency int
}

// Load reads Config from the environment. Every field has a documented
// fallback; Validate reports combinations Load itself can't catch.
func Load() *Config {
	return &Config{
		Env:     getEnv("AUDIT_RAG_ENV", "development"),
		DataDir: getEnv("AUDIT_RAG_DATA_DIR", "./data"),
		Server: ServerConfig{
			ListenAddr: getEnv("AUDIT_RAG_LISTEN_ADDR", ":8080"),
		},
		Embedder: ProviderConfig{
			BaseURL:      getEnvWithAlt("EMBEDDER_URL", "AUGUR_EXTERNAL_URL", "http://localhost:11434"),
			Model:        getEnv("EMBEDDER_MODEL", "embeddinggemma"),
			APIKey:       getSecret("EMBEDDER_API_KEY", "EMBEDDER_API_KEY_FILE", ""),
			Timeout:      getEnvDuration("EMBEDDER_TIMEOUT", 30*time.Second),
			EmbeddingDim: getEnvInt("EMBEDDER_DIMENSION", 768),
		},
		LLM: ProviderConfig{
			BaseURL: getEnvWithAlt("LLM_URL", "AUGUR_KNOWLEDGE_URL", "http://localhost:11434"),
			Model:   getEnv("LLM_MODEL", "gpt-oss20b-cpu"),
			APIKey:  getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
			Timeout: getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Reranker: ProviderConfig{
			BaseURL: getEnv("RERANKER_URL", "http://localhost:11434"),
			Model:   getEnv("RERANKER_MODEL", "bge-reranker-v2-m3"),
			APIKey:  getSecret("RERANKER_API_KEY", "RERANKER_API_KEY_FILE", ""),
			Timeout: getEnvDuration("RERANKER_TIMEOUT", 15*time.Second),
		},
		Chunker: ChunkerConfig{
			ChunkSize: getEnvInt("CHUNK_SIZE", 800),
			Overlap:   getEnvInt("CHUNK_OVERLAP", 120),
		},
		HybridAlpha: getEnvFloat64("HYBRID_ALPHA", 0.65),
		Session: SessionConfig{
			MaxTurns: getEnvInt("SESSION_MAX_TURNS", 20),
			MaxAge:   getEnvDuration("SESSION_MAX_AGE", 24*time.Hour),
		},
		Ingest: IngestConfig{
			Concurrency: getEnvInt("INGEST_CONCURRENCY", 4),
		},
		RateLimit: map[string]ratelimit.ProviderConfig{
			"embedder": {Rate: rate.Limit(getEnvFloat64("EMBEDDER_RATE_LIMIT", 10)), Burst: getEnvInt("EMBEDDER_RATE_BURST", 20)},
			"llm":      {Rate: rate.Limit(getEnvFloat64("LLM_RATE_LIMIT", 2)), Burst: getEnvInt("LLM_RATE_BURST", 4)},
			"reranker": {Rate: rate.Limit(getEnvFloat64("RERANKER_RATE_LIMIT", 10)), Burst: getEnvInt("RERANKER_RATE_BURST", 20)},
		},
	}
}

// Validate reports a descriptive error for configuration combinations Load
// cannot catch on its own.
func (c *Config) Validate() error {
	if c.Chunker.ChunkSize <= c.Chunker.Overlap {
		return fmt.Errorf("config: chunk_size (%d) must exceed chunk_overlap (%d)", c.Chunker.ChunkSize, c.Chunker.Overlap)
	}
	if c.HybridAlpha < 0 || c.HybridAlpha > 1 {
		return fmt.Errorf("config: hybrid_alpha must be in [0,1], got %f", c.HybridAlpha)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
