package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"AUDIT_RAG_ENV", "AUDIT_RAG_DATA_DIR", "AUDIT_RAG_LISTEN_ADDR",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "HYBRID_ALPHA",
		"SESSION_MAX_TURNS", "INGEST_CONCURRENCY",
	} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 800, cfg.Chunker.ChunkSize)
	assert.Equal(t, 120, cfg.Chunker.Overlap)
	assert.Equal(t, 0.65, cfg.HybridAlpha)
	assert.Equal(t, 20, cfg.Session.MaxTurns)
	assert.Equal(t, 4, cfg.Ingest.Concurrency)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("AUDIT_RAG_ENV", "production")
	t.Setenv("CHUNK_SIZE", "1200")
	t.Setenv("HYBRID_ALPHA", "0.8")
	t.Setenv("INGEST_CONCURRENCY", "8")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 1200, cfg.Chunker.ChunkSize)
	assert.Equal(t, 0.8, cfg.HybridAlpha)
	assert.Equal(t, 8, cfg.Ingest.Concurrency)
}

func TestLoad_EmbedderURLFallsBackToLegacyAugurVar(t *testing.T) {
	_ = os.Unsetenv("EMBEDDER_URL")
	t.Setenv("AUGUR_EXTERNAL_URL", "http://legacy-augur:11434")

	cfg := Load()

	assert.Equal(t, "http://legacy-augur:11434", cfg.Embedder.BaseURL)
}

func TestValidate_RejectsOverlapNotLessThanChunkSize(t *testing.T) {
	cfg := &Config{Chunker: ChunkerConfig{ChunkSize: 100, Overlap: 100}, HybridAlpha: 0.5}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsHybridAlphaOutOfRange(t *testing.T) {
	cfg := &Config{Chunker: ChunkerConfig{ChunkSize: 800, Overlap: 100}, HybridAlpha: 1.5}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := Load()
	assert.NoError(t, cfg.Validate())
}
