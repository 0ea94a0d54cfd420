package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lifeos-kb/internal/knowledge"
)

// Index backends.
const (
	IndexBackendSQLite = "sqlite"
	IndexBackendQdrant = "qdrant"
)

// Embedding providers.
const (
	EmbeddingProviderHash = "hash"
	EmbeddingProviderHTTP = "http"
)

// WatchFolder is a local folder synced into one tenant's knowledge base.
type WatchFolder struct {
	Tenant knowledge.TenantID
	Scope  knowledge.Scope
	Path   string
}

// Config holds all configuration for the application.
type Config struct {
	APIPort string
	DBPath  string

	IndexBackend           string
	QdrantURL              string
	QdrantNotesCollection  string
	QdrantChunksCollection string

	EmbeddingProvider  string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	VectorSize         int

	LLMBaseURL   string
	LLMAPIKey    string
	LLMModelName string

	HybridAlpha        float64
	RelevanceThreshold float64
	ChunkSize          int
	ChunkOverlap       int
	SummaryTokenBudget int
	SummarizeTimeout   time.Duration
	IngestConcurrency  int

	WebSearchURL        string
	WebSearchAPIKey     string
	WebSearchTimeout    time.Duration
	WebSearchMaxResults int
	WebSearchRPS        float64

	WatchFolders          []WatchFolder
	SourceRefreshInterval time.Duration

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or one of its parents, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	llmBaseURL := getEnv("LLM_BASE_URL", "https://api.openai.com")
	llmAPIKey := getEnv("LLM_API_KEY", "")

	cfg := &Config{
		APIPort:                getEnv("API_PORT", "9000"),
		DBPath:                 getEnv("DB_PATH", "./data/lifeos-kb.db"),
		IndexBackend:           strings.ToLower(getEnv("INDEX_BACKEND", IndexBackendSQLite)),
		QdrantURL:              getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantNotesCollection:  getEnv("QDRANT_NOTES_COLLECTION", "summary_notes"),
		QdrantChunksCollection: getEnv("QDRANT_CHUNKS_COLLECTION", "raw_chunks"),
		EmbeddingProvider:      strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderHash)),
		// Embeddings share the chat endpoint and key unless set.
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", llmBaseURL),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", llmAPIKey),
		LLMBaseURL:         llmBaseURL,
		LLMAPIKey:          llmAPIKey,
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o"),
		WebSearchURL:       getEnv("WEB_SEARCH_URL", "https://api.tavily.com/search"),
		WebSearchAPIKey:    getEnv("WEB_SEARCH_API_KEY", ""),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"VECTOR_SIZE", 384, &cfg.VectorSize},
		{"CHUNK_SIZE", 1000, &cfg.ChunkSize},
		{"CHUNK_OVERLAP", 100, &cfg.ChunkOverlap},
		{"SUMMARY_TOKEN_BUDGET", 110000, &cfg.SummaryTokenBudget},
		{"WEB_SEARCH_MAX_RESULTS", 10, &cfg.WebSearchMaxResults},
		{"INGEST_CONCURRENCY", 4, &cfg.IngestConcurrency},
	}
	for _, v := range ints {
		if *v.dest, err = getInt(v.key, v.def); err != nil {
			return nil, err
		}
	}

	floats := []struct {
		key  string
		def  float64
		dest *float64
	}{
		{"HYBRID_ALPHA", 0.5, &cfg.HybridAlpha},
		{"RELEVANCE_THRESHOLD", 0.5, &cfg.RelevanceThreshold},
		{"WEB_SEARCH_RPS", 1, &cfg.WebSearchRPS},
	}
	for _, v := range floats {
		if *v.dest, err = getFloat(v.key, v.def); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"SUMMARIZE_TIMEOUT", 90 * time.Second, &cfg.SummarizeTimeout},
		{"WEB_SEARCH_TIMEOUT", 10 * time.Second, &cfg.WebSearchTimeout},
		{"SOURCE_REFRESH_INTERVAL", 24 * time.Hour, &cfg.SourceRefreshInterval},
	}
	for _, v := range durations {
		if *v.dest, err = getDuration(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.WatchFolders, err = ParseWatchFolders(getEnv("WATCH_FOLDERS", "")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create the data directory for the database file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.IndexBackend {
	case IndexBackendSQLite, IndexBackendQdrant:
	default:
		return fmt.Errorf("INDEX_BACKEND must be %q or %q", IndexBackendSQLite, IndexBackendQdrant)
	}
	switch c.EmbeddingProvider {
	case EmbeddingProviderHash, EmbeddingProviderHTTP:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q", EmbeddingProviderHash, EmbeddingProviderHTTP)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}

	if c.VectorSize <= 0 {
		return fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	if c.HybridAlpha < 0 || c.HybridAlpha > 1 {
		return fmt.Errorf("HYBRID_ALPHA must be between 0 and 1")
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("RELEVANCE_THRESHOLD must be between 0 and 1")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be at least 0 and less than CHUNK_SIZE")
	}
	if c.SummaryTokenBudget <= 0 {
		return fmt.Errorf("SUMMARY_TOKEN_BUDGET must be greater than 0")
	}
	if c.SummarizeTimeout <= 0 {
		return fmt.Errorf("SUMMARIZE_TIMEOUT must be positive")
	}
	if c.WebSearchTimeout <= 0 {
		return fmt.Errorf("WEB_SEARCH_TIMEOUT must be positive")
	}
	if c.WebSearchMaxResults <= 0 {
		return fmt.Errorf("WEB_SEARCH_MAX_RESULTS must be greater than 0")
	}
	if c.WebSearchRPS <= 0 {
		return fmt.Errorf("WEB_SEARCH_RPS must be greater than 0")
	}
	if c.IngestConcurrency <= 0 {
		return fmt.Errorf("INGEST_CONCURRENCY must be greater than 0")
	}
	if c.SourceRefreshInterval <= 0 {
		return fmt.Errorf("SOURCE_REFRESH_INTERVAL must be positive")
	}
	return nil
}

// ParseWatchFolders parses a comma-separated list of tenant:scope:path
// entries. Paths may contain colons.
func ParseWatchFolders(raw string) ([]WatchFolder, error) {
	var folders []WatchFolder
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || strings.TrimSpace(parts[2]) == "" {
			return nil, fmt.Errorf("WATCH_FOLDERS entry %q must be tenant:scope:path", entry)
		}
		tenant, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || tenant < 0 {
			return nil, fmt.Errorf("WATCH_FOLDERS entry %q: tenant must be a non-negative integer", entry)
		}
		scope, err := knowledge.ParseScope(parts[1])
		if err != nil {
			return nil, fmt.Errorf("WATCH_FOLDERS entry %q: %w", entry, err)
		}
		folders = append(folders, WatchFolder{
			Tenant: knowledge.TenantID(tenant),
			Scope:  scope,
			Path:   filepath.Clean(strings.TrimSpace(parts[2])),
		})
	}
	return folders, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error")
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return v, nil
}
