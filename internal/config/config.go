package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
	Keys      APIKeys
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	IngestTopic  string // Reprocess queue topic
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini" or "ollama"
	EmbeddingDimension int
	EmbeddingBatchSize int
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string
	LLMModel           string
}

type RetrievalConfig struct {
	// HybridAlpha weighs the vector signal against the lexical one.
	HybridAlpha float64
	// Chunk size band in words.
	ChunkMinWords int
	ChunkMaxWords int
	// DefaultK caps suggestion list length when the request omits k.
	DefaultK int
	// SuggestBudget bounds one suggestion pipeline execution.
	SuggestBudget time.Duration
	// RerankTimeout bounds the reranker stage before fallback.
	RerankTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			IngestTopic:  getEnv("INGEST_PAPER_TOPIC_NAME", "INGEST_PAPER"),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			EmbeddingBatchSize: getEnvAsInt("EMBEDDING_BATCH_SIZE", 32),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
		},
		Retrieval: RetrievalConfig{
			HybridAlpha:   getEnvAsFloat("HYBRID_ALPHA", 0.5),
			ChunkMinWords: getEnvAsInt("CHUNK_MIN_WORDS", 150),
			ChunkMaxWords: getEnvAsInt("CHUNK_MAX_WORDS", 400),
			DefaultK:      getEnvAsInt("SUGGEST_DEFAULT_K", 10),
			SuggestBudget: getEnvAsDuration("SUGGEST_BUDGET", 5*time.Second),
			RerankTimeout: getEnvAsDuration("RERANK_TIMEOUT", 3*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
