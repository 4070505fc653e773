package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Engine   EngineConfig
	Usage    UsageConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	OpenAI       string
	EmbedTopic   string // Embedding pipeline topic
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string // e.g. "llama3", "gpt-4o-mini"
	LLMBaseURL        string
}

// EngineConfig tunes the action execution engine.
type EngineConfig struct {
	WorkerCap     int
	RetryAttempts int
	RetryBase     time.Duration
	RetryCap      time.Duration
}

// UsageConfig bounds how many chat turns a user gets per day.
type UsageConfig struct {
	DailyLimit int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			EmbedTopic:   getEnv("EMBED_DOCUMENT_TOPIC_NAME", "EMBED_DOCUMENT_CONTENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Engine: EngineConfig{
			WorkerCap:     getEnvAsInt("ENGINE_WORKER_CAP", 5),
			RetryAttempts: getEnvAsInt("ENGINE_RETRY_ATTEMPTS", 3),
			RetryBase:     getEnvAsDuration("ENGINE_RETRY_BASE", time.Second),
			RetryCap:      getEnvAsDuration("ENGINE_RETRY_CAP", 10*time.Second),
		},
		Usage: UsageConfig{
			DailyLimit: getEnvAsInt("DAILY_CHAT_LIMIT", 100),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
