package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	ServerAddr  string
	LogLevel    string
	MaxBodySize string

	APIRatePerSec float64
	APIRateBurst  int

	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	LLMModel           string
	ClassifierModel    string
	LLMMaxTokens       int
	LLMTemperature     float32
	LLMTimeout         time.Duration
	LLMRatePerSec      float64
	LLMRateBurst       int
	TranscriptionModel string
	TranscriptionLang  string

	MaxTurns            int
	MaxImages           int
	HistoryWindow       int
	RecapSize           int
	ClassifierEnabled   bool
	ClassifierCacheTTL  time.Duration
	ClassifierCacheSize int
}

// LoadConfig reads the environment, after merging a .env file when one is
// present in the working directory.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MaxBodySize: getEnv("MAX_BODY_SIZE", "50M"),

		APIRatePerSec: getEnvFloat("API_RATE_PER_SEC", 5),
		APIRateBurst:  getEnvInt("API_RATE_BURST", 10),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		ClassifierModel:    getEnv("LLM_CLASSIFIER_MODEL", ""),
		LLMMaxTokens:       getEnvInt("LLM_MAX_TOKENS", 800),
		LLMTemperature:     float32(getEnvFloat("LLM_TEMPERATURE", 0.7)),
		LLMTimeout:         getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		LLMRatePerSec:      getEnvFloat("LLM_RATE_PER_SEC", 0),
		LLMRateBurst:       getEnvInt("LLM_RATE_BURST", 1),
		TranscriptionModel: getEnv("STT_MODEL", "whisper-1"),
		TranscriptionLang:  getEnv("STT_LANGUAGE", "ja"),

		MaxTurns:            getEnvInt("MAX_TURNS", 10),
		MaxImages:           getEnvInt("MAX_IMAGES", 5),
		HistoryWindow:       getEnvInt("HISTORY_WINDOW", 8),
		RecapSize:           getEnvInt("RECAP_SIZE", 3),
		ClassifierEnabled:   getEnv("CLASSIFIER_ENABLED", "true") == "true",
		ClassifierCacheTTL:  getEnvDuration("CLASSIFIER_CACHE_TTL", 30*time.Second),
		ClassifierCacheSize: getEnvInt("CLASSIFIER_CACHE_SIZE", 1024),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
