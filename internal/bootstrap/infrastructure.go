package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/sanpo-guide/internal/llm"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// ProvideRedisClient returns nil for the memory backend so nothing dials
// Redis unless sessions are actually stored there.
func ProvideRedisClient(lc fx.Lifecycle, cfg *Config) *redis.Client {
	if cfg.StoreBackend != StoreRedis {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func ProvideLLMClient(cfg *Config, logger *slog.Logger) *llm.Client {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, upstream calls will fail")
	}
	return llm.NewClient(llm.Config{
		APIKey:             cfg.OpenAIAPIKey,
		BaseURL:            cfg.OpenAIBaseURL,
		Model:              cfg.LLMModel,
		ClassifierModel:    cfg.ClassifierModel,
		TranscriptionModel: cfg.TranscriptionModel,
		Language:           cfg.TranscriptionLang,
		MaxTokens:          cfg.LLMMaxTokens,
		Temperature:        cfg.LLMTemperature,
		Timeout:            cfg.LLMTimeout,
	})
}

// ProvideUpstream is the chat and judge surface every turn goes through,
// throttled when LLM_RATE_PER_SEC is set.
func ProvideUpstream(client *llm.Client, cfg *Config) llm.Upstream {
	return llm.WithRateLimit(client, cfg.LLMRatePerSec, cfg.LLMRateBurst)
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideRedisClient,
		ProvideLLMClient,
		ProvideUpstream,
	),
)
