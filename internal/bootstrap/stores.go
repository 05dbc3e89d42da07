package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/eleven-am/sanpo-guide/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type StoreResult struct {
	fx.Out

	Repository session.Repository
	Memory     *session.MemoryStore
}

func sessionLimits(cfg *Config) session.Limits {
	return session.Limits{
		MaxTurns:  cfg.MaxTurns,
		MaxImages: cfg.MaxImages,
	}
}

// ProvideSessionStores picks the repository by STORE_BACKEND. Memory is nil
// for the redis backend.
func ProvideSessionStores(cfg *Config, redisClient *redis.Client, logger *slog.Logger) (StoreResult, error) {
	switch cfg.StoreBackend {
	case StoreMemory:
		store := session.NewMemoryStore(sessionLimits(cfg))
		logger.Info("session store ready", "backend", StoreMemory)
		return StoreResult{Repository: store, Memory: store}, nil
	case StoreRedis:
		logger.Info("session store ready", "backend", StoreRedis, "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
		return StoreResult{Repository: session.NewRedisStore(redisClient, sessionLimits(cfg), cfg.SessionTTL)}, nil
	default:
		return StoreResult{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

var StoresModule = fx.Options(
	fx.Provide(ProvideSessionStores),
)
