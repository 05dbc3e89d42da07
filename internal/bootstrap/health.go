package bootstrap

import (
	"github.com/eleven-am/sanpo-guide/internal/health"
	"github.com/eleven-am/sanpo-guide/internal/llm"
	"github.com/eleven-am/sanpo-guide/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const version = "1.0.0"

func ProvideHealthHandler(redisClient *redis.Client, client *llm.Client, memory *session.MemoryStore) *health.Handler {
	var counter health.SessionCounter
	if memory != nil {
		counter = memory
	}
	return health.NewHandler(redisClient, client, counter, version)
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(h.Middleware())
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
