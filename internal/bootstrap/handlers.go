package bootstrap

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/eleven-am/sanpo-guide/internal/audio"
	"github.com/eleven-am/sanpo-guide/internal/guide"
	"github.com/eleven-am/sanpo-guide/internal/llm"
	"github.com/eleven-am/sanpo-guide/internal/prompt"
	"github.com/eleven-am/sanpo-guide/internal/session"
	"github.com/eleven-am/sanpo-guide/internal/shared"
	"github.com/eleven-am/sanpo-guide/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const banner = "Sanpo guide backend is running"

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideGuideMetrics(reg *prometheus.Registry) *guide.Metrics {
	return guide.NewMetrics(reg)
}

// ProvideClassifier leaves only the keyword rules when CLASSIFIER_ENABLED is
// false.
func ProvideClassifier(cfg *Config, upstream llm.Upstream, logger *slog.Logger) *vision.Classifier {
	var judge vision.Judge
	if cfg.ClassifierEnabled {
		judge = upstream
	}
	return vision.NewClassifier(judge, vision.DefaultRuleSet(), vision.ClassifierConfig{
		CacheSize: cfg.ClassifierCacheSize,
		CacheTTL:  cfg.ClassifierCacheTTL,
	}, logger)
}

func ProvideComposer(cfg *Config) *prompt.Composer {
	return prompt.NewComposer(prompt.Config{
		HistoryWindow: cfg.HistoryWindow,
		RecapSize:     cfg.RecapSize,
	})
}

func ProvideOrchestrator(
	store session.Repository,
	classifier *vision.Classifier,
	composer *prompt.Composer,
	upstream llm.Upstream,
	metrics *guide.Metrics,
	logger *slog.Logger,
) *guide.Orchestrator {
	return guide.NewOrchestrator(guide.Config{
		Store:      store,
		Classifier: classifier,
		Composer:   composer,
		Generator:  upstream,
		Metrics:    metrics,
		Logger:     logger,
	})
}

func ProvideGuideHandler(o *guide.Orchestrator, logger *slog.Logger) *guide.Handler {
	return guide.NewHandler(o, logger)
}

func ProvideAudioHandler(client *llm.Client, logger *slog.Logger) *audio.Handler {
	return audio.NewHandler(client, logger)
}

type HandlerParams struct {
	fx.In

	GuideHandler *guide.Handler
	AudioHandler *audio.Handler
	Registry     *prometheus.Registry
	Config       *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	limits := shared.DefaultRateLimiterConfig()
	limits.RequestsPerSecond = params.Config.APIRatePerSec
	limits.Burst = params.Config.APIRateBurst

	api := e.Group("/api", shared.RateLimiter(limits))
	params.GuideHandler.RegisterRoutes(api)
	params.AudioHandler.RegisterRoutes(api)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{})))
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, banner)
	})
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideMetricsRegistry,
		ProvideGuideMetrics,
		ProvideClassifier,
		ProvideComposer,
		ProvideOrchestrator,
		ProvideGuideHandler,
		ProvideAudioHandler,
	),
	fx.Invoke(RegisterRoutes),
)
