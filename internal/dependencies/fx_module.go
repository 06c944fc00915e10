package dependencies

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/looplj/oppressor/conf"
	"github.com/looplj/oppressor/internal/copier"
	"github.com/looplj/oppressor/internal/log"
	"github.com/looplj/oppressor/internal/metrics"
	"github.com/looplj/oppressor/internal/models"
	"github.com/looplj/oppressor/internal/oppressor"
	"github.com/looplj/oppressor/internal/tracing"
)

var Module = fx.Module("dependencies",
	fx.Provide(NewLogger),
	fx.Provide(NewMetrics),
	fx.Provide(NewSuppressor),
	fx.Provide(models.New),
	fx.Provide(copier.New),
	fx.Invoke(func(lc fx.Lifecycle, logger *log.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				// Syncing stderr fails on some platforms; nothing to recover.
				_ = logger.Sync()
				return nil
			},
		})
	}),
)

// NewLogger builds the logger from config and installs it as the global logger.
func NewLogger(cfg conf.Config) *log.Logger {
	logger := log.New(cfg.Log)
	tracing.SetupLogger(logger)
	log.SetDefault(logger)

	return logger
}

func NewMetrics(reg prometheus.Registerer) *metrics.Metrics {
	return metrics.New(reg)
}

func NewSuppressor(cfg conf.Config, m *metrics.Metrics) *oppressor.Suppressor {
	return oppressor.NewSuppressorFromConfig(cfg.Oppressor, m)
}
