// Package observability assembles the metrics stack.
package observability

import (
	"github.com/invobase/invobase/internal/config"
	"github.com/invobase/invobase/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(ensureLifecycleMetrics),
)

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.MetricsEnabled,
		ExporterEndpoint: cfg.MetricsEndpoint,
		ExporterProtocol: cfg.MetricsExporter,
		ServiceName:      cfg.AppName,
		Environment:      cfg.Environment,
	}
}

func ensureLifecycleMetrics(cfg metrics.Config) {
	metrics.LifecycleWithConfig(cfg)
}
