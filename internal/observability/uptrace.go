package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/penalty-tracker/internal/config"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// InitUptrace configures global OpenTelemetry providers for Uptrace.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	obs := cfg.Observability

	if !obs.UptraceEnabled {
		logger.Debug("uptrace disabled", "reason", "uptrace_enabled=false")
		return func(context.Context) error { return nil }, nil
	}

	if strings.TrimSpace(obs.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "reason", "uptrace_dsn empty")
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(obs.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
	)

	return uptrace.Shutdown, nil
}
