package observability

import (
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/penalty-tracker/internal/config"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
)

// InitPyroscope starts continuous profiling when enabled. Long crawls are
// mostly waiting on pacing, so CPU and goroutine profiles are enough.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	obs := cfg.Observability

	if !obs.PyroscopeEnabled {
		logger.Debug("pyroscope disabled", "reason", "pyroscope_enabled=false")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   obs.PyroscopeAppName,
		ServerAddress:     obs.PyroscopeServerAddress,
		AuthToken:         obs.PyroscopeAuthToken,
		BasicAuthUser:     obs.PyroscopeBasicAuthUser,
		BasicAuthPassword: obs.PyroscopeBasicAuthPassword,
		UploadRate:        obs.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":        cfg.AppEnv,
			"service":    cfg.ServiceName,
			"tournament": cfg.Competition.Name,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", obs.PyroscopeServerAddress,
		"application", obs.PyroscopeAppName,
	)

	return profiler.Stop, nil
}
