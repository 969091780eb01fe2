package resilience

import "time"

type RetryConfig struct {
	// MaxAttempts counts the first try.
	MaxAttempts int
	BackoffBase float64
	BackoffUnit time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: 2,
		BackoffUnit: time.Second,
	}
}

func NormalizeRetryConfig(cfg RetryConfig) RetryConfig {
	defaults := DefaultRetryConfig()
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.BackoffBase < 1 {
		cfg.BackoffBase = defaults.BackoffBase
	}
	if cfg.BackoffUnit < 0 {
		cfg.BackoffUnit = defaults.BackoffUnit
	}
	return cfg
}
