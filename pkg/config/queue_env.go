package config

import (
	"os"
	"strconv"
	"time"
)

// LoadQueueConfigFromEnv returns DefaultQueueConfig with any QUEUE_* overrides
// applied, mirroring database's env-override-of-defaults style.
func LoadQueueConfigFromEnv() (*QueueConfig, error) {
	cfg := DefaultQueueConfig()

	if raw := os.Getenv("QUEUE_WORKER_COUNT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, NewValidationError("queue", "default", "worker_count", err)
		}
		cfg.WorkerCount = n
	}
	if raw := os.Getenv("QUEUE_POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, NewValidationError("queue", "default", "poll_interval", err)
		}
		cfg.PollInterval = d
	}
	if raw := os.Getenv("QUEUE_POLL_INTERVAL_JITTER"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, NewValidationError("queue", "default", "poll_interval_jitter", err)
		}
		cfg.PollIntervalJitter = d
	}
	if raw := os.Getenv("QUEUE_JOB_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, NewValidationError("queue", "default", "job_timeout", err)
		}
		cfg.JobTimeout = d
	}
	if raw := os.Getenv("QUEUE_GRACEFUL_SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, NewValidationError("queue", "default", "graceful_shutdown_timeout", err)
		}
		cfg.GracefulShutdownTimeout = d
	}
	if raw := os.Getenv("QUEUE_WARM_CACHE_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, NewValidationError("queue", "default", "warm_cache_interval", err)
		}
		cfg.WarmCacheInterval = d
	}

	if cfg.WorkerCount < 1 {
		return nil, NewValidationError("queue", "default", "worker_count", ErrInvalidValue)
	}

	return cfg, nil
}
