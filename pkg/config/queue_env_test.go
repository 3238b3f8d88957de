package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadQueueConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadQueueConfigFromEnv()

	assert.NoError(t, err)
	assert.Equal(t, DefaultQueueConfig(), cfg)
}

func TestLoadQueueConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("QUEUE_WORKER_COUNT", "5")
	t.Setenv("QUEUE_POLL_INTERVAL", "1s")
	t.Setenv("QUEUE_WARM_CACHE_INTERVAL", "1h")

	cfg, err := LoadQueueConfigFromEnv()

	assert.NoError(t, err)
	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, 1*time.Second, cfg.PollInterval)
	assert.Equal(t, 1*time.Hour, cfg.WarmCacheInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.PollIntervalJitter, "unset overrides keep the default")
}

func TestLoadQueueConfigFromEnv_InvalidWorkerCount(t *testing.T) {
	t.Setenv("QUEUE_WORKER_COUNT", "0")

	_, err := LoadQueueConfigFromEnv()

	assert.Error(t, err)
}

func TestLoadQueueConfigFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("QUEUE_JOB_TIMEOUT", "not-a-duration")

	_, err := LoadQueueConfigFromEnv()

	assert.Error(t, err)
}
