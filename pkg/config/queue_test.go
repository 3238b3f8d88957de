package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()

	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.PollIntervalJitter)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 1*time.Minute, cfg.GracefulShutdownTimeout)
	assert.Equal(t, 10*time.Minute, cfg.WarmCacheInterval)
}
