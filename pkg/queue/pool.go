package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alif-engine/core/pkg/config"
)

// WorkerPool manages a pool of job workers that drain a JobSource.
type WorkerPool struct {
	podID    string
	source   JobSource
	config   *config.QueueConfig
	executor JobExecutor
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.RWMutex
	started bool
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(podID string, source JobSource, cfg *config.QueueConfig, executor JobExecutor) *WorkerPool {
	return &WorkerPool{
		podID:    podID,
		source:   source,
		config:   cfg,
		executor: executor,
		workers:  make([]*Worker, 0, cfg.WorkerCount),
		stopCh:   make(chan struct{}),
	}
}

// Start spawns worker goroutines. It is safe to call multiple times;
// subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		slog.Warn("Worker pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return nil
	}
	p.started = true
	p.mu.Unlock()

	slog.Info("Starting worker pool", "pod_id", p.podID, "worker_count", p.config.WorkerCount)

	for i := 0; i < p.config.WorkerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.podID, i)
		worker := NewWorker(workerID, p.podID, p.source, p.config, p.executor)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	slog.Info("Worker pool started")
	return nil
}

// Stop signals all workers to stop and waits for them to finish. Workers
// finish their current job before exiting (graceful shutdown).
func (p *WorkerPool) Stop() {
	slog.Info("Stopping worker pool gracefully")

	for _, worker := range p.workers {
		worker.Stop()
	}

	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()

	slog.Info("Worker pool stopped gracefully")
}

// Health returns the current health status of the pool.
func (p *WorkerPool) Health() *PoolHealth {
	ctx := context.Background()

	queueDepth, err := p.source.QueueDepth(ctx)
	sourceHealthy := err == nil
	var sourceError string
	if err != nil {
		sourceError = err.Error()
		slog.Error("Failed to query queue depth for health check",
			"pod_id", p.podID, "error", err)
	}

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	activeJobs := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
			activeJobs++
		}
	}

	isHealthy := len(p.workers) > 0 && sourceHealthy

	return &PoolHealth{
		IsHealthy:     isHealthy,
		SourceHealthy: sourceHealthy,
		SourceError:   sourceError,
		PodID:         p.podID,
		ActiveWorkers: activeWorkers,
		TotalWorkers:  len(p.workers),
		ActiveJobs:    activeJobs,
		MaxConcurrent: p.config.WorkerCount,
		QueueDepth:    queueDepth,
		WorkerStats:   workerStats,
	}
}
