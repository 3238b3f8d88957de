// Package queue provides the background worker pool that drives C6's
// material pipeline (gap-fill, warm-cache) and C10's flag evaluation.
package queue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for queue operations.
var (
	// ErrNoJobsAvailable indicates no pending jobs are in the queue.
	ErrNoJobsAvailable = errors.New("no jobs available")

	// ErrAtCapacity indicates the global concurrent job limit has been reached.
	ErrAtCapacity = errors.New("at capacity")
)

// JobKind identifies which subsystem a queued job belongs to.
type JobKind string

const (
	// JobKindGapFill generates missing sentences for a lemma falling short of
	// the C6 per-lemma coverage floor.
	JobKindGapFill JobKind = "gap_fill"

	// JobKindWarmCache runs C6's periodic warm-cache sweep across lemmas
	// nearing exhaustion of their active sentence pool.
	JobKindWarmCache JobKind = "warm_cache"

	// JobKindFlagEval dispatches a pending ContentFlag to C10's evaluator.
	JobKindFlagEval JobKind = "flag_eval"
)

// Job is one unit of background work claimed from a JobSource.
type Job struct {
	ID      string
	Kind    JobKind
	LemmaID string // set for JobKindGapFill, JobKindWarmCache
	FlagID  string // set for JobKindFlagEval
}

// JobSource supplies jobs to the pool and lets the executor report terminal
// outcomes back to the originating subsystem (so C6/C10 can update their own
// state — e.g. mark a ContentFlag resolved, or bump a lemma's sentence
// pipeline cursor).
type JobSource interface {
	// ClaimNext atomically claims and returns the next available job.
	// Returns ErrNoJobsAvailable when the queue is empty.
	ClaimNext(ctx context.Context) (*Job, error)

	// Complete records the terminal outcome of a previously claimed job.
	Complete(ctx context.Context, job *Job, result *JobResult) error

	// QueueDepth reports the number of jobs currently waiting to be claimed.
	QueueDepth(ctx context.Context) (int, error)
}

// JobStatus is the terminal state of a processed job.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobResult is the outcome of executing a job.
type JobResult struct {
	Status JobStatus
	Error  error
}

// JobExecutor processes one job to completion. The executor owns all
// domain-specific work (generating sentences, evaluating a flag); the
// worker only handles claiming, timeout enforcement, and result reporting.
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) *JobResult
}

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy     bool           `json:"is_healthy"`
	SourceHealthy bool           `json:"source_healthy"`
	SourceError   string         `json:"source_error,omitempty"`
	PodID         string         `json:"pod_id"`
	ActiveWorkers int            `json:"active_workers"`
	TotalWorkers  int            `json:"total_workers"`
	ActiveJobs    int            `json:"active_jobs"`
	MaxConcurrent int            `json:"max_concurrent"`
	QueueDepth    int            `json:"queue_depth"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"` // "idle" or "working"
	CurrentJobID   string    `json:"current_job_id,omitempty"`
	JobsProcessed  int       `json:"jobs_processed"`
	LastActivity   time.Time `json:"last_activity"`
}
