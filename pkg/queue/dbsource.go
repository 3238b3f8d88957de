package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
)

// DBJobSource is the JobSource backing pipeline_jobs: C6's gap-fill/
// warm-cache triggers and C10's flag-raise path enqueue rows here, and
// every worker pod claims from the same table via SKIP LOCKED.
type DBJobSource struct {
	store    *store.Store
	workerID string
}

func NewDBJobSource(s *store.Store, workerID string) *DBJobSource {
	return &DBJobSource{store: s, workerID: workerID}
}

func (d *DBJobSource) ClaimNext(ctx context.Context) (*Job, error) {
	pj, err := d.store.ClaimPipelineJob(ctx, d.workerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoJobsAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("claiming pipeline job: %w", err)
	}

	job := &Job{ID: pj.ID, Kind: JobKind(pj.Kind)}
	if pj.LemmaID != nil {
		job.LemmaID = *pj.LemmaID
	}
	if pj.FlagID != nil {
		job.FlagID = *pj.FlagID
	}
	return job, nil
}

func (d *DBJobSource) Complete(ctx context.Context, job *Job, result *JobResult) error {
	var status models.PipelineJobStatus
	switch result.Status {
	case JobStatusCompleted:
		status = models.PipelineJobCompleted
	case JobStatusFailed:
		status = models.PipelineJobFailed
	case JobStatusTimedOut:
		status = models.PipelineJobTimedOut
	case JobStatusCancelled:
		status = models.PipelineJobCancelled
	default:
		status = models.PipelineJobFailed
	}
	return d.store.CompletePipelineJob(ctx, job.ID, status, result.Error)
}

func (d *DBJobSource) QueueDepth(ctx context.Context) (int, error) {
	return d.store.PendingPipelineJobCount(ctx)
}
