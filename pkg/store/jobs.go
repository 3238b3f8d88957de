package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alif-engine/core/pkg/models"
)

// EnqueuePipelineJob inserts a pending job for the queue worker pool to
// claim later (C6's gap-fill/warm-cache triggers, C10's flag-raise path).
func (s *Store) EnqueuePipelineJob(ctx context.Context, j *models.PipelineJob) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO pipeline_jobs (id, kind, lemma_id, flag_id, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)`,
		j.ID, j.Kind, j.LemmaID, j.FlagID, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueuing pipeline job: %w", err)
	}
	return nil
}

// ClaimPipelineJob atomically claims the oldest pending job of any kind for
// workerID, using SKIP LOCKED so concurrent workers never block each other
// on the same row. Returns sql.ErrNoRows (wrapped) when nothing is pending.
func (s *Store) ClaimPipelineJob(ctx context.Context, workerID string) (*models.PipelineJob, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting claim transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, kind, lemma_id, flag_id, status, attempts, created_at
		FROM pipeline_jobs
		WHERE status = 'pending'
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`)

	j, err := scanPipelineJob(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE pipeline_jobs
		SET status = 'claimed', claimed_by = $2, claimed_at = now(), attempts = attempts + 1
		WHERE id = $1`, j.ID, workerID); err != nil {
		return nil, fmt.Errorf("marking pipeline job %s claimed: %w", j.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pipeline job claim: %w", err)
	}
	j.Status = models.PipelineJobClaimed
	return j, nil
}

// CompletePipelineJob records a job's terminal status and error, if any.
func (s *Store) CompletePipelineJob(ctx context.Context, jobID string, status models.PipelineJobStatus, jobErr error) error {
	var errMsg *string
	if jobErr != nil {
		m := jobErr.Error()
		errMsg = &m
	}
	_, err := s.exec.ExecContext(ctx, `
		UPDATE pipeline_jobs SET status = $2, completed_at = now(), last_error = $3
		WHERE id = $1`, jobID, status, errMsg)
	if err != nil {
		return fmt.Errorf("completing pipeline job %s: %w", jobID, err)
	}
	return nil
}

// PendingPipelineJobCount reports how many jobs are waiting to be claimed.
func (s *Store) PendingPipelineJobCount(ctx context.Context) (int, error) {
	var n int
	row := s.exec.QueryRowContext(ctx, `SELECT count(*) FROM pipeline_jobs WHERE status = 'pending'`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending pipeline jobs: %w", err)
	}
	return n, nil
}

func scanPipelineJob(row *sql.Row) (*models.PipelineJob, error) {
	var (
		j        models.PipelineJob
		lemmaID  sql.NullString
		flagID   sql.NullString
		attempts int
	)
	if err := row.Scan(&j.ID, &j.Kind, &lemmaID, &flagID, &j.Status, &attempts, &j.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pipeline job: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning pipeline job: %w", err)
	}
	if lemmaID.Valid {
		j.LemmaID = &lemmaID.String
	}
	if flagID.Valid {
		j.FlagID = &flagID.String
	}
	j.Attempts = attempts
	return &j, nil
}
