package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alif-engine/core/pkg/models"
)

// GetContentFlag fetches one flag by ID.
func (s *Store) GetContentFlag(ctx context.Context, id string) (*models.ContentFlag, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, content_type, lemma_id, sentence_id, status, original_value,
		       resolution_note, resolved_at, created_at
		FROM content_flags WHERE id = $1`, id)
	return scanContentFlag(row)
}

// PendingContentFlags returns flags awaiting C10's evaluator, oldest first.
func (s *Store) PendingContentFlags(ctx context.Context, limit int) ([]models.ContentFlag, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, content_type, lemma_id, sentence_id, status, original_value,
		       resolution_note, resolved_at, created_at
		FROM content_flags WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending content flags: %w", err)
	}
	defer rows.Close()

	var out []models.ContentFlag
	for rows.Next() {
		f, err := scanContentFlagRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// ContentFlagsByStatus lists flags in a given triage status, newest first.
// Used by the flag-submission API's GET listing endpoint; PendingContentFlags
// remains the narrower, ASC-ordered query the evaluator's queue trigger uses.
func (s *Store) ContentFlagsByStatus(ctx context.Context, status models.ContentFlagStatus, limit int) ([]models.ContentFlag, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, content_type, lemma_id, sentence_id, status, original_value,
		       resolution_note, resolved_at, created_at
		FROM content_flags WHERE status = $1 ORDER BY created_at DESC LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("querying content flags by status: %w", err)
	}
	defer rows.Close()

	var out []models.ContentFlag
	for rows.Next() {
		f, err := scanContentFlagRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// InsertContentFlag raises a new flag, either learner- or pipeline-raised.
func (s *Store) InsertContentFlag(ctx context.Context, f *models.ContentFlag) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO content_flags
			(id, content_type, lemma_id, sentence_id, status, original_value, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		f.ID, f.ContentType, f.LemmaID, f.SentenceID, f.Status, f.OriginalValue, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting content flag: %w", err)
	}
	return nil
}

// UpdateContentFlagStatus transitions a flag to status, optionally
// recording a resolution note and resolved timestamp.
func (s *Store) UpdateContentFlagStatus(ctx context.Context, f *models.ContentFlag) error {
	_, err := s.exec.ExecContext(ctx, `
		UPDATE content_flags SET status = $2, resolution_note = $3, resolved_at = $4
		WHERE id = $1`, f.ID, f.Status, f.ResolutionNote, f.ResolvedAt)
	if err != nil {
		return fmt.Errorf("updating content flag %s: %w", f.ID, err)
	}
	return nil
}

func scanContentFlag(row *sql.Row) (*models.ContentFlag, error) {
	var (
		f              models.ContentFlag
		lemmaID        sql.NullString
		sentenceID     sql.NullString
		originalValue  sql.NullString
		resolutionNote sql.NullString
		resolvedAt     sql.NullTime
	)
	if err := row.Scan(&f.ID, &f.ContentType, &lemmaID, &sentenceID, &f.Status,
		&originalValue, &resolutionNote, &resolvedAt, &f.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("content flag: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning content flag: %w", err)
	}
	applyContentFlagNulls(&f, lemmaID, sentenceID, originalValue, resolutionNote, resolvedAt)
	return &f, nil
}

func scanContentFlagRow(rows *sql.Rows) (*models.ContentFlag, error) {
	var (
		f              models.ContentFlag
		lemmaID        sql.NullString
		sentenceID     sql.NullString
		originalValue  sql.NullString
		resolutionNote sql.NullString
		resolvedAt     sql.NullTime
	)
	if err := rows.Scan(&f.ID, &f.ContentType, &lemmaID, &sentenceID, &f.Status,
		&originalValue, &resolutionNote, &resolvedAt, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning content flag row: %w", err)
	}
	applyContentFlagNulls(&f, lemmaID, sentenceID, originalValue, resolutionNote, resolvedAt)
	return &f, nil
}

func applyContentFlagNulls(f *models.ContentFlag, lemmaID, sentenceID, originalValue, resolutionNote sql.NullString, resolvedAt sql.NullTime) {
	if lemmaID.Valid {
		f.LemmaID = &lemmaID.String
	}
	if sentenceID.Valid {
		f.SentenceID = &sentenceID.String
	}
	if originalValue.Valid {
		f.OriginalValue = &originalValue.String
	}
	if resolutionNote.Valid {
		f.ResolutionNote = &resolutionNote.String
	}
	if resolvedAt.Valid {
		f.ResolvedAt = &resolvedAt.Time
	}
}
