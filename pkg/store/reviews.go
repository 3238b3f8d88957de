package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/models"
)

// InsertReviewLog appends one lemma-level review. Returns a wrapped
// *pgconn.PgError-compatible duplicate-key condition as ErrDuplicateReview
// when client_review_id has already been recorded, so callers (C5's sync
// endpoint, C2's acquisition review) can treat replays as idempotent no-ops.
var ErrDuplicateReview = errors.New("review_log: duplicate client_review_id")

func (s *Store) InsertReviewLog(ctx context.Context, r *models.ReviewLog) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO review_logs
			(id, lemma_id, rating, reviewed_at, response_ms, review_mode,
			 comprehension_signal, credit_type, sentence_id, session_id,
			 client_review_id, is_acquisition, fsrs_log)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		r.ID, r.LemmaID, r.Rating, r.ReviewedAt, r.ResponseMs, r.ReviewMode,
		r.ComprehensionSignal, r.CreditType, r.SentenceID, r.SessionID,
		r.ClientReviewID, r.IsAcquisition, nullBytes(r.FSRSLog))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("inserting review log: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// pgx/v5 exposes *pgconn.PgError with Code "23505" for unique_violation;
	// matched by substring to avoid importing pgconn just for this check.
	return err != nil && (containsCode23505(err))
}

func containsCode23505(err error) bool {
	type sqlState interface{ SQLState() string }
	var withState sqlState
	if errors.As(err, &withState) {
		return withState.SQLState() == "23505"
	}
	return false
}

// ReviewLogsForLemma returns every review for one lemma, most recent first.
func (s *Store) ReviewLogsForLemma(ctx context.Context, lemmaID string) ([]models.ReviewLog, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, lemma_id, rating, reviewed_at, response_ms, review_mode,
		       comprehension_signal, credit_type, sentence_id, session_id,
		       client_review_id, is_acquisition, fsrs_log
		FROM review_logs WHERE lemma_id = $1 ORDER BY reviewed_at DESC`, lemmaID)
	if err != nil {
		return nil, fmt.Errorf("querying review logs: %w", err)
	}
	defer rows.Close()
	return scanReviewLogRows(rows)
}

// AcquisitionCalendarDays returns the count of distinct UTC calendar days on
// which the learner submitted an acquisition review for lemmaID — the
// GRADUATION_MIN_CALENDAR_DAYS check requires this to span at least two
// distinct days so a learner can't graduate a word by cramming box1-3 in one
// sitting.
func (s *Store) AcquisitionCalendarDays(ctx context.Context, lemmaID string) (int, error) {
	var n int
	err := s.exec.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT (reviewed_at AT TIME ZONE 'UTC')::date)
		FROM review_logs
		WHERE lemma_id = $1 AND is_acquisition = true`, lemmaID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting acquisition calendar days: %w", err)
	}
	return n, nil
}

// AcquisitionReviewStats returns the total count and count-correct of
// acquisition reviews for lemmaID, backing the GRADUATION_MIN_ACCURACY check.
func (s *Store) AcquisitionReviewStats(ctx context.Context, lemmaID string) (total, correct int, err error) {
	err = s.exec.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE rating >= 3)
		FROM review_logs
		WHERE lemma_id = $1 AND is_acquisition = true`, lemmaID).Scan(&total, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("counting acquisition review stats: %w", err)
	}
	return total, correct, nil
}

// ReviewLogsByClientPrefix returns every review whose client_review_id
// equals prefix or begins with prefix+":" — UndoSentenceReview uses this to
// find every per-lemma ReviewLog fanned out from one sentence-level review.
func (s *Store) ReviewLogsByClientPrefix(ctx context.Context, prefix string) ([]models.ReviewLog, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, lemma_id, rating, reviewed_at, response_ms, review_mode,
		       comprehension_signal, credit_type, sentence_id, session_id,
		       client_review_id, is_acquisition, fsrs_log
		FROM review_logs
		WHERE client_review_id = $1 OR client_review_id LIKE $2
		ORDER BY reviewed_at DESC`, prefix, prefix+":%")
	if err != nil {
		return nil, fmt.Errorf("querying review logs by client prefix: %w", err)
	}
	defer rows.Close()
	return scanReviewLogRows(rows)
}

// MostRecentReviewBefore returns the latest ReviewLog for lemmaID strictly
// before excludeID was recorded, used by UndoSentenceReview to restore the
// FSRS card snapshot from the prior review once the undone one is deleted.
func (s *Store) MostRecentReviewBefore(ctx context.Context, lemmaID string, before time.Time) (*models.ReviewLog, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, lemma_id, rating, reviewed_at, response_ms, review_mode,
		       comprehension_signal, credit_type, sentence_id, session_id,
		       client_review_id, is_acquisition, fsrs_log
		FROM review_logs
		WHERE lemma_id = $1 AND reviewed_at < $2
		ORDER BY reviewed_at DESC LIMIT 1`, lemmaID, before)
	return scanReviewLogRow(row)
}

// DeleteReviewLog removes a single review log row by id (used by
// UndoSentenceReview after restoring the affected ULK rows).
func (s *Store) DeleteReviewLog(ctx context.Context, id string) error {
	_, err := s.exec.ExecContext(ctx, `DELETE FROM review_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting review log %s: %w", id, err)
	}
	return nil
}

func scanReviewLogRow(row *sql.Row) (*models.ReviewLog, error) {
	var (
		r                   models.ReviewLog
		responseMs          sql.NullInt64
		comprehensionSignal sql.NullString
		sentenceID          sql.NullString
		sessionID           sql.NullString
		clientReviewID      sql.NullString
		fsrsLog             []byte
	)
	if err := row.Scan(&r.ID, &r.LemmaID, &r.Rating, &r.ReviewedAt, &responseMs,
		&r.ReviewMode, &comprehensionSignal, &r.CreditType, &sentenceID,
		&sessionID, &clientReviewID, &r.IsAcquisition, &fsrsLog); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review log: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning review log: %w", err)
	}
	applyReviewLogNulls(&r, responseMs, comprehensionSignal, sentenceID, sessionID, clientReviewID, fsrsLog)
	return &r, nil
}

func scanReviewLogRows(rows *sql.Rows) ([]models.ReviewLog, error) {
	var out []models.ReviewLog
	for rows.Next() {
		var (
			r                   models.ReviewLog
			responseMs          sql.NullInt64
			comprehensionSignal sql.NullString
			sentenceID          sql.NullString
			sessionID           sql.NullString
			clientReviewID      sql.NullString
			fsrsLog             []byte
		)
		if err := rows.Scan(&r.ID, &r.LemmaID, &r.Rating, &r.ReviewedAt, &responseMs,
			&r.ReviewMode, &comprehensionSignal, &r.CreditType, &sentenceID,
			&sessionID, &clientReviewID, &r.IsAcquisition, &fsrsLog); err != nil {
			return nil, fmt.Errorf("scanning review log row: %w", err)
		}
		applyReviewLogNulls(&r, responseMs, comprehensionSignal, sentenceID, sessionID, clientReviewID, fsrsLog)
		out = append(out, r)
	}
	return out, rows.Err()
}

func applyReviewLogNulls(r *models.ReviewLog, responseMs sql.NullInt64, comprehensionSignal, sentenceID, sessionID, clientReviewID sql.NullString, fsrsLog []byte) {
	if responseMs.Valid {
		v := int(responseMs.Int64)
		r.ResponseMs = &v
	}
	if comprehensionSignal.Valid {
		r.ComprehensionSignal = &comprehensionSignal.String
	}
	if sentenceID.Valid {
		r.SentenceID = &sentenceID.String
	}
	if sessionID.Valid {
		r.SessionID = &sessionID.String
	}
	if clientReviewID.Valid {
		r.ClientReviewID = &clientReviewID.String
	}
	if len(fsrsLog) > 0 {
		r.FSRSLog = fsrsLog
	}
}
