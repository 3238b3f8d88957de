package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/models"
)

// InsertSentence persists a newly generated sentence and its word mappings
// in one call, matching C6's "persist Sentence+SentenceWords, commit" step.
func (s *Store) InsertSentence(ctx context.Context, sent *models.Sentence, words []models.SentenceWord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sentence insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lastShown, _ := json.Marshal(sent.LastShownAt)
	lastComp, _ := json.Marshal(sent.LastComprehension)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sentences
			(sentence_id, arabic_raw, arabic_diacritized, english, transliteration,
			 target_lemma_id, is_active, times_shown, last_shown_at, last_comprehension,
			 source, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		sent.SentenceID, sent.ArabicRaw, sent.ArabicDiacritized, sent.English, sent.Transliteration,
		sent.TargetLemmaID, sent.IsActive, sent.TimesShown, lastShown, lastComp, sent.Source, sent.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting sentence: %w", err)
	}

	for _, w := range words {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sentence_words (sentence_id, position, surface_form, lemma_id, is_target)
			VALUES ($1,$2,$3,$4,$5)`,
			sent.SentenceID, w.Position, w.SurfaceForm, w.LemmaID, w.IsTarget)
		if err != nil {
			return fmt.Errorf("inserting sentence word at position %d: %w", w.Position, err)
		}
	}

	return tx.Commit()
}

// ActiveSentenceCount returns the number of currently active sentences,
// used by C6's rotation cap check.
func (s *Store) ActiveSentenceCount(ctx context.Context) (int, error) {
	var n int
	err := s.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM sentences WHERE is_active`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting active sentences: %w", err)
	}
	return n, nil
}

// ActiveSentenceCountForLemma returns how many active sentences currently
// target lemmaID, backing C6's MIN_SENTENCES gap check.
func (s *Store) ActiveSentenceCountForLemma(ctx context.Context, lemmaID string) (int, error) {
	var n int
	err := s.exec.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sentences WHERE is_active AND target_lemma_id = $1`, lemmaID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting active sentences for lemma %s: %w", lemmaID, err)
	}
	return n, nil
}

// ActiveSentencesForLemma loads every active sentence targeting lemmaID,
// used by C4's candidate pool and C6's rotation scan.
func (s *Store) ActiveSentencesForLemma(ctx context.Context, lemmaID string) ([]models.Sentence, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT sentence_id, arabic_raw, arabic_diacritized, english, transliteration,
		       target_lemma_id, is_active, times_shown, last_shown_at, last_comprehension,
		       source, created_at
		FROM sentences WHERE is_active AND target_lemma_id = $1`, lemmaID)
	if err != nil {
		return nil, fmt.Errorf("querying active sentences for lemma %s: %w", lemmaID, err)
	}
	defer rows.Close()
	return scanSentenceRows(rows)
}

// AllActiveSentences loads the entire active pool for C4's candidate
// selection pass.
func (s *Store) AllActiveSentences(ctx context.Context) ([]models.Sentence, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT sentence_id, arabic_raw, arabic_diacritized, english, transliteration,
		       target_lemma_id, is_active, times_shown, last_shown_at, last_comprehension,
		       source, created_at
		FROM sentences WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("querying active sentences: %w", err)
	}
	defer rows.Close()
	return scanSentenceRows(rows)
}

// SentencesContainingLemmas loads every active sentence that has at least
// one sentence_word mapped to a lemma in lemmaIDs, used by C4's step 2
// candidate fetch.
func (s *Store) SentencesContainingLemmas(ctx context.Context, lemmaIDs []string) ([]models.Sentence, error) {
	if len(lemmaIDs) == 0 {
		return nil, nil
	}
	rows, err := s.exec.QueryContext(ctx, `
		SELECT DISTINCT s.sentence_id, s.arabic_raw, s.arabic_diacritized, s.english, s.transliteration,
		       s.target_lemma_id, s.is_active, s.times_shown, s.last_shown_at, s.last_comprehension,
		       s.source, s.created_at
		FROM sentences s
		JOIN sentence_words w ON w.sentence_id = s.sentence_id
		WHERE s.is_active AND w.lemma_id = ANY($1)`, lemmaIDs)
	if err != nil {
		return nil, fmt.Errorf("querying sentences containing lemmas: %w", err)
	}
	defer rows.Close()
	return scanSentenceRows(rows)
}

// GetSentence fetches one sentence by ID.
func (s *Store) GetSentence(ctx context.Context, sentenceID string) (*models.Sentence, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT sentence_id, arabic_raw, arabic_diacritized, english, transliteration,
		       target_lemma_id, is_active, times_shown, last_shown_at, last_comprehension,
		       source, created_at
		FROM sentences WHERE sentence_id = $1`, sentenceID)
	return scanSentenceRow(row)
}

// SentenceWords loads every word mapping for sentenceID, ordered by position.
func (s *Store) SentenceWords(ctx context.Context, sentenceID string) ([]models.SentenceWord, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT sentence_id, position, surface_form, lemma_id, is_target
		FROM sentence_words WHERE sentence_id = $1 ORDER BY position ASC`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("querying sentence words: %w", err)
	}
	defer rows.Close()

	var out []models.SentenceWord
	for rows.Next() {
		var w models.SentenceWord
		var lemmaID sql.NullString
		if err := rows.Scan(&w.SentenceID, &w.Position, &w.SurfaceForm, &lemmaID, &w.IsTarget); err != nil {
			return nil, fmt.Errorf("scanning sentence word: %w", err)
		}
		if lemmaID.Valid {
			w.LemmaID = &lemmaID.String
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateSentenceShownState persists the aggregate times_shown counter and
// per-mode last_shown_at/last_comprehension maps after C5 dispatches a
// sentence review.
func (s *Store) UpdateSentenceShownState(ctx context.Context, sent *models.Sentence) error {
	lastShown, _ := json.Marshal(sent.LastShownAt)
	lastComp, _ := json.Marshal(sent.LastComprehension)

	_, err := s.exec.ExecContext(ctx, `
		UPDATE sentences SET times_shown = $2, last_shown_at = $3, last_comprehension = $4
		WHERE sentence_id = $1`, sent.SentenceID, sent.TimesShown, lastShown, lastComp)
	if err != nil {
		return fmt.Errorf("updating sentence shown state for %s: %w", sent.SentenceID, err)
	}
	return nil
}

// RetireSentence marks a sentence inactive (C6's RotateStale, or C10's
// fallback when a flagged mapping can't be safely repaired).
func (s *Store) RetireSentence(ctx context.Context, sentenceID string) error {
	_, err := s.exec.ExecContext(ctx, `UPDATE sentences SET is_active = false WHERE sentence_id = $1`, sentenceID)
	if err != nil {
		return fmt.Errorf("retiring sentence %s: %w", sentenceID, err)
	}
	return nil
}

// UpdateSentenceWordLemma corrects or clears one word's lemma mapping, used
// by C10's word_mapping flag resolution.
func (s *Store) UpdateSentenceWordLemma(ctx context.Context, sentenceID string, position int, lemmaID *string) error {
	_, err := s.exec.ExecContext(ctx, `
		UPDATE sentence_words SET lemma_id = $3 WHERE sentence_id = $1 AND position = $2`,
		sentenceID, position, lemmaID)
	if err != nil {
		return fmt.Errorf("updating sentence word mapping: %w", err)
	}
	return nil
}

// UpdateLemmaGloss rewrites a lemma's gloss, used by C10's word_gloss flag
// resolution.
func (s *Store) UpdateLemmaGloss(ctx context.Context, lemmaID, gloss string) error {
	_, err := s.exec.ExecContext(ctx, `UPDATE lemmas SET gloss = $2 WHERE lemma_id = $1`, lemmaID, gloss)
	if err != nil {
		return fmt.Errorf("updating lemma gloss for %s: %w", lemmaID, err)
	}
	return nil
}

// InsertSentenceReviewLog appends one sentence-level review record.
func (s *Store) InsertSentenceReviewLog(ctx context.Context, log *models.SentenceReviewLog) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO sentence_review_logs
			(id, sentence_id, session_id, review_mode, comprehension_signal, reviewed_at, client_review_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		log.ID, log.SentenceID, log.SessionID, log.ReviewMode, log.ComprehensionSignal,
		log.ReviewedAt, log.ClientReviewID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("inserting sentence review log: %w", err)
	}
	return nil
}

// SentenceReviewLogByClientID checks whether a sentence-level review has
// already been recorded under clientReviewID, for C5's idempotency check.
func (s *Store) SentenceReviewLogByClientID(ctx context.Context, clientReviewID string) (*models.SentenceReviewLog, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, sentence_id, session_id, review_mode, comprehension_signal, reviewed_at, client_review_id
		FROM sentence_review_logs WHERE client_review_id = $1`, clientReviewID)

	var (
		log       models.SentenceReviewLog
		sessionID sql.NullString
		clientID  sql.NullString
	)
	if err := row.Scan(&log.ID, &log.SentenceID, &sessionID, &log.ReviewMode,
		&log.ComprehensionSignal, &log.ReviewedAt, &clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying sentence review log: %w", err)
	}
	if sessionID.Valid {
		log.SessionID = &sessionID.String
	}
	if clientID.Valid {
		log.ClientReviewID = &clientID.String
	}
	return &log, nil
}

func scanSentenceRow(row *sql.Row) (*models.Sentence, error) {
	var (
		sent           models.Sentence
		targetLemmaID  sql.NullString
		lastShownBytes []byte
		lastCompBytes  []byte
	)
	if err := row.Scan(&sent.SentenceID, &sent.ArabicRaw, &sent.ArabicDiacritized, &sent.English,
		&sent.Transliteration, &targetLemmaID, &sent.IsActive, &sent.TimesShown, &lastShownBytes,
		&lastCompBytes, &sent.Source, &sent.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sentence: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning sentence: %w", err)
	}
	applySentenceNulls(&sent, targetLemmaID, lastShownBytes, lastCompBytes)
	return &sent, nil
}

func scanSentenceRows(rows *sql.Rows) ([]models.Sentence, error) {
	var out []models.Sentence
	for rows.Next() {
		var (
			sent           models.Sentence
			targetLemmaID  sql.NullString
			lastShownBytes []byte
			lastCompBytes  []byte
		)
		if err := rows.Scan(&sent.SentenceID, &sent.ArabicRaw, &sent.ArabicDiacritized, &sent.English,
			&sent.Transliteration, &targetLemmaID, &sent.IsActive, &sent.TimesShown, &lastShownBytes,
			&lastCompBytes, &sent.Source, &sent.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning sentence row: %w", err)
		}
		applySentenceNulls(&sent, targetLemmaID, lastShownBytes, lastCompBytes)
		out = append(out, sent)
	}
	return out, rows.Err()
}

func applySentenceNulls(sent *models.Sentence, targetLemmaID sql.NullString, lastShownBytes, lastCompBytes []byte) {
	if targetLemmaID.Valid {
		sent.TargetLemmaID = &targetLemmaID.String
	}
	sent.LastShownAt = map[models.ReviewMode]time.Time{}
	if len(lastShownBytes) > 0 {
		_ = json.Unmarshal(lastShownBytes, &sent.LastShownAt)
	}
	sent.LastComprehension = map[models.ReviewMode]string{}
	if len(lastCompBytes) > 0 {
		_ = json.Unmarshal(lastCompBytes, &sent.LastComprehension)
	}
}
