package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alif-engine/core/pkg/models"
)

// GrammarFeatureByKey fetches a catalogue row by its stable feature_key.
func (s *Store) GrammarFeatureByKey(ctx context.Context, featureKey string) (*models.GrammarFeature, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT feature_id, feature_key, label_en, label_ar, category, form_change_type
		FROM grammar_features WHERE feature_key = $1`, featureKey)
	var f models.GrammarFeature
	if err := row.Scan(&f.FeatureID, &f.FeatureKey, &f.LabelEn, &f.LabelAr, &f.Category, &f.FormChangeType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grammar feature: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning grammar feature: %w", err)
	}
	return &f, nil
}

// AllGrammarFeatures loads the entire static catalogue.
func (s *Store) AllGrammarFeatures(ctx context.Context) ([]models.GrammarFeature, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT feature_id, feature_key, label_en, label_ar, category, form_change_type
		FROM grammar_features`)
	if err != nil {
		return nil, fmt.Errorf("querying grammar features: %w", err)
	}
	defer rows.Close()

	var out []models.GrammarFeature
	for rows.Next() {
		var f models.GrammarFeature
		if err := rows.Scan(&f.FeatureID, &f.FeatureKey, &f.LabelEn, &f.LabelAr, &f.Category, &f.FormChangeType); err != nil {
			return nil, fmt.Errorf("scanning grammar feature row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetGrammarExposure fetches a learner's exposure row for one feature, or
// sql.ErrNoRows (wrapped) if the feature has never been seen.
func (s *Store) GetGrammarExposure(ctx context.Context, featureID string) (*models.UserGrammarExposure, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT feature_id, times_seen, times_correct, times_confused,
		       first_seen_at, last_seen_at, introduced_at, comfort_score
		FROM user_grammar_exposure WHERE feature_id = $1`, featureID)

	var (
		e           models.UserGrammarExposure
		firstSeen   sql.NullTime
		lastSeen    sql.NullTime
		introducedAt sql.NullTime
	)
	if err := row.Scan(&e.FeatureID, &e.TimesSeen, &e.TimesCorrect, &e.TimesConfused,
		&firstSeen, &lastSeen, &introducedAt, &e.ComfortScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grammar exposure: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning grammar exposure: %w", err)
	}
	if firstSeen.Valid {
		e.FirstSeenAt = &firstSeen.Time
	}
	if lastSeen.Valid {
		e.LastSeenAt = &lastSeen.Time
	}
	if introducedAt.Valid {
		e.IntroducedAt = &introducedAt.Time
	}
	return &e, nil
}

// AllGrammarExposures loads every feature's exposure row the learner has
// any history with, for C7's confused-feature scan.
func (s *Store) AllGrammarExposures(ctx context.Context) ([]models.UserGrammarExposure, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT feature_id, times_seen, times_correct, times_confused,
		       first_seen_at, last_seen_at, introduced_at, comfort_score
		FROM user_grammar_exposure`)
	if err != nil {
		return nil, fmt.Errorf("querying grammar exposures: %w", err)
	}
	defer rows.Close()

	var out []models.UserGrammarExposure
	for rows.Next() {
		var (
			e            models.UserGrammarExposure
			firstSeen    sql.NullTime
			lastSeen     sql.NullTime
			introducedAt sql.NullTime
		)
		if err := rows.Scan(&e.FeatureID, &e.TimesSeen, &e.TimesCorrect, &e.TimesConfused,
			&firstSeen, &lastSeen, &introducedAt, &e.ComfortScore); err != nil {
			return nil, fmt.Errorf("scanning grammar exposure row: %w", err)
		}
		if firstSeen.Valid {
			e.FirstSeenAt = &firstSeen.Time
		}
		if lastSeen.Valid {
			e.LastSeenAt = &lastSeen.Time
		}
		if introducedAt.Valid {
			e.IntroducedAt = &introducedAt.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertGrammarExposure writes a full exposure row.
func (s *Store) UpsertGrammarExposure(ctx context.Context, e *models.UserGrammarExposure) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO user_grammar_exposure
			(feature_id, times_seen, times_correct, times_confused,
			 first_seen_at, last_seen_at, introduced_at, comfort_score)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (feature_id) DO UPDATE SET
			times_seen = EXCLUDED.times_seen,
			times_correct = EXCLUDED.times_correct,
			times_confused = EXCLUDED.times_confused,
			first_seen_at = EXCLUDED.first_seen_at,
			last_seen_at = EXCLUDED.last_seen_at,
			introduced_at = EXCLUDED.introduced_at,
			comfort_score = EXCLUDED.comfort_score`,
		e.FeatureID, e.TimesSeen, e.TimesCorrect, e.TimesConfused,
		e.FirstSeenAt, e.LastSeenAt, e.IntroducedAt, e.ComfortScore)
	if err != nil {
		return fmt.Errorf("upserting grammar exposure for feature %s: %w", e.FeatureID, err)
	}
	return nil
}

// SentenceGrammarFeatures returns the feature IDs tagged on sentenceID.
func (s *Store) SentenceGrammarFeatures(ctx context.Context, sentenceID string) ([]string, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT feature_id FROM sentence_grammar_features WHERE sentence_id = $1`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("querying sentence grammar features: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning sentence grammar feature: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// TagSentenceGrammarFeature records that sentenceID exercises featureID,
// used by C6's pattern-matcher when persisting a generated sentence.
func (s *Store) TagSentenceGrammarFeature(ctx context.Context, sentenceID, featureID string) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO sentence_grammar_features (sentence_id, feature_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, sentenceID, featureID)
	if err != nil {
		return fmt.Errorf("tagging sentence grammar feature: %w", err)
	}
	return nil
}
