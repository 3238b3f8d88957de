package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These back the flag-triage and sentence-lookup tooling around C10, letting
// a reviewer search sentence text without a sequential scan.
func CreateGINIndexes(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_sentences_arabic_text_gin
		ON sentences USING gin(to_tsvector('simple', arabic_text))`)
	if err != nil {
		return fmt.Errorf("failed to create arabic_text GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_sentences_english_translation_gin
		ON sentences USING gin(to_tsvector('english', english_translation))`)
	if err != nil {
		return fmt.Errorf("failed to create english_translation GIN index: %w", err)
	}

	return nil
}
