package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/arabic"
	"github.com/alif-engine/core/pkg/models"
)

// GetLemma fetches a single lemma by ID.
func (s *Store) GetLemma(ctx context.Context, lemmaID string) (*models.Lemma, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT lemma_id, surface, bare, gloss, pos, root_id, frequency_rank,
		       forms, canonical_lemma_id, created_at
		FROM lemmas WHERE lemma_id = $1`, lemmaID)
	return scanLemma(row)
}

func scanLemma(row *sql.Row) (*models.Lemma, error) {
	var (
		l          models.Lemma
		rootID     sql.NullString
		freqRank   sql.NullInt64
		canonID    sql.NullString
		formsBytes []byte
	)
	if err := row.Scan(&l.LemmaID, &l.Surface, &l.Bare, &l.Gloss, &l.POS,
		&rootID, &freqRank, &formsBytes, &canonID, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lemma: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning lemma: %w", err)
	}
	if rootID.Valid {
		l.RootID = &rootID.String
	}
	if freqRank.Valid {
		v := int(freqRank.Int64)
		l.FrequencyRank = &v
	}
	if canonID.Valid {
		l.CanonicalLemmaID = &canonID.String
	}
	if len(formsBytes) > 0 {
		_ = json.Unmarshal(formsBytes, &l.Forms)
	}
	return &l, nil
}

// AllLemmaEntries loads every lemma's bare form and inflected forms for
// BuildLemmaLookup. Called once per request/background pass per C1's
// caching policy — never rebuilt per sentence.
func (s *Store) AllLemmaEntries(ctx context.Context) ([]arabic.LemmaEntry, error) {
	rows, err := s.exec.QueryContext(ctx, `SELECT lemma_id, bare, forms FROM lemmas`)
	if err != nil {
		return nil, fmt.Errorf("querying lemmas: %w", err)
	}
	defer rows.Close()

	var entries []arabic.LemmaEntry
	for rows.Next() {
		var (
			id, bare   string
			formsBytes []byte
		)
		if err := rows.Scan(&id, &bare, &formsBytes); err != nil {
			return nil, fmt.Errorf("scanning lemma entry: %w", err)
		}
		entry := arabic.LemmaEntry{LemmaID: id, Bare: bare}
		if len(formsBytes) > 0 {
			_ = json.Unmarshal(formsBytes, &entry.Forms)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// BuildLemmaLookup constructs the full bare-form → lemma_id index in one
// pass. Expensive enough (iterates every lemma's forms plus the
// function-word conjugation table) that callers build it once per
// request/background pass and pass it down.
func (s *Store) BuildLemmaLookup(ctx context.Context) (map[string]string, error) {
	entries, err := s.AllLemmaEntries(ctx)
	if err != nil {
		return nil, err
	}
	return arabic.BuildLemmaLookup(entries), nil
}

// LookupLemma resolves a normalized bare form to a lemma ID using a
// previously built lookup index (see BuildLemmaLookup).
func (s *Store) LookupLemma(lookup map[string]string, normalizedBare string) (string, bool) {
	return arabic.LookupLemma(normalizedBare, lookup)
}

// LemmasByIDs batch-fetches lemmas, used to build reintro cards and
// fallback session items from a set of due lemma IDs without one
// round-trip each.
func (s *Store) LemmasByIDs(ctx context.Context, lemmaIDs []string) (map[string]models.Lemma, error) {
	out := make(map[string]models.Lemma)
	if len(lemmaIDs) == 0 {
		return out, nil
	}
	rows, err := s.exec.QueryContext(ctx, `
		SELECT lemma_id, surface, bare, gloss, pos, root_id, frequency_rank,
		       forms, canonical_lemma_id, created_at
		FROM lemmas WHERE lemma_id = ANY($1)`, lemmaIDs)
	if err != nil {
		return nil, fmt.Errorf("querying lemmas by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLemmaFromRows(rows)
		if err != nil {
			return nil, err
		}
		out[l.LemmaID] = *l
	}
	return out, rows.Err()
}

// RootFamily returns every non-variant lemma sharing rootID, excluding
// excludeLemmaID.
func (s *Store) RootFamily(ctx context.Context, rootID, excludeLemmaID string) ([]models.Lemma, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT lemma_id, surface, bare, gloss, pos, root_id, frequency_rank,
		       forms, canonical_lemma_id, created_at
		FROM lemmas
		WHERE root_id = $1 AND lemma_id != $2 AND canonical_lemma_id IS NULL`,
		rootID, excludeLemmaID)
	if err != nil {
		return nil, fmt.Errorf("querying root family: %w", err)
	}
	defer rows.Close()

	var out []models.Lemma
	for rows.Next() {
		l, err := scanLemmaFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// LemmaIntroductionCandidates returns every lemma that has never been
// started (no user_lemma_knowledge row at all) and is not a canonical
// variant of another lemma, excluding the given IDs. Used by the
// word-selector service (C4 intro candidates, C6 avoid-list seeding).
func (s *Store) LemmaIntroductionCandidates(ctx context.Context, excludeIDs []string) ([]models.Lemma, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := s.exec.QueryContext(ctx, `
		SELECT l.lemma_id, l.surface, l.bare, l.gloss, l.pos, l.root_id, l.frequency_rank,
		       l.forms, l.canonical_lemma_id, l.created_at
		FROM lemmas l
		WHERE l.canonical_lemma_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM user_lemma_knowledge u WHERE u.lemma_id = l.lemma_id)
		  AND l.lemma_id != ALL($1)`, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("querying lemma introduction candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Lemma
	for rows.Next() {
		l, err := scanLemmaFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// RootFamiliarity reports how many of rootID's lemmas (excluding
// excludeLemmaID) the learner has already started, out of the total
// family size.
func (s *Store) RootFamiliarity(ctx context.Context, rootID, excludeLemmaID string) (known, total int, err error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE u.lemma_id IS NOT NULL),
			COUNT(*)
		FROM lemmas l
		LEFT JOIN user_lemma_knowledge u ON u.lemma_id = l.lemma_id
		WHERE l.root_id = $1 AND l.lemma_id != $2 AND l.canonical_lemma_id IS NULL`,
		rootID, excludeLemmaID)
	if err := row.Scan(&known, &total); err != nil {
		return 0, 0, fmt.Errorf("computing root familiarity: %w", err)
	}
	return known, total, nil
}

// RootLastIntroducedAt returns the most recent introduced_at among
// rootID's lemmas (excluding excludeLemmaID), or nil if none have been
// introduced yet.
func (s *Store) RootLastIntroducedAt(ctx context.Context, rootID, excludeLemmaID string) (*time.Time, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT MAX(u.introduced_at)
		FROM lemmas l
		JOIN user_lemma_knowledge u ON u.lemma_id = l.lemma_id
		WHERE l.root_id = $1 AND l.lemma_id != $2`, rootID, excludeLemmaID)
	var t sql.NullTime
	if err := row.Scan(&t); err != nil {
		return nil, fmt.Errorf("loading last root introduction: %w", err)
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

func scanLemmaFromRows(rows *sql.Rows) (*models.Lemma, error) {
	var (
		l          models.Lemma
		rootID     sql.NullString
		freqRank   sql.NullInt64
		canonID    sql.NullString
		formsBytes []byte
	)
	if err := rows.Scan(&l.LemmaID, &l.Surface, &l.Bare, &l.Gloss, &l.POS,
		&rootID, &freqRank, &formsBytes, &canonID, &l.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning lemma: %w", err)
	}
	if rootID.Valid {
		l.RootID = &rootID.String
	}
	if freqRank.Valid {
		v := int(freqRank.Int64)
		l.FrequencyRank = &v
	}
	if canonID.Valid {
		l.CanonicalLemmaID = &canonID.String
	}
	if len(formsBytes) > 0 {
		_ = json.Unmarshal(formsBytes, &l.Forms)
	}
	return &l, nil
}
