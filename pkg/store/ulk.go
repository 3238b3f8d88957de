package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/models"
)

// GetULK fetches a learner's knowledge row for one lemma. Returns
// sql.ErrNoRows (wrapped) if the lemma has never been touched.
func (s *Store) GetULK(ctx context.Context, lemmaID string) (*models.UserLemmaKnowledge, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT lemma_id, state, acquisition_box, acquisition_next_due, fsrs_card,
		       times_seen, times_correct, total_encounters, last_reviewed,
		       introduced_at, entered_acquiring_at, graduated_at, source
		FROM user_lemma_knowledge WHERE lemma_id = $1`, lemmaID)
	return scanULK(row)
}

func scanULK(row *sql.Row) (*models.UserLemmaKnowledge, error) {
	var (
		u            models.UserLemmaKnowledge
		box          sql.NullInt64
		nextDue      sql.NullTime
		fsrsCard     []byte
		lastReviewed sql.NullTime
		introducedAt sql.NullTime
		enteredAcq   sql.NullTime
		graduatedAt  sql.NullTime
	)
	if err := row.Scan(&u.LemmaID, &u.State, &box, &nextDue, &fsrsCard,
		&u.TimesSeen, &u.TimesCorrect, &u.TotalEncounters, &lastReviewed,
		&introducedAt, &enteredAcq, &graduatedAt, &u.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ulk: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning ulk: %w", err)
	}
	if box.Valid {
		v := int(box.Int64)
		u.AcquisitionBox = &v
	}
	if nextDue.Valid {
		u.AcquisitionNextDue = &nextDue.Time
	}
	if len(fsrsCard) > 0 {
		u.FSRSCard = fsrsCard
	}
	if lastReviewed.Valid {
		u.LastReviewed = &lastReviewed.Time
	}
	if introducedAt.Valid {
		u.IntroducedAt = &introducedAt.Time
	}
	if enteredAcq.Valid {
		u.EnteredAcquiringAt = &enteredAcq.Time
	}
	if graduatedAt.Valid {
		u.GraduatedAt = &graduatedAt.Time
	}
	return &u, nil
}

// UpsertULK writes a full UserLemmaKnowledge row, inserting or replacing by
// lemma_id. Callers are responsible for honoring the state invariants
// documented on models.UserLemmaKnowledge before calling this.
func (s *Store) UpsertULK(ctx context.Context, u *models.UserLemmaKnowledge) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO user_lemma_knowledge
			(lemma_id, state, acquisition_box, acquisition_next_due, fsrs_card,
			 times_seen, times_correct, total_encounters, last_reviewed,
			 introduced_at, entered_acquiring_at, graduated_at, source)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (lemma_id) DO UPDATE SET
			state = EXCLUDED.state,
			acquisition_box = EXCLUDED.acquisition_box,
			acquisition_next_due = EXCLUDED.acquisition_next_due,
			fsrs_card = EXCLUDED.fsrs_card,
			times_seen = EXCLUDED.times_seen,
			times_correct = EXCLUDED.times_correct,
			total_encounters = EXCLUDED.total_encounters,
			last_reviewed = EXCLUDED.last_reviewed,
			introduced_at = EXCLUDED.introduced_at,
			entered_acquiring_at = EXCLUDED.entered_acquiring_at,
			graduated_at = EXCLUDED.graduated_at,
			source = EXCLUDED.source`,
		u.LemmaID, u.State, u.AcquisitionBox, u.AcquisitionNextDue, nullBytes(u.FSRSCard),
		u.TimesSeen, u.TimesCorrect, u.TotalEncounters, u.LastReviewed,
		u.IntroducedAt, u.EnteredAcquiringAt, u.GraduatedAt, u.Source)
	if err != nil {
		return fmt.Errorf("upserting ulk %s: %w", u.LemmaID, err)
	}
	return nil
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// EnumerateAcquisitionDue returns every lemma currently in the acquiring
// box state whose next review is due at or before asOf, box-ascending then
// by due time — mirrors the order the original acquisition queue surfaced
// cards in.
func (s *Store) EnumerateAcquisitionDue(ctx context.Context, asOf time.Time) ([]models.UserLemmaKnowledge, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT lemma_id, state, acquisition_box, acquisition_next_due, fsrs_card,
		       times_seen, times_correct, total_encounters, last_reviewed,
		       introduced_at, entered_acquiring_at, graduated_at, source
		FROM user_lemma_knowledge
		WHERE state = 'acquiring' AND acquisition_next_due <= $1
		ORDER BY acquisition_box ASC, acquisition_next_due ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying acquisition due: %w", err)
	}
	defer rows.Close()
	return scanULKRows(rows)
}

// EnumerateSRSDue returns every lemma past graduation (learning/known/lapsed)
// whose FSRS-scheduled due time has passed. The due time itself lives inside
// FSRSCard, so pkg/srs filters the result after decoding each card.
func (s *Store) EnumerateSRSCandidates(ctx context.Context) ([]models.UserLemmaKnowledge, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT lemma_id, state, acquisition_box, acquisition_next_due, fsrs_card,
		       times_seen, times_correct, total_encounters, last_reviewed,
		       introduced_at, entered_acquiring_at, graduated_at, source
		FROM user_lemma_knowledge
		WHERE state IN ('learning','known','lapsed')`)
	if err != nil {
		return nil, fmt.Errorf("querying srs candidates: %w", err)
	}
	defer rows.Close()
	return scanULKRows(rows)
}

// KnownBareForms returns the bare form of every lemma whose knowledge state
// is not 'new', used by pkg/arabic.ValidateSentence to check generated
// sentences only use vocabulary the learner has already been introduced to.
func (s *Store) KnownBareForms(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT l.bare
		FROM lemmas l
		JOIN user_lemma_knowledge k ON k.lemma_id = l.lemma_id
		WHERE k.state <> 'new'`)
	if err != nil {
		return nil, fmt.Errorf("querying known bare forms: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var bare string
		if err := rows.Scan(&bare); err != nil {
			return nil, fmt.Errorf("scanning bare form: %w", err)
		}
		out[bare] = struct{}{}
	}
	return out, rows.Err()
}

// ULKByLemmaIDs batch-fetches knowledge rows for a set of lemmas, used by
// C4's scaffold-stability and freshness scoring over a candidate
// sentence's non-due words. Lemmas with no row are simply absent from the
// result map.
func (s *Store) ULKByLemmaIDs(ctx context.Context, lemmaIDs []string) (map[string]models.UserLemmaKnowledge, error) {
	out := make(map[string]models.UserLemmaKnowledge)
	if len(lemmaIDs) == 0 {
		return out, nil
	}
	rows, err := s.exec.QueryContext(ctx, `
		SELECT lemma_id, state, acquisition_box, acquisition_next_due, fsrs_card,
		       times_seen, times_correct, total_encounters, last_reviewed,
		       introduced_at, entered_acquiring_at, graduated_at, source
		FROM user_lemma_knowledge WHERE lemma_id = ANY($1)`, lemmaIDs)
	if err != nil {
		return nil, fmt.Errorf("querying ulk batch: %w", err)
	}
	defer rows.Close()
	list, err := scanULKRows(rows)
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.LemmaID] = u
	}
	return out, nil
}

func scanULKRows(rows *sql.Rows) ([]models.UserLemmaKnowledge, error) {
	var out []models.UserLemmaKnowledge
	for rows.Next() {
		var (
			u            models.UserLemmaKnowledge
			box          sql.NullInt64
			nextDue      sql.NullTime
			fsrsCard     []byte
			lastReviewed sql.NullTime
			introducedAt sql.NullTime
			enteredAcq   sql.NullTime
			graduatedAt  sql.NullTime
		)
		if err := rows.Scan(&u.LemmaID, &u.State, &box, &nextDue, &fsrsCard,
			&u.TimesSeen, &u.TimesCorrect, &u.TotalEncounters, &lastReviewed,
			&introducedAt, &enteredAcq, &graduatedAt, &u.Source); err != nil {
			return nil, fmt.Errorf("scanning ulk row: %w", err)
		}
		if box.Valid {
			v := int(box.Int64)
			u.AcquisitionBox = &v
		}
		if nextDue.Valid {
			u.AcquisitionNextDue = &nextDue.Time
		}
		if len(fsrsCard) > 0 {
			u.FSRSCard = fsrsCard
		}
		if lastReviewed.Valid {
			u.LastReviewed = &lastReviewed.Time
		}
		if introducedAt.Valid {
			u.IntroducedAt = &introducedAt.Time
		}
		if enteredAcq.Valid {
			u.EnteredAcquiringAt = &enteredAcq.Time
		}
		if graduatedAt.Valid {
			u.GraduatedAt = &graduatedAt.Time
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
