package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/fsrs"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
	"github.com/google/uuid"
)

// SRSService runs the post-graduation FSRS-style scheduler (C3): once a
// word graduates out of acquisition, every subsequent review flows through
// here instead of the Leitner boxes.
type SRSService struct {
	store     *store.Store
	scheduler *fsrs.Scheduler
}

func NewSRSService(s *store.Store) *SRSService {
	return &SRSService{store: s, scheduler: fsrs.NewScheduler()}
}

// ReviewRequest carries the inputs to SubmitReview.
type ReviewRequest struct {
	LemmaID             string
	Rating              int
	ResponseMs          *int
	SessionID           *string
	ReviewMode          models.ReviewMode
	ComprehensionSignal *string
	SentenceID          *string
	CreditType          models.CreditType
	ClientReviewID      string
	// Commit controls whether the caller wants this review to count as a
	// final state transition on its own. C5's per-word fan-out always calls
	// with commit=false: each word's write still runs immediately against
	// whatever Store it's given, but C5 wraps the whole sentence submission
	// in one store.WithTx, so the actual durability decision is the
	// transaction's commit/rollback, not this flag.
	Commit bool
}

// ReviewResult reports the outcome of SubmitReview.
type ReviewResult struct {
	LemmaID   string
	NewState  models.KnowledgeState
	NextDue   time.Time
	Duplicate bool
}

// SubmitReview records one post-graduation review, advances the FSRS card,
// and appends a ReviewLog snapshotting the pre-review card so
// UndoSentenceReview can restore it later. Idempotent on ClientReviewID.
func (s *SRSService) SubmitReview(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	if req.ClientReviewID != "" {
		if dup, err := s.duplicateResult(ctx, req.LemmaID, req.ClientReviewID); err != nil {
			return nil, err
		} else if dup != nil {
			return dup, nil
		}
	}

	ulk, err := s.store.GetULK(ctx, req.LemmaID)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge state for lemma %s: %w", req.LemmaID, err)
	}

	now := time.Now().UTC()
	card, err := decodeCard(ulk.FSRSCard)
	if err != nil {
		return nil, fmt.Errorf("decoding fsrs card for lemma %s: %w", req.LemmaID, err)
	}
	preCard := card

	rating := fsrs.Rating(req.Rating)
	nextCard, err := s.scheduler.Review(card, rating, now)
	if err != nil {
		return nil, fmt.Errorf("scheduling review for lemma %s: %w", req.LemmaID, err)
	}

	ulk.State = stateFromCard(nextCard)
	ulk.TimesSeen++
	if req.Rating >= int(fsrs.RatingGood) {
		ulk.TimesCorrect++
	}
	ulk.TotalEncounters++
	ulk.LastReviewed = &now

	encodedNext, err := json.Marshal(nextCard)
	if err != nil {
		return nil, fmt.Errorf("encoding fsrs card for lemma %s: %w", req.LemmaID, err)
	}
	ulk.FSRSCard = encodedNext
	ulk.AcquisitionBox = nil
	ulk.AcquisitionNextDue = nil

	preEncoded, _ := json.Marshal(preCard)
	log := &models.ReviewLog{
		ID:                  uuid.NewString(),
		LemmaID:             req.LemmaID,
		Rating:              req.Rating,
		ReviewedAt:          now,
		ResponseMs:          req.ResponseMs,
		ReviewMode:          req.ReviewMode,
		ComprehensionSignal: req.ComprehensionSignal,
		CreditType:          req.CreditType,
		SentenceID:          req.SentenceID,
		SessionID:           req.SessionID,
		ClientReviewID:      nonEmptyPtr(req.ClientReviewID),
		IsAcquisition:       false,
		FSRSLog:             preEncoded,
	}
	if err := s.store.InsertReviewLog(ctx, log); err != nil && !errors.Is(err, store.ErrDuplicateReview) {
		return nil, fmt.Errorf("logging review: %w", err)
	}

	if err := s.store.UpsertULK(ctx, ulk); err != nil {
		return nil, fmt.Errorf("persisting srs state for lemma %s: %w", req.LemmaID, err)
	}

	return &ReviewResult{LemmaID: req.LemmaID, NewState: ulk.State, NextDue: nextCard.Due}, nil
}

func (s *SRSService) duplicateResult(ctx context.Context, lemmaID, clientReviewID string) (*ReviewResult, error) {
	logs, err := s.store.ReviewLogsByClientPrefix(ctx, clientReviewID)
	if err != nil {
		return nil, fmt.Errorf("checking duplicate review: %w", err)
	}
	for _, l := range logs {
		if l.ClientReviewID != nil && *l.ClientReviewID == clientReviewID {
			ulk, err := s.store.GetULK(ctx, lemmaID)
			if err != nil {
				return &ReviewResult{LemmaID: lemmaID, Duplicate: true}, nil
			}
			due := time.Time{}
			if card, cerr := decodeCard(ulk.FSRSCard); cerr == nil {
				due = card.Due
			}
			return &ReviewResult{LemmaID: lemmaID, NewState: ulk.State, NextDue: due, Duplicate: true}, nil
		}
	}
	return nil, nil
}

// UndoSentenceReview reverses every per-lemma ReviewLog fanned out from one
// sentence-level review. Each affected ULK's FSRS card is restored from the
// most recent prior ReviewLog's snapshot, or reset to a blank new card if
// this was the lemma's first review.
func (s *SRSService) UndoSentenceReview(ctx context.Context, clientReviewID string) (int, error) {
	logs, err := s.store.ReviewLogsByClientPrefix(ctx, clientReviewID)
	if err != nil {
		return 0, fmt.Errorf("loading reviews for %s: %w", clientReviewID, err)
	}

	undone := 0
	for _, l := range logs {
		prior, err := s.store.MostRecentReviewBefore(ctx, l.LemmaID, l.ReviewedAt)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return undone, fmt.Errorf("loading prior review for lemma %s: %w", l.LemmaID, err)
		}

		ulk, err := s.store.GetULK(ctx, l.LemmaID)
		if err != nil {
			return undone, fmt.Errorf("loading knowledge state for lemma %s: %w", l.LemmaID, err)
		}

		if prior != nil && len(prior.FSRSLog) > 0 {
			ulk.FSRSCard = prior.FSRSLog
			card, cerr := decodeCard(ulk.FSRSCard)
			if cerr == nil {
				ulk.State = stateFromCard(card)
			}
		} else {
			blank, _ := json.Marshal(fsrs.NewCard())
			ulk.FSRSCard = blank
			ulk.State = models.StateLearning
		}

		if err := s.store.UpsertULK(ctx, ulk); err != nil {
			return undone, fmt.Errorf("restoring knowledge state for lemma %s: %w", l.LemmaID, err)
		}
		if err := s.store.DeleteReviewLog(ctx, l.ID); err != nil {
			return undone, fmt.Errorf("deleting review log %s: %w", l.ID, err)
		}
		undone++
	}
	return undone, nil
}

func decodeCard(raw []byte) (fsrs.Card, error) {
	if len(raw) == 0 {
		return fsrs.NewCard(), nil
	}
	var card fsrs.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return fsrs.Card{}, err
	}
	return card, nil
}

func stateFromCard(card fsrs.Card) models.KnowledgeState {
	switch card.State {
	case fsrs.StateRelearning:
		return models.StateLapsed
	case fsrs.StateLearning:
		return models.StateLearning
	default:
		return models.StateKnown
	}
}
