// Package dispatch implements the Review Dispatcher (C5): fanning one
// sentence-level comprehension signal out into per-lemma acquisition/SRS
// reviews, grammar exposure updates, and the sentence's own shown-state
// bookkeeping.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/events"
	"github.com/alif-engine/core/pkg/grammar"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/services"
	"github.com/alif-engine/core/pkg/store"
	"github.com/google/uuid"
)

// Service runs SubmitSentenceReview.
type Service struct {
	store       *store.Store
	acquisition *services.AcquisitionService
	srs         *services.SRSService
	grammar     *grammar.Service
	recorder    *events.Recorder
}

func NewService(s *store.Store, acquisition *services.AcquisitionService, srs *services.SRSService, gram *grammar.Service, rec *events.Recorder) *Service {
	return &Service{store: s, acquisition: acquisition, srs: srs, grammar: gram, recorder: rec}
}

// ComprehensionSignal is the learner's self-reported grasp of a reviewed
// sentence, driving the per-word rating policy.
type ComprehensionSignal string

const (
	SignalUnderstood      ComprehensionSignal = "understood"
	SignalPartial         ComprehensionSignal = "partial"
	SignalGrammarConfused ComprehensionSignal = "grammar_confused"
	SignalNoIdea          ComprehensionSignal = "no_idea"
)

// ReviewInput carries SubmitSentenceReview's arguments.
type ReviewInput struct {
	SentenceID          *string
	PrimaryLemmaID      string
	ComprehensionSignal ComprehensionSignal
	MissedLemmaIDs      []string
	ConfusedFeatureIDs  []string
	ResponseMs          *int
	SessionID           *string
	ReviewMode          models.ReviewMode
	ClientReviewID      string
}

// WordResult is one lemma's outcome from the fan-out.
type WordResult struct {
	LemmaID    string
	Rating     int
	NewState   models.KnowledgeState
	CreditType models.CreditType
	NextDue    *time.Time
}

// ReviewOutcome is SubmitSentenceReview's return value.
type ReviewOutcome struct {
	Duplicate   bool
	WordResults []WordResult
}

// SubmitSentenceReview implements C5: idempotent per sentence-level
// client_review_id, dispatches one rating per content word to C2
// (acquiring) or C3 (graduated), and updates grammar exposure and the
// sentence's per-mode shown state.
func (svc *Service) SubmitSentenceReview(ctx context.Context, in ReviewInput) (*ReviewOutcome, error) {
	if in.ClientReviewID != "" {
		dup, err := svc.store.SentenceReviewLogByClientID(ctx, in.ClientReviewID)
		if err != nil {
			return nil, fmt.Errorf("checking duplicate sentence review: %w", err)
		}
		if dup != nil {
			return &ReviewOutcome{Duplicate: true}, nil
		}
	}

	var outcome *ReviewOutcome
	err := svc.store.WithTx(ctx, func(tx *store.Store) error {
		txSRS := services.NewSRSService(tx)
		txSvc := &Service{
			store:       tx,
			acquisition: services.NewAcquisitionService(tx, txSRS),
			srs:         txSRS,
			grammar:     grammar.NewService(tx),
			recorder:    events.NewRecorder(tx),
		}
		o, err := txSvc.dispatchReview(ctx, in)
		if err != nil {
			return err
		}
		outcome = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// dispatchReview runs the per-word fan-out, grammar exposure update, and
// sentence shown-state bookkeeping against svc's store. SubmitSentenceReview
// always scopes that store to a single transaction, so a mid-way failure
// rolls back every write together.
func (svc *Service) dispatchReview(ctx context.Context, in ReviewInput) (*ReviewOutcome, error) {
	var (
		sentence *models.Sentence
		words    []models.SentenceWord
	)
	if in.SentenceID != nil {
		var err error
		sentence, err = svc.store.GetSentence(ctx, *in.SentenceID)
		if err != nil {
			return nil, fmt.Errorf("loading sentence %s: %w", *in.SentenceID, err)
		}
		words, err = svc.store.SentenceWords(ctx, *in.SentenceID)
		if err != nil {
			return nil, fmt.Errorf("loading words for sentence %s: %w", *in.SentenceID, err)
		}
	} else {
		words = []models.SentenceWord{{LemmaID: &in.PrimaryLemmaID, IsTarget: true}}
	}

	missed := toSet(in.MissedLemmaIDs)

	var results []WordResult
	for _, w := range words {
		if w.LemmaID == nil {
			continue
		}
		result, err := svc.reviewOneLemma(ctx, *w.LemmaID, in, missed)
		if err != nil {
			return nil, err
		}
		if result != nil {
			results = append(results, *result)
		}
	}

	if sentence != nil {
		if err := svc.recordGrammarExposure(ctx, sentence.SentenceID, in); err != nil {
			return nil, err
		}
		if err := svc.finishSentence(ctx, sentence, in); err != nil {
			return nil, err
		}
	}

	return &ReviewOutcome{WordResults: results}, nil
}

func (svc *Service) reviewOneLemma(ctx context.Context, lemmaID string, in ReviewInput, missed map[string]struct{}) (*WordResult, error) {
	ulk, err := svc.store.GetULK(ctx, lemmaID)
	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now().UTC()
		newULK := &models.UserLemmaKnowledge{
			LemmaID:         lemmaID,
			State:           models.StateEncountered,
			Source:          "encountered",
			LastReviewed:    &now,
			TotalEncounters: 1,
		}
		if err := svc.store.UpsertULK(ctx, newULK); err != nil {
			return nil, fmt.Errorf("creating encountered knowledge for %s: %w", lemmaID, err)
		}
		return &WordResult{LemmaID: lemmaID, NewState: models.StateEncountered, CreditType: models.CreditEncounter}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading knowledge for %s: %w", lemmaID, err)
	}

	credit := models.CreditCollateral
	if lemmaID == in.PrimaryLemmaID {
		credit = models.CreditPrimary
	}
	rating := ratingFor(in.ComprehensionSignal, lemmaID, missed)
	clientID := subClientID(in.ClientReviewID, lemmaID)
	signal := string(in.ComprehensionSignal)

	switch ulk.State {
	case models.StateSuspended:
		return nil, nil

	case models.StateNew, models.StateEncountered:
		ulk.TimesSeen++
		if rating >= 3 {
			ulk.TimesCorrect++
		}
		now := time.Now().UTC()
		ulk.LastReviewed = &now
		ulk.TotalEncounters++
		if err := svc.store.UpsertULK(ctx, ulk); err != nil {
			return nil, fmt.Errorf("updating encountered knowledge for %s: %w", lemmaID, err)
		}
		return &WordResult{LemmaID: lemmaID, Rating: rating, NewState: ulk.State, CreditType: models.CreditEncounter}, nil

	case models.StateAcquiring:
		res, err := svc.acquisition.SubmitAcquisitionReview(ctx, services.AcquisitionReviewRequest{
			LemmaID:             lemmaID,
			Rating:              rating,
			ResponseMs:          in.ResponseMs,
			SessionID:           in.SessionID,
			ReviewMode:          in.ReviewMode,
			ComprehensionSignal: &signal,
			ClientReviewID:      clientID,
		})
		if err != nil {
			return nil, fmt.Errorf("dispatching acquisition review for %s: %w", lemmaID, err)
		}
		return &WordResult{LemmaID: lemmaID, Rating: rating, NewState: res.NewState, CreditType: credit, NextDue: res.NextDue}, nil

	default: // learning, known, lapsed
		res, err := svc.srs.SubmitReview(ctx, services.ReviewRequest{
			LemmaID:             lemmaID,
			Rating:              rating,
			ResponseMs:          in.ResponseMs,
			SessionID:           in.SessionID,
			ReviewMode:          in.ReviewMode,
			ComprehensionSignal: &signal,
			SentenceID:          in.SentenceID,
			CreditType:          credit,
			ClientReviewID:      clientID,
			Commit:              false,
		})
		if err != nil {
			return nil, fmt.Errorf("dispatching srs review for %s: %w", lemmaID, err)
		}
		next := res.NextDue
		return &WordResult{LemmaID: lemmaID, Rating: rating, NewState: res.NewState, CreditType: credit, NextDue: &next}, nil
	}
}

func (svc *Service) recordGrammarExposure(ctx context.Context, sentenceID string, in ReviewInput) error {
	featureIDs, err := svc.store.SentenceGrammarFeatures(ctx, sentenceID)
	if err != nil {
		return fmt.Errorf("loading grammar features for %s: %w", sentenceID, err)
	}

	correct := in.ComprehensionSignal == SignalUnderstood
	confused := in.ComprehensionSignal == SignalGrammarConfused
	for _, featureID := range featureIDs {
		if err := svc.grammar.RecordExposure(ctx, featureID, correct, confused); err != nil {
			return err
		}
	}

	if in.ComprehensionSignal == SignalGrammarConfused {
		tagged := toSet(featureIDs)
		for _, featureID := range in.ConfusedFeatureIDs {
			if _, already := tagged[featureID]; already {
				continue
			}
			if err := svc.grammar.RecordExposure(ctx, featureID, false, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (svc *Service) finishSentence(ctx context.Context, sentence *models.Sentence, in ReviewInput) error {
	now := time.Now().UTC()

	log := &models.SentenceReviewLog{
		ID:                  uuid.NewString(),
		SentenceID:          sentence.SentenceID,
		SessionID:           in.SessionID,
		ReviewMode:          in.ReviewMode,
		ComprehensionSignal: string(in.ComprehensionSignal),
		ReviewedAt:          now,
		ClientReviewID:      nonEmptyPtr(in.ClientReviewID),
	}
	if err := svc.store.InsertSentenceReviewLog(ctx, log); err != nil && !errors.Is(err, store.ErrDuplicateReview) {
		return fmt.Errorf("logging sentence review: %w", err)
	}

	if sentence.LastShownAt == nil {
		sentence.LastShownAt = map[models.ReviewMode]time.Time{}
	}
	if sentence.LastComprehension == nil {
		sentence.LastComprehension = map[models.ReviewMode]string{}
	}
	sentence.TimesShown++
	sentence.LastShownAt[in.ReviewMode] = now
	sentence.LastComprehension[in.ReviewMode] = string(in.ComprehensionSignal)
	if err := svc.store.UpdateSentenceShownState(ctx, sentence); err != nil {
		return fmt.Errorf("updating sentence shown state: %w", err)
	}

	svc.recorder.Record(ctx, events.TypeSentenceReview, map[string]any{
		"sentence_id":          sentence.SentenceID,
		"comprehension_signal": string(in.ComprehensionSignal),
	})
	return nil
}

// ratingFor implements C5's per-word rating policy.
func ratingFor(signal ComprehensionSignal, lemmaID string, missed map[string]struct{}) int {
	switch signal {
	case SignalNoIdea:
		return 1
	case SignalUnderstood:
		return 3
	case SignalPartial, SignalGrammarConfused:
		if _, ok := missed[lemmaID]; ok {
			return 1
		}
		return 3
	default:
		return 3
	}
}

func subClientID(base, lemmaID string) string {
	if base == "" {
		return ""
	}
	return base + ":" + lemmaID
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
