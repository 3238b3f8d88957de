package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alif-engine/core/pkg/fsrs"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
	"github.com/google/uuid"
)

// Leitner box intervals for the acquisition phase. Box 1 is the
// encoding/within-session interval; boxes 2 and 3 enforce real
// inter-session spacing so consolidation happens across sleep.
var boxIntervals = map[int]time.Duration{
	1: 4 * time.Hour,
	2: 24 * time.Hour,
	3: 3 * 24 * time.Hour,
}

const (
	graduationMinReviews      = 5
	graduationMinAccuracy     = 0.60
	graduationMinCalendarDays = 2
)

var genericAcquisitionSources = map[string]struct{}{
	"study":       {},
	"encountered": {},
}

// AcquisitionService runs the Leitner 3-box acquisition system (C2): new
// words move through boxes 1-3 before graduating into FSRS scheduling.
type AcquisitionService struct {
	store *store.Store
	srs   *SRSService
}

// NewAcquisitionService wires srs in so SubmitAcquisitionReview can delegate
// a review for a lemma that has already graduated out of acquisition,
// rather than rejecting it.
func NewAcquisitionService(s *store.Store, srs *SRSService) *AcquisitionService {
	return &AcquisitionService{store: s, srs: srs}
}

// StartAcquisition creates or transitions a lemma's knowledge row into box 1
// of acquisition. If dueImmediately is true the word is due right away (used
// to auto-introduce a word within the current session); otherwise the first
// review is due after the box 1 interval.
func (a *AcquisitionService) StartAcquisition(ctx context.Context, lemmaID, source string, dueImmediately bool) (*models.UserLemmaKnowledge, error) {
	now := time.Now().UTC()
	nextDue := now.Add(boxIntervals[1])
	if dueImmediately {
		nextDue = now
	}

	ulk, err := a.store.GetULK(ctx, lemmaID)
	if errors.Is(err, sql.ErrNoRows) {
		ulk = &models.UserLemmaKnowledge{LemmaID: lemmaID, Source: source}
	} else if err != nil {
		return nil, fmt.Errorf("loading knowledge state for lemma %s: %w", lemmaID, err)
	}

	box := 1
	ulk.State = models.StateAcquiring
	ulk.AcquisitionBox = &box
	ulk.AcquisitionNextDue = &nextDue
	ulk.EnteredAcquiringAt = &now
	ulk.IntroducedAt = &now
	ulk.FSRSCard = nil

	if _, generic := genericAcquisitionSources[ulk.Source]; ulk.Source == "" || generic {
		ulk.Source = source
	}

	if err := a.store.UpsertULK(ctx, ulk); err != nil {
		return nil, fmt.Errorf("starting acquisition for lemma %s: %w", lemmaID, err)
	}
	return ulk, nil
}

// AcquisitionReviewResult reports the outcome of SubmitAcquisitionReview.
type AcquisitionReviewResult struct {
	LemmaID        string
	NewState       models.KnowledgeState
	AcquisitionBox *int
	Graduated      bool
	NextDue        *time.Time
	Duplicate      bool
}

// SubmitAcquisitionReview records one acquisition-phase review and runs the
// box-advancement state machine:
//
//	rating >= 3 (good/easy): advance box 1->2->3, graduate from box 3 once
//	  graduation criteria are met.
//	rating == 2 (hard): stay in the same box, reset the interval.
//	rating == 1 (again): reset to box 1.
//
// Box 1->2 always advances (within-session repetition during encoding).
// Box 2->3 and graduation only happen once the word is actually due,
// enforcing inter-session spacing even if the learner reviews it early.
func (a *AcquisitionService) SubmitAcquisitionReview(ctx context.Context, req AcquisitionReviewRequest) (*AcquisitionReviewResult, error) {
	if req.ClientReviewID != "" {
		if dup, err := a.duplicateResult(ctx, req); err != nil {
			return nil, err
		} else if dup != nil {
			return dup, nil
		}
	}

	now := time.Now().UTC()

	ulk, err := a.store.GetULK(ctx, req.LemmaID)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge state for lemma %s: %w", req.LemmaID, err)
	}
	if ulk.State != models.StateAcquiring {
		return a.delegateToSRS(ctx, req)
	}

	oldBox := 1
	if ulk.AcquisitionBox != nil {
		oldBox = *ulk.AcquisitionBox
	}
	oldTimesSeen := ulk.TimesSeen
	oldTimesCorrect := ulk.TimesCorrect
	oldState := ulk.State

	ulk.TimesSeen = oldTimesSeen + 1
	if req.Rating >= 3 {
		ulk.TimesCorrect = oldTimesCorrect + 1
	}
	ulk.LastReviewed = &now
	ulk.TotalEncounters++

	isDue := true
	if ulk.AcquisitionNextDue != nil {
		isDue = !ulk.AcquisitionNextDue.After(now)
	}

	switch {
	case req.Rating >= 3:
		newBox, newDue := advanceBox(oldBox, isDue, now)
		ulk.AcquisitionBox = &newBox
		if newDue != nil {
			ulk.AcquisitionNextDue = newDue
		}
	case req.Rating == 2:
		box := oldBox
		ulk.AcquisitionBox = &box
		if isDue {
			var due time.Time
			if ulk.TimesCorrect == 0 {
				due = now.Add(10 * time.Minute)
			} else {
				due = now.Add(boxIntervals[oldBox])
			}
			ulk.AcquisitionNextDue = &due
		}
	default:
		box := 1
		ulk.AcquisitionBox = &box
		var due time.Time
		if ulk.TimesCorrect == 0 {
			due = now.Add(5 * time.Minute)
		} else {
			due = now.Add(boxIntervals[1])
		}
		ulk.AcquisitionNextDue = &due
	}

	graduated := false
	if ulk.AcquisitionBox != nil && *ulk.AcquisitionBox >= 3 && isDue {
		accuracy := 0.0
		if ulk.TimesSeen > 0 {
			accuracy = float64(ulk.TimesCorrect) / float64(ulk.TimesSeen)
		}
		if ulk.TimesSeen >= graduationMinReviews && accuracy >= graduationMinAccuracy {
			days, err := a.store.AcquisitionCalendarDays(ctx, req.LemmaID)
			if err != nil {
				return nil, fmt.Errorf("checking graduation calendar spread: %w", err)
			}
			if days >= graduationMinCalendarDays {
				graduated = true
			}
		}
	}

	if graduated {
		a.graduate(ulk, now)
	}

	fsrsLog, _ := json.Marshal(map[string]any{
		"rating":                req.Rating,
		"state":                 ulk.State,
		"acquisition_box_before": oldBox,
		"acquisition_box_after":  derefBox(ulk.AcquisitionBox),
		"graduated":              graduated,
		"pre_times_seen":         oldTimesSeen,
		"pre_times_correct":      oldTimesCorrect,
		"pre_knowledge_state":    oldState,
	})

	log := &models.ReviewLog{
		ID:                  uuid.NewString(),
		LemmaID:             req.LemmaID,
		Rating:              req.Rating,
		ReviewedAt:          now,
		ResponseMs:          req.ResponseMs,
		ReviewMode:          req.ReviewMode,
		ComprehensionSignal: req.ComprehensionSignal,
		CreditType:          models.CreditAcquisition,
		SessionID:           req.SessionID,
		ClientReviewID:      nonEmptyPtr(req.ClientReviewID),
		IsAcquisition:       true,
		FSRSLog:             fsrsLog,
	}
	if err := a.store.InsertReviewLog(ctx, log); err != nil && !errors.Is(err, store.ErrDuplicateReview) {
		return nil, fmt.Errorf("logging acquisition review: %w", err)
	}

	if err := a.store.UpsertULK(ctx, ulk); err != nil {
		return nil, fmt.Errorf("persisting acquisition state for lemma %s: %w", req.LemmaID, err)
	}

	return &AcquisitionReviewResult{
		LemmaID:        req.LemmaID,
		NewState:       ulk.State,
		AcquisitionBox: ulk.AcquisitionBox,
		Graduated:      graduated,
		NextDue:        ulk.AcquisitionNextDue,
	}, nil
}

// AcquisitionReviewRequest carries the inputs to SubmitAcquisitionReview.
type AcquisitionReviewRequest struct {
	LemmaID             string
	Rating              int
	ResponseMs          *int
	SessionID           *string
	ReviewMode          models.ReviewMode
	ComprehensionSignal *string
	ClientReviewID      string
}

// delegateToSRS forwards a review for a lemma that is no longer acquiring
// (already graduated, or never entered acquisition) to C3, so a caller that
// doesn't state-check before submitting still gets a correct review
// instead of an error.
func (a *AcquisitionService) delegateToSRS(ctx context.Context, req AcquisitionReviewRequest) (*AcquisitionReviewResult, error) {
	res, err := a.srs.SubmitReview(ctx, ReviewRequest{
		LemmaID:             req.LemmaID,
		Rating:              req.Rating,
		ResponseMs:          req.ResponseMs,
		SessionID:           req.SessionID,
		ReviewMode:          req.ReviewMode,
		ComprehensionSignal: req.ComprehensionSignal,
		CreditType:          models.CreditCollateral,
		ClientReviewID:      req.ClientReviewID,
		Commit:              true,
	})
	if err != nil {
		return nil, fmt.Errorf("delegating acquisition review for lemma %s to srs: %w", req.LemmaID, err)
	}
	return &AcquisitionReviewResult{
		LemmaID:   req.LemmaID,
		NewState:  res.NewState,
		NextDue:   &res.NextDue,
		Duplicate: res.Duplicate,
	}, nil
}

func (a *AcquisitionService) duplicateResult(ctx context.Context, req AcquisitionReviewRequest) (*AcquisitionReviewResult, error) {
	logs, err := a.store.ReviewLogsByClientPrefix(ctx, req.ClientReviewID)
	if err != nil {
		return nil, fmt.Errorf("checking duplicate review: %w", err)
	}
	found := false
	for _, l := range logs {
		if l.ClientReviewID != nil && *l.ClientReviewID == req.ClientReviewID {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}
	ulk, err := a.store.GetULK(ctx, req.LemmaID)
	if err != nil {
		return &AcquisitionReviewResult{LemmaID: req.LemmaID, NewState: models.StateAcquiring, Duplicate: true}, nil
	}
	return &AcquisitionReviewResult{
		LemmaID:        req.LemmaID,
		NewState:       ulk.State,
		AcquisitionBox: ulk.AcquisitionBox,
		NextDue:        ulk.AcquisitionNextDue,
		Duplicate:      true,
	}, nil
}

// advanceBox implements the rating>=3 box transition. Returns nil for
// newDue when the word wasn't due yet and box 2/3 advancement is withheld
// (the review is still credited via times_seen, but timers aren't reset).
func advanceBox(oldBox int, isDue bool, now time.Time) (int, *time.Time) {
	switch {
	case oldBox == 1:
		due := now.Add(boxIntervals[2])
		return 2, &due
	case oldBox == 2 && isDue:
		due := now.Add(boxIntervals[3])
		return 3, &due
	case oldBox >= 3 && isDue:
		due := now.Add(boxIntervals[3])
		return 3, &due
	default:
		return oldBox, nil
	}
}

// graduate moves a word out of acquisition into FSRS scheduling, seeding
// its card with a single synthetic "Good" review to set a baseline
// stability rather than starting from a completely blank card.
func (a *AcquisitionService) graduate(ulk *models.UserLemmaKnowledge, now time.Time) {
	ulk.State = models.StateLearning
	ulk.AcquisitionBox = nil
	ulk.AcquisitionNextDue = nil
	ulk.GraduatedAt = &now

	card := fsrs.NewCard()
	card, _ = fsrs.NewScheduler().Review(card, fsrs.RatingGood, now)
	encoded, err := json.Marshal(card)
	if err != nil {
		slog.Error("encoding graduation fsrs card", "lemma_id", ulk.LemmaID, "error", err)
		return
	}
	ulk.FSRSCard = encoded

	slog.Info("word graduated",
		"event", "word_graduated",
		"lemma_id", ulk.LemmaID,
		"times_seen", ulk.TimesSeen,
		"times_correct", ulk.TimesCorrect,
	)
}

// AcquisitionStats summarizes the acquisition pipeline for dashboards.
type AcquisitionStats struct {
	TotalAcquiring int
	Box1           int
	Box2           int
	Box3           int
	DueNow         int
}

// GetAcquisitionStats reports box occupancy and due counts across every
// word currently in acquisition.
func (a *AcquisitionService) GetAcquisitionStats(ctx context.Context) (*AcquisitionStats, error) {
	due, err := a.store.EnumerateAcquisitionDue(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("enumerating acquisition due: %w", err)
	}
	stats := &AcquisitionStats{DueNow: len(due)}
	for i := range due {
		box := derefBox(due[i].AcquisitionBox)
		switch box {
		case 1:
			stats.Box1++
		case 2:
			stats.Box2++
		case 3:
			stats.Box3++
		}
		stats.TotalAcquiring++
	}
	return stats, nil
}

func derefBox(b *int) int {
	if b == nil {
		return 0
	}
	return *b
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
