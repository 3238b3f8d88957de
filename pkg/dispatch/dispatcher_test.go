package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alif-engine/core/pkg/events"
	"github.com/alif-engine/core/pkg/fsrs"
	"github.com/alif-engine/core/pkg/grammar"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/services"
	"github.com/alif-engine/core/pkg/store"
	testdb "github.com/alif-engine/core/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	srs := services.NewSRSService(s)
	acq := services.NewAcquisitionService(s, srs)
	gram := grammar.NewService(s)
	rec := events.NewRecorder(s)
	return NewService(s, acq, srs, gram, rec), s
}

func seedLemma(t *testing.T, s *store.Store, surface, gloss string) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO lemmas (lemma_id, surface, bare, gloss, pos, forms)
		VALUES ($1, $2, $2, $3, 'noun', '{}')`, id, surface, gloss)
	require.NoError(t, err)
	return id
}

func seedLearningULK(t *testing.T, s *store.Store, lemmaID string) {
	t.Helper()
	ctx := context.Background()
	card := fsrs.Card{Due: time.Now().UTC(), Stability: 5.0, Difficulty: 5, State: fsrs.StateReview, LastReview: time.Now().UTC().Add(-24 * time.Hour)}
	cardBytes, err := json.Marshal(card)
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, `
		INSERT INTO user_lemma_knowledge (lemma_id, state, fsrs_card, times_seen, times_correct, total_encounters, source)
		VALUES ($1, 'learning', $2, 3, 3, 3, 'study')`, lemmaID, cardBytes)
	require.NoError(t, err)
}

func seedCorruptLearningULK(t *testing.T, s *store.Store, lemmaID string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO user_lemma_knowledge (lemma_id, state, fsrs_card, times_seen, times_correct, total_encounters, source)
		VALUES ($1, 'learning', '[1,2,3]', 3, 3, 3, 'study')`, lemmaID)
	require.NoError(t, err)
}

func seedAcquiringULK(t *testing.T, s *store.Store, lemmaID string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO user_lemma_knowledge (lemma_id, state, acquisition_box, times_seen, times_correct, total_encounters, source, entered_acquiring_at, introduced_at)
		VALUES ($1, 'acquiring', 1, 0, 0, 0, 'introduced', now(), now())`, lemmaID)
	require.NoError(t, err)
}

func seedGrammarFeature(t *testing.T, s *store.Store) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO grammar_features (feature_id, feature_key, label_en, label_ar, category, form_change_type)
		VALUES ($1, 'test_feature', 'Test Feature', 'ميزة', 'morphology', 'suffix')`, id)
	require.NoError(t, err)
	return id
}

func seedSentenceWithFeature(t *testing.T, s *store.Store, ctx context.Context, targetLemmaID string, otherLemmaIDs []string, featureID string) string {
	t.Helper()
	sentenceID := uuid.NewString()
	sent := &models.Sentence{
		SentenceID:        sentenceID,
		ArabicRaw:         "جملة اختبار",
		ArabicDiacritized: "جملة اختبار",
		English:           "a test sentence",
		Transliteration:   "jumla ikhtibar",
		TargetLemmaID:     &targetLemmaID,
		IsActive:          true,
		LastShownAt:       map[models.ReviewMode]time.Time{},
		LastComprehension: map[models.ReviewMode]string{},
		Source:            "test",
		CreatedAt:         time.Now().UTC(),
	}
	lemmaIDs := append([]string{targetLemmaID}, otherLemmaIDs...)
	words := make([]models.SentenceWord, len(lemmaIDs))
	for i, id := range lemmaIDs {
		lid := id
		words[i] = models.SentenceWord{
			SentenceID:  sentenceID,
			Position:    i,
			SurfaceForm: "كلمة",
			LemmaID:     &lid,
			IsTarget:    lid == targetLemmaID,
		}
	}
	require.NoError(t, s.InsertSentence(ctx, sent, words))
	if featureID != "" {
		require.NoError(t, s.TagSentenceGrammarFeature(ctx, sentenceID, featureID))
	}
	return sentenceID
}

func TestSubmitSentenceReview_DispatchesToSRSAndRecordsGrammarExposure(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	target := seedLemma(t, s, "كتاب", "book")
	seedLearningULK(t, s, target)
	feature := seedGrammarFeature(t, s)
	sentenceID := seedSentenceWithFeature(t, s, ctx, target, nil, feature)

	outcome, err := svc.SubmitSentenceReview(ctx, ReviewInput{
		SentenceID:          &sentenceID,
		PrimaryLemmaID:      target,
		ComprehensionSignal: SignalUnderstood,
		ReviewMode:          models.ReviewModeReading,
		ClientReviewID:      "review-1",
	})
	require.NoError(t, err)
	require.False(t, outcome.Duplicate)
	require.Len(t, outcome.WordResults, 1)
	assert.Equal(t, 3, outcome.WordResults[0].Rating)
	assert.Equal(t, models.CreditPrimary, outcome.WordResults[0].CreditType)

	exposure, err := s.GetGrammarExposure(ctx, feature)
	require.NoError(t, err)
	assert.Equal(t, 1, exposure.TimesSeen)
	assert.Equal(t, 1, exposure.TimesCorrect)
	assert.Equal(t, 0, exposure.TimesConfused)

	sent, err := s.GetSentence(ctx, sentenceID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent.TimesShown)
	assert.Equal(t, "understood", sent.LastComprehension[models.ReviewModeReading])
}

func TestSubmitSentenceReview_IsIdempotentOnClientReviewID(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	target := seedLemma(t, s, "قلم", "pen")
	seedLearningULK(t, s, target)
	sentenceID := seedSentenceWithFeature(t, s, ctx, target, nil, "")

	in := ReviewInput{
		SentenceID:          &sentenceID,
		PrimaryLemmaID:      target,
		ComprehensionSignal: SignalUnderstood,
		ReviewMode:          models.ReviewModeReading,
		ClientReviewID:      "review-dup",
	}
	_, err := svc.SubmitSentenceReview(ctx, in)
	require.NoError(t, err)

	outcome, err := svc.SubmitSentenceReview(ctx, in)
	require.NoError(t, err)
	assert.True(t, outcome.Duplicate)

	sent, err := s.GetSentence(ctx, sentenceID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent.TimesShown, "duplicate submission must not double count")
}

func TestSubmitSentenceReview_PartialSignalRatesMissedLemmaLow(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	target := seedLemma(t, s, "باب", "door")
	collateral := seedLemma(t, s, "كبير", "big")
	seedLearningULK(t, s, target)
	seedLearningULK(t, s, collateral)
	sentenceID := seedSentenceWithFeature(t, s, ctx, target, []string{collateral}, "")

	outcome, err := svc.SubmitSentenceReview(ctx, ReviewInput{
		SentenceID:          &sentenceID,
		PrimaryLemmaID:      target,
		ComprehensionSignal: SignalPartial,
		MissedLemmaIDs:      []string{collateral},
		ReviewMode:          models.ReviewModeReading,
		ClientReviewID:      "review-partial",
	})
	require.NoError(t, err)
	require.Len(t, outcome.WordResults, 2)

	byLemma := map[string]WordResult{}
	for _, r := range outcome.WordResults {
		byLemma[r.LemmaID] = r
	}
	assert.Equal(t, 3, byLemma[target].Rating)
	assert.Equal(t, models.CreditPrimary, byLemma[target].CreditType)
	assert.Equal(t, 1, byLemma[collateral].Rating)
	assert.Equal(t, models.CreditCollateral, byLemma[collateral].CreditType)
}

func TestSubmitSentenceReview_AcquiringLemmaGoesThroughLeitnerBoxes(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	target := seedLemma(t, s, "شمس", "sun")
	seedAcquiringULK(t, s, target)
	sentenceID := seedSentenceWithFeature(t, s, ctx, target, nil, "")

	outcome, err := svc.SubmitSentenceReview(ctx, ReviewInput{
		SentenceID:          &sentenceID,
		PrimaryLemmaID:      target,
		ComprehensionSignal: SignalUnderstood,
		ReviewMode:          models.ReviewModeReading,
		ClientReviewID:      "review-acquiring",
	})
	require.NoError(t, err)
	require.Len(t, outcome.WordResults, 1)
	assert.Equal(t, models.StateAcquiring, outcome.WordResults[0].NewState)
}

func TestSubmitSentenceReview_UnknownLemmaCreatesEncounteredRow(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	target := seedLemma(t, s, "قمر", "moon")
	sentenceID := seedSentenceWithFeature(t, s, ctx, target, nil, "")

	outcome, err := svc.SubmitSentenceReview(ctx, ReviewInput{
		SentenceID:          &sentenceID,
		PrimaryLemmaID:      target,
		ComprehensionSignal: SignalNoIdea,
		ReviewMode:          models.ReviewModeReading,
	})
	require.NoError(t, err)
	require.Len(t, outcome.WordResults, 1)
	assert.Equal(t, models.CreditEncounter, outcome.WordResults[0].CreditType)

	ulk, err := s.GetULK(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, models.StateEncountered, ulk.State)
	assert.Equal(t, 1, ulk.TotalEncounters)
}

// TestSubmitSentenceReview_MidwayFailureRollsBackEverything covers the
// transaction guarantee: when the second word in the fan-out fails, the
// first word's already-applied SRS review and the sentence's shown-state
// update must not stick either.
func TestSubmitSentenceReview_MidwayFailureRollsBackEverything(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	healthy := seedLemma(t, s, "كتاب", "book")
	seedLearningULK(t, s, healthy)
	broken := seedLemma(t, s, "قلم", "pen")
	seedCorruptLearningULK(t, s, broken)
	sentenceID := seedSentenceWithFeature(t, s, ctx, healthy, []string{broken}, "")

	_, err := svc.SubmitSentenceReview(ctx, ReviewInput{
		SentenceID:          &sentenceID,
		PrimaryLemmaID:      healthy,
		ComprehensionSignal: SignalUnderstood,
		ReviewMode:          models.ReviewModeReading,
		ClientReviewID:      "review-rollback",
	})
	require.Error(t, err)

	healthyULK, err := s.GetULK(ctx, healthy)
	require.NoError(t, err)
	assert.Equal(t, 3, healthyULK.TimesSeen, "the healthy lemma's review must have been rolled back")

	sent, err := s.GetSentence(ctx, sentenceID)
	require.NoError(t, err)
	assert.Equal(t, 0, sent.TimesShown, "the sentence's shown-state update must have been rolled back")

	dup, err := s.SentenceReviewLogByClientID(ctx, "review-rollback")
	require.NoError(t, err)
	assert.Nil(t, dup, "the sentence review log must not have been committed")
}
