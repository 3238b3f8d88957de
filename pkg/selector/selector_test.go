package selector

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
	"github.com/alif-engine/core/pkg/wordselector"
	testdb "github.com/alif-engine/core/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	words := wordselector.NewService(s, services.NewAcquisitionService(s, services.NewSRSService(s)))
	gram := grammar.NewService(s)
	rec := events.NewRecorder(s)
	return NewService(s, words, gram, rec), s
}

func seedDueLemma(t *testing.T, s *store.Store, surface, gloss string, due time.Time, stability float64, timesSeen, timesCorrect int) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO lemmas (lemma_id, surface, bare, gloss, pos, forms)
		VALUES ($1, $2, $2, $3, 'noun', '{}')`, id, surface, gloss)
	require.NoError(t, err)

	card := fsrs.Card{Due: due, Stability: stability, Difficulty: 5, State: fsrs.StateReview, LastReview: due.Add(-24 * time.Hour)}
	cardBytes, err := json.Marshal(card)
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx, `
		INSERT INTO user_lemma_knowledge
			(lemma_id, state, fsrs_card, times_seen, times_correct, total_encounters, source)
		VALUES ($1, 'learning', $2, $3, $4, $3, 'study')`, id, cardBytes, timesSeen, timesCorrect)
	require.NoError(t, err)
	return id
}

func seedActiveSentence(t *testing.T, s *store.Store, ctx context.Context, arabic, english string, targetLemmaID string, wordLemmaIDs []string) string {
	t.Helper()
	sentenceID := uuid.NewString()
	sent := &models.Sentence{
		SentenceID:        sentenceID,
		ArabicRaw:         arabic,
		ArabicDiacritized: arabic,
		English:           english,
		Transliteration:   english,
		TargetLemmaID:     &targetLemmaID,
		IsActive:          true,
		LastShownAt:       map[models.ReviewMode]time.Time{},
		LastComprehension: map[models.ReviewMode]string{},
		Source:            "test",
		CreatedAt:         time.Now().UTC(),
	}
	words := make([]models.SentenceWord, len(wordLemmaIDs))
	for i, lemmaID := range wordLemmaIDs {
		id := lemmaID
		words[i] = models.SentenceWord{
			SentenceID:  sentenceID,
			Position:    i,
			SurfaceForm: "word",
			LemmaID:     &id,
			IsTarget:    id == targetLemmaID,
		}
	}
	require.NoError(t, s.InsertSentence(ctx, sent, words))
	return sentenceID
}

func TestBuildSession_CoversDueLemmaWithSentence(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := seedDueLemma(t, s, "كتاب", "book", now.Add(-time.Hour), 5.0, 10, 8)
	seedActiveSentence(t, s, ctx, "قرأت الكتاب", "I read the book", due, []string{due})

	session, err := svc.BuildSession(ctx, 10, models.ReviewModeReading)
	require.NoError(t, err)

	assert.Equal(t, 1, session.TotalDueWords)
	assert.Equal(t, 1, session.CoveredDueWords)
	require.Len(t, session.Items, 1)
	assert.Equal(t, due, session.Items[0].PrimaryLemmaID)
	assert.False(t, session.Items[0].WordOnly)
}

func TestBuildSession_FallsBackToWordOnlyWhenNoSentence(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := seedDueLemma(t, s, "بيت", "house", now.Add(-time.Hour), 5.0, 10, 8)

	session, err := svc.BuildSession(ctx, 10, models.ReviewModeReading)
	require.NoError(t, err)

	assert.Equal(t, 1, session.TotalDueWords)
	require.Len(t, session.Items, 1)
	assert.True(t, session.Items[0].WordOnly)
	assert.Equal(t, due, session.Items[0].PrimaryLemmaID)
}

func TestBuildSession_RecencyGateSkipsRecentlyUnderstoodSentence(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := seedDueLemma(t, s, "قلم", "pen", now.Add(-time.Hour), 5.0, 10, 8)
	sentenceID := seedActiveSentence(t, s, ctx, "اشتريت قلما", "I bought a pen", due, []string{due})

	sent, err := s.GetSentence(ctx, sentenceID)
	require.NoError(t, err)
	sent.LastShownAt[models.ReviewModeReading] = now.Add(-time.Hour)
	sent.LastComprehension[models.ReviewModeReading] = "understood"
	require.NoError(t, s.UpdateSentenceShownState(ctx, sent))

	session, err := svc.BuildSession(ctx, 10, models.ReviewModeReading)
	require.NoError(t, err)

	require.Len(t, session.Items, 1)
	assert.True(t, session.Items[0].WordOnly, "sentence shown 1h ago as understood is within the 7-day window and should be gated out")
}

func TestBuildSession_StrugglingWordBecomesReintroCard(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	strugglingID := seedDueLemma(t, s, "صعب", "hard", now.Add(-time.Hour), 1.0, 5, 0)

	session, err := svc.BuildSession(ctx, 10, models.ReviewModeReading)
	require.NoError(t, err)

	assert.Equal(t, 0, session.TotalDueWords, "a struggling lemma is carved out of D before counting due words")
	require.Len(t, session.ReintroCards, 1)
	assert.Equal(t, strugglingID, session.ReintroCards[0].LemmaID)
}
