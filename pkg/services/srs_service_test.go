package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alif-engine/core/pkg/fsrs"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
	testdb "github.com/alif-engine/core/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGraduatedULK(t *testing.T, s *store.Store, lemmaID string) {
	t.Helper()
	card, _ := json.Marshal(fsrs.NewCard())
	err := s.UpsertULK(context.Background(), &models.UserLemmaKnowledge{
		LemmaID:  lemmaID,
		State:    models.StateLearning,
		FSRSCard: card,
		Source:   "study",
	})
	require.NoError(t, err)
}

func TestSRSService_SubmitReview(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewSRSService(s)
	ctx := context.Background()

	lemmaID := seedLemma(t, s)
	seedGraduatedULK(t, s, lemmaID)

	result, err := svc.SubmitReview(ctx, ReviewRequest{
		LemmaID:    lemmaID,
		Rating:     3,
		ReviewMode: models.ReviewModeReading,
		CreditType: models.CreditPrimary,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateKnown, result.NewState)
	assert.False(t, result.NextDue.IsZero())
}

func TestSRSService_UndoSentenceReview(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewSRSService(s)
	ctx := context.Background()

	lemmaID := seedLemma(t, s)
	seedGraduatedULK(t, s, lemmaID)

	sentenceClientID := uuid.NewString()
	_, err := svc.SubmitReview(ctx, ReviewRequest{
		LemmaID:        lemmaID,
		Rating:         3,
		ReviewMode:     models.ReviewModeReading,
		CreditType:     models.CreditPrimary,
		ClientReviewID: sentenceClientID + ":" + lemmaID,
	})
	require.NoError(t, err)

	undone, err := svc.UndoSentenceReview(ctx, sentenceClientID)
	require.NoError(t, err)
	assert.Equal(t, 1, undone)

	restored, err := s.GetULK(ctx, lemmaID)
	require.NoError(t, err)
	assert.Equal(t, models.StateLearning, restored.State)
}
