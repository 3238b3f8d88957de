package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alif-engine/core/pkg/fsrs"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
	testdb "github.com/alif-engine/core/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLemma(t *testing.T, s *store.Store) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO lemmas (lemma_id, surface, bare, gloss, pos, forms)
		VALUES ($1, 'كتاب', 'كتاب', 'book', 'noun', '{}')`, id)
	require.NoError(t, err)
	return id
}

func TestAcquisitionService_StartAcquisition(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewAcquisitionService(s, NewSRSService(s))
	ctx := context.Background()

	lemmaID := seedLemma(t, s)

	ulk, err := svc.StartAcquisition(ctx, lemmaID, "study", true)
	require.NoError(t, err)
	assert.Equal(t, models.StateAcquiring, ulk.State)
	require.NotNil(t, ulk.AcquisitionBox)
	assert.Equal(t, 1, *ulk.AcquisitionBox)
	assert.NotNil(t, ulk.AcquisitionNextDue)
}

func TestAcquisitionService_SubmitReview_AdvancesBox(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewAcquisitionService(s, NewSRSService(s))
	ctx := context.Background()

	lemmaID := seedLemma(t, s)
	_, err := svc.StartAcquisition(ctx, lemmaID, "study", true)
	require.NoError(t, err)

	result, err := svc.SubmitAcquisitionReview(ctx, AcquisitionReviewRequest{
		LemmaID:    lemmaID,
		Rating:     3,
		ReviewMode: models.ReviewModeReading,
	})
	require.NoError(t, err)
	require.NotNil(t, result.AcquisitionBox)
	assert.Equal(t, 2, *result.AcquisitionBox)
	assert.False(t, result.Graduated)
}

func TestAcquisitionService_SubmitReview_AgainResetsBox(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewAcquisitionService(s, NewSRSService(s))
	ctx := context.Background()

	lemmaID := seedLemma(t, s)
	_, err := svc.StartAcquisition(ctx, lemmaID, "study", true)
	require.NoError(t, err)

	_, err = svc.SubmitAcquisitionReview(ctx, AcquisitionReviewRequest{LemmaID: lemmaID, Rating: 3, ReviewMode: models.ReviewModeReading})
	require.NoError(t, err)

	result, err := svc.SubmitAcquisitionReview(ctx, AcquisitionReviewRequest{LemmaID: lemmaID, Rating: 1, ReviewMode: models.ReviewModeReading})
	require.NoError(t, err)
	require.NotNil(t, result.AcquisitionBox)
	assert.Equal(t, 1, *result.AcquisitionBox)
}

func TestAcquisitionService_SubmitReview_DuplicateClientReviewID(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewAcquisitionService(s, NewSRSService(s))
	ctx := context.Background()

	lemmaID := seedLemma(t, s)
	_, err := svc.StartAcquisition(ctx, lemmaID, "study", true)
	require.NoError(t, err)

	clientID := uuid.NewString()
	first, err := svc.SubmitAcquisitionReview(ctx, AcquisitionReviewRequest{
		LemmaID: lemmaID, Rating: 3, ReviewMode: models.ReviewModeReading, ClientReviewID: clientID,
	})
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.SubmitAcquisitionReview(ctx, AcquisitionReviewRequest{
		LemmaID: lemmaID, Rating: 3, ReviewMode: models.ReviewModeReading, ClientReviewID: clientID,
	})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
}

// TestAcquisitionService_SubmitReview_DelegatesGraduatedLemmaToSRS covers a
// direct caller that skips the acquiring state check dispatch.Service
// normally performs: a lemma that has already graduated must still be
// reviewed, via C3, rather than rejected.
func TestAcquisitionService_SubmitReview_DelegatesGraduatedLemmaToSRS(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewAcquisitionService(s, NewSRSService(s))
	ctx := context.Background()

	lemmaID := seedLemma(t, s)
	card := fsrs.NewCard()
	cardBytes, err := json.Marshal(card)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, s.UpsertULK(ctx, &models.UserLemmaKnowledge{
		LemmaID:      lemmaID,
		State:        models.StateLearning,
		Source:       "study",
		FSRSCard:     cardBytes,
		LastReviewed: &now,
	}))

	result, err := svc.SubmitAcquisitionReview(ctx, AcquisitionReviewRequest{
		LemmaID:    lemmaID,
		Rating:     3,
		ReviewMode: models.ReviewModeReading,
	})
	require.NoError(t, err)
	assert.Nil(t, result.AcquisitionBox)
	assert.NotEqual(t, models.StateAcquiring, result.NewState)
}
