package grammar

import (
	"context"
	"testing"

	"github.com/alif-engine/core/pkg/store"
	testdb "github.com/alif-engine/core/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFeature(t *testing.T, s *store.Store, key string) string {
	t.Helper()
	ctx := context.Background()
	var id string
	err := s.DB().QueryRowContext(ctx, `
		INSERT INTO grammar_features (feature_key, label_en, label_ar, category, form_change_type)
		VALUES ($1, 'Definite article', 'أل التعريف', 'morphology', 'prefix')
		RETURNING feature_id`, key).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestService_GetLesson_UnseenFeature(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s)
	ctx := context.Background()

	seedFeature(t, s, "definite_article")

	lesson, err := svc.GetLesson(ctx, "definite_article")
	require.NoError(t, err)
	require.NotNil(t, lesson)
	assert.Equal(t, 0, lesson.TimesSeen)
	assert.Nil(t, lesson.IntroducedAt)
	assert.NotEmpty(t, lesson.Explanation)
	assert.NotEmpty(t, lesson.Examples)
}

func TestService_GetLesson_UnknownFeature(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s)

	lesson, err := svc.GetLesson(context.Background(), "not_a_feature")
	require.NoError(t, err)
	assert.Nil(t, lesson)
}

func TestService_IntroduceFeature(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s)
	ctx := context.Background()

	seedFeature(t, s, "feminine")

	introducedAt, err := svc.IntroduceFeature(ctx, "feminine")
	require.NoError(t, err)
	require.NotNil(t, introducedAt)

	lesson, err := svc.GetLesson(ctx, "feminine")
	require.NoError(t, err)
	require.NotNil(t, lesson)
	require.NotNil(t, lesson.IntroducedAt)
}

func TestService_RecordExposure_ConfusedFeature(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s)
	ctx := context.Background()

	featureID := seedFeature(t, s, "idafa")

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordExposure(ctx, featureID, false, true))
	}

	confused, err := svc.GetConfusedFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, confused, 1)
	assert.Equal(t, "idafa", confused[0].FeatureKey)
	assert.True(t, confused[0].IsRefresher)
}

func TestService_GetUnintroducedFeaturesForSession(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s)
	ctx := context.Background()

	featureID := seedFeature(t, s, "negation")

	var sentenceID string
	err := s.DB().QueryRowContext(ctx, `
		INSERT INTO sentences (arabic_raw, english, source)
		VALUES ('test', 'test', 'test') RETURNING sentence_id`).Scan(&sentenceID)
	require.NoError(t, err)

	require.NoError(t, s.TagSentenceGrammarFeature(ctx, sentenceID, featureID))

	keys, err := svc.GetUnintroducedFeaturesForSession(ctx, []string{sentenceID})
	require.NoError(t, err)
	assert.Equal(t, []string{"negation"}, keys)

	_, err = svc.IntroduceFeature(ctx, "negation")
	require.NoError(t, err)

	keys, err = svc.GetUnintroducedFeaturesForSession(ctx, []string{sentenceID})
	require.NoError(t, err)
	assert.Empty(t, keys)
}
