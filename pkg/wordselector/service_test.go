package wordselector

import (
	"context"
	"testing"

	"github.com/alif-engine/core/pkg/services"
	"github.com/alif-engine/core/pkg/store"
	testdb "github.com/alif-engine/core/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLemma(t *testing.T, s *store.Store, surface, gloss string, rootID *string, freq *int) string {
	t.Helper()
	ctx := context.Background()
	var id string
	err := s.DB().QueryRowContext(ctx, `
		INSERT INTO lemmas (surface, bare, gloss, pos, root_id, frequency_rank, forms)
		VALUES ($1, $1, $2, 'noun', $3, $4, '{}')
		RETURNING lemma_id`, surface, gloss, rootID, freq).Scan(&id)
	require.NoError(t, err)
	return id
}

func createRoot(t *testing.T, s *store.Store, consonants string) string {
	t.Helper()
	ctx := context.Background()
	var id string
	err := s.DB().QueryRowContext(ctx, `
		INSERT INTO roots (consonants, core_meaning) VALUES ($1, 'writing') RETURNING root_id`, consonants).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestSelectNextWords_ExcludesAlreadyKnown(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s, services.NewAcquisitionService(s, services.NewSRSService(s)))
	ctx := context.Background()

	l1 := createLemma(t, s, "كتاب", "book", nil, intPtr(100))
	l2 := createLemma(t, s, "مكتبة", "library", nil, intPtr(500))

	acq := services.NewAcquisitionService(s, services.NewSRSService(s))
	_, err := acq.StartAcquisition(ctx, l1, "study", true)
	require.NoError(t, err)

	result, err := svc.SelectNextWords(ctx, 3, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, l2, result[0].Lemma.LemmaID)
}

func TestSelectNextWords_FrequencyOrdering(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s, services.NewAcquisitionService(s, services.NewSRSService(s)))
	ctx := context.Background()

	l1 := createLemma(t, s, "بيت", "house", nil, intPtr(10))
	createLemma(t, s, "سيارة", "car", nil, intPtr(5000))
	createLemma(t, s, "قلم", "pen", nil, intPtr(100))

	result, err := svc.SelectNextWords(ctx, 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result)
	assert.Equal(t, l1, result[0].Lemma.LemmaID)
}

func TestSelectNextWords_ExcludesNoise(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s, services.NewAcquisitionService(s, services.NewSRSService(s)))
	ctx := context.Background()

	createLemma(t, s, "كتاب", "book", nil, intPtr(10))
	createLemma(t, s, "test", "alternative form of X", nil, intPtr(5))

	result, err := svc.SelectNextWords(ctx, 5, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "book", result[0].Lemma.Gloss)
}

func TestSelectNextWords_RootFamiliarityBoostsScore(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s, services.NewAcquisitionService(s, services.NewSRSService(s)))
	ctx := context.Background()

	root := createRoot(t, s, "ك.ت.ب")
	l1 := createLemma(t, s, "كتاب", "book", &root, intPtr(100))
	l2 := createLemma(t, s, "مكتبة", "library", &root, intPtr(5000))
	noRoot := createLemma(t, s, "بيت", "house", nil, intPtr(5000))

	acq := services.NewAcquisitionService(s, services.NewSRSService(s))
	_, err := acq.StartAcquisition(ctx, l1, "study", true)
	require.NoError(t, err)

	result, err := svc.SelectNextWords(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, l2, result[0].Lemma.LemmaID)
	assert.Equal(t, noRoot, result[1].Lemma.LemmaID)
}

func TestGetRootFamily(t *testing.T) {
	client := testdb.NewTestClient(t)
	s := store.New(client.DB())
	svc := NewService(s, services.NewAcquisitionService(s, services.NewSRSService(s)))
	ctx := context.Background()

	root := createRoot(t, s, "ك.ت.ب")
	createLemma(t, s, "كتاب", "book", &root, intPtr(100))
	createLemma(t, s, "مكتبة", "library", &root, intPtr(500))
	createLemma(t, s, "كاتب", "writer", &root, intPtr(300))

	family, err := svc.GetRootFamily(ctx, root)
	require.NoError(t, err)
	assert.Len(t, family, 3)
}
