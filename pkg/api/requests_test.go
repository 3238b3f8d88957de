package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alif-engine/core/pkg/dispatch"
	"github.com/alif-engine/core/pkg/models"
)

func TestToReviewInput_MapsConfusedLemmaIDsToConfusedFeatureIDs(t *testing.T) {
	req := submitSentenceRequest{
		PrimaryLemmaID:      "lemma-1",
		ComprehensionSignal: "grammar_confused",
		MissedLemmaIDs:      []string{"lemma-2"},
		ConfusedLemmaIDs:    []string{"feature-1"},
		ReviewMode:          "reading",
		ClientReviewID:      "client-1",
	}

	in := toReviewInput(req)

	assert.Equal(t, dispatch.SignalGrammarConfused, in.ComprehensionSignal)
	assert.Equal(t, []string{"feature-1"}, in.ConfusedFeatureIDs)
	assert.Equal(t, []string{"lemma-2"}, in.MissedLemmaIDs)
	assert.Equal(t, models.ReviewModeReading, in.ReviewMode)
}

func TestSrsReviewRequest_RemberAndShowAgainRatings(t *testing.T) {
	remember := srsReviewRequest(reintroResultRequest{LemmaID: "l1", ClientReviewID: "c1"}, 3)
	assert.Equal(t, 3, remember.Rating)
	assert.Equal(t, models.ReviewModeReintro, remember.ReviewMode)

	showAgain := srsReviewRequest(reintroResultRequest{LemmaID: "l1", ClientReviewID: "c1"}, 1)
	assert.Equal(t, 1, showAgain.Rating)
}

func TestToSubmitSentenceResponse_CopiesWordResults(t *testing.T) {
	out := &dispatch.ReviewOutcome{
		Duplicate: true,
		WordResults: []dispatch.WordResult{
			{LemmaID: "l1", Rating: 3, NewState: models.StateKnown, CreditType: models.CreditPrimary},
		},
	}

	resp := toSubmitSentenceResponse(out)

	assert.True(t, resp.Duplicate)
	assert.Len(t, resp.WordResults, 1)
	assert.Equal(t, "l1", resp.WordResults[0].LemmaID)
	assert.Equal(t, "known", resp.WordResults[0].NewState)
}
