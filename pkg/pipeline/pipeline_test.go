package pipeline

import (
	"testing"

	"github.com/alif-engine/core/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestGroupCompatible_BucketsByPOSAndCapsSize(t *testing.T) {
	lemmas := []models.Lemma{
		{LemmaID: "n1", POS: "noun"},
		{LemmaID: "n2", POS: "noun"},
		{LemmaID: "n3", POS: "noun"},
		{LemmaID: "n4", POS: "noun"},
		{LemmaID: "v1", POS: "verb"},
	}

	groups := groupCompatible(lemmas, 3)

	var total int
	for _, g := range groups {
		assert.LessOrEqual(t, len(g), 3)
		total += len(g)
	}
	assert.Equal(t, len(lemmas), total, "every gap lemma must end up in exactly one group")
}
