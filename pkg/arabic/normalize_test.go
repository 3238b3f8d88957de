package arabic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArabic(t *testing.T) {
	assert.Equal(t, "كتاب", NormalizeArabic("كِتَاب"))
	assert.Equal(t, "اكل", NormalizeArabic("أكل"))
	assert.Equal(t, "امام", NormalizeArabic("إمام"))
}

func TestStripTatweel(t *testing.T) {
	assert.Equal(t, "كتاب", StripTatweel("كـتاب"))
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("ذهب الولد، إلى المدرسة.")
	assert.Equal(t, []string{"ذهب", "الولد", "إلى", "المدرسة"}, tokens)
}

func TestSanitizeWord(t *testing.T) {
	cleaned, warnings := SanitizeWord("«كتاب»")
	assert.Equal(t, "كتاب", cleaned)
	assert.Empty(t, warnings)

	cleaned, warnings = SanitizeWord("كتاب/دفتر")
	assert.Equal(t, "كتاب", cleaned)
	assert.Contains(t, warnings, "slash_split")

	cleaned, warnings = SanitizeWord("ص")
	assert.Equal(t, "ص", cleaned)
	assert.Contains(t, warnings, "too_short")

	_, warnings = SanitizeWord("   ")
	assert.Contains(t, warnings, "empty")
}

func TestIsFunctionWord(t *testing.T) {
	assert.True(t, IsFunctionWord("في"))
	assert.True(t, IsFunctionWord("كانت")) // conjugated form via FunctionWordForms
	assert.False(t, IsFunctionWord("كتاب"))
}

func TestStripClitics(t *testing.T) {
	stems := StripClitics(NormalizeAlef("وكتابه"))
	assert.Contains(t, stems, "كتاب")
}

func TestBuildLemmaLookupAndResolve(t *testing.T) {
	lemmas := []LemmaEntry{
		{LemmaID: "lemma-1", Bare: "كتاب"},
	}
	lookup := BuildLemmaLookup(lemmas)

	id, ok := LookupLemma(NormalizeAlef("الكتاب"), lookup)
	assert.True(t, ok)
	assert.Equal(t, "lemma-1", id)

	id, ok = LookupLemma(NormalizeAlef("وكتابه"), lookup)
	assert.True(t, ok)
	assert.Equal(t, "lemma-1", id)
}

func TestValidateSentence(t *testing.T) {
	known := map[string]struct{}{"ذهب": {}, "مدرسة": {}}
	result := ValidateSentence("ذهب الولد الى المدرسة", "ولد", known)

	assert.True(t, result.TargetFound)
	assert.Empty(t, result.UnknownWords)
	assert.True(t, result.Valid)
}

func TestValidateSentence_UnknownWord(t *testing.T) {
	known := map[string]struct{}{"ذهب": {}}
	result := ValidateSentence("ذهب الولد الى المطار", "ولد", known)

	assert.True(t, result.TargetFound)
	assert.NotEmpty(t, result.UnknownWords)
	assert.False(t, result.Valid)
}

func TestMapTokensToLemmas(t *testing.T) {
	lemmas := []LemmaEntry{{LemmaID: "lemma-madrasa", Bare: "مدرسة"}}
	lookup := BuildLemmaLookup(lemmas)

	tokens := Tokenize("ذهب الولد الى المدرسة")
	mappings := MapTokensToLemmas(tokens, lookup, "lemma-walad", "ولد")

	assert.Len(t, mappings, 4)
	assert.Equal(t, "lemma-walad", mappings[1].LemmaID)
	assert.True(t, mappings[1].IsTarget)
	assert.Equal(t, "lemma-madrasa", mappings[3].LemmaID)
}
