package arabic

import "strings"

// WordCategory classifies one token of a validated sentence.
type WordCategory string

const (
	WordCategoryKnown        WordCategory = "known"
	WordCategoryUnknown      WordCategory = "unknown"
	WordCategoryFunctionWord WordCategory = "function_word"
	WordCategoryTargetWord   WordCategory = "target_word"
)

// WordClassification is one token's classification within ValidationResult.
type WordClassification struct {
	Original string
	Bare     string
	Category WordCategory
}

// ValidationResult is the outcome of validating a generated sentence
// against a learner's known vocabulary. A sentence is Valid only when its
// target word is present and every other content word is already known.
type ValidationResult struct {
	Valid           bool
	TargetFound     bool
	UnknownWords    []string
	KnownWords      []string
	FunctionWords   []string
	Classifications []WordClassification
	Issues          []string
}

// targetForms expands a normalized target bare form into its al-prefix
// variants so a match succeeds regardless of whether the target carries
// the definite article in this particular sentence.
func targetForms(targetNormalized string) []string {
	forms := []string{targetNormalized}
	if !strings.HasPrefix(targetNormalized, "ال") {
		forms = append(forms, "ال"+targetNormalized)
	}
	if strings.HasPrefix(targetNormalized, "ال") && len([]rune(targetNormalized)) > 2 {
		forms = append(forms, string([]rune(targetNormalized)[2:]))
	}
	return forms
}

func matchesAnyForm(bareNormalized string, forms []string) bool {
	for _, f := range forms {
		if bareNormalized == f {
			return true
		}
	}
	return false
}

// ValidateSentence checks that a sentence uses only known words plus
// exactly one occurrence of the target word. knownBareForms holds the
// bare forms the learner already knows (from UserLemmaKnowledge rows with
// state != new).
func ValidateSentence(arabicText, targetBare string, knownBareForms map[string]struct{}) ValidationResult {
	tokens := Tokenize(arabicText)
	if len(tokens) == 0 {
		return ValidationResult{Valid: false, TargetFound: false, Issues: []string{"empty sentence"}}
	}

	knownNormalized := make(map[string]struct{}, len(knownBareForms))
	for w := range knownBareForms {
		knownNormalized[NormalizeAlef(w)] = struct{}{}
	}
	targetNormalized := NormalizeAlef(targetBare)
	forms := targetForms(targetNormalized)

	var (
		classifications []WordClassification
		unknownWords     []string
		knownWords       []string
		functionWordsSeen []string
		targetFound      bool
	)

	for _, token := range tokens {
		bare := StripDiacritics(token)
		bareClean := StripTatweel(bare)
		bareNormalized := NormalizeAlef(bareClean)

		isTarget := matchesAnyForm(bareNormalized, forms)
		if !isTarget {
			for _, stem := range StripClitics(bareNormalized) {
				if matchesAnyForm(NormalizeAlef(stem), forms) {
					isTarget = true
					break
				}
			}
		}

		if isTarget {
			classifications = append(classifications, WordClassification{token, bareClean, WordCategoryTargetWord})
			targetFound = true
			continue
		}

		if IsFunctionWord(bareClean) {
			classifications = append(classifications, WordClassification{token, bareClean, WordCategoryFunctionWord})
			functionWordsSeen = append(functionWordsSeen, token)
			continue
		}

		isKnown := false
		formsToCheck := []string{bareNormalized}
		if strings.HasPrefix(bareNormalized, "ال") && len([]rune(bareNormalized)) > 2 {
			formsToCheck = append(formsToCheck, string([]rune(bareNormalized)[2:]))
		}
		if !strings.HasPrefix(bareNormalized, "ال") {
			formsToCheck = append(formsToCheck, "ال"+bareNormalized)
		}
		for _, f := range formsToCheck {
			if _, ok := knownNormalized[f]; ok {
				isKnown = true
				break
			}
		}
		if !isKnown {
			for _, stem := range StripClitics(bareNormalized) {
				if _, ok := knownNormalized[NormalizeAlef(stem)]; ok {
					isKnown = true
					break
				}
			}
		}

		if isKnown {
			classifications = append(classifications, WordClassification{token, bareClean, WordCategoryKnown})
			knownWords = append(knownWords, token)
		} else {
			classifications = append(classifications, WordClassification{token, bareClean, WordCategoryUnknown})
			unknownWords = append(unknownWords, token)
		}
	}

	var issues []string
	if !targetFound {
		issues = append(issues, "target word '"+targetBare+"' not found in sentence")
	}
	if len(unknownWords) > 0 {
		issues = append(issues, "unknown words (besides target): "+strings.Join(unknownWords, ", "))
	}

	return ValidationResult{
		Valid:           targetFound && len(unknownWords) == 0,
		TargetFound:     targetFound,
		UnknownWords:    unknownWords,
		KnownWords:      knownWords,
		FunctionWords:   functionWordsSeen,
		Classifications: classifications,
		Issues:          issues,
	}
}

// TokenMapping is one sentence token's resolution to a lemma, produced by
// MapTokensToLemmas when persisting a generated sentence's SentenceWord rows.
type TokenMapping struct {
	Position      int
	SurfaceForm   string
	LemmaID       string
	HasLemma      bool
	IsTarget      bool
	IsFunctionWord bool
}

// MapTokensToLemmas maps tokenized sentence words to lemma IDs for
// persistence as SentenceWord rows. Function words skip clitic stripping
// (direct lookup only) to avoid false conjugation analysis; all other
// tokens fall back through clitic stripping via LookupLemma.
func MapTokensToLemmas(tokens []string, lemmaLookup map[string]string, targetLemmaID, targetBare string) []TokenMapping {
	targetNormalized := NormalizeAlef(targetBare)
	forms := targetForms(targetNormalized)

	result := make([]TokenMapping, 0, len(tokens))
	for i, token := range tokens {
		bare := StripDiacritics(token)
		bareClean := StripTatweel(bare)
		bareNorm := NormalizeAlef(bareClean)

		isTarget := matchesAnyForm(bareNorm, forms)
		if !isTarget {
			for _, stem := range StripClitics(bareNorm) {
				if matchesAnyForm(NormalizeAlef(stem), forms) {
					isTarget = true
					break
				}
			}
		}

		if isTarget {
			result = append(result, TokenMapping{Position: i, SurfaceForm: token, LemmaID: targetLemmaID, HasLemma: true, IsTarget: true})
			continue
		}

		isFunction := IsFunctionWord(bareClean)
		var lemmaID string
		var ok bool
		if isFunction {
			lemmaID, ok = LookupLemmaDirect(bareNorm, lemmaLookup)
		} else {
			lemmaID, ok = LookupLemma(bareNorm, lemmaLookup)
		}
		result = append(result, TokenMapping{
			Position:       i,
			SurfaceForm:    token,
			LemmaID:        lemmaID,
			HasLemma:       ok,
			IsFunctionWord: isFunction,
		})
	}

	return result
}
