// Package wordselector implements the word-selector service shared by the
// Sentence Selector (C4, intro candidates) and the Material Pipeline (C6,
// avoid-list/generation seeding): which not-yet-started lemma to introduce
// next.
package wordselector

import (
	"math"
	"strings"
	"time"
)

// unknownFrequencyScore is returned for lemmas with no recorded frequency
// rank — a middling priority, neither pushed to the front nor starved out.
const unknownFrequencyScore = 0.3

// FrequencyScore scores a lemma's corpus frequency rank (lower rank is
// more frequent and scores higher). Unranked lemmas get a fixed middling
// score rather than 0, since an unranked word is still introducible.
func FrequencyScore(rank *int) float64 {
	if rank == nil {
		return unknownFrequencyScore
	}
	r := float64(*rank)
	if r < 0 {
		r = 0
	}
	return 1.0 / (1.0 + math.Log(r+1))
}

// RootFamiliarityScore scores how much scaffolding value introducing a
// lemma from this root family still offers: 0 if the root is completely
// unknown (no scaffolding from siblings yet), a rising score as more
// siblings become known, and a low floor once the whole family is already
// known (no more scaffolding value left, but not zero — still a valid
// word to fill out the family).
const fullyKnownRootFloor = 0.1

func RootFamiliarityScore(known, total int) float64 {
	if total == 0 {
		return 0
	}
	if known == 0 {
		return 0
	}
	if known == total {
		return fullyKnownRootFloor
	}
	ratio := float64(known) / float64(total)
	return 0.1 + 0.7*ratio
}

// recencySpreadDays is how long after introducing a word from a root
// before another sibling-root introduction is scored at full priority
// again. Discourages back-to-back introductions from the same root.
const recencySpreadDays = 3.0

// RootRecencyFactor scores how long it's been since a sibling from the
// same root was last introduced, in (0,1]. A root introduced moments ago
// is heavily discounted; one introduced recencySpreadDays ago or more (or
// never) scores at full weight.
func RootRecencyFactor(lastIntroduced *time.Time, now time.Time) float64 {
	if lastIntroduced == nil {
		return 1.0
	}
	days := now.Sub(*lastIntroduced).Hours() / 24
	if days < 0 {
		days = 0
	}
	factor := days / recencySpreadDays
	if factor < 0.3 {
		factor = 0.3
	}
	if factor > 1.0 {
		factor = 1.0
	}
	return factor
}

// noiseGlossMarkers are substrings in a lemma's gloss that mark it as a
// dictionary cross-reference entry rather than an introducible word.
var noiseGlossMarkers = []string{
	"alternative form of",
	"active participle of",
	"judeo-arabic",
}

// IsNoiseLemma filters out dictionary artifacts that shouldn't be offered
// as new words: cross-reference glosses and non-Arabic-script entries.
func IsNoiseLemma(surface, gloss string) bool {
	lower := strings.ToLower(gloss)
	for _, marker := range noiseGlossMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return !hasArabicScript(surface)
}

func hasArabicScript(s string) bool {
	for _, r := range s {
		if (r >= 0x0600 && r <= 0x06FF) || (r >= 0x0750 && r <= 0x077F) {
			return true
		}
	}
	return false
}
