// Package arabic provides deterministic normalization, tokenization, and
// lemma-lookup helpers over Arabic text. It backs C1's lemma resolution and
// C6's sentence validator — matching bare (undiacritized) surface forms
// against known vocabulary without a full morphological analyzer.
package arabic

import (
	"regexp"
	"strings"
)

var diacriticsPattern = regexp.MustCompile(
	"[ؐ-ًؚ-ٰٟۖ-ۜ" +
		"۟-۪ۤۧۨ-ۭ]",
)

var punctuationPattern = regexp.MustCompile(
	`[،؟؛«»\x{060C}\x{061B}\x{061F}.,:;!?"'\-\(\)\[\]{}…]`,
)

var wordBoundaryPunctPattern = regexp.MustCompile(
	`^[،؟؛«»\x{060C}\x{061B}\x{061F}.,:;!?"'\-\(\)\[\]{}…/\s]+` +
		`|[،؟؛«»\x{060C}\x{061B}\x{061F}.,:;!?"'\-\(\)\[\]{}…/\s]+$`,
)

var alefReplacer = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ٱ", "ا",
)

// StripDiacritics removes Arabic diacritical marks (tashkeel) from text.
func StripDiacritics(text string) string {
	return diacriticsPattern.ReplaceAllString(text, "")
}

// StripTatweel removes the tatweel (kashida) elongation character.
func StripTatweel(text string) string {
	return strings.ReplaceAll(text, "ـ", "")
}

// NormalizeAlef collapses alef variants (hamza-above, hamza-below, madda,
// wasla) to the bare alef.
func NormalizeAlef(text string) string {
	return alefReplacer.Replace(text)
}

// NormalizeArabic applies the full normalization pipeline: diacritic
// stripping, tatweel removal, then alef normalization.
func NormalizeArabic(text string) string {
	text = StripDiacritics(text)
	text = StripTatweel(text)
	text = NormalizeAlef(text)
	return text
}

// ComputeBareForm returns the bare (undiacritized, normalized) form used as
// a lemma's canonical lookup key.
func ComputeBareForm(lemmaAr string) string {
	return NormalizeArabic(lemmaAr)
}

// Tokenize splits Arabic text into whitespace-delimited words after
// replacing punctuation with spaces. Returns non-empty tokens only.
func Tokenize(text string) []string {
	replaced := punctuationPattern.ReplaceAllString(text, " ")
	return strings.Fields(replaced)
}

// SanitizeWord strips punctuation from an Arabic word and returns the
// cleaned form plus any warnings describing lossy transformations applied
// (slash-separated alternatives, multi-word phrases, too-short results).
// It does not strip diacritics — pair with StripDiacritics for that.
func SanitizeWord(text string) (string, []string) {
	var warnings []string

	if strings.TrimSpace(text) == "" {
		return "", []string{"empty"}
	}

	cleaned := wordBoundaryPunctPattern.ReplaceAllString(text, "")
	if cleaned == "" {
		return "", []string{"empty_after_clean"}
	}

	// Slash-separated alternatives: take the first.
	if strings.Contains(cleaned, "/") {
		var parts []string
		for _, p := range strings.Split(cleaned, "/") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) >= 2 {
			warnings = append(warnings, "slash_split")
			cleaned = wordBoundaryPunctPattern.ReplaceAllString(parts[0], "")
		}
	}

	// Multi-word phrase: take the first word.
	if strings.Contains(strings.TrimSpace(cleaned), " ") {
		warnings = append(warnings, "multi_word")
		words := strings.Fields(strings.TrimSpace(cleaned))
		if len(words) > 0 {
			cleaned = wordBoundaryPunctPattern.ReplaceAllString(words[0], "")
		}
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", []string{"empty_after_clean"}
	}

	// Reject single-character bare forms — typically abbreviations, not
	// real vocabulary.
	bare := NormalizeArabic(cleaned)
	if len([]rune(bare)) < 2 {
		warnings = append(warnings, "too_short")
		return cleaned, warnings
	}

	return cleaned, warnings
}
