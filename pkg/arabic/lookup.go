package arabic

import "strings"

// Proclitics are attached prefixes, ordered longest-first so multi-letter
// combinations (وال، بال) are tried before their single-letter components.
var Proclitics = []string{"وال", "بال", "فال", "لل", "كال", "و", "ف", "ب", "ل", "ك"}

// Enclitics are attached suffixes (pronoun objects/possessives).
var Enclitics = []string{"هما", "هم", "هن", "ها", "كم", "كن", "نا", "ني", "ه", "ك"}

// StripClitics returns every candidate stem obtained by removing Arabic
// proclitics and enclitics from an already alef-normalized bare form. It
// tries suffix-only, prefix-only, and prefix+suffix combinations, each with
// and without the definite article, and restores taa marbuta (ة) when a
// suffix strip leaves a bare ت (e.g. مدرسته → مدرسة + ه).
func StripClitics(bareForm string) []string {
	candidates := make(map[string]struct{})

	addWithAlVariants := func(stem string) {
		if len([]rune(stem)) < 2 {
			return
		}
		candidates[stem] = struct{}{}
		if strings.HasPrefix(stem, "ال") && len([]rune(stem)) > 2 {
			candidates[string([]rune(stem)[2:])] = struct{}{}
		} else {
			candidates["ال"+stem] = struct{}{}
		}
	}

	stripSuffix := func(stem string) []string {
		results := []string{stem}
		for _, suf := range Enclitics {
			if strings.HasSuffix(stem, suf) && len([]rune(stem)) > len([]rune(suf)) {
				base := stem[:len(stem)-len(suf)]
				results = append(results, base)
				if strings.HasSuffix(base, "ت") {
					results = append(results, base[:len(base)-len("ت")]+"ة")
				}
			}
		}
		return results
	}

	// Suffix-only stripping.
	for _, stem := range stripSuffix(bareForm) {
		addWithAlVariants(stem)
	}

	// Prefix stripping, then optional suffix stripping on the remainder.
	for _, pre := range Proclitics {
		if strings.HasPrefix(bareForm, pre) && len([]rune(bareForm)) > len([]rune(pre)) {
			afterPre := bareForm[len(pre):]
			for _, stem := range stripSuffix(afterPre) {
				addWithAlVariants(stem)
			}
		}
	}

	delete(candidates, bareForm)

	out := make([]string, 0, len(candidates))
	for c := range candidates {
		out = append(out, c)
	}
	return out
}

// LookupLemmaDirect finds a lemma ID via direct match and al-prefix
// toggling only — no clitic stripping. Used for function words, where
// clitic stripping risks false analysis (e.g. كانت → ك+انت).
func LookupLemmaDirect(bareNorm string, lookup map[string]string) (string, bool) {
	if id, ok := lookup[bareNorm]; ok {
		return id, true
	}
	if strings.HasPrefix(bareNorm, "ال") && len([]rune(bareNorm)) > 2 {
		if id, ok := lookup[string([]rune(bareNorm)[2:])]; ok {
			return id, true
		}
	} else {
		if id, ok := lookup["ال"+bareNorm]; ok {
			return id, true
		}
	}
	return "", false
}

// LookupLemma finds a lemma ID for a normalized bare form, trying a direct
// match, the al-prefix toggle, and then clitic stripping.
func LookupLemma(bareNorm string, lookup map[string]string) (string, bool) {
	if id, ok := lookup[bareNorm]; ok {
		return id, true
	}

	if strings.HasPrefix(bareNorm, "ال") && len([]rune(bareNorm)) > 2 {
		if id, ok := lookup[string([]rune(bareNorm)[2:])]; ok {
			return id, true
		}
	} else {
		if id, ok := lookup["ال"+bareNorm]; ok {
			return id, true
		}
	}

	for _, stem := range StripClitics(bareNorm) {
		normStem := NormalizeAlef(stem)
		if id, ok := lookup[normStem]; ok {
			return id, true
		}
	}

	return "", false
}

// LookupLemmaID resolves a raw sentence token's surface form to a lemma ID.
func LookupLemmaID(surfaceForm string, lookup map[string]string) (string, bool) {
	bare := StripDiacritics(surfaceForm)
	bareClean := StripTatweel(bare)
	bareNorm := NormalizeAlef(bareClean)
	return LookupLemma(bareNorm, lookup)
}

// LemmaEntry is the minimal shape BuildLemmaLookup needs from a stored
// lemma: its ID, bare form, and optional inflected forms (keyed by kind —
// "plural", "present", "masdar", "active_participle", "feminine",
// "elative").
type LemmaEntry struct {
	LemmaID string
	Bare    string
	Forms   map[string]string
}

// formKindsIndexed are the inflected-form keys indexed into the lookup
// table, matched against the original source's forms_json schema.
var formKindsIndexed = []string{"plural", "present", "masdar", "active_participle", "feminine", "elative"}

// BuildLemmaLookup builds a normalized-bare-form → lemma_id lookup table
// from the full lemma set. Each lemma contributes both its with- and
// without-al-prefix forms, its inflected forms (plurals, conjugations,
// etc.), and FunctionWordForms contributes conjugated-form → base-lemma-id
// mappings on top.
func BuildLemmaLookup(lemmas []LemmaEntry) map[string]string {
	lookup := make(map[string]string)
	bareToID := make(map[string]string)

	for _, lem := range lemmas {
		bareNorm := NormalizeAlef(lem.Bare)
		lookup[bareNorm] = lem.LemmaID
		bareToID[bareNorm] = lem.LemmaID

		if strings.HasPrefix(bareNorm, "ال") && len([]rune(bareNorm)) > 2 {
			withoutAl := string([]rune(bareNorm)[2:])
			lookup[withoutAl] = lem.LemmaID
			bareToID[withoutAl] = lem.LemmaID
		} else if !strings.HasPrefix(bareNorm, "ال") {
			lookup["ال"+bareNorm] = lem.LemmaID
		}

		for _, kind := range formKindsIndexed {
			formVal, ok := lem.Forms[kind]
			if !ok || formVal == "" {
				continue
			}
			formBare := NormalizeAlef(StripDiacritics(formVal))
			if _, exists := lookup[formBare]; !exists {
				lookup[formBare] = lem.LemmaID
			}
			if !strings.HasPrefix(formBare, "ال") {
				alForm := "ال" + formBare
				if _, exists := lookup[alForm]; !exists {
					lookup[alForm] = lem.LemmaID
				}
			}
		}
	}

	for form, base := range FunctionWordForms {
		formNorm := NormalizeAlef(form)
		if _, exists := lookup[formNorm]; exists {
			continue
		}
		baseNorm := NormalizeAlef(base)
		if baseID, ok := bareToID[baseNorm]; ok {
			lookup[formNorm] = baseID
		}
	}

	return lookup
}

// ResolveExistingLemma checks whether a bare form matches an existing lemma
// via clitic-aware lookup. Import tooling uses this to avoid creating
// duplicate lemmas for clitic forms (وكتاب, كتابي, بالكتاب) or al-prefixed
// forms (الكتاب).
func ResolveExistingLemma(bare string, lookup map[string]string) (string, bool) {
	bareNorm := NormalizeAlef(bare)
	return LookupLemma(bareNorm, lookup)
}
