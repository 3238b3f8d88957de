package arabic

// FunctionWords is the set of common Arabic function words (particles,
// pronouns, demonstratives, prepositions, conjunctions, negation, question
// words, auxiliary verbs), stored as bare (undiacritized) forms.
var FunctionWords = map[string]struct{}{
	// Prepositions
	"في": {}, "من": {}, "على": {}, "الى": {}, "إلى": {}, "عن": {}, "مع": {}, "بين": {}, "حتى": {},
	"منذ": {}, "خلال": {}, "عند": {}, "نحو": {}, "فوق": {}, "تحت": {}, "امام": {}, "أمام": {},
	"وراء": {}, "بعد": {}, "قبل": {}, "حول": {}, "دون": {},
	// Single-letter prepositions/conjunctions (often attached but can appear alone)
	"ب": {}, "ل": {}, "ك": {}, "و": {}, "ف": {},
	// Conjunctions
	"او": {}, "أو": {}, "ان": {}, "أن": {}, "إن": {}, "لكن": {}, "ثم": {}, "بل": {},
	// Definite article (standalone, rare but possible after tokenization)
	"ال": {},
	// Pronouns
	"انا": {}, "أنا": {}, "انت": {}, "أنت": {}, "انتم": {}, "أنتم": {}, "هو": {}, "هي": {},
	"هم": {}, "هن": {}, "نحن": {}, "انتما": {}, "هما": {},
	// Demonstratives
	"هذا": {}, "هذه": {}, "ذلك": {}, "تلك": {}, "هؤلاء": {}, "اولئك": {}, "أولئك": {},
	// Relative pronouns
	"الذي": {}, "التي": {}, "الذين": {}, "اللذان": {}, "اللتان": {}, "اللواتي": {},
	// Question words
	"ما": {}, "ماذا": {}, "لماذا": {}, "كيف": {}, "اين": {}, "أين": {}, "متى": {},
	"هل": {}, "كم": {}, "اي": {}, "أي": {},
	// Negation
	"لا": {}, "لم": {}, "لن": {}, "ليس": {}, "ليست": {},
	// Auxiliary / modal
	"كان": {}, "كانت": {}, "يكون": {}, "تكون": {}, "قد": {}, "سوف": {}, "سـ": {},
	// Very common adverbs/particles
	"ايضا": {}, "أيضا": {}, "جدا": {}, "فقط": {}, "كل": {}, "بعض": {}, "كلما": {},
	"هنا": {}, "هناك": {}, "الان": {}, "الآن": {}, "لذلك": {}, "هكذا": {}, "معا": {},
	// Conditional/temporal conjunctions
	"اذا": {}, "إذا": {}, "لو": {}, "عندما": {}, "بينما": {}, "حيث": {}, "كما": {},
	"لان": {}, "لأن": {}, "كي": {}, "لكي": {}, "حين": {}, "حينما": {},
	// Emphasis / structure particles
	"لقد": {}, "اما": {}, "أما": {}, "الا": {}, "إلا": {}, "اذن": {}, "إذن": {},
	"انه": {}, "إنه": {}, "انها": {}, "إنها": {}, "مثل": {}, "غير": {},
	// Common verbs that are essentially grammatical
	"يوجد": {}, "توجد": {},
}

// FunctionWordGlosses gives each function word a short English gloss so it
// remains tappable in review even without a Lemma row.
var FunctionWordGlosses = map[string]string{
	"في": "in", "من": "from", "على": "on/upon", "الى": "to", "إلى": "to",
	"عن": "about/from", "مع": "with", "بين": "between", "حتى": "until/even",
	"منذ": "since", "خلال": "during", "عند": "at/with", "نحو": "toward",
	"فوق": "above", "تحت": "under", "امام": "in front of", "أمام": "in front of",
	"وراء": "behind", "بعد": "after", "قبل": "before", "حول": "around", "دون": "without",
	"ب": "with/by", "ل": "for/to", "ك": "like/as", "و": "and", "ف": "so/then",
	"او": "or", "أو": "or", "ان": "that", "أن": "that", "إن": "indeed",
	"لكن": "but", "ثم": "then", "بل": "rather",
	"انا": "I", "أنا": "I", "انت": "you (m)", "أنت": "you (m)",
	"انتم": "you (pl)", "أنتم": "you (pl)", "هو": "he", "هي": "she",
	"هم": "they (m)", "هن": "they (f)", "نحن": "we", "انتما": "you (dual)", "هما": "they (dual)",
	"هذا": "this (m)", "هذه": "this (f)", "ذلك": "that (m)", "تلك": "that (f)",
	"هؤلاء": "these", "اولئك": "those", "أولئك": "those",
	"الذي": "who/which (m)", "التي": "who/which (f)", "الذين": "who/which (pl)",
	"اللذان": "who/which (dual m)", "اللتان": "who/which (dual f)", "اللواتي": "who/which (f pl)",
	"ما": "what", "ماذا": "what", "لماذا": "why", "كيف": "how",
	"اين": "where", "أين": "where", "متى": "when", "هل": "? (yes/no)",
	"كم": "how many", "اي": "which", "أي": "which",
	"لا": "no/not", "لم": "did not", "لن": "will not", "ليس": "is not", "ليست": "is not (f)",
	"كان": "was/were", "كانت": "was (f)", "يكون": "to be", "تكون": "to be (f)",
	"قد": "may/already", "سوف": "will", "سـ": "will",
	"ايضا": "also", "أيضا": "also", "جدا": "very", "فقط": "only",
	"كل": "every/all", "بعض": "some", "كلما": "whenever",
	"هنا": "here", "هناك": "there", "الان": "now", "الآن": "now",
	"لذلك": "therefore", "هكذا": "thus", "معا": "together",
	"اذا": "if", "إذا": "if", "لو": "if (hypothetical)", "عندما": "when",
	"بينما": "while", "حيث": "where", "كما": "as/like",
	"لان": "because", "لأن": "because", "كي": "in order to", "لكي": "in order to",
	"حين": "when", "حينما": "when",
	"لقد": "indeed (past)", "اما": "as for", "أما": "as for",
	"الا": "except", "إلا": "except", "اذن": "then/so", "إذن": "then/so",
	"انه": "indeed he", "إنه": "indeed he", "انها": "indeed she", "إنها": "indeed she",
	"مثل": "like", "غير": "other than",
	"يوجد": "there is", "توجد": "there is (f)",
}

// functionWordsNormalized is the alef-normalized form of FunctionWords,
// precomputed once for lookup.
var functionWordsNormalized = buildNormalizedFunctionWords()

func buildNormalizedFunctionWords() map[string]struct{} {
	out := make(map[string]struct{}, len(FunctionWords))
	for fw := range FunctionWords {
		out[NormalizeAlef(fw)] = struct{}{}
	}
	return out
}

// FunctionWordForms maps conjugated function-word surface forms to their
// base lemma's bare form. Prevents a conjugation like كانت from being
// misanalyzed via clitic stripping as ك+انت ("like you").
var FunctionWordForms = map[string]string{
	// كان conjugations
	"كانت": "كان", "كانوا": "كان", "كنت": "كان", "كنا": "كان",
	"يكون": "كان", "تكون": "كان", "يكونون": "كان", "نكون": "كان",
	"اكون": "كان", "كانا": "كان", "كنتم": "كان",
	// ليس conjugations
	"ليست": "ليس", "ليسوا": "ليس", "لست": "ليس", "لسنا": "ليس",
	"ليسا": "ليس",
	// يوجد/توجد
	"توجد": "يوجد", "وجد": "يوجد",
	// كان passive
	"يكن": "كان",
}

// IsFunctionWord reports whether a bare form (diacritics already stripped)
// is a known function word, including its conjugated forms.
func IsFunctionWord(bareForm string) bool {
	stripped := StripDiacritics(bareForm)
	normalized := NormalizeAlef(stripped)
	if _, ok := functionWordsNormalized[normalized]; ok {
		return true
	}
	_, ok := FunctionWordForms[normalized]
	return ok
}
