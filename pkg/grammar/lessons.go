package grammar

// Example pairs an Arabic fragment with its English gloss inside a lesson.
type Example struct {
	Arabic  string
	English string
}

// Lesson is the static reading-focused explanation for one grammar
// feature: no LLM involved, just data.
type Lesson struct {
	Explanation string
	Examples    []Example
	Tip         string
}

// lessons is keyed by GrammarFeature.FeatureKey. Every entry here is a
// short reading-comprehension aid, not a full grammar reference.
var lessons = map[string]Lesson{
	"definite_article": {
		Explanation: "The prefix ال (al-) makes a noun definite. It attaches directly to the word.",
		Examples: []Example{
			{"كِتَابٌ", "a book"},
			{"الكِتَابُ", "the book"},
		},
		Tip: "Look for ال at the start of a word — it always means 'the'.",
	},
	"proclitic_prepositions": {
		Explanation: "The prepositions بـ (bi, with/by), لـ (li, for/to), and كـ (ka, like) attach directly to the next word. Combined with ال they fuse: لِلـ (lil), بِالـ (bil).",
		Examples: []Example{
			{"الكِتَابُ", "the book"},
			{"لِلْكِتَابِ", "for the book"},
			{"بِالقَلَمِ", "with the pen"},
		},
		Tip: "If a word starts with لِلـ or بِالـ, mentally split: preposition + ال + noun.",
	},
	"attached_pronouns": {
		Explanation: "Pronouns attach to the end of nouns (possessive), verbs (object), and prepositions. Common suffixes: ـه (his), ـها (her), ـهم (their), ـك (your), ـنا (our), ـي (my).",
		Examples: []Example{
			{"كِتَاب", "book"},
			{"كِتَابُهُ", "his book"},
			{"كِتَابِي", "my book"},
		},
		Tip: "A familiar word with an extra ending is likely base + pronoun.",
	},
	"feminine": {
		Explanation: "Most feminine nouns/adjectives end with تاء مربوطة (ة), which looks like ه with two dots above.",
		Examples: []Example{
			{"كَبِيرٌ", "big (masc)"},
			{"كَبِيرَةٌ", "big (fem)"},
		},
		Tip: "The ة ending almost always signals feminine gender.",
	},
	"past": {
		Explanation: "Past tense uses suffix conjugation. The root consonants stay, and suffixes indicate who did the action.",
		Examples: []Example{
			{"كَتَبَ", "he wrote"},
			{"كَتَبْتُ", "I wrote"},
		},
		Tip: "Past tense verbs have suffixes after the root: ـتُ (I), ـتَ (you m), ـتْ (she).",
	},
	"present": {
		Explanation: "Present tense uses prefix conjugation. A letter is added before the root, and sometimes a suffix too.",
		Examples: []Example{
			{"يَكْتُبُ", "he writes"},
			{"أَكْتُبُ", "I write"},
		},
		Tip: "Present verbs start with يـ (he), تـ (you/she), أ (I), or نـ (we).",
	},
	"idafa": {
		Explanation: "Idafa (construct state) expresses possession: two nouns side by side, the first WITHOUT ال. 'X of Y' or 'Y's X'.",
		Examples: []Example{
			{"كِتَابُ الطَّالِبِ", "the student's book"},
			{"بَابُ البَيْتِ", "the door of the house"},
		},
		Tip: "Two nouns together where the first lacks ال — it's possession.",
	},
	"plural_sound": {
		Explanation: "Sound plurals add a regular ending: ـونَ/ـينَ for masculine, ـاتٌ for feminine.",
		Examples: []Example{
			{"مُعَلِّمٌ → مُعَلِّمُونَ", "teacher → teachers (m)"},
			{"مُعَلِّمَةٌ → مُعَلِّمَاتٌ", "teacher → teachers (f)"},
		},
		Tip: "ـون/ـين or ـات endings are regular plurals — the base word is still visible.",
	},
	"plural_broken": {
		Explanation: "Broken plurals change the internal vowel pattern. There's no single rule — each must be memorized.",
		Examples: []Example{
			{"كِتَابٌ → كُتُبٌ", "book → books"},
			{"وَلَدٌ → أَوْلَادٌ", "boy → boys"},
		},
		Tip: "If a word looks unfamiliar, check if it's a broken plural of a word you know.",
	},
	"negation": {
		Explanation: "Arabic has several negation particles: لا (present), ما (past/nominal), لم (past via jussive), لن (future), ليس (is not).",
		Examples: []Example{
			{"لا يَكْتُبُ", "he does not write"},
			{"لَمْ يَكْتُبْ", "he did not write"},
		},
		Tip: "Look for لا، ما، لم، لن، ليس before verbs or nouns — they negate.",
	},
	"nominal_sentence": {
		Explanation: "A nominal sentence starts with a subject and has no verb in the present. Arabic has no word for 'is/are'.",
		Examples: []Example{
			{"الكِتَابُ كَبِيرٌ", "The book is big"},
			{"هُوَ طَالِبٌ", "He is a student"},
		},
		Tip: "Two nouns/adjectives next to each other with no verb? It's a nominal sentence — add 'is' mentally.",
	},
	"active_participle": {
		Explanation: "The active participle follows the فاعِل pattern for Form I verbs. It works as both adjective and noun.",
		Examples: []Example{
			{"كَتَبَ → كاتِبٌ", "wrote → writer/writing"},
			{"عَمِلَ → عامِلٌ", "worked → worker/working"},
		},
		Tip: "Pattern فاعِل — long 'a' after first root letter, kasra before last.",
	},
	"passive_participle": {
		Explanation: "The passive participle follows the مَفْعُول pattern for Form I. Very common as adjectives.",
		Examples: []Example{
			{"كَتَبَ → مَكْتُوبٌ", "wrote → written"},
			{"عَرَفَ → مَعْرُوفٌ", "knew → known/famous"},
		},
		Tip: "Pattern مَفْعُول — م prefix, uu before last root letter.",
	},
	"masdar": {
		Explanation: "The verbal noun (masdar) is used where English often uses a verb. Each verb form has its own masdar pattern.",
		Examples: []Example{
			{"كَتَبَ → كِتَابَة", "wrote → writing"},
			{"دَرَسَ → دِرَاسَة", "studied → studying/study"},
		},
		Tip: "Arabic heavily uses nouns where English uses verbs. If you see an unfamiliar noun, check if it's a masdar.",
	},
	"kaana_sisters": {
		Explanation: "كان and its sisters (أصبح، ظلّ، ما زال) are past-tense verbs that introduce time/aspect to nominal sentences.",
		Examples: []Example{
			{"الكِتَابُ كَبِيرٌ", "The book is big"},
			{"كانَ الكِتَابُ كَبِيرًا", "The book was big"},
		},
		Tip: "كان before a nominal sentence = past tense. Look for the accusative ending on the predicate.",
	},
	"inna_sisters": {
		Explanation: "إنّ and its sisters (أنّ، لكنّ، لأنّ) are emphatic/connective particles that front a nominal sentence.",
		Examples: []Example{
			{"إِنَّ الكِتَابَ كَبِيرٌ", "Indeed, the book is big"},
			{"لأَنَّ الجَوَّ حارٌّ", "Because the weather is hot"},
		},
		Tip: "إنّ/أنّ/لكنّ are among the most common MSA words. The noun after them takes accusative.",
	},
	"relative_clauses": {
		Explanation: "الذي (m.sg), التي (f.sg), الذين (m.pl) connect clauses like 'who/which/that' in English.",
		Examples: []Example{
			{"الكِتَابُ الَّذِي قَرَأْتُهُ", "the book that I read"},
			{"الطَّالِبَةُ الَّتِي نَجَحَتْ", "the student (f) who passed"},
		},
		Tip: "الذي/التي/الذين after a definite noun starts a relative clause.",
	},
	"weak_hollow": {
		Explanation: "Hollow verbs have و or ي as their middle radical, which disappears or changes in different forms.",
		Examples: []Example{
			{"قالَ / يَقُولُ", "said / says (root: ق.و.ل)"},
			{"نامَ / يَنامُ", "slept / sleeps (root: ن.و.م)"},
		},
		Tip: "Very common verbs like قال، كان، زار are hollow — the middle letter shifts between و and ا.",
	},
	"weak_defective": {
		Explanation: "Defective verbs have و or ي as their final radical, which changes or drops in conjugation.",
		Examples: []Example{
			{"مَشَى / يَمْشِي", "walked / walks"},
			{"بَنَى / يَبْنِي", "built / builds"},
		},
		Tip: "If a verb ends in ى or ي, the final radical may be hidden — try removing it to find the root.",
	},
	"conditional": {
		Explanation: "Conditional sentences use إذا (real condition), لو (hypothetical), or إن (uncertain). Each affects verb mood.",
		Examples: []Example{
			{"إِذا دَرَسْتَ نَجَحْتَ", "If you study, you succeed"},
			{"لَوْ كُنْتُ غَنِيًّا", "If I were rich"},
		},
		Tip: "إذا/لو/إن at the start of a clause signals a condition — look for two linked clauses.",
	},
}
