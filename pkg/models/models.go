// Package models holds the domain entity types persisted by pkg/store and
// operated on by every Cn component. These are plain structs — no ORM
// tags beyond what pkg/store's hand-written SQL mapping needs.
package models

import "time"

// KnowledgeState is a UserLemmaKnowledge row's position in the acquisition
// → SRS → mastery lifecycle.
type KnowledgeState string

const (
	StateNew         KnowledgeState = "new"
	StateEncountered KnowledgeState = "encountered"
	StateAcquiring   KnowledgeState = "acquiring"
	StateLearning    KnowledgeState = "learning"
	StateKnown       KnowledgeState = "known"
	StateLapsed      KnowledgeState = "lapsed"
	StateSuspended   KnowledgeState = "suspended"
)

// ReviewMode identifies the channel a review was collected through.
type ReviewMode string

const (
	ReviewModeReading   ReviewMode = "reading"
	ReviewModeListening ReviewMode = "listening"
	ReviewModeReintro   ReviewMode = "reintro"
)

// CreditType describes why a lemma received review credit from a sentence
// review (C5's fan-out).
type CreditType string

const (
	CreditPrimary     CreditType = "primary"
	CreditCollateral  CreditType = "collateral"
	CreditEncounter   CreditType = "encounter"
	CreditAcquisition CreditType = "acquisition"
)

// Root is a shared morphological root (three consonants), optional on Lemma.
type Root struct {
	RootID      string
	Consonants  string
	CoreMeaning string
	CreatedAt   time.Time
}

// Lemma is a single vocabulary entry. Bare is deterministic from Surface
// (see pkg/arabic.ComputeBareForm); variant lemmas (CanonicalLemmaID set)
// never surface directly in session results — callers resolve to the
// canonical lemma first.
type Lemma struct {
	LemmaID          string
	Surface          string
	Bare             string
	Gloss            string
	POS              string
	RootID           *string
	FrequencyRank    *int
	Forms            map[string]string // kind -> inflected surface
	CanonicalLemmaID *string
	CreatedAt        time.Time
}

// Sentence is one piece of review/introduction material. TimesShown is one
// aggregate counter across all review modes; LastShownAt/LastComprehension
// are keyed per ReviewMode.
type Sentence struct {
	SentenceID         string
	ArabicRaw          string
	ArabicDiacritized  string
	English            string
	Transliteration    string
	TargetLemmaID      *string
	IsActive           bool
	TimesShown         int
	LastShownAt        map[ReviewMode]time.Time
	LastComprehension  map[ReviewMode]string
	Source             string
	CreatedAt          time.Time
}

// SentenceWord is one token of a Sentence mapped to a lemma. Function words
// may have no LemmaID.
type SentenceWord struct {
	SentenceID  string
	Position    int
	SurfaceForm string
	LemmaID     *string
	IsTarget    bool
}

// UserLemmaKnowledge (ULK) is the single per-lemma knowledge-state row.
//
// Invariants (enforced by pkg/acquisition and pkg/srs, not by the DB):
//
//	state == acquiring  => AcquisitionBox != nil && FSRSCard == nil
//	state in {learning,known,lapsed} => FSRSCard != nil && AcquisitionBox == nil
//	state == encountered => FSRSCard == nil && AcquisitionBox == nil
type UserLemmaKnowledge struct {
	LemmaID            string
	State              KnowledgeState
	AcquisitionBox     *int // 1, 2, or 3
	AcquisitionNextDue *time.Time
	FSRSCard           []byte // opaque JSON-encoded FSRS card
	TimesSeen          int
	TimesCorrect       int
	TotalEncounters    int
	LastReviewed       *time.Time
	IntroducedAt       *time.Time
	EnteredAcquiringAt *time.Time
	GraduatedAt        *time.Time
	Source             string
}

// ReviewLog is an append-only record of a single lemma-level review.
type ReviewLog struct {
	ID                  string
	LemmaID             string
	Rating              int // 1..4 (FSRS Again/Hard/Good/Easy)
	ReviewedAt          time.Time
	ResponseMs          *int
	ReviewMode          ReviewMode
	ComprehensionSignal *string
	CreditType          CreditType
	SentenceID          *string
	SessionID           *string
	ClientReviewID      *string
	IsAcquisition       bool
	FSRSLog             []byte // opaque JSON snapshot of the scheduling decision
}

// SentenceReviewLog is one record per sentence-level review (distinct from
// the per-lemma ReviewLog rows C5 fans out from it).
type SentenceReviewLog struct {
	ID                  string
	SentenceID          string
	SessionID           *string
	ReviewMode          ReviewMode
	ComprehensionSignal string
	ReviewedAt          time.Time
	ClientReviewID      *string
}

// GrammarFeature is a static catalogue row seeded once and immutable at
// runtime (C11).
type GrammarFeature struct {
	FeatureID      string
	FeatureKey     string
	LabelEn        string
	LabelAr        string
	Category       string
	FormChangeType string
}

// UserGrammarExposure tracks a learner's exposure to one GrammarFeature (C7).
type UserGrammarExposure struct {
	FeatureID     string
	TimesSeen     int
	TimesCorrect  int
	TimesConfused int
	FirstSeenAt   *time.Time
	LastSeenAt    *time.Time
	IntroducedAt  *time.Time
	ComfortScore  float64
}

// SentenceGrammarFeature is the junction between a Sentence and the grammar
// concepts it exercises, populated by C6's pattern-matcher.
type SentenceGrammarFeature struct {
	SentenceID string
	FeatureID  string
}

// ContentFlagType identifies what kind of content a ContentFlag disputes.
type ContentFlagType string

const (
	FlagWordGloss       ContentFlagType = "word_gloss"
	FlagWordMapping     ContentFlagType = "word_mapping"
	FlagSentenceText    ContentFlagType = "sentence_text"
	FlagSentenceMapping ContentFlagType = "sentence_mapping"
)

// ContentFlagStatus is a ContentFlag's position in C10's triage workflow.
type ContentFlagStatus string

const (
	FlagStatusPending   ContentFlagStatus = "pending"
	FlagStatusReviewing ContentFlagStatus = "reviewing"
	FlagStatusApplied   ContentFlagStatus = "applied"
	FlagStatusDismissed ContentFlagStatus = "dismissed"
)

// ContentFlag is a learner- or pipeline-raised dispute over generated
// content, routed through C10's evaluator.
type ContentFlag struct {
	ID              string
	ContentType     ContentFlagType
	LemmaID         *string
	SentenceID      *string
	Status          ContentFlagStatus
	OriginalValue   *string
	ResolutionNote  *string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
}

// InteractionEvent is an append-only structured telemetry row backing C8's
// interaction event stream — distinct from ReviewLog/SentenceReviewLog,
// which are reviewable state transitions rather than pure telemetry.
type InteractionEvent struct {
	ID         string
	EventType  string
	OccurredAt time.Time
	Attributes map[string]any
}

// PipelineJobKind identifies which subsystem a queued pipeline_jobs row
// belongs to; mirrors pkg/queue.JobKind for the DB-backed JobSource.
type PipelineJobKind string

const (
	PipelineJobGapFill   PipelineJobKind = "gap_fill"
	PipelineJobWarmCache PipelineJobKind = "warm_cache"
	PipelineJobFlagEval  PipelineJobKind = "flag_eval"
)

// PipelineJobStatus is a pipeline_jobs row's lifecycle state.
type PipelineJobStatus string

const (
	PipelineJobPending   PipelineJobStatus = "pending"
	PipelineJobClaimed   PipelineJobStatus = "claimed"
	PipelineJobCompleted PipelineJobStatus = "completed"
	PipelineJobFailed    PipelineJobStatus = "failed"
	PipelineJobTimedOut  PipelineJobStatus = "timed_out"
	PipelineJobCancelled PipelineJobStatus = "cancelled"
)

// PipelineJob is the persisted form of a queue.Job, claimed via
// SKIP LOCKED so multiple worker pods never race on the same row.
type PipelineJob struct {
	ID        string
	Kind      PipelineJobKind
	LemmaID   *string
	FlagID    *string
	Status    PipelineJobStatus
	Attempts  int
	CreatedAt time.Time
}
