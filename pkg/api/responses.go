package api

import (
	"time"

	"github.com/alif-engine/core/pkg/database"
	"github.com/alif-engine/core/pkg/dispatch"
	"github.com/alif-engine/core/pkg/grammar"
	"github.com/alif-engine/core/pkg/queue"
	"github.com/alif-engine/core/pkg/selector"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string                  `json:"status"`
	Version      string                  `json:"version"`
	Database     *database.HealthStatus  `json:"database,omitempty"`
	WorkerPool   *queue.PoolHealth       `json:"worker_pool,omitempty"`
	LLMProviders []string                `json:"llm_providers,omitempty"`
}

// sessionItemDTO mirrors selector.SessionItem with stable snake_case keys.
type sessionItemDTO struct {
	SentenceID        string   `json:"sentence_id"`
	ArabicRaw         string   `json:"arabic_raw"`
	ArabicDiacritized string   `json:"arabic_diacritized"`
	English           string   `json:"english"`
	Transliteration   string   `json:"transliteration"`
	PrimaryLemmaID    string   `json:"primary_lemma_id"`
	CoveredLemmaIDs   []string `json:"covered_lemma_ids"`
	WordOnly          bool     `json:"word_only"`
	Surface           string   `json:"surface,omitempty"`
}

type reintroCardDTO struct {
	LemmaID   string            `json:"lemma_id"`
	Surface   string            `json:"surface"`
	Gloss     string            `json:"gloss"`
	RootID    *string           `json:"root_id,omitempty"`
	Forms     map[string]string `json:"forms,omitempty"`
	TimesSeen int               `json:"times_seen"`
}

type introCandidateDTO struct {
	LemmaID  string `json:"lemma_id"`
	Surface  string `json:"surface"`
	Gloss    string `json:"gloss"`
	Position int    `json:"position"`
}

// SessionResponse is returned by next-sentences and next-listening.
type SessionResponse struct {
	SessionID              string                 `json:"session_id"`
	Items                  []sessionItemDTO       `json:"items"`
	TotalDueWords          int                    `json:"total_due_words"`
	CoveredDueWords        int                    `json:"covered_due_words"`
	IntroCandidates        []introCandidateDTO    `json:"intro_candidates,omitempty"`
	ReintroCards           []reintroCardDTO       `json:"reintro_cards,omitempty"`
	GrammarIntroNeeded     []string               `json:"grammar_intro_needed,omitempty"`
	GrammarRefresherNeeded []grammar.LessonView   `json:"grammar_refresher_needed,omitempty"`
}

func toSessionResponse(sess *selector.Session) *SessionResponse {
	items := make([]sessionItemDTO, len(sess.Items))
	for i, it := range sess.Items {
		items[i] = sessionItemDTO{
			SentenceID:        it.SentenceID,
			ArabicRaw:         it.ArabicRaw,
			ArabicDiacritized: it.ArabicDiacritized,
			English:           it.English,
			Transliteration:   it.Transliteration,
			PrimaryLemmaID:    it.PrimaryLemmaID,
			CoveredLemmaIDs:   it.CoveredLemmaIDs,
			WordOnly:          it.WordOnly,
			Surface:           it.Surface,
		}
	}
	intros := make([]introCandidateDTO, len(sess.IntroCandidates))
	for i, c := range sess.IntroCandidates {
		intros[i] = introCandidateDTO{LemmaID: c.LemmaID, Surface: c.Surface, Gloss: c.Gloss, Position: c.Position}
	}
	reintros := make([]reintroCardDTO, len(sess.ReintroCards))
	for i, r := range sess.ReintroCards {
		reintros[i] = reintroCardDTO{
			LemmaID:   r.LemmaID,
			Surface:   r.Surface,
			Gloss:     r.Gloss,
			RootID:    r.RootID,
			Forms:     r.Forms,
			TimesSeen: r.TimesSeen,
		}
	}
	return &SessionResponse{
		SessionID:              sess.SessionID,
		Items:                  items,
		TotalDueWords:          sess.TotalDueWords,
		CoveredDueWords:        sess.CoveredDueWords,
		IntroCandidates:        intros,
		ReintroCards:           reintros,
		GrammarIntroNeeded:     sess.GrammarIntroNeeded,
		GrammarRefresherNeeded: sess.GrammarRefresherNeeded,
	}
}

type wordResultDTO struct {
	LemmaID    string     `json:"lemma_id"`
	Rating     int        `json:"rating"`
	NewState   string     `json:"new_state"`
	CreditType string     `json:"credit_type"`
	NextDue    *time.Time `json:"next_due,omitempty"`
}

// SubmitSentenceResponse is returned by POST /api/review/submit-sentence
// and each item of POST /api/review/sync.
type SubmitSentenceResponse struct {
	Duplicate   bool            `json:"duplicate"`
	WordResults []wordResultDTO `json:"word_results"`
}

func toSubmitSentenceResponse(out *dispatch.ReviewOutcome) *SubmitSentenceResponse {
	results := make([]wordResultDTO, len(out.WordResults))
	for i, w := range out.WordResults {
		results[i] = wordResultDTO{
			LemmaID:    w.LemmaID,
			Rating:     w.Rating,
			NewState:   string(w.NewState),
			CreditType: string(w.CreditType),
			NextDue:    w.NextDue,
		}
	}
	return &SubmitSentenceResponse{Duplicate: out.Duplicate, WordResults: results}
}

// SyncItemResult is one entry of POST /api/review/sync's per-item status.
type SyncItemResult struct {
	ClientReviewID string                  `json:"client_review_id"`
	Status         string                  `json:"status"` // "ok" or "error"
	Error          string                  `json:"error,omitempty"`
	Result         *SubmitSentenceResponse `json:"result,omitempty"`
}

// GrammarLessonResponse is returned by GET /api/grammar/:feature_key.
type GrammarLessonResponse struct {
	*grammar.LessonView
}

// IntroduceFeatureResponse is returned by POST /api/grammar/:feature_key/introduce.
type IntroduceFeatureResponse struct {
	FeatureKey   string     `json:"feature_key"`
	IntroducedAt *time.Time `json:"introduced_at,omitempty"`
}

// FlagResponse mirrors a models.ContentFlag with stable JSON keys.
type FlagResponse struct {
	ID             string     `json:"id"`
	ContentType    string     `json:"content_type"`
	LemmaID        *string    `json:"lemma_id,omitempty"`
	SentenceID     *string    `json:"sentence_id,omitempty"`
	Status         string     `json:"status"`
	OriginalValue  *string    `json:"original_value,omitempty"`
	ResolutionNote *string    `json:"resolution_note,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// StartAcquisitionResponse is returned by POST /api/words/:lemma_id/start-acquisition.
type StartAcquisitionResponse struct {
	LemmaID        string     `json:"lemma_id"`
	State          string     `json:"state"`
	AcquisitionBox *int       `json:"acquisition_box,omitempty"`
	NextDue        *time.Time `json:"next_due,omitempty"`
}
