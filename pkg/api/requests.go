package api

// submitSentenceRequest is POST /api/review/submit-sentence's body.
type submitSentenceRequest struct {
	SentenceID          *string  `json:"sentence_id"`
	PrimaryLemmaID      string   `json:"primary_lemma_id" binding:"required"`
	ComprehensionSignal string   `json:"comprehension_signal" binding:"required"`
	MissedLemmaIDs      []string `json:"missed_lemma_ids"`
	ConfusedLemmaIDs    []string `json:"confused_lemma_ids"`
	ResponseMs          *int     `json:"response_ms"`
	SessionID           *string  `json:"session_id"`
	ReviewMode          string   `json:"review_mode" binding:"required"`
	ClientReviewID      string   `json:"client_review_id" binding:"required"`
}

// syncRequest is POST /api/review/sync's body: a batch replay of offline
// submitSentenceRequest payloads, applied independently so one bad item
// doesn't fail the whole batch.
type syncRequest struct {
	Reviews []submitSentenceRequest `json:"reviews" binding:"required"`
}

// reintroResultRequest is POST /api/review/reintro-result's body.
type reintroResultRequest struct {
	LemmaID        string  `json:"lemma_id" binding:"required"`
	Result         string  `json:"result" binding:"required"` // "remember" or "show_again"
	SessionID      *string `json:"session_id"`
	ClientReviewID string  `json:"client_review_id" binding:"required"`
}

// undoSentenceRequest is POST /api/review/undo-sentence's body.
type undoSentenceRequest struct {
	ClientReviewID string `json:"client_review_id" binding:"required"`
}

// createFlagRequest is POST /api/flags's body.
type createFlagRequest struct {
	ContentType   string  `json:"content_type" binding:"required"`
	LemmaID       *string `json:"lemma_id"`
	SentenceID    *string `json:"sentence_id"`
	OriginalValue *string `json:"original_value"`
}

// startAcquisitionRequest is POST /api/words/:lemma_id/start-acquisition's body.
type startAcquisitionRequest struct {
	Source         string `json:"source" binding:"required"`
	DueImmediately bool   `json:"due_immediately"`
}
