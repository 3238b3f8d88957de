// Package events implements C8's interaction event stream: an append-only,
// structured telemetry log distinct from the reviewable ReviewLog/
// SentenceReviewLog state transitions. Consumers of the stream are out of
// scope here — Recorder only appends.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
	"github.com/google/uuid"
)

// Event type constants for the interaction stream.
const (
	TypeSessionStart     = "session_start"
	TypeSentenceSelected = "sentence_selected"
	TypeSentenceReview   = "sentence_review"
	TypeWordLookup       = "word_lookup"
	TypeReintroStart     = "reintro_start"
	TypeReintroResult    = "reintro_result"
	TypeWordGraduated    = "word_graduated"
	TypeFlagResolved     = "flag_resolved"
	TypeSentencesRetired = "sentences_retired"
	TypeCandidateAccepted = "candidate_accepted"
	TypeCandidateRejected = "candidate_rejected"
)

// Recorder appends interaction events to the store. A failure to record is
// logged but never propagated — losing a telemetry row must not fail the
// operation that produced it.
type Recorder struct {
	store *store.Store
}

func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

// Record appends one event with the given type and attributes.
func (r *Recorder) Record(ctx context.Context, eventType string, attributes map[string]any) {
	evt := &models.InteractionEvent{
		ID:         uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Attributes: attributes,
	}
	if err := r.store.InsertInteractionEvent(ctx, evt); err != nil {
		slog.Error("recording interaction event", "event_type", eventType, "error", err)
	}
}
