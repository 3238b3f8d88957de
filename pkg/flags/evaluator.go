// Package flags implements the Content Flag Evaluator (C10): a background
// job that judges one disputed piece of generated content against C9 and
// either applies a correction or dismisses the flag.
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alif-engine/core/pkg/events"
	"github.com/alif-engine/core/pkg/llm"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/queue"
	"github.com/alif-engine/core/pkg/store"
)

// verdictConfidenceThreshold is the minimum confidence C9 must report
// before the evaluator trusts a "wrong" verdict enough to act on it.
const verdictConfidenceThreshold = 0.75

// Evaluator runs EvaluateFlag as a queue.JobExecutor for JobKindFlagEval.
type Evaluator struct {
	store    *store.Store
	llm      *llm.Adapter
	recorder *events.Recorder
}

func NewEvaluator(s *store.Store, adapter *llm.Adapter, rec *events.Recorder) *Evaluator {
	return &Evaluator{store: s, llm: adapter, recorder: rec}
}

// Execute implements queue.JobExecutor.
func (e *Evaluator) Execute(ctx context.Context, job *queue.Job) *queue.JobResult {
	if job.FlagID == "" {
		return &queue.JobResult{Status: queue.JobStatusFailed, Error: fmt.Errorf("flag_eval job missing flag_id")}
	}
	if err := e.EvaluateFlag(ctx, job.FlagID); err != nil {
		return &queue.JobResult{Status: queue.JobStatusFailed, Error: err}
	}
	return &queue.JobResult{Status: queue.JobStatusCompleted}
}

type verdict struct {
	Correct    bool
	Confidence float64
	Correction string
	Reason     string
}

// EvaluateFlag loads flagID, dispatches by content type, and resolves it.
// Any error during evaluation dismisses the flag with a resolution note
// instead of leaving it stuck in "reviewing" — a deferred recover-and-
// dismiss at this job boundary, so a panic deep in judging never escapes
// the worker pool.
func (e *Evaluator) EvaluateFlag(ctx context.Context, flagID string) (err error) {
	flag, loadErr := e.store.GetContentFlag(ctx, flagID)
	if loadErr != nil {
		return fmt.Errorf("loading content flag %s: %w", flagID, loadErr)
	}
	if flag.Status != models.FlagStatusPending {
		return nil
	}

	flag.Status = models.FlagStatusReviewing
	if err := e.store.UpdateContentFlagStatus(ctx, flag); err != nil {
		return fmt.Errorf("marking flag %s reviewing: %w", flagID, err)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("flag evaluation panicked, dismissing", "flag_id", flagID, "panic", r)
			e.dismiss(ctx, flag, fmt.Sprintf("internal error: %v", r))
			err = nil
		}
	}()

	var evalErr error
	switch flag.ContentType {
	case models.FlagWordGloss:
		evalErr = e.evaluateWordGloss(ctx, flag)
	case models.FlagWordMapping:
		evalErr = e.evaluateWordMapping(ctx, flag)
	case models.FlagSentenceText, models.FlagSentenceMapping:
		evalErr = e.evaluateSentence(ctx, flag)
	default:
		evalErr = fmt.Errorf("unknown content flag type %q", flag.ContentType)
	}

	if evalErr != nil {
		slog.Warn("flag evaluation failed, dismissing", "flag_id", flagID, "error", evalErr)
		e.dismiss(ctx, flag, evalErr.Error())
		return nil
	}
	return nil
}

func (e *Evaluator) evaluateWordGloss(ctx context.Context, flag *models.ContentFlag) error {
	if flag.LemmaID == nil {
		return fmt.Errorf("word_gloss flag missing lemma_id")
	}
	lemma, err := e.store.GetLemma(ctx, *flag.LemmaID)
	if err != nil {
		return fmt.Errorf("loading lemma %s: %w", *flag.LemmaID, err)
	}

	v, err := e.judge(ctx, "word_gloss", fmt.Sprintf(
		"Lemma surface=%q bare=%q pos=%q gloss=%q. Root=%v. Is this gloss an accurate, idiomatic English translation for this Arabic lemma?",
		lemma.Surface, lemma.Bare, lemma.POS, lemma.Gloss, lemma.RootID))
	if err != nil {
		return err
	}

	if !v.Correct && v.Confidence >= verdictConfidenceThreshold && v.Correction != "" {
		lemma.Gloss = v.Correction
		if err := e.store.UpdateLemmaGloss(ctx, lemma.LemmaID, lemma.Gloss); err != nil {
			return fmt.Errorf("applying gloss correction for %s: %w", lemma.LemmaID, err)
		}
		return e.apply(ctx, flag, v.Reason)
	}
	return e.dismiss(ctx, flag, v.Reason)
}

func (e *Evaluator) evaluateWordMapping(ctx context.Context, flag *models.ContentFlag) error {
	if flag.SentenceID == nil {
		return fmt.Errorf("word_mapping flag missing sentence_id")
	}
	sentence, err := e.store.GetSentence(ctx, *flag.SentenceID)
	if err != nil {
		return fmt.Errorf("loading sentence %s: %w", *flag.SentenceID, err)
	}
	words, err := e.store.SentenceWords(ctx, *flag.SentenceID)
	if err != nil {
		return fmt.Errorf("loading words for sentence %s: %w", *flag.SentenceID, err)
	}

	v, err := e.judge(ctx, "word_mapping", fmt.Sprintf(
		"Sentence %q (%s). A word in it was mapped to lemma_id=%v. Given the sentence context, is this word-to-lemma mapping correct?",
		sentence.ArabicRaw, sentence.English, flag.LemmaID))
	if err != nil {
		return err
	}

	if v.Correct || v.Confidence < verdictConfidenceThreshold {
		return e.dismiss(ctx, flag, v.Reason)
	}

	if wouldOrphanContentWord(words, flag.LemmaID) {
		sentence.IsActive = false
		if err := e.store.UpdateSentenceShownState(ctx, sentence); err != nil {
			return fmt.Errorf("retiring sentence %s: %w", sentence.SentenceID, err)
		}
		e.recorder.Record(ctx, events.TypeSentencesRetired, map[string]any{
			"sentence_id": sentence.SentenceID,
			"reason":      "flagged_mapping_unfixable",
		})
		return e.apply(ctx, flag, "mapping correction would orphan a content word; sentence retired instead")
	}

	return e.apply(ctx, flag, v.Reason)
}

func (e *Evaluator) evaluateSentence(ctx context.Context, flag *models.ContentFlag) error {
	if flag.SentenceID == nil {
		return fmt.Errorf("sentence flag missing sentence_id")
	}
	sentence, err := e.store.GetSentence(ctx, *flag.SentenceID)
	if err != nil {
		return fmt.Errorf("loading sentence %s: %w", *flag.SentenceID, err)
	}

	v, err := e.judge(ctx, string(flag.ContentType), fmt.Sprintf(
		"Judge this Arabic sentence and its translation holistically for correctness and naturalness: %q -> %q.",
		sentence.ArabicDiacritized, sentence.English))
	if err != nil {
		return err
	}

	if v.Correct || v.Confidence < verdictConfidenceThreshold {
		return e.dismiss(ctx, flag, v.Reason)
	}

	sentence.IsActive = false
	if err := e.store.UpdateSentenceShownState(ctx, sentence); err != nil {
		return fmt.Errorf("retiring sentence %s: %w", sentence.SentenceID, err)
	}
	return e.apply(ctx, flag, v.Reason)
}

func (e *Evaluator) judge(ctx context.Context, taskType, prompt string) (*verdict, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct":    map[string]any{"type": "boolean"},
			"confidence": map[string]any{"type": "number"},
			"correction": map[string]any{"type": "string"},
			"reason":     map[string]any{"type": "string"},
		},
		"required": []string{"correct", "confidence", "reason"},
	}

	result, err := e.llm.GenerateStructured(ctx, prompt,
		"You are a strict Arabic linguistics reviewer judging one piece of disputed content.",
		schema, llm.Options{Temperature: 0, Timeout: 60 * time.Second, TaskType: "flag_" + taskType})
	if err != nil {
		return nil, fmt.Errorf("judging flagged content: %w", err)
	}

	v := &verdict{}
	if correct, ok := result["correct"].(bool); ok {
		v.Correct = correct
	}
	if conf, ok := result["confidence"].(float64); ok {
		v.Confidence = conf
	}
	if correction, ok := result["correction"].(string); ok {
		v.Correction = correction
	}
	if reason, ok := result["reason"].(string); ok {
		v.Reason = reason
	}
	return v, nil
}

func (e *Evaluator) apply(ctx context.Context, flag *models.ContentFlag, note string) error {
	flag.Status = models.FlagStatusApplied
	flag.ResolutionNote = &note
	now := time.Now().UTC()
	flag.ResolvedAt = &now
	if err := e.store.UpdateContentFlagStatus(ctx, flag); err != nil {
		return fmt.Errorf("applying flag %s: %w", flag.ID, err)
	}
	e.recorder.Record(ctx, events.TypeFlagResolved, map[string]any{"flag_id": flag.ID, "status": "applied"})
	return nil
}

func (e *Evaluator) dismiss(ctx context.Context, flag *models.ContentFlag, note string) error {
	flag.Status = models.FlagStatusDismissed
	flag.ResolutionNote = &note
	now := time.Now().UTC()
	flag.ResolvedAt = &now
	if err := e.store.UpdateContentFlagStatus(ctx, flag); err != nil {
		return fmt.Errorf("dismissing flag %s: %w", flag.ID, err)
	}
	e.recorder.Record(ctx, events.TypeFlagResolved, map[string]any{"flag_id": flag.ID, "status": "dismissed"})
	return nil
}

func wouldOrphanContentWord(words []models.SentenceWord, mappingLemmaID *string) bool {
	if mappingLemmaID == nil {
		return false
	}
	for _, w := range words {
		if w.LemmaID != nil && *w.LemmaID == *mappingLemmaID && w.IsTarget {
			return true
		}
	}
	return false
}
