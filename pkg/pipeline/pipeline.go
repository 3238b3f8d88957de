// Package pipeline implements the Material Pipeline (C6): gap-fill and
// warm-cache generation of review sentences, backed by C9 for candidate
// generation and a deterministic validator for acceptance.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alif-engine/core/pkg/arabic"
	"github.com/alif-engine/core/pkg/events"
	"github.com/alif-engine/core/pkg/llm"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/queue"
	"github.com/alif-engine/core/pkg/store"
	"github.com/alif-engine/core/pkg/wordselector"
	"github.com/google/uuid"
)

const (
	minSentences = 2
	pipelineCap  = 300
	minActive    = 2
	minShown     = 3

	groupSize        = 3
	candidatesPerReq = 3
)

// Pipeline runs C6's gap-fill and warm-cache passes as queue.JobExecutor.
type Pipeline struct {
	store    *store.Store
	llm      *llm.Adapter
	words    *wordselector.Service
	recorder *events.Recorder
}

func NewPipeline(s *store.Store, adapter *llm.Adapter, words *wordselector.Service, rec *events.Recorder) *Pipeline {
	return &Pipeline{store: s, llm: adapter, words: words, recorder: rec}
}

// Execute implements queue.JobExecutor for JobKindGapFill and
// JobKindWarmCache.
func (p *Pipeline) Execute(ctx context.Context, job *queue.Job) *queue.JobResult {
	var err error
	switch job.Kind {
	case queue.JobKindGapFill:
		err = p.GapFill(ctx, job.LemmaID)
	case queue.JobKindWarmCache:
		err = p.WarmCache(ctx)
	default:
		err = fmt.Errorf("pipeline executor received unsupported job kind %q", job.Kind)
	}
	if err != nil {
		return &queue.JobResult{Status: queue.JobStatusFailed, Error: err}
	}
	return &queue.JobResult{Status: queue.JobStatusCompleted}
}

// GapFill runs the on-demand per-lemma path: triggered right after a word
// starts acquisition so material exists before the learner meets it again.
func (p *Pipeline) GapFill(ctx context.Context, lemmaID string) error {
	if err := p.rotateIfOverCap(ctx); err != nil {
		return err
	}

	count, err := p.store.ActiveSentenceCountForLemma(ctx, lemmaID)
	if err != nil {
		return fmt.Errorf("counting active sentences for %s: %w", lemmaID, err)
	}
	if count >= minSentences {
		return nil
	}

	lemma, err := p.store.GetLemma(ctx, lemmaID)
	if err != nil {
		return fmt.Errorf("loading lemma %s: %w", lemmaID, err)
	}
	return p.generateForGroup(ctx, []models.Lemma{*lemma}, minSentences-count)
}

// WarmCache runs the periodic sweep: batches gap lemmas across the whole
// focus cohort plus upcoming intro candidates, grouping compatible lemmas
// for multi-target generation before falling back to single-target.
func (p *Pipeline) WarmCache(ctx context.Context) error {
	if err := p.rotateIfOverCap(ctx); err != nil {
		return err
	}

	gaps, err := p.collectGapLemmas(ctx)
	if err != nil {
		return err
	}
	if len(gaps) == 0 {
		return nil
	}

	groups := groupCompatible(gaps, groupSize)
	for _, group := range groups {
		need := minSentences
		for _, l := range group {
			count, err := p.store.ActiveSentenceCountForLemma(ctx, l.LemmaID)
			if err != nil {
				return fmt.Errorf("counting active sentences for %s: %w", l.LemmaID, err)
			}
			if minSentences-count > need {
				need = minSentences - count
			}
		}
		if err := p.generateForGroup(ctx, group, need); err != nil {
			slog.Error("warm cache group generation failed", "error", err, "group_size", len(group))
		}
	}
	return nil
}

// collectGapLemmas gathers the focus cohort (active SRS/acquisition
// lemmas) below MIN_SENTENCES plus next-intro candidates from the word
// selector, grounded on warm_sentence_cache()'s combined sourcing.
func (p *Pipeline) collectGapLemmas(ctx context.Context) ([]models.Lemma, error) {
	var gaps []models.Lemma
	seen := map[string]struct{}{}

	cohort, err := p.store.EnumerateSRSCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading srs cohort: %w", err)
	}
	acquiring, err := p.store.EnumerateAcquisitionDue(ctx, time.Now().UTC().Add(30*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("loading acquisition cohort: %w", err)
	}

	var focusIDs []string
	for _, u := range cohort {
		focusIDs = append(focusIDs, u.LemmaID)
	}
	for _, u := range acquiring {
		focusIDs = append(focusIDs, u.LemmaID)
	}

	lemmas, err := p.store.LemmasByIDs(ctx, focusIDs)
	if err != nil {
		return nil, fmt.Errorf("loading focus cohort lemmas: %w", err)
	}
	for _, l := range lemmas {
		count, err := p.store.ActiveSentenceCountForLemma(ctx, l.LemmaID)
		if err != nil {
			return nil, fmt.Errorf("counting active sentences for %s: %w", l.LemmaID, err)
		}
		if count < minSentences {
			if _, ok := seen[l.LemmaID]; !ok {
				gaps = append(gaps, l)
				seen[l.LemmaID] = struct{}{}
			}
		}
	}

	candidates, err := p.words.SelectNextWords(ctx, groupSize*2, nil)
	if err != nil {
		return nil, fmt.Errorf("loading next-intro candidates: %w", err)
	}
	for _, c := range candidates {
		if _, ok := seen[c.Lemma.LemmaID]; ok {
			continue
		}
		gaps = append(gaps, c.Lemma)
		seen[c.Lemma.LemmaID] = struct{}{}
	}

	return gaps, nil
}

// groupCompatible buckets gap lemmas into groups of at most size sharing
// part of speech, a simple compatibility proxy for multi-target generation
// (several content words fitting naturally into one scene).
func groupCompatible(lemmas []models.Lemma, size int) [][]models.Lemma {
	byPOS := map[string][]models.Lemma{}
	for _, l := range lemmas {
		byPOS[l.POS] = append(byPOS[l.POS], l)
	}

	var groups [][]models.Lemma
	for _, bucket := range byPOS {
		for i := 0; i < len(bucket); i += size {
			end := i + size
			if end > len(bucket) {
				end = len(bucket)
			}
			groups = append(groups, bucket[i:end])
		}
	}
	return groups
}

// generateForGroup asks C9 for candidatesPerReq sentences covering group,
// validates and maps each one, and persists whatever survives. need caps
// how many accepted sentences this call should stop at.
func (p *Pipeline) generateForGroup(ctx context.Context, group []models.Lemma, need int) error {
	if len(group) == 0 || need <= 0 {
		return nil
	}

	known, err := p.store.KnownBareForms(ctx)
	if err != nil {
		return fmt.Errorf("loading known bare forms: %w", err)
	}
	avoid, err := p.avoidList(ctx)
	if err != nil {
		return err
	}
	lookup, err := p.store.BuildLemmaLookup(ctx)
	if err != nil {
		return fmt.Errorf("building lemma lookup: %w", err)
	}

	accepted := 0
	candidates, err := p.requestCandidates(ctx, group, known, avoid)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		if accepted >= need {
			break
		}
		primary := group[0]
		result := arabic.ValidateSentence(cand.Arabic, primary.Bare, known)
		if !result.Valid {
			p.recorder.Record(ctx, events.TypeCandidateRejected, map[string]any{
				"target_lemma_id": primary.LemmaID,
				"issues":          result.Issues,
			})
			continue
		}

		tokens := arabic.Tokenize(cand.Arabic)
		mappings := arabic.MapTokensToLemmas(tokens, lookup, primary.LemmaID, primary.Bare)
		ok := true
		for _, m := range mappings {
			if !m.HasLemma && !m.IsFunctionWord && !m.IsTarget {
				ok = false
				break
			}
		}
		if !ok {
			p.recorder.Record(ctx, events.TypeCandidateRejected, map[string]any{
				"target_lemma_id": primary.LemmaID,
				"issues":          []string{"unmapped non-function word"},
			})
			continue
		}

		if err := p.persist(ctx, primary, cand, mappings); err != nil {
			return err
		}
		p.recorder.Record(ctx, events.TypeCandidateAccepted, map[string]any{
			"target_lemma_id": primary.LemmaID,
		})
		accepted++
	}
	return nil
}

type candidate struct {
	Arabic          string
	Diacritized     string
	English         string
	Transliteration string
}

// avoidList returns bare forms whose sentence-word frequency exceeds
// max(4, 2×median) across active sentences — words so overused in
// existing material that C9 should not reach for them again.
func (p *Pipeline) avoidList(ctx context.Context) ([]string, error) {
	sentences, err := p.store.AllActiveSentences(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active sentences for avoid-list: %w", err)
	}

	freq := map[string]int{}
	for _, sent := range sentences {
		words, err := p.store.SentenceWords(ctx, sent.SentenceID)
		if err != nil {
			return nil, fmt.Errorf("loading words for %s: %w", sent.SentenceID, err)
		}
		for _, w := range words {
			freq[w.SurfaceForm]++
		}
	}

	counts := make([]int, 0, len(freq))
	for _, c := range freq {
		counts = append(counts, c)
	}
	sort.Ints(counts)
	median := 0
	if len(counts) > 0 {
		median = counts[len(counts)/2]
	}
	threshold := 4
	if 2*median > threshold {
		threshold = 2 * median
	}

	var avoid []string
	for word, c := range freq {
		if c > threshold {
			avoid = append(avoid, word)
		}
	}
	return avoid, nil
}

// requestCandidates asks C9 for candidatesPerReq sentences targeting
// group's lemmas, constrained to known vocabulary plus permitted function
// words, full diacritics.
func (p *Pipeline) requestCandidates(ctx context.Context, group []models.Lemma, known map[string]struct{}, avoid []string) ([]candidate, error) {
	targets := make([]string, len(group))
	glosses := make([]string, len(group))
	for i, l := range group {
		targets[i] = l.Bare
		glosses[i] = l.Gloss
	}

	vocab := make([]string, 0, len(known))
	for w := range known {
		vocab = append(vocab, w)
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sentences": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"arabic":          map[string]any{"type": "string"},
						"english":         map[string]any{"type": "string"},
						"transliteration": map[string]any{"type": "string"},
					},
					"required": []string{"arabic", "english"},
				},
			},
		},
		"required": []string{"sentences"},
	}

	prompt := fmt.Sprintf(
		"Write %d short, fully-diacritized Arabic sentences that each use the target word(s) %v (glosses: %v). "+
			"Only use words from this known-vocabulary list (plus ordinary function words): %v. "+
			"Avoid overusing these already-common words: %v.",
		candidatesPerReq, targets, glosses, vocab, avoid)

	result, err := p.llm.GenerateStructured(ctx, prompt,
		"You are a careful Arabic curriculum writer generating comprehensible-input sentences.",
		schema, llm.Options{Temperature: 0.7, Timeout: 120 * time.Second, TaskType: "sentence_generation"})
	if err != nil {
		return nil, fmt.Errorf("generating sentence candidates: %w", err)
	}

	raw, _ := result["sentences"].([]any)
	out := make([]candidate, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := candidate{}
		if v, ok := m["arabic"].(string); ok {
			c.Arabic = v
			c.Diacritized = v
		}
		if v, ok := m["english"].(string); ok {
			c.English = v
		}
		if v, ok := m["transliteration"].(string); ok {
			c.Transliteration = v
		}
		if c.Arabic != "" && c.English != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Pipeline) persist(ctx context.Context, primary models.Lemma, cand candidate, mappings []arabic.TokenMapping) error {
	sentenceID := uuid.NewString()
	sent := &models.Sentence{
		SentenceID:        sentenceID,
		ArabicRaw:         cand.Arabic,
		ArabicDiacritized: cand.Diacritized,
		English:           cand.English,
		Transliteration:   cand.Transliteration,
		TargetLemmaID:     &primary.LemmaID,
		IsActive:          true,
		LastShownAt:       map[models.ReviewMode]time.Time{},
		LastComprehension: map[models.ReviewMode]string{},
		Source:            "pipeline",
		CreatedAt:         time.Now().UTC(),
	}

	words := make([]models.SentenceWord, len(mappings))
	for i, m := range mappings {
		w := models.SentenceWord{
			SentenceID:  sentenceID,
			Position:    m.Position,
			SurfaceForm: m.SurfaceForm,
			IsTarget:    m.IsTarget,
		}
		if m.HasLemma {
			id := m.LemmaID
			w.LemmaID = &id
		}
		words[i] = w
	}

	if err := p.store.InsertSentence(ctx, sent, words); err != nil {
		return fmt.Errorf("persisting generated sentence: %w", err)
	}
	return nil
}

// rotateIfOverCap implements RotateStale: retire diversity-poorest stale
// sentences while total active exceeds pipelineCap, never dropping any
// target below minActive.
func (p *Pipeline) rotateIfOverCap(ctx context.Context) error {
	total, err := p.store.ActiveSentenceCount(ctx)
	if err != nil {
		return fmt.Errorf("counting active sentences: %w", err)
	}
	if total <= pipelineCap {
		return nil
	}

	sentences, err := p.store.AllActiveSentences(ctx)
	if err != nil {
		return fmt.Errorf("loading active sentences for rotation: %w", err)
	}

	type staleSentence struct {
		sentence  models.Sentence
		diversity float64
	}
	var stale []staleSentence
	targetActive := map[string]int{}

	for _, sent := range sentences {
		if sent.TargetLemmaID != nil {
			targetActive[*sent.TargetLemmaID]++
		}
	}

	for _, sent := range sentences {
		shown := sent.TimesShown
		if shown < minShown {
			continue
		}
		allKnown, hasAcquiring, err := p.scaffoldState(ctx, sent.SentenceID)
		if err != nil {
			return err
		}
		if !allKnown || hasAcquiring {
			continue
		}
		stale = append(stale, staleSentence{sentence: sent, diversity: 1.0 / (1.0 + float64(shown))})
	}

	sort.Slice(stale, func(i, j int) bool { return stale[i].diversity < stale[j].diversity })

	retired := 0
	for _, s := range stale {
		if total-retired <= pipelineCap {
			break
		}
		if s.sentence.TargetLemmaID != nil && targetActive[*s.sentence.TargetLemmaID]-1 < minActive {
			continue
		}
		if err := p.store.RetireSentence(ctx, s.sentence.SentenceID); err != nil {
			return fmt.Errorf("retiring sentence %s: %w", s.sentence.SentenceID, err)
		}
		if s.sentence.TargetLemmaID != nil {
			targetActive[*s.sentence.TargetLemmaID]--
		}
		retired++
	}

	if retired > 0 {
		p.recorder.Record(ctx, events.TypeSentencesRetired, map[string]any{"count": retired, "reason": "pipeline_cap"})
	}
	return nil
}

func (p *Pipeline) scaffoldState(ctx context.Context, sentenceID string) (allKnown, hasAcquiring bool, err error) {
	words, err := p.store.SentenceWords(ctx, sentenceID)
	if err != nil {
		return false, false, fmt.Errorf("loading words for %s: %w", sentenceID, err)
	}

	var lemmaIDs []string
	for _, w := range words {
		if w.LemmaID != nil && !w.IsTarget {
			lemmaIDs = append(lemmaIDs, *w.LemmaID)
		}
	}
	if len(lemmaIDs) == 0 {
		return true, false, nil
	}

	ulks, err := p.store.ULKByLemmaIDs(ctx, lemmaIDs)
	if err != nil {
		return false, false, fmt.Errorf("loading scaffold knowledge: %w", err)
	}

	allKnown = true
	for _, id := range lemmaIDs {
		u, ok := ulks[id]
		if !ok || u.State != models.StateKnown {
			allKnown = false
		}
		if ok && u.State == models.StateAcquiring {
			hasAcquiring = true
		}
	}
	return allKnown, hasAcquiring, nil
}
