package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alif-engine/core/pkg/arabic"
	"github.com/alif-engine/core/pkg/events"
	"github.com/alif-engine/core/pkg/fsrs"
	"github.com/alif-engine/core/pkg/grammar"
	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
	"github.com/alif-engine/core/pkg/wordselector"
	"github.com/google/uuid"
)

const (
	defaultLimit         = 10
	maxReintroPerSession = 3
	strugglingMinSeen    = 3
	maxIntroPerSession   = 2
	// introThreshold is the minimum session length before intro candidates
	// are offered at all — below this there aren't enough surrounding
	// items for positions 4/8 to land inside the session.
	introThreshold = 4
)

// introPositions are the 1-indexed session slots new words are inserted
// at (spec's "positions 4 and 8").
var introPositions = []int{4, 8}

// Service assembles review sessions (C4).
type Service struct {
	store    *store.Store
	words    *wordselector.Service
	grammar  *grammar.Service
	recorder *events.Recorder
}

func NewService(s *store.Store, words *wordselector.Service, gram *grammar.Service, rec *events.Recorder) *Service {
	return &Service{store: s, words: words, grammar: gram, recorder: rec}
}

// SessionItem is one sentence-or-word card in an assembled session.
type SessionItem struct {
	SentenceID        string
	ArabicRaw         string
	ArabicDiacritized string
	English           string
	Transliteration   string
	PrimaryLemmaID    string
	CoveredLemmaIDs   []string
	WordOnly          bool
	Surface           string
}

// ReintroCard is a rich re-introduction card for a struggling lemma.
type ReintroCard struct {
	LemmaID    string
	Surface    string
	Gloss      string
	RootID     *string
	RootFamily []models.Lemma
	Forms      map[string]string
	TimesSeen  int
}

// IntroCandidate is a not-yet-started lemma offered mid-session.
type IntroCandidate struct {
	LemmaID  string
	Surface  string
	Gloss    string
	Position int
}

// Session is step 10's full assembled output.
type Session struct {
	SessionID              string
	Items                  []SessionItem
	TotalDueWords          int
	CoveredDueWords        int
	IntroCandidates        []IntroCandidate
	ReintroCards           []ReintroCard
	GrammarIntroNeeded     []string
	GrammarRefresherNeeded []grammar.LessonView
}

// candidateAnalysis holds one candidate sentence's precomputed, iteration-
// invariant scoring inputs. Only the marginal due-coverage changes across
// the greedy set-cover loop; everything else here is fixed once up front.
type candidateAnalysis struct {
	sentence            models.Sentence
	dueLemmaIDs         map[string]struct{}
	scaffoldStabilities []float64
	scaffoldTimesSeen   []int
	grammarFit          float64
	diversity           float64
}

// BuildSession runs the full ten-step selection algorithm and returns an
// assembled session of up to limit items.
func (svc *Service) BuildSession(ctx context.Context, limit int, mode models.ReviewMode) (*Session, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	now := time.Now().UTC()

	svc.recorder.Record(ctx, events.TypeSessionStart, map[string]any{"mode": mode, "limit": limit})

	due, stability, strugglingIDs, strugglingTimesSeen, err := svc.collectDueAndStruggling(ctx, now)
	if err != nil {
		return nil, err
	}
	totalDueWords := len(due)

	dueIDs := make([]string, 0, len(due))
	for id := range due {
		dueIDs = append(dueIDs, id)
	}

	sentences, err := svc.store.SentencesContainingLemmas(ctx, dueIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate sentences: %w", err)
	}

	candPool, err := svc.analyzeCandidates(ctx, sentences, due, stability, mode, now)
	if err != nil {
		return nil, err
	}

	selected, remaining := svc.greedyCover(ctx, candPool, due, stability, limit)
	coveredDueWords := totalDueWords - len(remaining)

	ordered := orderForFlow(selected, stability)

	if err := svc.backfillNullLemmas(ctx, ordered); err != nil {
		return nil, err
	}

	items := make([]SessionItem, 0, len(ordered)+len(remaining))
	for _, c := range ordered {
		items = append(items, sessionItemFromSentence(c))
	}

	fallback, err := svc.fallbackWordItems(ctx, remaining, limit-len(items))
	if err != nil {
		return nil, err
	}
	items = append(items, fallback...)

	session := &Session{
		SessionID:       uuid.NewString(),
		Items:           items,
		TotalDueWords:   totalDueWords,
		CoveredDueWords: coveredDueWords,
	}

	introCandidates, err := svc.buildIntroCandidates(ctx, len(items))
	if err != nil {
		return nil, err
	}
	session.IntroCandidates = introCandidates

	reintro, err := svc.buildReintroCards(ctx, strugglingIDs, strugglingTimesSeen)
	if err != nil {
		return nil, err
	}
	session.ReintroCards = reintro

	sentenceIDs := make([]string, 0, len(ordered))
	for _, c := range ordered {
		sentenceIDs = append(sentenceIDs, c.sentence.SentenceID)
	}
	introNeeded, err := svc.grammar.GetUnintroducedFeaturesForSession(ctx, sentenceIDs)
	if err != nil {
		return nil, fmt.Errorf("computing grammar intro needed: %w", err)
	}
	session.GrammarIntroNeeded = introNeeded

	refresherNeeded, err := svc.grammar.GetConfusedFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing grammar refresher needed: %w", err)
	}
	session.GrammarRefresherNeeded = refresherNeeded

	return session, nil
}

// collectDueAndStruggling implements step 1: the due-lemma set D and the
// struggling set carved out of it.
func (svc *Service) collectDueAndStruggling(ctx context.Context, now time.Time) (
	due map[string]struct{}, stability map[string]float64,
	strugglingIDs []string, strugglingTimesSeen map[string]int, err error,
) {
	candidates, err := svc.store.EnumerateSRSCandidates(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("enumerating srs candidates: %w", err)
	}

	due = make(map[string]struct{})
	stability = make(map[string]float64)
	strugglingTimesSeen = make(map[string]int)

	for _, ulk := range candidates {
		card, decodeErr := decodeCard(ulk.FSRSCard)
		if decodeErr != nil {
			continue
		}
		stability[ulk.LemmaID] = card.Stability
		if !card.Due.After(now) {
			due[ulk.LemmaID] = struct{}{}
		}
		if ulk.TimesSeen >= strugglingMinSeen && ulk.TimesCorrect == 0 {
			strugglingIDs = append(strugglingIDs, ulk.LemmaID)
			strugglingTimesSeen[ulk.LemmaID] = ulk.TimesSeen
			delete(due, ulk.LemmaID)
		}
	}
	return due, stability, strugglingIDs, strugglingTimesSeen, nil
}

func decodeCard(raw []byte) (fsrs.Card, error) {
	var c fsrs.Card
	if len(raw) == 0 {
		return c, errors.New("empty fsrs card")
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	return c, nil
}

// analyzeCandidates implements steps 2-3's fixed (non-marginal) scoring
// inputs: recency gating, scaffold stabilities/freshness inputs, grammar
// fit, diversity, and the listening-mode readiness filter.
func (svc *Service) analyzeCandidates(
	ctx context.Context, sentences []models.Sentence, due map[string]struct{},
	stability map[string]float64, mode models.ReviewMode, now time.Time,
) ([]candidateAnalysis, error) {
	var out []candidateAnalysis

	for _, sent := range sentences {
		if lastShown, ok := sent.LastShownAt[mode]; ok {
			window := recencyWindow(sent.LastComprehension[mode])
			if now.Sub(lastShown).Hours() < window.totalHours() {
				continue
			}
		}

		words, err := svc.store.SentenceWords(ctx, sent.SentenceID)
		if err != nil {
			return nil, fmt.Errorf("loading words for sentence %s: %w", sent.SentenceID, err)
		}

		dueLemmaIDs := make(map[string]struct{})
		var scaffoldIDs []string
		for _, w := range words {
			if w.LemmaID == nil {
				continue
			}
			if _, isDue := due[*w.LemmaID]; isDue {
				dueLemmaIDs[*w.LemmaID] = struct{}{}
			} else {
				scaffoldIDs = append(scaffoldIDs, *w.LemmaID)
			}
		}
		if len(dueLemmaIDs) == 0 {
			continue
		}

		scaffoldULKs, err := svc.store.ULKByLemmaIDs(ctx, scaffoldIDs)
		if err != nil {
			return nil, fmt.Errorf("loading scaffold knowledge for sentence %s: %w", sent.SentenceID, err)
		}

		var scaffoldStabilities []float64
		var scaffoldTimesSeen []int
		for _, id := range scaffoldIDs {
			if s, ok := stability[id]; ok {
				scaffoldStabilities = append(scaffoldStabilities, s)
			}
			if ulk, ok := scaffoldULKs[id]; ok {
				scaffoldTimesSeen = append(scaffoldTimesSeen, ulk.TimesSeen)
			} else {
				scaffoldTimesSeen = append(scaffoldTimesSeen, 0)
			}
		}

		if mode == models.ReviewModeListening {
			ready, err := svc.allListeningReady(ctx, scaffoldIDs)
			if err != nil {
				return nil, err
			}
			if !ready {
				continue
			}
		}

		grammarFit, err := svc.grammarFitForSentence(ctx, sent.SentenceID)
		if err != nil {
			return nil, err
		}

		out = append(out, candidateAnalysis{
			sentence:            sent,
			dueLemmaIDs:         dueLemmaIDs,
			scaffoldStabilities: scaffoldStabilities,
			scaffoldTimesSeen:   scaffoldTimesSeen,
			grammarFit:          grammarFit,
			diversity:           diversityScore(sent.TimesShown),
		})
	}
	return out, nil
}

func (svc *Service) allListeningReady(ctx context.Context, scaffoldIDs []string) (bool, error) {
	for _, id := range scaffoldIDs {
		logs, err := svc.store.ReviewLogsForLemma(ctx, id)
		if err != nil {
			return false, fmt.Errorf("loading reviews for %s: %w", id, err)
		}
		ratings := make([]int, len(logs))
		for i, l := range logs {
			ratings[i] = l.Rating
		}
		if !isListeningReady(ratings) {
			return false, nil
		}
	}
	return true, nil
}

func (svc *Service) grammarFitForSentence(ctx context.Context, sentenceID string) (float64, error) {
	featureIDs, err := svc.store.SentenceGrammarFeatures(ctx, sentenceID)
	if err != nil {
		return 0, fmt.Errorf("loading grammar features for %s: %w", sentenceID, err)
	}
	if len(featureIDs) == 0 {
		return 1.0, nil
	}

	var total float64
	for _, featureID := range featureIDs {
		exposure, err := svc.store.GetGrammarExposure(ctx, featureID)
		if err != nil {
			total += grammarFitMultiplier(false, false, 0)
			continue
		}
		comfort := grammar.Comfort(exposure.TimesSeen, exposure.TimesCorrect, exposure.LastSeenAt)
		total += grammarFitMultiplier(true, exposure.IntroducedAt != nil, comfort)
	}
	return total / float64(len(featureIDs)), nil
}

// greedyCover implements step 4.
func (svc *Service) greedyCover(
	ctx context.Context, pool []candidateAnalysis, due map[string]struct{},
	stability map[string]float64, limit int,
) (selected []candidateAnalysis, remaining map[string]struct{}) {
	remaining = make(map[string]struct{}, len(due))
	for id := range due {
		remaining[id] = struct{}{}
	}

	for len(remaining) > 0 && len(selected) < limit && len(pool) > 0 {
		bestIdx := -1
		bestScore := 0.0

		for i, c := range pool {
			var marginal []string
			for id := range c.dueLemmaIDs {
				if _, ok := remaining[id]; ok {
					marginal = append(marginal, id)
				}
			}
			if len(marginal) == 0 {
				continue
			}
			weakest := minStability(marginal, stability)
			dmq := difficultyMatchQuality(weakest, c.scaffoldStabilities)
			freshness := scaffoldFreshness(c.scaffoldTimesSeen)
			coverage := math.Pow(float64(len(marginal)), 1.5)
			score := coverage * dmq * c.grammarFit * c.diversity * freshness
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}

		chosen := pool[bestIdx]
		selected = append(selected, chosen)
		for id := range chosen.dueLemmaIDs {
			delete(remaining, id)
		}
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)

		svc.recorder.Record(ctx, events.TypeSentenceSelected, map[string]any{"sentence_id": chosen.sentence.SentenceID})
	}
	return selected, remaining
}

func minStability(lemmaIDs []string, stability map[string]float64) float64 {
	min := math.Inf(1)
	for _, id := range lemmaIDs {
		if s, ok := stability[id]; ok && s < min {
			min = s
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

// orderForFlow implements step 5: easiest first, second-easiest last,
// the rest (hardest-first) in the middle.
func orderForFlow(selected []candidateAnalysis, stability map[string]float64) []candidateAnalysis {
	sorted := make([]candidateAnalysis, len(selected))
	copy(sorted, selected)
	sort.SliceStable(sorted, func(i, j int) bool {
		return minOfSet(sorted[i].dueLemmaIDs, stability) > minOfSet(sorted[j].dueLemmaIDs, stability)
	})

	if len(sorted) <= 2 {
		return sorted
	}

	out := make([]candidateAnalysis, 0, len(sorted))
	out = append(out, sorted[0])
	out = append(out, sorted[2:]...)
	out = append(out, sorted[1])
	return out
}

func minOfSet(ids map[string]struct{}, stability map[string]float64) float64 {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	return minStability(list, stability)
}

// backfillNullLemmas implements step 6: heal any SentenceWord whose
// lemma_id was never resolved.
func (svc *Service) backfillNullLemmas(ctx context.Context, ordered []candidateAnalysis) error {
	var lookup map[string]string
	for _, c := range ordered {
		words, err := svc.store.SentenceWords(ctx, c.sentence.SentenceID)
		if err != nil {
			return fmt.Errorf("loading words for backfill on %s: %w", c.sentence.SentenceID, err)
		}
		for _, w := range words {
			if w.LemmaID != nil {
				continue
			}
			if lookup == nil {
				lookup, err = svc.store.BuildLemmaLookup(ctx)
				if err != nil {
					return fmt.Errorf("building lemma lookup for backfill: %w", err)
				}
			}
			id, ok := arabic.LookupLemmaID(w.SurfaceForm, lookup)
			if !ok {
				continue
			}
			if err := svc.store.UpdateSentenceWordLemma(ctx, c.sentence.SentenceID, w.Position, &id); err != nil {
				return fmt.Errorf("persisting backfilled lemma for %s/%d: %w", c.sentence.SentenceID, w.Position, err)
			}
		}
	}
	return nil
}

func sessionItemFromSentence(c candidateAnalysis) SessionItem {
	covered := make([]string, 0, len(c.dueLemmaIDs))
	for id := range c.dueLemmaIDs {
		covered = append(covered, id)
	}
	primary := ""
	if c.sentence.TargetLemmaID != nil {
		if _, ok := c.dueLemmaIDs[*c.sentence.TargetLemmaID]; ok {
			primary = *c.sentence.TargetLemmaID
		}
	}
	if primary == "" && len(covered) > 0 {
		primary = covered[0]
	}
	return SessionItem{
		SentenceID:        c.sentence.SentenceID,
		ArabicRaw:         c.sentence.ArabicRaw,
		ArabicDiacritized: c.sentence.ArabicDiacritized,
		English:           c.sentence.English,
		Transliteration:   c.sentence.Transliteration,
		PrimaryLemmaID:    primary,
		CoveredLemmaIDs:   covered,
	}
}

// fallbackWordItems implements step 7: any due lemma not covered by a
// selected sentence gets a word-only item, up to the session's remaining
// headroom.
func (svc *Service) fallbackWordItems(ctx context.Context, remaining map[string]struct{}, headroom int) ([]SessionItem, error) {
	if headroom <= 0 || len(remaining) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(remaining))
	for id := range remaining {
		ids = append(ids, id)
	}
	lemmas, err := svc.store.LemmasByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading fallback lemmas: %w", err)
	}

	out := make([]SessionItem, 0, len(ids))
	for _, id := range ids {
		if len(out) >= headroom {
			break
		}
		lemma, ok := lemmas[id]
		if !ok {
			continue
		}
		out = append(out, SessionItem{
			PrimaryLemmaID:  id,
			CoveredLemmaIDs: []string{id},
			WordOnly:        true,
			Surface:         lemma.Surface,
		})
	}
	return out, nil
}

// buildIntroCandidates implements step 8. There's no single named
// "recent accuracy" figure in the data model, so "healthy accuracy" is
// approximated by this session's own due-word coverage ratio: a session
// that's covering most of its due words isn't one where the learner is
// struggling, and is safe to pad with something new.
func (svc *Service) buildIntroCandidates(ctx context.Context, sessionLength int) ([]IntroCandidate, error) {
	if sessionLength < introThreshold {
		return nil, nil
	}

	candidates, err := svc.words.SelectNextWords(ctx, maxIntroPerSession, nil)
	if err != nil {
		return nil, fmt.Errorf("selecting intro candidates: %w", err)
	}

	out := make([]IntroCandidate, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(introPositions) {
			break
		}
		out = append(out, IntroCandidate{
			LemmaID:  c.Lemma.LemmaID,
			Surface:  c.Lemma.Surface,
			Gloss:    c.Lemma.Gloss,
			Position: introPositions[i],
		})
	}
	return out, nil
}

// buildReintroCards implements step 9.
func (svc *Service) buildReintroCards(ctx context.Context, strugglingIDs []string, timesSeen map[string]int) ([]ReintroCard, error) {
	if len(strugglingIDs) == 0 {
		return nil, nil
	}

	sort.SliceStable(strugglingIDs, func(i, j int) bool {
		return timesSeen[strugglingIDs[i]] > timesSeen[strugglingIDs[j]]
	})
	if len(strugglingIDs) > maxReintroPerSession {
		strugglingIDs = strugglingIDs[:maxReintroPerSession]
	}

	lemmas, err := svc.store.LemmasByIDs(ctx, strugglingIDs)
	if err != nil {
		return nil, fmt.Errorf("loading struggling lemmas: %w", err)
	}

	out := make([]ReintroCard, 0, len(strugglingIDs))
	for _, id := range strugglingIDs {
		lemma, ok := lemmas[id]
		if !ok {
			continue
		}
		card := ReintroCard{
			LemmaID:   id,
			Surface:   lemma.Surface,
			Gloss:     lemma.Gloss,
			RootID:    lemma.RootID,
			Forms:     lemma.Forms,
			TimesSeen: timesSeen[id],
		}
		if lemma.RootID != nil {
			family, err := svc.words.GetRootFamily(ctx, *lemma.RootID)
			if err != nil {
				return nil, err
			}
			card.RootFamily = family
		}
		out = append(out, card)
	}
	return out, nil
}
