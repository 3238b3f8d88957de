package wordselector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/services"
	"github.com/alif-engine/core/pkg/store"
)

// Service scores and introduces new vocabulary, shared by C4's intro-card
// candidates and C6's generation avoid-list seeding.
type Service struct {
	store       *store.Store
	acquisition *services.AcquisitionService
}

func NewService(s *store.Store, acquisition *services.AcquisitionService) *Service {
	return &Service{store: s, acquisition: acquisition}
}

// Candidate is one scored, not-yet-started lemma.
type Candidate struct {
	Lemma      models.Lemma
	Root       *models.Root
	Score      float64
}

// SelectNextWords scores every not-yet-started lemma and returns the top
// count, highest score first. ExcludeLemmaIDs lets a caller (e.g. a
// session already proposing other intro candidates) avoid repeats within
// one call.
func (svc *Service) SelectNextWords(ctx context.Context, count int, excludeLemmaIDs []string) ([]Candidate, error) {
	lemmas, err := svc.store.LemmaIntroductionCandidates(ctx, excludeLemmaIDs)
	if err != nil {
		return nil, fmt.Errorf("loading introduction candidates: %w", err)
	}

	now := time.Now().UTC()
	var scored []Candidate
	for _, lemma := range lemmas {
		if IsNoiseLemma(lemma.Surface, lemma.Gloss) {
			continue
		}

		freqScore := FrequencyScore(lemma.FrequencyRank)
		rootBoost := 1.0
		var root *models.Root

		if lemma.RootID != nil {
			known, total, err := svc.store.RootFamiliarity(ctx, *lemma.RootID, lemma.LemmaID)
			if err != nil {
				return nil, fmt.Errorf("computing root familiarity for %s: %w", lemma.LemmaID, err)
			}
			rootBoost += RootFamiliarityScore(known, total)

			lastIntro, err := svc.store.RootLastIntroducedAt(ctx, *lemma.RootID, lemma.LemmaID)
			if err != nil {
				return nil, fmt.Errorf("computing root recency for %s: %w", lemma.LemmaID, err)
			}
			rootBoost *= RootRecencyFactor(lastIntro, now)

			root, err = svc.store.GetRoot(ctx, *lemma.RootID)
			if err != nil {
				return nil, fmt.Errorf("loading root %s: %w", *lemma.RootID, err)
			}
		}

		scored = append(scored, Candidate{
			Lemma: lemma,
			Root:  root,
			Score: freqScore * rootBoost,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > count {
		scored = scored[:count]
	}
	return scored, nil
}

// IntroductionResult is the outcome of introducing a lemma into the
// acquisition pipeline.
type IntroductionResult struct {
	LemmaID        string
	AlreadyKnown   bool
	AcquisitionBox int
	RootFamily     []models.Lemma
}

// IntroduceWord starts acquisition for lemmaID, returning whether it was
// already underway (idempotent: StartAcquisition is itself safe to call
// more than once).
func (svc *Service) IntroduceWord(ctx context.Context, lemmaID string) (*IntroductionResult, error) {
	lemma, err := svc.store.GetLemma(ctx, lemmaID)
	if err != nil {
		return nil, fmt.Errorf("loading lemma %s: %w", lemmaID, err)
	}

	existing, err := svc.store.GetULK(ctx, lemmaID)
	alreadyStarted := err == nil && existing != nil && existing.State != models.StateNew

	ulk, err := svc.acquisition.StartAcquisition(ctx, lemmaID, "study", true)
	if err != nil {
		return nil, fmt.Errorf("introducing lemma %s: %w", lemmaID, err)
	}

	result := &IntroductionResult{LemmaID: lemmaID, AlreadyKnown: alreadyStarted}
	if ulk.AcquisitionBox != nil {
		result.AcquisitionBox = *ulk.AcquisitionBox
	}

	if lemma.RootID != nil {
		family, err := svc.GetRootFamily(ctx, *lemma.RootID)
		if err != nil {
			return nil, err
		}
		result.RootFamily = family
	}
	return result, nil
}

// GetRootFamily returns every lemma sharing rootID.
func (svc *Service) GetRootFamily(ctx context.Context, rootID string) ([]models.Lemma, error) {
	family, err := svc.store.RootFamily(ctx, rootID, "")
	if err != nil {
		return nil, fmt.Errorf("loading root family for %s: %w", rootID, err)
	}
	return family, nil
}
