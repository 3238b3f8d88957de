package grammar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alif-engine/core/pkg/models"
	"github.com/alif-engine/core/pkg/store"
)

// Service implements C7's exposure tracking and C11's lesson surface.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// LessonView is the data returned for one grammar feature: catalogue
// metadata, the learner's exposure stats, and static lesson content when
// available.
type LessonView struct {
	FeatureKey     string
	LabelEn        string
	LabelAr        string
	Category       string
	FormChangeType string
	IntroducedAt   *time.Time
	TimesSeen      int
	TimesConfused  int
	ComfortScore   float64
	Explanation    string
	Examples       []Example
	Tip            string
	IsRefresher    bool
	ConfusionRate  float64
}

// GetLesson assembles the full lesson view for one feature, or nil if the
// feature key is not in the catalogue.
func (svc *Service) GetLesson(ctx context.Context, featureKey string) (*LessonView, error) {
	feature, err := svc.store.GrammarFeatureByKey(ctx, featureKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading grammar feature %s: %w", featureKey, err)
	}

	view := &LessonView{
		FeatureKey:     feature.FeatureKey,
		LabelEn:        feature.LabelEn,
		LabelAr:        feature.LabelAr,
		Category:       feature.Category,
		FormChangeType: feature.FormChangeType,
	}

	exposure, err := svc.store.GetGrammarExposure(ctx, feature.FeatureID)
	switch {
	case err == nil:
		view.IntroducedAt = exposure.IntroducedAt
		view.TimesSeen = exposure.TimesSeen
		view.TimesConfused = exposure.TimesConfused
		view.ComfortScore = Comfort(exposure.TimesSeen, exposure.TimesCorrect, exposure.LastSeenAt)
	case errors.Is(err, sql.ErrNoRows):
		// Never seen. Zero-value exposure fields stay as-is.
	default:
		return nil, fmt.Errorf("loading grammar exposure for %s: %w", featureKey, err)
	}

	if lesson, ok := lessons[featureKey]; ok {
		view.Explanation = lesson.Explanation
		view.Examples = lesson.Examples
		view.Tip = lesson.Tip
	} else {
		view.Explanation = "Grammar concept: " + feature.LabelEn
	}

	return view, nil
}

// IntroduceFeature marks featureKey as introduced to the learner, creating
// its exposure row if one doesn't exist yet.
func (svc *Service) IntroduceFeature(ctx context.Context, featureKey string) (*time.Time, error) {
	feature, err := svc.store.GrammarFeatureByKey(ctx, featureKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading grammar feature %s: %w", featureKey, err)
	}

	now := time.Now().UTC()
	exposure, err := svc.store.GetGrammarExposure(ctx, feature.FeatureID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading grammar exposure for %s: %w", featureKey, err)
		}
		exposure = &models.UserGrammarExposure{
			FeatureID:   feature.FeatureID,
			FirstSeenAt: &now,
			LastSeenAt:  &now,
		}
	}
	exposure.IntroducedAt = &now

	if err := svc.store.UpsertGrammarExposure(ctx, exposure); err != nil {
		return nil, fmt.Errorf("introducing feature %s: %w", featureKey, err)
	}
	return &now, nil
}

// RecordExposure increments a feature's times_seen (and times_correct /
// times_confused as applicable) after a sentence review tags it, called by
// C5 for every SentenceGrammarFeature on the reviewed sentence.
func (svc *Service) RecordExposure(ctx context.Context, featureID string, correct, confused bool) error {
	now := time.Now().UTC()
	exposure, err := svc.store.GetGrammarExposure(ctx, featureID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("loading grammar exposure for %s: %w", featureID, err)
		}
		exposure = &models.UserGrammarExposure{
			FeatureID:   featureID,
			FirstSeenAt: &now,
		}
	}

	exposure.TimesSeen++
	if correct {
		exposure.TimesCorrect++
	}
	if confused {
		exposure.TimesConfused++
	}
	exposure.LastSeenAt = &now
	exposure.ComfortScore = Comfort(exposure.TimesSeen, exposure.TimesCorrect, exposure.LastSeenAt)

	if err := svc.store.UpsertGrammarExposure(ctx, exposure); err != nil {
		return fmt.Errorf("recording exposure for %s: %w", featureID, err)
	}
	return nil
}

// GetConfusedFeatures returns lessons for every feature whose confusion
// rate has crossed the resurfacing threshold, most confused first.
func (svc *Service) GetConfusedFeatures(ctx context.Context) ([]LessonView, error) {
	exposures, err := svc.store.AllGrammarExposures(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading grammar exposures: %w", err)
	}

	features, err := svc.store.AllGrammarFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading grammar features: %w", err)
	}
	keyByID := make(map[string]string, len(features))
	for _, f := range features {
		keyByID[f.FeatureID] = f.FeatureKey
	}

	var out []LessonView
	for _, exp := range exposures {
		rate, confused := IsConfused(exp.TimesSeen, exp.TimesConfused)
		if !confused {
			continue
		}
		key, ok := keyByID[exp.FeatureID]
		if !ok {
			continue
		}
		view, err := svc.GetLesson(ctx, key)
		if err != nil {
			return nil, err
		}
		if view == nil {
			continue
		}
		view.ConfusionRate = rate
		view.IsRefresher = true
		out = append(out, *view)
	}
	return out, nil
}

// GetUnintroducedFeaturesForSession returns the feature keys tagged on
// sentenceIDs that the learner hasn't been introduced to yet, restricted
// to features with lesson content (C4 step 10 resurfaces only these).
func (svc *Service) GetUnintroducedFeaturesForSession(ctx context.Context, sentenceIDs []string) ([]string, error) {
	if len(sentenceIDs) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	for _, sentenceID := range sentenceIDs {
		ids, err := svc.store.SentenceGrammarFeatures(ctx, sentenceID)
		if err != nil {
			return nil, fmt.Errorf("loading grammar features for sentence %s: %w", sentenceID, err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, nil
	}

	features, err := svc.store.AllGrammarFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading grammar features: %w", err)
	}

	var out []string
	for _, f := range features {
		if _, tagged := seen[f.FeatureID]; !tagged {
			continue
		}
		if _, hasLesson := lessons[f.FeatureKey]; !hasLesson {
			continue
		}
		exposure, err := svc.store.GetGrammarExposure(ctx, f.FeatureID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading grammar exposure for %s: %w", f.FeatureKey, err)
		}
		if err == nil && exposure.IntroducedAt != nil {
			continue
		}
		out = append(out, f.FeatureKey)
	}
	return out, nil
}
