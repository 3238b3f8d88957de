package fsrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReview_NewCardGood(t *testing.T) {
	sch := NewScheduler()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	card, err := sch.Review(NewCard(), RatingGood, now)
	assert.NoError(t, err)
	assert.Equal(t, StateReview, card.State)
	assert.Greater(t, card.Stability, 0.0)
	assert.True(t, card.Due.After(now))
}

func TestReview_AgainTriggersRelearning(t *testing.T) {
	sch := NewScheduler()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	card, _ := sch.Review(NewCard(), RatingGood, now)
	later := now.Add(5 * 24 * time.Hour)
	relearned, err := sch.Review(card, RatingAgain, later)

	assert.NoError(t, err)
	assert.Equal(t, StateRelearning, relearned.State)
	assert.Equal(t, 1, relearned.Lapses)
}

func TestRetrievability_DecaysOverTime(t *testing.T) {
	sch := NewScheduler()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	card, _ := sch.Review(NewCard(), RatingGood, now)

	soon := Retrievability(card, now.Add(1*time.Hour))
	later := Retrievability(card, now.Add(30*24*time.Hour))
	assert.Greater(t, soon, later)
}

func TestNewCard_StartsNew(t *testing.T) {
	assert.Equal(t, StateNew, NewCard().State)
}
