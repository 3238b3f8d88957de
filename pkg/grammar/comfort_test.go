package grammar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComfort_NeverSeenIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Comfort(0, 0, nil))
}

func TestComfort_NoLastSeenIsRawAccuracy(t *testing.T) {
	assert.InDelta(t, 0.75, Comfort(4, 3, nil), 1e-9)
}

func TestComfort_DecaysWithStaleness(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-1 * time.Hour)
	stale := now.Add(-60 * 24 * time.Hour)

	fresh := ComfortAt(10, 10, &recent, now)
	old := ComfortAt(10, 10, &stale, now)

	assert.Greater(t, fresh, old)
	assert.InDelta(t, 1.0, fresh, 0.01)
	assert.Less(t, old, 0.2)
}

func TestComfort_BoundedZeroToOne(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	assert.LessOrEqual(t, ComfortAt(10, 10, &now, now), 1.0)
	assert.GreaterOrEqual(t, ComfortAt(10, 0, &now, now), 0.0)
}

func TestIsConfused(t *testing.T) {
	rate, confused := IsConfused(10, 4)
	assert.True(t, confused)
	assert.InDelta(t, 0.4, rate, 1e-9)

	_, confused = IsConfused(4, 4)
	assert.False(t, confused, "below MinSeenForConfusion")

	_, confused = IsConfused(10, 2)
	assert.False(t, confused, "below ConfusionRateThreshold")
}
