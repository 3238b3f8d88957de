package wordselector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestFrequencyScore(t *testing.T) {
	assert.Greater(t, FrequencyScore(intPtr(1)), FrequencyScore(intPtr(1000)))
	assert.Greater(t, FrequencyScore(intPtr(10)), 0.2)
	assert.Equal(t, unknownFrequencyScore, FrequencyScore(nil))
	assert.Greater(t, FrequencyScore(intPtr(0)), 0.0)
}

func TestRootFamiliarityScore(t *testing.T) {
	assert.Equal(t, 0.0, RootFamiliarityScore(0, 0))
	assert.Equal(t, 0.0, RootFamiliarityScore(0, 3))
	assert.Greater(t, RootFamiliarityScore(1, 3), 0.0)
	assert.Equal(t, fullyKnownRootFloor, RootFamiliarityScore(2, 2))
}

func TestRootRecencyFactor(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, RootRecencyFactor(nil, now))

	justNow := now
	assert.Equal(t, 0.3, RootRecencyFactor(&justNow, now))

	weekAgo := now.Add(-7 * 24 * time.Hour)
	assert.Equal(t, 1.0, RootRecencyFactor(&weekAgo, now))
}

func TestIsNoiseLemma(t *testing.T) {
	assert.True(t, IsNoiseLemma("test", "alternative form of X"))
	assert.True(t, IsNoiseLemma("test", "Active participle of Y"))
	assert.True(t, IsNoiseLemma("test", "Judeo-Arabic spelling of Z"))
	assert.True(t, IsNoiseLemma("גלם", "test"))
	assert.False(t, IsNoiseLemma("كتاب", "book"))
}
