// Package grammar implements the Grammar Exposure Tracker (C7) and the
// Grammar Lesson Content surface (C11): per-feature comfort scoring,
// confusion-based resurfacing, and static lesson material.
package grammar

import (
	"math"
	"time"
)

// comfortHalfLife is how long accuracy takes to decay to half its value
// once a feature stops being seen. A feature reviewed daily stays near its
// raw accuracy; one untouched for weeks drifts back toward the unseen
// floor, mirroring how C4's grammar-fit multiplier expects comfort to
// fade with staleness rather than persist forever from a single success.
const comfortHalfLife = 14 * 24 * time.Hour

// Comfort scores how well a learner currently handles a grammar feature,
// in [0,1]. It is non-decreasing in the accuracy ratio (timesCorrect /
// timesSeen) and decays toward zero the longer it has been since
// lastSeenAt, so a feature aced once and never revisited trends back down
// rather than staying permanently "comfortable".
func Comfort(timesSeen, timesCorrect int, lastSeenAt *time.Time) float64 {
	return ComfortAt(timesSeen, timesCorrect, lastSeenAt, time.Now())
}

// ComfortAt is Comfort with an explicit reference time, for deterministic
// testing.
func ComfortAt(timesSeen, timesCorrect int, lastSeenAt *time.Time, now time.Time) float64 {
	if timesSeen <= 0 {
		return 0
	}
	accuracy := float64(timesCorrect) / float64(timesSeen)
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}

	if lastSeenAt == nil {
		return accuracy
	}

	elapsed := now.Sub(*lastSeenAt)
	if elapsed < 0 {
		elapsed = 0
	}
	decay := math.Exp(-math.Ln2 * elapsed.Hours() / comfortHalfLife.Hours())

	score := accuracy * decay
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// ConfusionRateThreshold and MinSeenForConfusion gate when a feature is
// considered "confused" and due for resurfacing.
const (
	ConfusionRateThreshold = 0.3
	MinSeenForConfusion    = 5
)

// IsConfused reports whether a feature's confusion rate (timesConfused /
// timesSeen) crosses the resurfacing threshold.
func IsConfused(timesSeen, timesConfused int) (rate float64, confused bool) {
	if timesSeen < MinSeenForConfusion || timesConfused == 0 {
		return 0, false
	}
	rate = float64(timesConfused) / float64(timesSeen)
	return rate, rate >= ConfusionRateThreshold
}
