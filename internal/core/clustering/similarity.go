package clustering

import (
	"math"
	"time"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

const (
	weightTokens   = 0.6
	weightDuration = 0.15
	weightTemporal = 0.15
	weightFormat   = 0.1
)

// Similarity scores two fingerprints in [0,1]. It is symmetric.
// The weighted sum is divided by the weights actually applied.
func Similarity(a, b domain.AudioFingerprint) float64 {
	var score, applied float64

	score += weightTokens * Jaccard(a.Features.FilenameTokens, b.Features.FilenameTokens)
	applied += weightTokens

	if a.Duration > 0 && b.Duration > 0 {
		score += weightDuration * DurationCloseness(a.Duration, b.Duration)
	} else if a.Features.DurationCategory == b.Features.DurationCategory {
		// Category match is a weaker signal: half credit from the same pool.
		score += weightDuration / 2
	}
	applied += weightDuration

	score += weightTemporal * TemporalProximity(a.ModifiedDate, b.ModifiedDate)
	applied += weightTemporal

	if a.Features.FormatGroup == b.Features.FormatGroup {
		score += weightFormat
	}
	applied += weightFormat

	if applied == 0 {
		return 0
	}
	return math.Min(math.Max(score/applied, 0), 1)
}

// Jaccard returns |a ∩ b| / |a ∪ b| over the distinct tokens; 0 when both are empty.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	union := len(setA)
	intersection := 0
	for t := range setB {
		if _, ok := setA[t]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// DurationCloseness is 1 - min(|a-b| / max(a,b), 1) for positive durations.
func DurationCloseness(a, b float64) float64 {
	longest := math.Max(a, b)
	if longest <= 0 {
		return 0
	}
	return 1 - math.Min(math.Abs(a-b)/longest, 1)
}

// TemporalProximity steps down as modification times drift apart.
func TemporalProximity(a, b time.Time) float64 {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta < time.Hour:
		return 0.9
	case delta < 6*time.Hour:
		return 0.6
	case delta < 24*time.Hour:
		return 0.3
	default:
		return 0
	}
}
