package clustering

import "github.com/ewilliams-labs/takesort/internal/core/domain"

// DefaultThreshold is used when no candidate threshold produces a cluster.
const DefaultThreshold = 0.6

// CandidateThresholds are tried in order; earlier candidates win ties.
var CandidateThresholds = []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8}

// OptimizeThreshold clusters at every candidate threshold and returns the one
// with the best quality (0.7 * coverage + 0.3 * average confidence).
func (e *Engine) OptimizeThreshold(fingerprints []domain.AudioFingerprint) float64 {
	best := DefaultThreshold
	bestQuality := 0.0
	found := false

	for _, candidate := range CandidateThresholds {
		clusters := e.Cluster(fingerprints, candidate)
		if len(clusters) == 0 {
			continue
		}
		q := Quality(clusters, len(fingerprints))
		if !found || q > bestQuality {
			best = candidate
			bestQuality = q
			found = true
		}
	}
	return best
}

// Quality scores a clustering outcome over totalFiles inputs.
func Quality(clusters []domain.AudioCluster, totalFiles int) float64 {
	if totalFiles == 0 || len(clusters) == 0 {
		return 0
	}
	clustered := 0
	var confidence float64
	for _, c := range clusters {
		clustered += c.Size()
		confidence += c.Confidence
	}
	coverage := float64(clustered) / float64(totalFiles)
	return 0.7*coverage + 0.3*(confidence/float64(len(clusters)))
}
