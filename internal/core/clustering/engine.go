package clustering

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

// Scorer compares two fingerprints.
type Scorer func(a, b domain.AudioFingerprint) float64

// Options controls a clustering run.
type Options struct {
	// Threshold is the minimum seed similarity to join a cluster.
	Threshold float64
	// AutoThreshold selects the threshold with OptimizeThreshold and ignores Threshold.
	AutoThreshold bool
}

// Result is the output of a clustering run.
type Result struct {
	Clusters  []domain.AudioCluster
	Threshold float64
}

// Engine partitions fingerprints into clusters.
type Engine struct {
	score Scorer
	newID func() string
}

// NewEngine returns an Engine using Similarity and random UUID cluster ids.
func NewEngine() *Engine {
	return &Engine{score: Similarity, newID: uuid.NewString}
}

// Run clusters fingerprints according to opts.
func (e *Engine) Run(fingerprints []domain.AudioFingerprint, opts Options) Result {
	threshold := opts.Threshold
	if opts.AutoThreshold {
		threshold = e.OptimizeThreshold(fingerprints)
	}
	return Result{
		Clusters:  e.Cluster(fingerprints, threshold),
		Threshold: threshold,
	}
}

// Cluster runs a single greedy pass. Each unassigned fingerprint, in input
// order, seeds a group of every other unassigned fingerprint whose similarity
// to the seed meets threshold. Membership is not transitive. Groups of one are
// dropped, so unmatched fingerprints appear in no cluster.
func (e *Engine) Cluster(fingerprints []domain.AudioFingerprint, threshold float64) []domain.AudioCluster {
	assigned := make([]bool, len(fingerprints))
	var clusters []domain.AudioCluster

	for i, seed := range fingerprints {
		if assigned[i] {
			continue
		}
		members := []domain.AudioFingerprint{seed}
		memberIdx := []int{i}
		for j := range fingerprints {
			if j == i || assigned[j] {
				continue
			}
			if e.score(seed, fingerprints[j]) >= threshold {
				members = append(members, fingerprints[j])
				memberIdx = append(memberIdx, j)
			}
		}
		if len(members) < 2 {
			continue
		}
		for _, idx := range memberIdx {
			assigned[idx] = true
		}

		c, err := domain.NewCluster(e.newID(), members)
		if err != nil {
			continue
		}
		ch := Characterize(c.Files)
		c.Name = ch.Name
		c.SuggestedCategory = ch.Category
		c.Confidence = ch.Confidence
		clusters = append(clusters, *c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Score() > clusters[j].Score()
	})
	return clusters
}
