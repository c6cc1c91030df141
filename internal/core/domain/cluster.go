package domain

import (
	"errors"
	"sort"
)

// ErrClusterTooSmall is returned when a cluster would hold fewer than two files.
var ErrClusterTooSmall = errors.New("domain: cluster needs at least two files")

// Category is the suggested interpretation of a cluster.
type Category string

const (
	CategorySameSongTakes Category = "same_song_takes"
	CategorySimilarIdeas  Category = "similar_ideas"
	CategorySameSession   Category = "same_session"
	CategoryUnrelated     Category = "unrelated"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySameSongTakes, CategorySimilarIdeas, CategorySameSession, CategoryUnrelated:
		return true
	default:
		return false
	}
}

// AudioCluster groups fingerprints judged to belong together.
// Its ID only lives for one analyze/organize round trip.
type AudioCluster struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	SuggestedCategory Category           `json:"suggestedCategory"`
	Confidence        float64            `json:"confidence"`
	Files             []AudioFingerprint `json:"files"`
	AverageDuration   float64            `json:"averageDuration"`
	AverageTempo      *float64           `json:"averageTempo,omitempty"`
	DominantKey       string             `json:"dominantKey,omitempty"`
}

// NewCluster builds a cluster from its members, ordering them by
// modification date. It rejects groups of fewer than two files.
func NewCluster(id string, files []AudioFingerprint) (*AudioCluster, error) {
	if len(files) < 2 {
		return nil, ErrClusterTooSmall
	}

	members := make([]AudioFingerprint, len(files))
	copy(members, files)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].ModifiedDate.Before(members[j].ModifiedDate)
	})

	var total float64
	for _, f := range members {
		total += f.Duration
	}

	return &AudioCluster{
		ID:              id,
		Files:           members,
		AverageDuration: total / float64(len(members)),
	}, nil
}

// Size returns the number of member files.
func (c *AudioCluster) Size() int {
	return len(c.Files)
}

// Score is the ranking key used to order clusters: confidence times size.
func (c *AudioCluster) Score() float64 {
	return c.Confidence * float64(len(c.Files))
}

// Paths returns the member file paths in cluster order.
func (c *AudioCluster) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, f.FilePath)
	}
	return paths
}
