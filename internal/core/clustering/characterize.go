package clustering

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "of": {}, "with": {}, "by": {}, "song": {}, "track": {}, "audio": {},
	"recording": {},
}

var (
	takeTokenPattern    = regexp.MustCompile(`(?i)^(take|version|try|attempt|v)\d*$`)
	numericTokenPattern = regexp.MustCompile(`^\d+$`)
)

const (
	sessionWindow = 2 * time.Hour
	dayWindow     = 24 * time.Hour
)

// Characterization is the naming outcome for one cluster.
type Characterization struct {
	Name       string
	Category   domain.Category
	Confidence float64
}

// Characterize names and classifies a group of fingerprints ordered by
// modification date. Rules apply in priority order: take pattern, shared
// vocabulary within a day, same two-hour session, then unrelated.
func Characterize(files []domain.AudioFingerprint) Characterization {
	n := len(files)
	if n == 0 {
		return Characterization{Name: "Similar Audio (0 files)", Category: domain.CategoryUnrelated}
	}
	common := CommonTokens(files)
	span := TimeSpan(files)

	switch {
	case HasTakePattern(files, span):
		name := fmt.Sprintf("Recording Session - %d takes", n)
		if len(common) > 0 {
			name = fmt.Sprintf("%s - Takes (%d versions)", leadingTitle(common), n)
		}
		return Characterization{Name: name, Category: domain.CategorySameSongTakes, Confidence: 0.9}
	case len(common) >= 2 && span < dayWindow:
		return Characterization{
			Name:       fmt.Sprintf("%s - Variations (%d files)", leadingTitle(common), n),
			Category:   domain.CategorySimilarIdeas,
			Confidence: 0.7,
		}
	case span < sessionWindow:
		return Characterization{
			Name:       fmt.Sprintf("Recording Session %s (%d files)", sessionDate(files), n),
			Category:   domain.CategorySameSession,
			Confidence: 0.6,
		}
	default:
		return Characterization{
			Name:       fmt.Sprintf("Similar Audio (%d files)", n),
			Category:   domain.CategoryUnrelated,
			Confidence: 0.3,
		}
	}
}

// CommonTokens returns the non-stop-word tokens present in at least 60% of
// the files, in order of first appearance.
func CommonTokens(files []domain.AudioFingerprint) []string {
	if len(files) == 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, f := range files {
		seen := make(map[string]struct{}, len(f.Features.FilenameTokens))
		for _, t := range f.Features.FilenameTokens {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := counts[t]; !ok {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	n := len(files)
	var common []string
	for _, t := range order {
		if _, stop := stopWords[t]; stop {
			continue
		}
		// count/n >= 0.6 without float rounding.
		if counts[t]*5 >= n*3 {
			common = append(common, t)
		}
	}
	return common
}

// HasTakePattern reports whether any member token looks like a take marker,
// or a purely numeric token appears while all members fall within two hours.
func HasTakePattern(files []domain.AudioFingerprint, span time.Duration) bool {
	numeric := false
	for _, f := range files {
		for _, t := range f.Features.FilenameTokens {
			if takeTokenPattern.MatchString(t) {
				return true
			}
			if numericTokenPattern.MatchString(t) {
				numeric = true
			}
		}
	}
	return numeric && span < sessionWindow
}

// IsTakeToken reports whether token matches the take-marker pattern.
func IsTakeToken(token string) bool {
	return takeTokenPattern.MatchString(token)
}

// TimeSpan is the distance between the earliest and latest modification.
func TimeSpan(files []domain.AudioFingerprint) time.Duration {
	if len(files) == 0 {
		return 0
	}
	earliest, latest := files[0].ModifiedDate, files[0].ModifiedDate
	for _, f := range files[1:] {
		if f.ModifiedDate.Before(earliest) {
			earliest = f.ModifiedDate
		}
		if f.ModifiedDate.After(latest) {
			latest = f.ModifiedDate
		}
	}
	return latest.Sub(earliest)
}

func leadingTitle(tokens []string) string {
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return cases.Title(language.English).String(strings.Join(tokens, " "))
}

func sessionDate(files []domain.AudioFingerprint) string {
	earliest := files[0]
	for _, f := range files[1:] {
		if f.ModifiedDate.Before(earliest.ModifiedDate) {
			earliest = f
		}
	}
	if earliest.Features.DateContext != "" {
		return earliest.Features.DateContext
	}
	return earliest.ModifiedDate.UTC().Format("2006-01-02")
}
