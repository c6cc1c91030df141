// Package naming derives destination folder names and per-file target names
// for an organized cluster.
package naming

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ewilliams-labs/takesort/internal/core/clustering"
	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

// TitleInput is everything a matcher may look at.
type TitleInput struct {
	NameHint  string
	Category  domain.Category
	FileNames []string
}

// TitleMatcher is one strategy for finding a song title.
type TitleMatcher interface {
	Name() string
	Match(in TitleInput) (string, bool)
}

// Chain tries matchers in order and returns the first title found.
type Chain []TitleMatcher

// DefaultChain prefers the cluster name hint, then filename word runs.
var DefaultChain = Chain{HintMatcher{}, FilenameRunMatcher{}}

// Extract returns the first non-empty title and the matcher that found it.
func (c Chain) Extract(in TitleInput) (title string, matcher string, ok bool) {
	for _, m := range c {
		if t, found := m.Match(in); found {
			return t, m.Name(), true
		}
	}
	return "", "", false
}

var (
	hintSuffixPattern = regexp.MustCompile(`(?i)\s*-\s*(takes|variations)\s*\(\d+\s+\w+\)\s*$`)
	countSuffix       = regexp.MustCompile(`\s*\(\d+\s+\w+\)\s*$`)
	genericHints      = []string{"recording session", "similar audio"}

	leadingDatePattern = regexp.MustCompile(`^(\d{8}|\d{4}-\d{2}-\d{2})([_\- ]+|$)`)
	leadingTimePattern = regexp.MustCompile(`^(\d{6}|\d{4}|\d{2}[:.\-]\d{2}([:.\-]\d{2})?)([_\- ]+|$)`)
	numericWord        = regexp.MustCompile(`^\d+$`)
)

// HintMatcher takes the title from the cluster name produced by analyze.
// Generic session names and hints for time-based categories carry no title.
type HintMatcher struct{}

func (HintMatcher) Name() string { return "hint" }

func (HintMatcher) Match(in TitleInput) (string, bool) {
	switch in.Category {
	case domain.CategorySameSession, domain.CategoryUnrelated:
		return "", false
	}

	hint := strings.TrimSpace(in.NameHint)
	lower := strings.ToLower(hint)
	for _, g := range genericHints {
		if strings.HasPrefix(lower, g) {
			return "", false
		}
	}

	hint = hintSuffixPattern.ReplaceAllString(hint, "")
	hint = countSuffix.ReplaceAllString(hint, "")

	var words []string
	for _, w := range splitWords(hint) {
		if numericWord.MatchString(w) {
			continue
		}
		words = append(words, w)
	}
	title := strings.Join(words, " ")
	if len([]rune(title)) < 3 {
		return "", false
	}
	return title, true
}

// FilenameRunMatcher looks for runs of capitalized words in cleaned
// filenames. Numbers and take markers break a run; runs shorter than three
// characters are ignored. The run found in the most files wins; ties go to the first seen.
type FilenameRunMatcher struct{}

func (FilenameRunMatcher) Name() string { return "filename" }

func (FilenameRunMatcher) Match(in TitleInput) (string, bool) {
	counts := make(map[string]int)
	var order []string

	for _, name := range in.FileNames {
		seen := make(map[string]struct{})
		for _, run := range CapitalizedRuns(CleanFileName(name)) {
			if _, dup := seen[run]; dup {
				continue
			}
			seen[run] = struct{}{}
			if _, ok := counts[run]; !ok {
				order = append(order, run)
			}
			counts[run]++
		}
	}

	best, bestCount := "", 0
	for _, run := range order {
		if counts[run] > bestCount {
			best, bestCount = run, counts[run]
		}
	}
	return best, bestCount > 0
}

// CleanFileName drops the extension and any leading date or time stamps.
func CleanFileName(name string) string {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	for {
		next := leadingDatePattern.ReplaceAllString(stem, "")
		next = leadingTimePattern.ReplaceAllString(next, "")
		if next == stem {
			return strings.TrimSpace(stem)
		}
		stem = next
	}
}

// CapitalizedRuns returns maximal runs of capitalized words in text whose
// joined length is at least three characters.
func CapitalizedRuns(text string) []string {
	var runs []string
	var current []string
	flush := func() {
		if run := strings.Join(current, " "); utf8.RuneCountInString(run) >= 3 {
			runs = append(runs, run)
		}
		current = nil
	}

	for _, w := range splitWords(text) {
		if isTitleWord(w) {
			current = append(current, w)
			continue
		}
		flush()
	}
	flush()
	return runs
}

func isTitleWord(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	if !unicode.IsUpper(r) {
		return false
	}
	if numericWord.MatchString(w) || clustering.IsTakeToken(strings.ToLower(w)) {
		return false
	}
	return true
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
