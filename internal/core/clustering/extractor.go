// Package clustering groups audio fingerprints that likely belong to the same
// song, session or idea. Everything here is a pure function of its inputs:
// fingerprints are derived from filename, size and modification time only.
package clustering

import (
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

// BytesPerSecond is the fixed bitrate used to estimate durations from file size.
// It is bitrate-agnostic and known to overestimate lossless files.
const BytesPerSecond = 16000

var datePrefixPattern = regexp.MustCompile(`^(\d{8}_){1,2}`)

var formatGroups = map[string]domain.FormatGroup{
	"wav":  domain.FormatLossless,
	"flac": domain.FormatLossless,
	"aiff": domain.FormatLossless,
	"aif":  domain.FormatLossless,
	"mp3":  domain.FormatCompressed,
	"aac":  domain.FormatCompressed,
	"m4a":  domain.FormatCompressed,
	"ogg":  domain.FormatCompressed,
}

// Extractor turns file descriptors into fingerprints.
type Extractor struct {
	now func() time.Time
}

// NewExtractor returns an Extractor. now supplies the substitute modification
// time for descriptors that lack one; nil uses time.Now.
func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// Extract derives a fingerprint. It never fails: missing size becomes 0 and a
// missing modification time becomes the current time.
func (e *Extractor) Extract(d domain.FileDescriptor) domain.AudioFingerprint {
	name := d.Name
	if name == "" {
		name = path.Base(d.Path)
	}

	var size int64
	if d.Size != nil && *d.Size > 0 {
		size = *d.Size
	}

	modified := e.now()
	if d.Modified != nil && !d.Modified.IsZero() {
		modified = *d.Modified
	}

	format := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	duration := float64(size) / BytesPerSecond

	return domain.AudioFingerprint{
		FilePath:     d.Path,
		FileName:     name,
		Duration:     duration,
		FileSize:     size,
		ModifiedDate: modified,
		Format:       format,
		Features: domain.Features{
			DurationCategory: CategorizeDuration(duration),
			FormatGroup:      GroupFormat(format),
			FilenameTokens:   Tokenize(name),
			DateContext:      modified.UTC().Format("2006-01-02"),
		},
	}
}

// ExtractAll fingerprints every descriptor in order.
func (e *Extractor) ExtractAll(descriptors []domain.FileDescriptor) []domain.AudioFingerprint {
	out := make([]domain.AudioFingerprint, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, e.Extract(d))
	}
	return out
}

// Tokenize splits a filename into lowercase tokens. The extension and up to
// two leading YYYYMMDD_ prefixes are removed first; the token "1" is dropped.
func Tokenize(fileName string) []string {
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))
	stem = datePrefixPattern.ReplaceAllString(stem, "")

	fields := strings.FieldsFunc(stem, func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case '-', '_', '.', '(', ')':
			return true
		}
		return false
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		token := strings.ToLower(f)
		if token == "" || token == "1" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// CategorizeDuration buckets an estimated duration in seconds.
func CategorizeDuration(seconds float64) domain.DurationCategory {
	switch {
	case seconds < 30:
		return domain.DurationSnippet
	case seconds < 120:
		return domain.DurationShort
	case seconds < 300:
		return domain.DurationMedium
	default:
		return domain.DurationLong
	}
}

// GroupFormat maps a lowercase extension to its format group.
func GroupFormat(format string) domain.FormatGroup {
	if g, ok := formatGroups[strings.ToLower(format)]; ok {
		return g
	}
	return domain.FormatOther
}
