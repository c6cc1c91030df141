package clustering

import (
	"reflect"
	"testing"
	"time"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fp builds a fingerprint the same way analyze does.
func fp(name string, size int64, modified time.Time) domain.AudioFingerprint {
	return NewExtractor(fixedClock).Extract(domain.NewFile("/ideas/"+name, size, modified))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "underscores and extension", input: "Blue_Moon_take1.mp3", want: []string{"blue", "moon", "take1"}},
		{name: "single date prefix", input: "20240301_Night Drive.wav", want: []string{"night", "drive"}},
		{name: "double date prefix", input: "20240301_20240302_Night-Drive (2).wav", want: []string{"night", "drive", "2"}},
		{name: "three date prefixes keeps the third", input: "20240301_20240302_20240303_x.wav", want: []string{"20240303", "x"}},
		{name: "drops token one", input: "Idea 1.m4a", want: []string{"idea"}},
		{name: "dots split", input: "riff.v2.final.flac", want: []string{"riff", "v2", "final"}},
		{name: "only a date yields no tokens", input: "20240301_.mp3", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q): got %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	modified := time.Date(2024, 2, 10, 23, 30, 0, 0, time.UTC)
	size := int64(16000 * 60)

	tests := []struct {
		name         string
		descriptor   domain.FileDescriptor
		wantDuration float64
		wantCategory domain.DurationCategory
		wantGroup    domain.FormatGroup
		wantFormat   string
		wantModified time.Time
		wantDate     string
	}{
		{
			name:         "complete descriptor",
			descriptor:   domain.NewFile("/ideas/Song.WAV", size, modified),
			wantDuration: 60,
			wantCategory: domain.DurationShort,
			wantGroup:    domain.FormatLossless,
			wantFormat:   "wav",
			wantModified: modified,
			wantDate:     "2024-02-10",
		},
		{
			name:         "missing size and time use defaults",
			descriptor:   domain.FileDescriptor{Kind: domain.KindFile, Path: "/ideas/memo.m4a", Name: "memo.m4a"},
			wantDuration: 0,
			wantCategory: domain.DurationSnippet,
			wantGroup:    domain.FormatCompressed,
			wantFormat:   "m4a",
			wantModified: fixedNow,
			wantDate:     "2024-03-01",
		},
		{
			name:         "unknown format",
			descriptor:   domain.NewFile("/ideas/notes.txt", 16000*400, modified),
			wantDuration: 400,
			wantCategory: domain.DurationLong,
			wantGroup:    domain.FormatOther,
			wantFormat:   "txt",
			wantModified: modified,
			wantDate:     "2024-02-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewExtractor(fixedClock).Extract(tt.descriptor)
			if got.Duration != tt.wantDuration {
				t.Errorf("duration: got %v, want %v", got.Duration, tt.wantDuration)
			}
			if got.Features.DurationCategory != tt.wantCategory {
				t.Errorf("category: got %v, want %v", got.Features.DurationCategory, tt.wantCategory)
			}
			if got.Features.FormatGroup != tt.wantGroup {
				t.Errorf("format group: got %v, want %v", got.Features.FormatGroup, tt.wantGroup)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("format: got %q, want %q", got.Format, tt.wantFormat)
			}
			if !got.ModifiedDate.Equal(tt.wantModified) {
				t.Errorf("modified: got %v, want %v", got.ModifiedDate, tt.wantModified)
			}
			if got.Features.DateContext != tt.wantDate {
				t.Errorf("date context: got %q, want %q", got.Features.DateContext, tt.wantDate)
			}
		})
	}
}

func TestCategorizeDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    domain.DurationCategory
	}{
		{0, domain.DurationSnippet},
		{29.9, domain.DurationSnippet},
		{30, domain.DurationShort},
		{119, domain.DurationShort},
		{120, domain.DurationMedium},
		{299, domain.DurationMedium},
		{300, domain.DurationLong},
	}
	for _, tt := range tests {
		if got := CategorizeDuration(tt.seconds); got != tt.want {
			t.Errorf("CategorizeDuration(%v): got %v, want %v", tt.seconds, got, tt.want)
		}
	}
}
