package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestNewCluster(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		files     []AudioFingerprint
		wantErr   error
		wantOrder []string
		wantAvg   float64
	}{
		{
			name:    "rejects empty cluster",
			files:   nil,
			wantErr: ErrClusterTooSmall,
		},
		{
			name:    "rejects singleton",
			files:   []AudioFingerprint{{FilePath: "/a.wav", ModifiedDate: base}},
			wantErr: ErrClusterTooSmall,
		},
		{
			name: "orders members by modified date",
			files: []AudioFingerprint{
				{FilePath: "/late.wav", ModifiedDate: base.Add(time.Hour), Duration: 30},
				{FilePath: "/early.wav", ModifiedDate: base, Duration: 10},
				{FilePath: "/mid.wav", ModifiedDate: base.Add(time.Minute), Duration: 20},
			},
			wantOrder: []string{"/early.wav", "/mid.wav", "/late.wav"},
			wantAvg:   20,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCluster("c-1", tc.files)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := c.Paths()
			if fmt.Sprint(got) != fmt.Sprint(tc.wantOrder) {
				t.Fatalf("order: got %v, want %v", got, tc.wantOrder)
			}
			if math.Abs(c.AverageDuration-tc.wantAvg) > 1e-9 {
				t.Fatalf("average duration: got %v, want %v", c.AverageDuration, tc.wantAvg)
			}
		})
	}
}

func TestNewCluster_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	files := []AudioFingerprint{
		{FilePath: "/b.wav", ModifiedDate: base.Add(time.Hour)},
		{FilePath: "/a.wav", ModifiedDate: base},
	}
	if _, err := NewCluster("c-1", files); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files[0].FilePath != "/b.wav" {
		t.Fatalf("input slice was reordered: %v", files)
	}
}

func TestAudioCluster_Score(t *testing.T) {
	c := AudioCluster{Confidence: 0.6, Files: make([]AudioFingerprint, 3)}
	if got := c.Score(); math.Abs(got-1.8) > 1e-9 {
		t.Fatalf("score: got %v, want 1.8", got)
	}
}

func TestEntryKind_JSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    EntryKind
		wantErr bool
	}{
		{name: "file", input: `{"tag":"file","path":"/a.mp3","name":"a.mp3"}`, want: KindFile},
		{name: "folder", input: `{"tag":"folder","path":"/x","name":"x"}`, want: KindFolder},
		{name: "unknown tag", input: `{"tag":"symlink","path":"/x","name":"x"}`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var d FileDescriptor
			err := json.Unmarshal([]byte(tc.input), &d)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tc.wantErr {
				return
			}
			if d.Kind != tc.want {
				t.Fatalf("kind: got %v, want %v", d.Kind, tc.want)
			}
		})
	}
}

func TestFileDescriptor_Extension(t *testing.T) {
	d := NewFile("/ideas/Blue_Moon.WAV", 10, time.Now())
	if got := d.Extension(); got != "wav" {
		t.Fatalf("extension: got %q, want wav", got)
	}
	if !d.Complete() {
		t.Fatalf("expected descriptor to be complete")
	}
	if NewFolder("/ideas").Complete() {
		t.Fatalf("folder descriptor should not be complete")
	}
}

func TestErrors_Is(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "validation", err: ValidationError{Field: "files", Message: "required"}, target: ErrValidation},
		{name: "extraction", err: ExtractionError{Path: "/a", Err: cause}, target: ErrExtraction},
		{name: "extraction unwraps", err: ExtractionError{Path: "/a", Err: cause}, target: cause},
		{name: "organize", err: OrganizeError{Path: "/a", Err: ErrAlreadyExists}, target: ErrAlreadyExists},
		{name: "folder creation", err: fmt.Errorf("service: %w", FolderCreationError{Path: "/x", Err: cause}), target: ErrFolderCreation},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.target) {
				t.Fatalf("expected %v to match %v", tc.err, tc.target)
			}
		})
	}
}
