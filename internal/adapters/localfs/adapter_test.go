package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

func newTestAdapter(t *testing.T, files map[string]string) *Adapter {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	a, err := NewAdapter(root)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func TestNewAdapter_RejectsMissingRoot(t *testing.T) {
	if _, err := NewAdapter(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing root")
	}
	if _, err := NewAdapter(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestAdapter_ListFiles(t *testing.T) {
	a := newTestAdapter(t, map[string]string{
		"ideas/b.wav":      "bb",
		"ideas/a.mp3":      "a",
		"ideas/.DS_Store":  "x",
		"ideas/old/c.wav":  "ccc",
		"elsewhere/d.flac": "d",
	})

	got, err := a.ListFiles(context.Background(), "/ideas")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []struct {
		name string
		kind domain.EntryKind
	}{
		{"a.mp3", domain.KindFile},
		{"b.wav", domain.KindFile},
		{"old", domain.KindFolder},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Kind != w.kind {
			t.Fatalf("entry %d: got %s (%v)", i, got[i].Name, got[i].Kind)
		}
	}
	if got[1].Path != "/ideas/b.wav" || *got[1].Size != 2 || !got[1].Complete() {
		t.Fatalf("unexpected descriptor %+v", got[1])
	}

	if _, err := a.ListFiles(context.Background(), "/nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdapter_PathsStayUnderRoot(t *testing.T) {
	a := newTestAdapter(t, map[string]string{"ideas/a.mp3": "a"})
	got, err := a.GetFileMetadata(context.Background(), "../../ideas/a.mp3")
	if err != nil {
		t.Fatalf("GetFileMetadata: %v", err)
	}
	if got.Path != "/ideas/a.mp3" {
		t.Fatalf("unexpected path %s", got.Path)
	}
}

func TestAdapter_CreateAndMove(t *testing.T) {
	a := newTestAdapter(t, map[string]string{
		"ideas/379ch_0001.wav": "take",
		"ideas/taken.wav":      "other",
	})
	ctx := context.Background()

	if err := a.CreateFolder(ctx, "/ideas/20240301_01"); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if err := a.CreateFolder(ctx, "/ideas/20240301_01"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "target taken", from: "/ideas/379ch_0001.wav", to: "/ideas/taken.wav", wantErr: domain.ErrAlreadyExists},
		{name: "missing source", from: "/ideas/none.wav", to: "/ideas/20240301_01/none.wav", wantErr: domain.ErrNotFound},
		{name: "rename into folder", from: "/ideas/379ch_0001.wav", to: "/ideas/20240301_01/20240301_01.wav"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.MoveFile(ctx, tt.from, tt.to)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MoveFile: %v", err)
			}
			body, err := os.ReadFile(filepath.Join(a.Root(), "ideas", "20240301_01", "20240301_01.wav"))
			if err != nil || string(body) != "take" {
				t.Fatalf("moved file unreadable: %q, %v", body, err)
			}
		})
	}
}
