package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

var recorded = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

type cliTestEnv struct {
	root       string
	configPath string
	dbPath     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "TAKESORT_") {
			t.Setenv(key, "")
		}
	}

	base := t.TempDir()
	env := &cliTestEnv{
		root:       filepath.Join(base, "audio"),
		configPath: filepath.Join(base, "takesort.yaml"),
		dbPath:     filepath.Join(base, "catalog.db"),
	}
	writeAudio(t, env.root, "ideas/Blue_Moon_take1.mp3", 1_600_000, recorded)
	writeAudio(t, env.root, "ideas/Blue_Moon_take2.mp3", 1_600_000, recorded.Add(10*time.Minute))
	writeAudio(t, env.root, "ideas/lyrics.txt", 200, recorded)

	body := "storage:\n" +
		"  driver: local\n" +
		"  local:\n" +
		"    root: " + env.root + "\n" +
		"  sqlite:\n" +
		"    path: " + env.dbPath + "\n" +
		"analysis:\n" +
		"  workers: 2\n"
	if err := os.WriteFile(env.configPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeAudio(t *testing.T, root, rel string, size int64, modified time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create %s: %v", rel, err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", rel, err)
	}
	f.Close()
	if err := os.Chtimes(p, modified, modified); err != nil {
		t.Fatalf("chtimes %s: %v", rel, err)
	}
}

func runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestAnalyzeTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"analyze", "/ideas", "--config", env.configPath}, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Cluster 1: Blue Moon")
	requireContains(t, out, "/ideas/Blue_Moon_take1.mp3")
	requireContains(t, out, "1.6 MB")
	if strings.Contains(out, "lyrics.txt") {
		t.Fatalf("non-audio file should not be listed:\n%s", out)
	}
}

func TestAnalyzeThenOrganize(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"analyze", "/ideas", "--json", "-c", env.configPath}, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var analysis domain.AnalysisResult
	if err := json.Unmarshal([]byte(out), &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if len(analysis.Clusters) != 1 || analysis.Clusters[0].Size() != 2 {
		t.Fatalf("expected one cluster of two, got %+v", analysis.Clusters)
	}

	// Preview from stdin.
	out, _, err = runCLI(t, []string{"organize", "--dry-run", "-c", env.configPath}, string(mustJSON(t, analysis)))
	if err != nil {
		t.Fatalf("organize --dry-run: %v", err)
	}
	requireContains(t, out, "/ideas/20240301_Blue_Moon (planned)")
	requireContains(t, out, "planned")
	if _, err := os.Stat(filepath.Join(env.root, "ideas", "Blue_Moon_take1.mp3")); err != nil {
		t.Fatalf("dry run moved a file: %v", err)
	}

	input := filepath.Join(t.TempDir(), "analysis.json")
	if err := os.WriteFile(input, mustJSON(t, analysis), 0o600); err != nil {
		t.Fatalf("write analysis: %v", err)
	}
	out, _, err = runCLI(t, []string{"organize", "--input", input, "--cluster", analysis.Clusters[0].ID, "-c", env.configPath}, "")
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "(created)")
	requireContains(t, out, "Moved 2, failed 0")
	for _, name := range []string{"Blue_Moon_take1.mp3", "Blue_Moon_take2.mp3"} {
		if _, err := os.Stat(filepath.Join(env.root, "ideas", "20240301_Blue_Moon", name)); err != nil {
			t.Fatalf("expected %s in new folder: %v", name, err)
		}
	}
}

func TestCatalogImportThenAnalyze(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"catalog", "import", env.root, "-c", env.configPath}, "")
	if err != nil {
		t.Fatalf("catalog import: %v", err)
	}
	requireContains(t, out, "Imported 3 files")

	out, _, err = runCLI(t, []string{"analyze", "/ideas", "--driver", "sqlite", "-c", env.configPath}, "")
	if err != nil {
		t.Fatalf("analyze from catalog: %v", err)
	}
	requireContains(t, out, "Cluster 1: Blue Moon")
}

func TestCommandErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantErr string
	}{
		{name: "analyze without target", args: []string{"analyze"}, wantErr: "a folder or at least one --file"},
		{name: "unknown driver", args: []string{"analyze", "/ideas", "--driver", "s3"}, wantErr: "unknown storage driver"},
		{name: "missing folder", args: []string{"analyze", "/nowhere"}, wantErr: "not found"},
		{name: "organize bad json", args: []string{"organize"}, stdin: "{", wantErr: "read analysis"},
		{name: "organize empty analysis", args: []string{"organize"}, stdin: `{"clusters":[]}`, wantErr: "no clusters"},
		{name: "organize unknown cluster", args: []string{"organize", "--cluster", "nope"}, stdin: `{"clusters":[{"id":"c1","files":[{"filePath":"/ideas/a.mp3"}]}]}`, wantErr: `unknown cluster "nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "-c", env.configPath)
			_, _, err := runCLI(t, args, tt.stdin)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSelectClusters(t *testing.T) {
	clusters := []domain.AudioCluster{{ID: "a"}, {ID: "b"}}

	tests := []struct {
		name     string
		clusters []domain.AudioCluster
		ids      []string
		all      bool
		want     []string
		wantErr  string
	}{
		{name: "lone cluster implicit", clusters: clusters[:1], want: []string{"a"}},
		{name: "several need a choice", clusters: clusters, wantErr: "choose with --cluster or --all (a, b)"},
		{name: "all", clusters: clusters, all: true, want: []string{"a", "b"}},
		{name: "by id keeps flag order", clusters: clusters, ids: []string{"b", " a"}, want: []string{"b", "a"}},
		{name: "none", wantErr: "no clusters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectClusters(tt.clusters, tt.ids, tt.all)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, got)
			}
			for i, c := range got {
				if c.ID != tt.want[i] {
					t.Fatalf("position %d: expected %s, got %s", i, tt.want[i], c.ID)
				}
			}
		})
	}
}

func TestFormatters(t *testing.T) {
	if got := formatSeconds(85.4); got != "1m25s" {
		t.Fatalf("formatSeconds: got %q", got)
	}
	if got := formatSeconds(0); got != "-" {
		t.Fatalf("formatSeconds(0): got %q", got)
	}
	if got := formatBytes(1_600_000); got != "1.6 MB" {
		t.Fatalf("formatBytes: got %q", got)
	}
	if got := formatPercent(0.854); got != "85%" {
		t.Fatalf("formatPercent: got %q", got)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
