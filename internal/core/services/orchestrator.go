package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/ewilliams-labs/takesort/internal/core/clustering"
	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/naming"
	"github.com/ewilliams-labs/takesort/internal/core/ports"
	"github.com/ewilliams-labs/takesort/internal/worker"
)

// DefaultExtensions are the audio formats considered by Analyze.
var DefaultExtensions = []string{"mp3", "wav", "m4a", "aac", "flac", "ogg", "aiff", "aif"}

// Options configures an Orchestrator.
type Options struct {
	// Extensions limits analysis to these file extensions (no dot, any case).
	Extensions []string
	// Now substitutes the clock; nil means time.Now.
	Now func() time.Time
}

// Orchestrator coordinates storage access, clustering and organizing.
type Orchestrator struct {
	storage    ports.StorageBackend
	pool       *worker.Pool
	logger     *log.Logger
	extractor  *clustering.Extractor
	engine     *clustering.Engine
	extensions map[string]struct{}
	now        func() time.Time
}

// NewOrchestrator constructs an Orchestrator. A nil pool gets one with the
// default worker count.
func NewOrchestrator(storage ports.StorageBackend, pool *worker.Pool, logger *log.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if pool == nil {
		pool = worker.NewPool(storage, worker.DefaultWorkers, logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")] = struct{}{}
	}

	return &Orchestrator{
		storage:    storage,
		pool:       pool,
		logger:     logger,
		extractor:  clustering.NewExtractor(now),
		engine:     clustering.NewEngine(),
		extensions: allowed,
		now:        now,
	}
}

// AnalyzeRequest names either a folder to list or explicit file paths.
// Files wins when both are set.
type AnalyzeRequest struct {
	FolderPath string   `json:"folderPath,omitempty"`
	Files      []string `json:"files,omitempty"`
}

// InsufficientFilesMessage explains an empty analysis.
const InsufficientFilesMessage = "at least two audio files are needed to find similar recordings"

// Analyze fingerprints the requested audio files and groups similar ones.
// Fewer than two audio candidates is not an error: the result is empty and
// carries a message. Per-file metadata failures are collected in Errors;
// the call fails only when fewer than two files could be fingerprinted.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) (domain.AnalysisResult, error) {
	folder := strings.TrimSpace(req.FolderPath)
	if folder == "" && len(req.Files) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("service: %w", domain.ValidationError{
			Field:   "folderPath",
			Message: "a folder path or a list of files is required",
		})
	}

	// slots keeps listing (or request) order; pending indexes the slots
	// that still need GetFileMetadata.
	var (
		slots   []domain.FileDescriptor
		pending []string
		index   []int
	)
	if len(req.Files) > 0 {
		for _, p := range req.Files {
			if p = strings.TrimSpace(p); p != "" && o.isAudio(path.Base(p)) {
				index = append(index, len(slots))
				pending = append(pending, p)
				slots = append(slots, domain.FileDescriptor{Path: p})
			}
		}
	} else {
		entries, err := o.storage.ListFiles(ctx, folder)
		if err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("service: failed to list folder: %w", err)
		}
		for _, d := range o.audioFiles(entries) {
			if !d.Complete() {
				index = append(index, len(slots))
				pending = append(pending, d.Path)
			}
			slots = append(slots, d)
		}
	}

	total := len(slots)
	if total < 2 {
		return domain.AnalysisResult{
			Fingerprints: []domain.AudioFingerprint{},
			Clusters:     []domain.AudioCluster{},
			Statistics:   domain.Statistics{TotalFiles: total},
			Message:      InsufficientFilesMessage,
		}, nil
	}

	var failures []error
	failed := make(map[int]bool)
	for i, r := range o.pool.FetchMetadata(ctx, pending) {
		slot := index[i]
		if r.Err != nil {
			failures = append(failures, domain.ExtractionError{Path: r.Path, Err: r.Err})
			failed[slot] = true
			continue
		}
		switch r.File.Kind {
		case domain.KindFile:
			slots[slot] = r.File
		case domain.KindFolder:
			failures = append(failures, domain.ExtractionError{Path: r.Path, Err: errors.New("not a file")})
			failed[slot] = true
		default:
			failures = append(failures, domain.ExtractionError{Path: r.Path, Err: fmt.Errorf("unexpected entry kind %v", r.File.Kind)})
			failed[slot] = true
		}
	}

	candidates := make([]domain.FileDescriptor, 0, total)
	for i, d := range slots {
		if !failed[i] {
			candidates = append(candidates, d)
		}
	}

	if len(candidates) < 2 {
		return domain.AnalysisResult{}, fmt.Errorf("service: %w (%d of %d): %w",
			domain.ErrInsufficientFingerprints, len(candidates), total, errors.Join(failures...))
	}

	fingerprints := o.extractor.ExtractAll(candidates)
	run := o.engine.Run(fingerprints, clustering.Options{AutoThreshold: true})
	clusters := run.Clusters
	if clusters == nil {
		clusters = []domain.AudioCluster{}
	}

	result := domain.AnalysisResult{
		Fingerprints: fingerprints,
		Clusters:     clusters,
		Threshold:    run.Threshold,
		Statistics: domain.Statistics{
			TotalFiles:    total,
			AnalyzedFiles: len(fingerprints),
			ClustersFound: len(clusters),
		},
	}
	for _, f := range failures {
		var ee domain.ExtractionError
		if errors.As(f, &ee) {
			result.Errors = append(result.Errors, domain.NewFileError(ee.Path, f))
		}
	}
	return result, nil
}

// audioFiles keeps listed files with an accepted extension.
func (o *Orchestrator) audioFiles(entries []domain.FileDescriptor) []domain.FileDescriptor {
	var files []domain.FileDescriptor
	for _, d := range entries {
		switch d.Kind {
		case domain.KindFile:
			if o.isAudio(d.Name) {
				files = append(files, d)
			}
		case domain.KindFolder:
		default:
			o.logger.Printf("WARN service: skipping %s with unknown entry kind %v", d.Path, d.Kind)
		}
	}
	return files
}

func (o *Orchestrator) isAudio(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	_, ok := o.extensions[ext]
	return ext != "" && ok
}

// OrganizeRequest moves a reviewed cluster into its own folder.
type OrganizeRequest struct {
	ClusterID       string
	Files           []domain.AudioFingerprint
	NameHint        string
	CategoryHint    domain.Category
	ConfidenceHint  float64
	DestinationPath string
	DryRun          bool
}

// OrganizeCluster creates a dated folder for the cluster and moves its files
// there, renaming recorder-generated names. Move failures are reported per
// file; only a failure to create the folder aborts the call. With DryRun
// nothing in storage changes.
func (o *Orchestrator) OrganizeCluster(ctx context.Context, req OrganizeRequest) (domain.OrganizeResult, error) {
	if len(req.Files) == 0 {
		return domain.OrganizeResult{}, fmt.Errorf("service: %w", domain.ValidationError{
			Field:   "files",
			Message: "at least one file is required",
		})
	}
	for _, f := range req.Files {
		if strings.TrimSpace(f.FilePath) == "" {
			return domain.OrganizeResult{}, fmt.Errorf("service: %w", domain.ValidationError{
				Field:   "files",
				Message: "every file needs a path",
			})
		}
	}

	dest := strings.TrimSpace(req.DestinationPath)
	if dest == "" {
		dest = path.Dir(req.Files[0].FilePath)
	}

	fileNames := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		name := f.FileName
		if name == "" {
			name = path.Base(f.FilePath)
		}
		fileNames = append(fileNames, name)
	}
	title, matcher, _ := naming.DefaultChain.Extract(naming.TitleInput{
		NameHint:  req.NameHint,
		Category:  req.CategoryHint,
		FileNames: fileNames,
	})

	date := naming.ClusterDate(req.Files, o.now()).UTC()
	folderName, titled := naming.FolderName(date, title, o.existingFolders(ctx, dest))
	folderPath := path.Join(dest, folderName)
	if titled {
		o.logger.Printf("INFO service: cluster %s titled %q by %s matcher", req.ClusterID, title, matcher)
	}

	result := domain.OrganizeResult{
		ClusterID:  req.ClusterID,
		FolderPath: folderPath,
		TitleFound: titled,
		Category:   req.CategoryHint,
		Confidence: req.ConfidenceHint,
		DryRun:     req.DryRun,
	}

	if !req.DryRun {
		err := o.storage.CreateFolder(ctx, folderPath)
		switch {
		case err == nil:
			result.FolderCreated = true
		case errors.Is(err, domain.ErrAlreadyExists):
			o.logger.Printf("INFO service: folder %s already exists, reusing it", folderPath)
		default:
			return domain.OrganizeResult{}, fmt.Errorf("service: %w", domain.FolderCreationError{Path: folderPath, Err: err})
		}
	}

	moves := naming.PlanMoves(req.Files, folderPath, date.Format(naming.DateLayout))
	result.Results = make([]domain.FileOutcome, 0, len(moves))
	for _, m := range moves {
		outcome := domain.FileOutcome{SourcePath: m.Source, TargetPath: m.Target, Renamed: m.Renamed}
		switch {
		case req.DryRun:
			outcome.Status = domain.MovePlanned
		case ctx.Err() != nil:
			outcome.Status = domain.MoveError
			outcome.Error = domain.NewFileError(m.Source, domain.OrganizeError{Path: m.Source, Err: ctx.Err()}).Message
			result.Summary.Failed++
		default:
			if err := o.storage.MoveFile(ctx, m.Source, m.Target); err != nil {
				o.logger.Printf("WARN service: move %s -> %s failed: %v", m.Source, m.Target, err)
				outcome.Status = domain.MoveError
				outcome.Error = domain.NewFileError(m.Source, domain.OrganizeError{Path: m.Source, Err: err}).Message
				result.Summary.Failed++
			} else {
				outcome.Status = domain.MoveSuccess
				result.Summary.Moved++
			}
		}
		result.Results = append(result.Results, outcome)
	}
	return result, nil
}

// existingFolders lists folder names at dest. A failed listing only weakens
// fallback collision avoidance, so it is logged rather than returned.
func (o *Orchestrator) existingFolders(ctx context.Context, dest string) []string {
	entries, err := o.storage.ListFiles(ctx, dest)
	if err != nil {
		o.logger.Printf("WARN service: could not list %s for existing folders: %v", dest, err)
		return nil
	}
	var names []string
	for _, e := range entries {
		switch e.Kind {
		case domain.KindFolder:
			names = append(names, e.Name)
		case domain.KindFile:
		default:
			o.logger.Printf("WARN service: skipping %s with unknown entry kind %v", e.Path, e.Kind)
		}
	}
	return names
}
