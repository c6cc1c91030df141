// Package localfs implements the storage port on a directory of the local disk.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

// Adapter serves slash-separated backend paths from a root directory.
type Adapter struct {
	root string
}

// NewAdapter validates that root is an existing directory.
func NewAdapter(root string) (*Adapter, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("localfs adapter: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("localfs adapter: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("localfs adapter: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localfs adapter: %s is not a directory", abs)
	}
	return &Adapter{root: abs}, nil
}

// Root returns the absolute directory backing "/".
func (a *Adapter) Root() string {
	return a.root
}

func (a *Adapter) ListFiles(ctx context.Context, folderPath string) ([]domain.FileDescriptor, error) {
	folder := cleanPath(folderPath)
	entries, err := os.ReadDir(a.local(folder))
	if err != nil {
		return nil, mapErr(folder, err)
	}

	out := make([]domain.FileDescriptor, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, describe(path.Join(folder, e.Name()), info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Adapter) GetFileMetadata(ctx context.Context, p string) (domain.FileDescriptor, error) {
	clean := cleanPath(p)
	info, err := os.Stat(a.local(clean))
	if err != nil {
		return domain.FileDescriptor{}, mapErr(clean, err)
	}
	return describe(clean, info), nil
}

func (a *Adapter) CreateFolder(ctx context.Context, p string) error {
	clean := cleanPath(p)
	target := a.local(clean)
	if _, err := os.Lstat(target); err == nil {
		return domain.ErrAlreadyExists
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("localfs adapter: create %s: %w", clean, err)
	}
	return nil
}

// MoveFile renames within the root. Unlike os.Rename it refuses to replace
// an existing target.
func (a *Adapter) MoveFile(ctx context.Context, fromPath, toPath string) error {
	from, to := cleanPath(fromPath), cleanPath(toPath)
	if _, err := os.Lstat(a.local(from)); err != nil {
		return mapErr(from, err)
	}
	if _, err := os.Lstat(a.local(to)); err == nil {
		return fmt.Errorf("localfs adapter: target %s: %w", to, domain.ErrAlreadyExists)
	}
	if err := os.Rename(a.local(from), a.local(to)); err != nil {
		return mapErr(from, err)
	}
	return nil
}

func (a *Adapter) local(p string) string {
	return filepath.Join(a.root, filepath.FromSlash(p))
}

func describe(p string, info fs.FileInfo) domain.FileDescriptor {
	if info.IsDir() {
		return domain.NewFolder(p)
	}
	return domain.NewFile(p, info.Size(), info.ModTime().UTC())
}

// cleanPath anchors p at the root so ".." cannot escape it.
func cleanPath(p string) string {
	return path.Clean("/" + strings.TrimSpace(filepath.ToSlash(p)))
}

func mapErr(p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localfs adapter: %s: %w", p, domain.ErrNotFound)
	}
	return fmt.Errorf("localfs adapter: %s: %w", p, err)
}
