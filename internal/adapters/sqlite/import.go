package sqlite

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/ports"
)

// Import copies the file tree under root from src into the catalog, keeping
// paths relative to root. It returns the number of files recorded.
func (a *Adapter) Import(ctx context.Context, src ports.StorageBackend, root string) (int, error) {
	root, err := cleanPath(root)
	if err != nil {
		return 0, err
	}

	count := 0
	pending := []string{root}
	for len(pending) > 0 {
		folder := pending[0]
		pending = pending[1:]

		entries, err := src.ListFiles(ctx, folder)
		if err != nil {
			return count, fmt.Errorf("sqlite import: list %s: %w", folder, err)
		}
		for _, e := range entries {
			switch e.Kind {
			case domain.KindFolder:
				pending = append(pending, e.Path)
			case domain.KindFile:
				e.Path = path.Join("/", strings.TrimPrefix(e.Path, root))
				if err := a.PutFile(ctx, e); err != nil {
					return count, fmt.Errorf("sqlite import: %w", err)
				}
				count++
			}
		}
	}
	return count, nil
}
