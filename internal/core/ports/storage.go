package ports

import (
	"context"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

// StorageBackend is the remote file hierarchy the core reads from and organizes.
// Paths are slash-separated and absolute within the backend ("/ideas/take1.wav").
type StorageBackend interface {
	// ListFiles returns the direct children of folderPath.
	ListFiles(ctx context.Context, folderPath string) ([]domain.FileDescriptor, error)
	// GetFileMetadata describes a single entry. Missing entries return domain.ErrNotFound.
	GetFileMetadata(ctx context.Context, path string) (domain.FileDescriptor, error)
	// CreateFolder creates path. It returns domain.ErrAlreadyExists when the path is taken.
	CreateFolder(ctx context.Context, path string) error
	// MoveFile moves (and possibly renames) fromPath to toPath.
	MoveFile(ctx context.Context, fromPath, toPath string) error
}
