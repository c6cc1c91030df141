package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// EntryKind discriminates the entries returned by a storage listing.
type EntryKind int

const (
	// KindFile is a regular file.
	KindFile EntryKind = iota + 1
	// KindFolder is a directory-like container.
	KindFolder
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its tag name.
func (k EntryKind) MarshalText() ([]byte, error) {
	switch k {
	case KindFile, KindFolder:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("domain: unknown entry kind %d", int(k))
	}
}

// UnmarshalText decodes a tag name into a kind.
func (k *EntryKind) UnmarshalText(text []byte) error {
	kind, err := ParseEntryKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseEntryKind maps a tag such as "file" or "folder" to an EntryKind.
func ParseEntryKind(tag string) (EntryKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "file":
		return KindFile, nil
	case "folder", "directory", "dir":
		return KindFolder, nil
	default:
		return 0, fmt.Errorf("domain: unknown entry kind %q", tag)
	}
}

// FileDescriptor describes one entry of a storage backend listing.
// Size and Modified are optional: not every backend reports them in listings.
type FileDescriptor struct {
	Kind     EntryKind  `json:"tag"`
	Path     string     `json:"path"`
	Name     string     `json:"name"`
	Size     *int64     `json:"size,omitempty"`
	Modified *time.Time `json:"modifiedTimestamp,omitempty"`
}

// NewFile builds a file descriptor with both optional fields populated.
func NewFile(p string, size int64, modified time.Time) FileDescriptor {
	return FileDescriptor{
		Kind:     KindFile,
		Path:     p,
		Name:     path.Base(p),
		Size:     &size,
		Modified: &modified,
	}
}

// NewFolder builds a folder descriptor.
func NewFolder(p string) FileDescriptor {
	return FileDescriptor{Kind: KindFolder, Path: p, Name: path.Base(p)}
}

// Complete reports whether both size and modification time are known.
func (d FileDescriptor) Complete() bool {
	return d.Size != nil && d.Modified != nil
}

// Extension returns the lowercase extension of the entry name without the dot.
func (d FileDescriptor) Extension() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(d.Name)), ".")
}
