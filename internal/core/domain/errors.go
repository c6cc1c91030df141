package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a storage entry does not exist.
	ErrNotFound = errors.New("domain: not found")
	// ErrAlreadyExists indicates a storage entry is already present at the target path.
	ErrAlreadyExists = errors.New("domain: already exists")

	ErrValidation               = errors.New("validation failed")
	ErrExtraction               = errors.New("extraction failed")
	ErrOrganize                 = errors.New("organize failed")
	ErrFolderCreation           = errors.New("folder creation failed")
	ErrInsufficientFingerprints = errors.New("fewer than two files could be analyzed")
)

// ValidationError rejects a request before any work begins.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ExtractionError records a metadata failure for a single file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

func (e ExtractionError) Unwrap() error {
	return e.Err
}

// OrganizeError records a move failure for a single file.
type OrganizeError struct {
	Path string
	Err  error
}

func (e OrganizeError) Error() string {
	return fmt.Sprintf("move %s: %v", e.Path, e.Err)
}

func (e OrganizeError) Is(target error) bool {
	return target == ErrOrganize
}

func (e OrganizeError) Unwrap() error {
	return e.Err
}

// FolderCreationError is fatal for an organize call.
type FolderCreationError struct {
	Path string
	Err  error
}

func (e FolderCreationError) Error() string {
	return fmt.Sprintf("create folder %s: %v", e.Path, e.Err)
}

func (e FolderCreationError) Is(target error) bool {
	return target == ErrFolderCreation
}

func (e FolderCreationError) Unwrap() error {
	return e.Err
}

// FileError is the serializable form of a per-file failure.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NewFileError flattens a per-file error for API responses.
func NewFileError(path string, err error) FileError {
	var ee ExtractionError
	if errors.As(err, &ee) && ee.Err != nil {
		return FileError{Path: path, Message: ee.Err.Error()}
	}
	var oe OrganizeError
	if errors.As(err, &oe) && oe.Err != nil {
		return FileError{Path: path, Message: oe.Err.Error()}
	}
	return FileError{Path: path, Message: err.Error()}
}
