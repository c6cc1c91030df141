// Package sqlite provides a SQLite-backed catalog implementing the storage port.
// It models a virtual folder hierarchy, which makes it useful for local
// development and for exercising the organize flow without a remote account.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the storage port for SQLite
type Adapter struct {
	db *sql.DB
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// PutFile records a file in the catalog, creating missing parent folders.
// An existing entry at the same path is replaced.
func (a *Adapter) PutFile(ctx context.Context, d domain.FileDescriptor) error {
	p, err := cleanPath(d.Path)
	if err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureFolders(ctx, tx, path.Dir(p)); err != nil {
		return err
	}

	var size sql.NullInt64
	if d.Size != nil {
		size = sql.NullInt64{Int64: *d.Size, Valid: true}
	}
	var modified sql.NullInt64
	if d.Modified != nil {
		modified = sql.NullInt64{Int64: d.Modified.UnixNano(), Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (path, parent, name, kind, size, modified_unix)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind=excluded.kind,
			size=excluded.size,
			modified_unix=excluded.modified_unix;
	`, p, path.Dir(p), path.Base(p), domain.KindFile.String(), size, modified); err != nil {
		return fmt.Errorf("failed to save file %s: %w", p, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// ListFiles returns the direct children of folderPath ordered by name.
func (a *Adapter) ListFiles(ctx context.Context, folderPath string) ([]domain.FileDescriptor, error) {
	folder, err := cleanPath(folderPath)
	if err != nil {
		return nil, err
	}
	parent, err := a.GetFileMetadata(ctx, folder)
	if err != nil {
		return nil, err
	}
	if parent.Kind != domain.KindFolder {
		return nil, fmt.Errorf("sqlite adapter: %s is not a folder", folder)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT path, name, kind, size, modified_unix
		FROM entries
		WHERE parent = ? AND path != parent
		ORDER BY name ASC
	`, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folder, err)
	}
	defer rows.Close()

	entries := []domain.FileDescriptor{}
	for rows.Next() {
		d, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folder %s: %w", folder, err)
	}
	return entries, nil
}

// GetFileMetadata describes a single entry.
func (a *Adapter) GetFileMetadata(ctx context.Context, p string) (domain.FileDescriptor, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return domain.FileDescriptor{}, err
	}
	row := a.db.QueryRowContext(ctx, `
		SELECT path, name, kind, size, modified_unix FROM entries WHERE path = ?
	`, clean)
	d, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FileDescriptor{}, domain.ErrNotFound
	}
	return d, err
}

// CreateFolder creates p and any missing parents.
func (a *Adapter) CreateFolder(ctx context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if exists, err := entryExists(ctx, tx, clean); err != nil {
		return err
	} else if exists {
		return domain.ErrAlreadyExists
	}
	if err := ensureFolders(ctx, tx, clean); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// MoveFile relocates a file. The target folder must exist and the target
// path must be free.
func (a *Adapter) MoveFile(ctx context.Context, fromPath, toPath string) error {
	from, err := cleanPath(fromPath)
	if err != nil {
		return err
	}
	to, err := cleanPath(toPath)
	if err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var kind string
	if err := tx.QueryRowContext(ctx, "SELECT kind FROM entries WHERE path = ?", from).Scan(&kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite adapter: source %s: %w", from, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to load %s: %w", from, err)
	}
	if k, err := domain.ParseEntryKind(kind); err != nil {
		return err
	} else if k != domain.KindFile {
		return fmt.Errorf("sqlite adapter: only files can be moved, %s is a %s", from, k)
	}

	if exists, err := entryExists(ctx, tx, to); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("sqlite adapter: target %s: %w", to, domain.ErrAlreadyExists)
	}

	var parentKind string
	if err := tx.QueryRowContext(ctx, "SELECT kind FROM entries WHERE path = ?", path.Dir(to)).Scan(&parentKind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite adapter: target folder %s: %w", path.Dir(to), domain.ErrNotFound)
		}
		return fmt.Errorf("failed to load %s: %w", path.Dir(to), err)
	}
	if parentKind != domain.KindFolder.String() {
		return fmt.Errorf("sqlite adapter: %s is not a folder", path.Dir(to))
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entries SET path = ?, parent = ?, name = ? WHERE path = ?
	`, to, path.Dir(to), path.Base(to), from); err != nil {
		return fmt.Errorf("failed to move %s: %w", from, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.FileDescriptor, error) {
	var (
		d        domain.FileDescriptor
		kind     string
		size     sql.NullInt64
		modified sql.NullInt64
	)
	if err := row.Scan(&d.Path, &d.Name, &kind, &size, &modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FileDescriptor{}, err
		}
		return domain.FileDescriptor{}, fmt.Errorf("failed to scan entry: %w", err)
	}
	k, err := domain.ParseEntryKind(kind)
	if err != nil {
		return domain.FileDescriptor{}, err
	}
	d.Kind = k
	if size.Valid {
		s := size.Int64
		d.Size = &s
	}
	if modified.Valid {
		m := time.Unix(0, modified.Int64).UTC()
		d.Modified = &m
	}
	return d, nil
}

func entryExists(ctx context.Context, tx *sql.Tx, p string) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM entries WHERE path = ?", p).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", p, err)
	}
	return n > 0, nil
}

// ensureFolders creates p and every ancestor that is missing.
func ensureFolders(ctx context.Context, tx *sql.Tx, p string) error {
	var chain []string
	for cur := p; ; cur = path.Dir(cur) {
		chain = append(chain, cur)
		if cur == "/" {
			break
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		folder := chain[i]
		var kind string
		err := tx.QueryRowContext(ctx, "SELECT kind FROM entries WHERE path = ?", folder).Scan(&kind)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entries (path, parent, name, kind) VALUES (?, ?, ?, ?)
			`, folder, path.Dir(folder), path.Base(folder), domain.KindFolder.String()); err != nil {
				return fmt.Errorf("failed to create folder %s: %w", folder, err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up %s: %w", folder, err)
		case kind != domain.KindFolder.String():
			return fmt.Errorf("sqlite adapter: %s exists and is not a folder", folder)
		}
	}
	return nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", domain.ValidationError{Field: "path", Message: "path is required"}
	}
	return path.Clean("/" + p), nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS entries (
		path TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		size INTEGER,
		modified_unix INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries(parent);

	INSERT INTO entries (path, parent, name, kind) VALUES ('/', '/', '/', 'folder')
	ON CONFLICT(path) DO NOTHING;
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}
