// Package ftp implements the storage port over FTP using github.com/jlaffaye/ftp.
package ftp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/textproto"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

const (
	defaultPort    = 21
	defaultTimeout = 30 * time.Second
)

// Config holds the connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Root is the remote directory that backend paths are resolved against.
	Root    string
	Timeout time.Duration
}

// serverConn is the subset of *ftp.ServerConn the adapter uses.
type serverConn interface {
	List(path string) ([]*ftp.Entry, error)
	MakeDir(path string) error
	Rename(from, to string) error
	NoOp() error
	Quit() error
}

type dialFunc func(ctx context.Context) (serverConn, error)

// Adapter keeps one control connection and serializes commands on it.
type Adapter struct {
	cfg    Config
	logger *log.Logger
	dial   dialFunc

	mu   sync.Mutex
	conn serverConn
}

// NewAdapter validates cfg. No connection is made until the first call.
func NewAdapter(cfg Config, logger *log.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("ftp adapter: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.Root = path.Clean("/" + strings.TrimSpace(cfg.Root))
	if logger == nil {
		logger = log.Default()
	}

	a := &Adapter{cfg: cfg, logger: logger}
	a.dial = a.dialFTP
	return a, nil
}

func (a *Adapter) dialFTP(ctx context.Context) (serverConn, error) {
	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(a.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp adapter: connection failed: %w", err)
	}
	if a.cfg.Username != "" {
		if err := conn.Login(a.cfg.Username, a.cfg.Password); err != nil {
			if quitErr := conn.Quit(); quitErr != nil {
				a.logger.Printf("WARN ftp: failed to quit after login error: %v", quitErr)
			}
			return nil, fmt.Errorf("ftp adapter: login failed: %w", err)
		}
	}
	return conn, nil
}

// withConn runs op on a live connection. A failed connection is dropped
// so the next call redials.
func (a *Adapter) withConn(ctx context.Context, op func(serverConn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil && a.conn.NoOp() != nil {
		_ = a.conn.Quit()
		a.conn = nil
	}
	if a.conn == nil {
		conn, err := a.dial(ctx)
		if err != nil {
			return err
		}
		a.conn = conn
	}

	err := op(a.conn)
	if err != nil && !keepsConn(err) {
		a.logger.Printf("WARN ftp: dropping connection to %s: %v", a.cfg.Host, err)
		_ = a.conn.Quit()
		a.conn = nil
	}
	return err
}

// Close ends the session if one is open.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	err := a.conn.Quit()
	a.conn = nil
	return err
}

func (a *Adapter) ListFiles(ctx context.Context, folderPath string) ([]domain.FileDescriptor, error) {
	folder := cleanPath(folderPath)
	var out []domain.FileDescriptor
	err := a.withConn(ctx, func(conn serverConn) error {
		entries, err := conn.List(a.remote(folder))
		if err != nil {
			return err
		}
		out = describeAll(folder, entries)
		return nil
	})
	if err != nil {
		return nil, mapErr(folder, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetFileMetadata lists the parent folder and picks the entry, since MLST
// and MDTM are optional server features.
func (a *Adapter) GetFileMetadata(ctx context.Context, p string) (domain.FileDescriptor, error) {
	clean := cleanPath(p)
	if clean == "/" {
		return domain.NewFolder("/"), nil
	}
	var (
		found domain.FileDescriptor
		ok    bool
	)
	err := a.withConn(ctx, func(conn serverConn) error {
		var err error
		found, ok, err = a.lookup(conn, clean)
		return err
	})
	if err != nil {
		return domain.FileDescriptor{}, mapErr(clean, err)
	}
	if !ok {
		return domain.FileDescriptor{}, fmt.Errorf("ftp adapter: %s: %w", clean, domain.ErrNotFound)
	}
	return found, nil
}

func (a *Adapter) lookup(conn serverConn, p string) (domain.FileDescriptor, bool, error) {
	entries, err := conn.List(a.remote(path.Dir(p)))
	if err != nil {
		if isNotFound(err) {
			return domain.FileDescriptor{}, false, nil
		}
		return domain.FileDescriptor{}, false, err
	}
	for _, d := range describeAll(path.Dir(p), entries) {
		if d.Name == path.Base(p) {
			return d, true, nil
		}
	}
	return domain.FileDescriptor{}, false, nil
}

// CreateFolder creates p and any missing parents.
func (a *Adapter) CreateFolder(ctx context.Context, p string) error {
	clean := cleanPath(p)
	err := a.withConn(ctx, func(conn serverConn) error {
		if _, exists, err := a.lookup(conn, clean); err != nil {
			return err
		} else if exists {
			return domain.ErrAlreadyExists
		}

		var chain []string
		for cur := clean; cur != "/"; cur = path.Dir(cur) {
			chain = append(chain, cur)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			if err := conn.MakeDir(a.remote(chain[i])); err != nil {
				d, exists, lerr := a.lookup(conn, chain[i])
				if lerr != nil || !exists || d.Kind != domain.KindFolder {
					return err
				}
			}
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	if err != nil {
		return mapErr(clean, err)
	}
	return nil
}

func (a *Adapter) MoveFile(ctx context.Context, fromPath, toPath string) error {
	from, to := cleanPath(fromPath), cleanPath(toPath)
	err := a.withConn(ctx, func(conn serverConn) error {
		if _, exists, err := a.lookup(conn, to); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("target %s: %w", to, domain.ErrAlreadyExists)
		}
		return conn.Rename(a.remote(from), a.remote(to))
	})
	if err != nil {
		return mapErr(from, err)
	}
	return nil
}

func (a *Adapter) remote(p string) string {
	return path.Join(a.cfg.Root, p)
}

func describeAll(folder string, entries []*ftp.Entry) []domain.FileDescriptor {
	out := make([]domain.FileDescriptor, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Name == "." || e.Name == ".." || strings.HasPrefix(e.Name, ".") {
			continue
		}
		p := path.Join(folder, e.Name)
		switch e.Type {
		case ftp.EntryTypeFolder:
			out = append(out, domain.NewFolder(p))
		case ftp.EntryTypeFile:
			d := domain.FileDescriptor{Kind: domain.KindFile, Path: p, Name: e.Name}
			size := int64(e.Size)
			d.Size = &size
			if !e.Time.IsZero() {
				modified := e.Time.UTC()
				d.Modified = &modified
			}
			out = append(out, d)
		default:
			// Links are not followed.
		}
	}
	return out
}

func cleanPath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// keepsConn reports whether err is a server reply or a domain outcome, which
// leave the control connection usable.
func keepsConn(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) || errors.Is(err, domain.ErrAlreadyExists)
}

func isNotFound(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable
}

func mapErr(p string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("ftp adapter: %s: %w", p, domain.ErrNotFound)
	}
	return fmt.Errorf("ftp adapter: %s: %w", p, err)
}
