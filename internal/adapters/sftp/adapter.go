// Package sftp implements the storage port over SSH using github.com/pkg/sftp.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

const (
	defaultPort    = 22
	defaultTimeout = 30 * time.Second
)

// Config holds the connection settings.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	KeyFile        string
	KnownHostsFile string
	// Root is the remote directory that backend paths are resolved against.
	Root    string
	Timeout time.Duration
}

// dialFunc opens a client and returns what must be closed with it.
type dialFunc func(ctx context.Context) (*sftp.Client, io.Closer, error)

// Adapter connects lazily and reconnects after a lost connection.
// The underlying client is safe for concurrent requests.
type Adapter struct {
	cfg    Config
	logger *log.Logger
	dial   dialFunc

	mu     sync.Mutex
	client *sftp.Client
	conn   io.Closer
}

// NewAdapter validates cfg. No connection is made until the first call.
func NewAdapter(cfg Config, logger *log.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("sftp adapter: host is required")
	}
	if cfg.Username == "" {
		return nil, errors.New("sftp adapter: username is required")
	}
	if cfg.Password == "" && cfg.KeyFile == "" {
		return nil, errors.New("sftp adapter: password or key file is required")
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
	a.dial = a.dialSSH
	return a, nil
}

func (a *Adapter) dialSSH(ctx context.Context) (*sftp.Client, io.Closer, error) {
	config := &ssh.ClientConfig{
		User:    a.cfg.Username,
		Timeout: a.cfg.Timeout,
	}

	if a.cfg.KnownHostsFile != "" {
		callback, err := knownhosts.New(a.cfg.KnownHostsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("sftp adapter: failed to load known hosts: %w", err)
		}
		config.HostKeyCallback = callback
	} else {
		a.logger.Printf("WARN sftp: no known hosts file configured, host key for %s is not verified", a.cfg.Host)
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	switch {
	case a.cfg.KeyFile != "":
		key, err := os.ReadFile(a.cfg.KeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("sftp adapter: failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, nil, fmt.Errorf("sftp adapter: failed to parse private key: %w", err)
		}
		config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	default:
		config.Auth = []ssh.AuthMethod{ssh.Password(a.cfg.Password)}
	}

	type connResult struct {
		client *sftp.Client
		conn   *ssh.Client
		err    error
	}
	resultChan := make(chan connResult, 1)

	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
		sshConn, err := ssh.Dial("tcp", addr, config)
		if err != nil {
			resultChan <- connResult{err: fmt.Errorf("sftp adapter: failed to connect: %w", err)}
			return
		}
		client, err := sftp.NewClient(sshConn)
		if err != nil {
			sshConn.Close()
			resultChan <- connResult{err: fmt.Errorf("sftp adapter: failed to create client: %w", err)}
			return
		}
		resultChan <- connResult{client: client, conn: sshConn}
	}()

	select {
	case <-ctx.Done():
		// Close whatever the dial produces once it finishes.
		go func() {
			if r := <-resultChan; r.err == nil {
				r.client.Close()
				r.conn.Close()
			}
		}()
		return nil, nil, ctx.Err()
	case r := <-resultChan:
		if r.err != nil {
			return nil, nil, r.err
		}
		return r.client, r.conn, nil
	}
}

func (a *Adapter) session(ctx context.Context) (*sftp.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	client, conn, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	a.client, a.conn = client, conn
	return client, nil
}

// reset drops a client whose connection is gone so the next call redials.
func (a *Adapter) reset(client *sftp.Client, err error) {
	if !errors.Is(err, sftp.ErrSSHFxConnectionLost) && !errors.Is(err, io.EOF) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != client {
		return
	}
	a.logger.Printf("WARN sftp: connection to %s lost: %v", a.cfg.Host, err)
	a.closeLocked()
}

// Close releases the connection if one is open.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closeLocked()
}

func (a *Adapter) closeLocked() error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	if a.conn != nil {
		if cerr := a.conn.Close(); err == nil {
			err = cerr
		}
	}
	a.client, a.conn = nil, nil
	return err
}

func (a *Adapter) ListFiles(ctx context.Context, folderPath string) ([]domain.FileDescriptor, error) {
	client, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	folder := cleanPath(folderPath)
	infos, err := client.ReadDir(a.remote(folder))
	if err != nil {
		a.reset(client, err)
		return nil, mapErr(folder, err)
	}

	out := make([]domain.FileDescriptor, 0, len(infos))
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}
		out = append(out, describe(path.Join(folder, info.Name()), info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Adapter) GetFileMetadata(ctx context.Context, p string) (domain.FileDescriptor, error) {
	client, err := a.session(ctx)
	if err != nil {
		return domain.FileDescriptor{}, err
	}
	clean := cleanPath(p)
	info, err := client.Stat(a.remote(clean))
	if err != nil {
		a.reset(client, err)
		return domain.FileDescriptor{}, mapErr(clean, err)
	}
	return describe(clean, info), nil
}

func (a *Adapter) CreateFolder(ctx context.Context, p string) error {
	client, err := a.session(ctx)
	if err != nil {
		return err
	}
	clean := cleanPath(p)
	if _, err := client.Stat(a.remote(clean)); err == nil {
		return domain.ErrAlreadyExists
	}
	if err := client.MkdirAll(a.remote(clean)); err != nil {
		a.reset(client, err)
		return mapErr(clean, err)
	}
	return nil
}

func (a *Adapter) MoveFile(ctx context.Context, fromPath, toPath string) error {
	client, err := a.session(ctx)
	if err != nil {
		return err
	}
	from, to := cleanPath(fromPath), cleanPath(toPath)
	if _, err := client.Stat(a.remote(to)); err == nil {
		return fmt.Errorf("sftp adapter: target %s: %w", to, domain.ErrAlreadyExists)
	}
	if err := client.Rename(a.remote(from), a.remote(to)); err != nil {
		a.reset(client, err)
		return mapErr(from, err)
	}
	return nil
}

func (a *Adapter) remote(p string) string {
	return path.Join(a.cfg.Root, p)
}

func describe(p string, info fs.FileInfo) domain.FileDescriptor {
	if info.IsDir() {
		return domain.NewFolder(p)
	}
	return domain.NewFile(p, info.Size(), info.ModTime().UTC())
}

func cleanPath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

func mapErr(p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("sftp adapter: %s: %w", p, domain.ErrNotFound)
	}
	return fmt.Errorf("sftp adapter: %s: %w", p, err)
}
