// Package dropbox implements the storage port against the Dropbox HTTP API v2.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
	"github.com/ewilliams-labs/takesort/internal/core/ports"
)

const (
	defaultBaseURL  = "https://api.dropboxapi.com"
	defaultTokenURL = "https://api.dropboxapi.com/oauth2/token"
	listPageLimit   = 2000
)

// Config selects the credentials. A refresh token with app key and secret
// is preferred; a static access token is accepted for short-lived use.
type Config struct {
	AccessToken  string
	RefreshToken string
	AppKey       string
	AppSecret    string
	BaseURL      string
	TokenURL     string
	MaxRetries   int
}

// Client is an HTTP client for the Dropbox adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      *log.Logger
	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertion
var _ ports.StorageBackend = (*Client)(nil)

// NewClient builds a client whose transport attaches and refreshes tokens.
func NewClient(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	var ts oauth2.TokenSource
	switch {
	case cfg.RefreshToken != "":
		if cfg.AppKey == "" {
			return nil, errorf("app key is required with a refresh token")
		}
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = defaultTokenURL
		}
		oc := &oauth2.Config{
			ClientID:     cfg.AppKey,
			ClientSecret: cfg.AppSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		}
		ts = oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	case cfg.AccessToken != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	default:
		return nil, errorf("an access token or refresh token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		httpClient: oauth2.NewClient(ctx, ts),
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// ListFiles follows list_folder pagination until has_more is false.
func (c *Client) ListFiles(ctx context.Context, folderPath string) ([]domain.FileDescriptor, error) {
	var page listFolderResult
	if err := c.rpc(ctx, "/2/files/list_folder", listFolderArg{Path: apiPath(folderPath), Limit: listPageLimit}, true, &page); err != nil {
		return nil, err
	}

	files := []domain.FileDescriptor{}
	for {
		for _, m := range page.Entries {
			if d, ok := m.toDomain(); ok {
				files = append(files, d)
			}
		}
		if !page.HasMore {
			break
		}
		cursor := page.Cursor
		page = listFolderResult{}
		if err := c.rpc(ctx, "/2/files/list_folder/continue", listFolderContinueArg{Cursor: cursor}, true, &page); err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (c *Client) GetFileMetadata(ctx context.Context, p string) (domain.FileDescriptor, error) {
	if apiPath(p) == "" {
		return domain.NewFolder("/"), nil
	}
	var m metadata
	if err := c.rpc(ctx, "/2/files/get_metadata", pathArg{Path: apiPath(p)}, true, &m); err != nil {
		return domain.FileDescriptor{}, err
	}
	d, ok := m.toDomain()
	if !ok {
		return domain.FileDescriptor{}, errorf("%s: %w", p, domain.ErrNotFound)
	}
	return d, nil
}

func (c *Client) CreateFolder(ctx context.Context, p string) error {
	var res metadataResult
	return c.rpc(ctx, "/2/files/create_folder_v2", createFolderArg{Path: apiPath(p)}, false, &res)
}

func (c *Client) MoveFile(ctx context.Context, fromPath, toPath string) error {
	var res metadataResult
	return c.rpc(ctx, "/2/files/move_v2", relocationArg{FromPath: apiPath(fromPath), ToPath: apiPath(toPath)}, false, &res)
}

// rpc posts a JSON argument and decodes the JSON result into out.
func (c *Client) rpc(ctx context.Context, endpoint string, arg any, idempotent bool, out any) error {
	b, err := json.Marshal(arg)
	if err != nil {
		return errorf("%w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(b))
	if err != nil {
		return errorf("%w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequestWithRetry(req, idempotent)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(endpoint, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errorf("%s: %w", endpoint, err)
	}
	return nil
}

// decodeError maps endpoint errors. Dropbox reports them as 409 with an
// error_summary such as "path/not_found/.." or "to/conflict/file/..".
func decodeError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode == http.StatusConflict {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorSummary != "" {
			summary := apiErr.ErrorSummary
			switch {
			case strings.Contains(summary, "not_found"):
				return errorf("%s: %s: %w", endpoint, summary, domain.ErrNotFound)
			case strings.Contains(summary, "conflict"):
				return errorf("%s: %s: %w", endpoint, summary, domain.ErrAlreadyExists)
			default:
				return errorf("%s: %s", endpoint, summary)
			}
		}
	}
	return errorf("%s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
}

// errorf prefixes adapter errors.
func errorf(format string, args ...any) error {
	return fmt.Errorf("dropbox adapter: "+format, args...)
}

// apiPath converts a backend path to the Dropbox form, where the root is "".
func apiPath(p string) string {
	clean := path.Clean("/" + strings.TrimSpace(p))
	if clean == "/" {
		return ""
	}
	return clean
}
