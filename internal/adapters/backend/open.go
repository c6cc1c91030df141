// Package backend opens the storage adapter selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log"

	"github.com/ewilliams-labs/takesort/internal/adapters/dropbox"
	"github.com/ewilliams-labs/takesort/internal/adapters/ftp"
	"github.com/ewilliams-labs/takesort/internal/adapters/localfs"
	"github.com/ewilliams-labs/takesort/internal/adapters/sftp"
	"github.com/ewilliams-labs/takesort/internal/adapters/sqlite"
	"github.com/ewilliams-labs/takesort/internal/config"
	"github.com/ewilliams-labs/takesort/internal/core/ports"
)

// Open returns the configured backend and a function that releases it.
func Open(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (ports.StorageBackend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverLocal:
		a, err := localfs.NewAdapter(cfg.Local.Root)
		if err != nil {
			return nil, nil, err
		}
		return a, noop, nil
	case config.DriverSQLite:
		a, err := sqlite.NewAdapter(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case config.DriverSFTP:
		a, err := sftp.NewAdapter(sftp.Config{
			Host:           cfg.SFTP.Host,
			Port:           cfg.SFTP.Port,
			Username:       cfg.SFTP.Username,
			Password:       cfg.SFTP.Password,
			KeyFile:        cfg.SFTP.KeyFile,
			KnownHostsFile: cfg.SFTP.KnownHostsFile,
			Root:           cfg.SFTP.Root,
			Timeout:        cfg.SFTP.Timeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case config.DriverFTP:
		a, err := ftp.NewAdapter(ftp.Config{
			Host:     cfg.FTP.Host,
			Port:     cfg.FTP.Port,
			Username: cfg.FTP.Username,
			Password: cfg.FTP.Password,
			Root:     cfg.FTP.Root,
			Timeout:  cfg.FTP.Timeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case config.DriverDropbox:
		c, err := dropbox.NewClient(ctx, dropbox.Config{
			AccessToken:  cfg.Dropbox.AccessToken,
			RefreshToken: cfg.Dropbox.RefreshToken,
			AppKey:       cfg.Dropbox.AppKey,
			AppSecret:    cfg.Dropbox.AppSecret,
			MaxRetries:   cfg.Dropbox.MaxRetries,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, noop, nil
	default:
		return nil, nil, fmt.Errorf("backend: unknown storage driver %q", cfg.Driver)
	}
}
