// Package config resolves service settings from defaults, an optional YAML
// file named by TAKESORT_CONFIG, and TAKESORT_* environment overrides, in
// that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverLocal   = "local"
	DriverSQLite  = "sqlite"
	DriverSFTP    = "sftp"
	DriverFTP     = "ftp"
	DriverDropbox = "dropbox"
)

const (
	defaultListenAddr = ":8080"
	defaultDriver     = DriverLocal
	defaultLocalRoot  = "audio"
	defaultSQLitePath = "takesort.db"
	defaultWorkers    = 5
)

var defaultExtensions = []string{"mp3", "wav", "m4a", "aac", "flac", "ogg", "aiff", "aif"}

// Config is the resolved service configuration.
type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	Storage    StorageConfig  `yaml:"storage"`
	Analysis   AnalysisConfig `yaml:"analysis"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Driver  string        `yaml:"driver"`
	Local   LocalConfig   `yaml:"local"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	SFTP    SFTPConfig    `yaml:"sftp"`
	FTP     FTPConfig     `yaml:"ftp"`
	Dropbox DropboxConfig `yaml:"dropbox"`
}

type LocalConfig struct {
	Root string `yaml:"root"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type SFTPConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	KeyFile        string        `yaml:"key_file"`
	KnownHostsFile string        `yaml:"known_hosts_file"`
	Root           string        `yaml:"root"`
	Timeout        time.Duration `yaml:"timeout"`
}

type FTPConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Root     string        `yaml:"root"`
	Timeout  time.Duration `yaml:"timeout"`
}

type DropboxConfig struct {
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
	AppKey       string `yaml:"app_key"`
	AppSecret    string `yaml:"app_secret"`
	MaxRetries   int    `yaml:"max_retries"`
}

// AnalysisConfig tunes the analyze pipeline.
type AnalysisConfig struct {
	// Workers bounds concurrent metadata lookups against the backend.
	Workers    int      `yaml:"workers"`
	Extensions []string `yaml:"extensions"`
}

// Default returns the built-in configuration.
func Default() Config {
	exts := make([]string, len(defaultExtensions))
	copy(exts, defaultExtensions)
	return Config{
		ListenAddr: defaultListenAddr,
		Storage: StorageConfig{
			Driver: defaultDriver,
			Local:  LocalConfig{Root: defaultLocalRoot},
			SQLite: SQLiteConfig{Path: defaultSQLitePath},
		},
		Analysis: AnalysisConfig{
			Workers:    defaultWorkers,
			Extensions: exts,
		},
	}
}

// Load applies the YAML file named by TAKESORT_CONFIG, if any, and then the
// environment to the defaults. The result is validated.
func Load() (Config, error) {
	return LoadFile(os.Getenv("TAKESORT_CONFIG"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(configPath string) (Config, error) {
	cfg := Default()

	if configPath = strings.TrimSpace(configPath); configPath != "" {
		resolved, err := resolvePath(configPath)
		if err != nil {
			return Config{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", resolved, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*dst = value
		}
	}
	setInt := func(key string, dst *int) error {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString("TAKESORT_LISTEN_ADDR", &cfg.ListenAddr)
	setString("TAKESORT_STORAGE_DRIVER", &cfg.Storage.Driver)

	setString("TAKESORT_LOCAL_ROOT", &cfg.Storage.Local.Root)
	setString("TAKESORT_SQLITE_PATH", &cfg.Storage.SQLite.Path)

	setString("TAKESORT_SFTP_HOST", &cfg.Storage.SFTP.Host)
	setString("TAKESORT_SFTP_USERNAME", &cfg.Storage.SFTP.Username)
	setString("TAKESORT_SFTP_PASSWORD", &cfg.Storage.SFTP.Password)
	setString("TAKESORT_SFTP_KEY_FILE", &cfg.Storage.SFTP.KeyFile)
	setString("TAKESORT_SFTP_KNOWN_HOSTS", &cfg.Storage.SFTP.KnownHostsFile)
	setString("TAKESORT_SFTP_ROOT", &cfg.Storage.SFTP.Root)

	setString("TAKESORT_FTP_HOST", &cfg.Storage.FTP.Host)
	setString("TAKESORT_FTP_USERNAME", &cfg.Storage.FTP.Username)
	setString("TAKESORT_FTP_PASSWORD", &cfg.Storage.FTP.Password)
	setString("TAKESORT_FTP_ROOT", &cfg.Storage.FTP.Root)

	setString("TAKESORT_DROPBOX_ACCESS_TOKEN", &cfg.Storage.Dropbox.AccessToken)
	setString("TAKESORT_DROPBOX_REFRESH_TOKEN", &cfg.Storage.Dropbox.RefreshToken)
	setString("TAKESORT_DROPBOX_APP_KEY", &cfg.Storage.Dropbox.AppKey)
	setString("TAKESORT_DROPBOX_APP_SECRET", &cfg.Storage.Dropbox.AppSecret)

	for key, dst := range map[string]*int{
		"TAKESORT_SFTP_PORT":           &cfg.Storage.SFTP.Port,
		"TAKESORT_FTP_PORT":            &cfg.Storage.FTP.Port,
		"TAKESORT_DROPBOX_MAX_RETRIES": &cfg.Storage.Dropbox.MaxRetries,
		"TAKESORT_WORKERS":             &cfg.Analysis.Workers,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*time.Duration{
		"TAKESORT_SFTP_TIMEOUT": &cfg.Storage.SFTP.Timeout,
		"TAKESORT_FTP_TIMEOUT":  &cfg.Storage.FTP.Timeout,
	} {
		if err := setDuration(key, dst); err != nil {
			return err
		}
	}

	if value := strings.TrimSpace(os.Getenv("TAKESORT_EXTENSIONS")); value != "" {
		cfg.Analysis.Extensions = strings.Split(value, ",")
	}
	return nil
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	exts := c.Analysis.Extensions[:0]
	for _, e := range c.Analysis.Extensions {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Analysis.Extensions = exts
}

// Validate rejects unknown drivers and missing driver settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.Analysis.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Analysis.Workers))
	}
	if len(c.Analysis.Extensions) == 0 {
		errs = append(errs, errors.New("at least one audio extension is required"))
	}

	s := c.Storage
	switch s.Driver {
	case DriverLocal:
		if s.Local.Root == "" {
			errs = append(errs, errors.New("local root is required"))
		}
	case DriverSQLite:
		if s.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite path is required"))
		}
	case DriverSFTP:
		if s.SFTP.Host == "" || s.SFTP.Username == "" {
			errs = append(errs, errors.New("sftp host and username are required"))
		}
		if s.SFTP.Password == "" && s.SFTP.KeyFile == "" {
			errs = append(errs, errors.New("sftp password or key file is required"))
		}
	case DriverFTP:
		if s.FTP.Host == "" {
			errs = append(errs, errors.New("ftp host is required"))
		}
	case DriverDropbox:
		if s.Dropbox.AccessToken == "" && s.Dropbox.RefreshToken == "" {
			errs = append(errs, errors.New("dropbox access token or refresh token is required"))
		}
		if s.Dropbox.RefreshToken != "" && s.Dropbox.AppKey == "" {
			errs = append(errs, errors.New("dropbox app key is required with a refresh token"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", s.Driver))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Abs(path)
}
