package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "TAKESORT_") {
			t.Setenv(key, "")
		}
	}
}

func TestDefaultIsolation(t *testing.T) {
	first := Default()
	second := Default()
	first.Analysis.Extensions[0] = "doesnotexist"
	if first.Analysis.Extensions[0] == second.Analysis.Extensions[0] {
		t.Fatalf("mutating returned extensions should not affect defaults")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != defaultListenAddr || cfg.Storage.Driver != DriverLocal || cfg.Analysis.Workers != defaultWorkers {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "takesort.yaml")
	yamlBody := `
listen_addr: "127.0.0.1:9000"
storage:
  driver: SFTP
  sftp:
    host: nas.local
    username: band
    password: secret
    root: /recordings
    timeout: 10s
analysis:
  workers: 3
  extensions: [".WAV", "mp3"]
`
	if err := os.WriteFile(configPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TAKESORT_CONFIG", configPath)
	t.Setenv("TAKESORT_WORKERS", "8")
	t.Setenv("TAKESORT_SFTP_PORT", "2222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.Storage.Driver != DriverSFTP {
		t.Fatalf("driver: got %q", cfg.Storage.Driver)
	}
	sftp := cfg.Storage.SFTP
	if sftp.Host != "nas.local" || sftp.Port != 2222 || sftp.Root != "/recordings" || sftp.Timeout != 10*time.Second {
		t.Fatalf("unexpected sftp settings %+v", sftp)
	}
	if cfg.Analysis.Workers != 8 {
		t.Fatalf("workers: env should win, got %d", cfg.Analysis.Workers)
	}
	if !reflect.DeepEqual(cfg.Analysis.Extensions, []string{"wav", "mp3"}) {
		t.Fatalf("extensions: got %v", cfg.Analysis.Extensions)
	}
}

func TestLoadFileExplicitPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "cli.yaml")
	body := "storage:\n  driver: sqlite\n  sqlite:\n    path: catalog.db\n"
	if err := os.WriteFile(configPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TAKESORT_CONFIG", "/does/not/exist.yaml")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLite.Path != "catalog.db" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown driver", env: map[string]string{"TAKESORT_STORAGE_DRIVER": "s3"}, wantErr: "unknown storage driver"},
		{name: "bad integer", env: map[string]string{"TAKESORT_WORKERS": "many"}, wantErr: "TAKESORT_WORKERS"},
		{name: "bad duration", env: map[string]string{"TAKESORT_FTP_TIMEOUT": "forever"}, wantErr: "TAKESORT_FTP_TIMEOUT"},
		{name: "dropbox without token", env: map[string]string{"TAKESORT_STORAGE_DRIVER": "dropbox"}, wantErr: "dropbox access token"},
		{name: "sftp without credentials", env: map[string]string{"TAKESORT_STORAGE_DRIVER": "sftp", "TAKESORT_SFTP_HOST": "h", "TAKESORT_SFTP_USERNAME": "u"}, wantErr: "password or key file"},
		{name: "zero workers", env: map[string]string{"TAKESORT_WORKERS": "0"}, wantErr: "workers must be at least 1"},
		{name: "missing config file", env: map[string]string{"TAKESORT_CONFIG": "/does/not/exist.yaml"}, wantErr: "config:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDrivers(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "local default", mutate: func(c *Config) {}},
		{name: "sqlite", mutate: func(c *Config) { c.Storage.Driver = DriverSQLite }},
		{name: "ftp needs host", mutate: func(c *Config) { c.Storage.Driver = DriverFTP }, wantErr: true},
		{name: "ftp with host", mutate: func(c *Config) { c.Storage.Driver = DriverFTP; c.Storage.FTP.Host = "h" }},
		{name: "dropbox refresh needs app key", mutate: func(c *Config) {
			c.Storage.Driver = DriverDropbox
			c.Storage.Dropbox.RefreshToken = "r"
		}, wantErr: true},
		{name: "dropbox static token", mutate: func(c *Config) {
			c.Storage.Driver = DriverDropbox
			c.Storage.Dropbox.AccessToken = "a"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate: err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
