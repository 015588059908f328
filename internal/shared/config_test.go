package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 3500 {
			t.Errorf("expected server port 3500, got %d", config.Server.Port)
		}

		if config.Server.BodyLimit != 1<<20 {
			t.Errorf("expected body limit 1 MiB, got %d", config.Server.BodyLimit)
		}

		if config.Server.Timeout() != 300*time.Second {
			t.Errorf("expected request timeout 300s, got %s", config.Server.Timeout())
		}

		if config.Cache.Root != "./TRICACHE" {
			t.Errorf("expected cache root ./TRICACHE, got %s", config.Cache.Root)
		}

		if config.Spotify.APIURL != "https://api.spotify.com/v1" {
			t.Errorf("expected spotify api url https://api.spotify.com/v1, got %s", config.Spotify.APIURL)
		}

		if config.Database.Path != "" {
			t.Errorf("expected ledger to be disabled by default, got %s", config.Database.Path)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			EnvCacheRoot:  "/var/cache/tri",
			EnvPort:       "4000",
			EnvBackendURL: "http://gateway:9000",
			EnvDatabase:   "/var/lib/tri.db",
		}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(lookup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.Cache.Root != "/var/cache/tri" {
			t.Errorf("expected cache root override, got %s", config.Cache.Root)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port override 4000, got %d", config.Server.Port)
		}
		if config.Backend.URL != "http://gateway:9000" {
			t.Errorf("expected backend override, got %s", config.Backend.URL)
		}
		if config.Database.Path != "/var/lib/tri.db" {
			t.Errorf("expected database override, got %s", config.Database.Path)
		}
		if config.Spotify.APIURL != "https://api.spotify.com/v1" {
			t.Errorf("unset variables should keep defaults, got %s", config.Spotify.APIURL)
		}
	})

	t.Run("ApplyEnv Invalid Port", func(t *testing.T) {
		for _, port := range []string{"not-a-port", "0", "70000"} {
			env := map[string]string{
				EnvCacheRoot:  "/var/cache/tri",
				EnvPort:       port,
				EnvSpotifyAPI: "http://search:8080/v1",
				EnvBackendURL: "http://gateway:9000",
				EnvDatabase:   "/var/lib/tri.db",
			}
			lookup := func(k string) (string, bool) {
				v, ok := env[k]
				return v, ok
			}

			config := DefaultConfig()
			err := config.ApplyEnv(lookup)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("%s: expected ErrInvalidConfig, got %v", port, err)
			}
			if config.Server.Port != 3500 {
				t.Errorf("%s: expected the default port to be kept, got %d", port, config.Server.Port)
			}
			if config.Cache.Root != "/var/cache/tri" || config.Spotify.APIURL != "http://search:8080/v1" ||
				config.Backend.URL != "http://gateway:9000" || config.Database.Path != "/var/lib/tri.db" {
				t.Errorf("%s: other overrides must still apply, got %+v", port, config)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("%s: config should remain valid: %v", port, err)
			}
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }},
			{name: "no body limit", mutate: func(c *Config) { c.Server.BodyLimit = 0 }},
			{name: "no timeout", mutate: func(c *Config) { c.Server.RequestTimeout = 0 }},
			{name: "empty cache root", mutate: func(c *Config) { c.Cache.Root = "" }},
			{name: "no workers", mutate: func(c *Config) { c.Cache.Workers = 0 }},
			{name: "no backend", mutate: func(c *Config) { c.Backend.URL = "" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Cache.Workers != DefaultConfig().Cache.Workers {
			t.Errorf("created config workers don't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Setenv(EnvCacheRoot, "")
		t.Setenv(EnvPort, "")
		t.Setenv(EnvDatabase, "")

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "127.0.0.1"
port = 8080
verbose_errors = false

[cache]
root = "/srv/tri"
workers = 8

[backend]
url = "http://localhost:9090"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "127.0.0.1:8080" {
			t.Errorf("expected addr 127.0.0.1:8080, got %s", config.Server.Addr())
		}
		if config.Server.VerboseErrors {
			t.Error("expected verbose_errors to be false")
		}
		if config.Cache.Root != "/srv/tri" {
			t.Errorf("expected cache root /srv/tri, got %s", config.Cache.Root)
		}
		if config.Cache.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", config.Cache.Workers)
		}
		if config.Server.BodyLimit != 1<<20 {
			t.Errorf("missing keys should keep defaults, got body limit %d", config.Server.BodyLimit)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
