package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("Load(missing file) = %+v, want error", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
dry_run: true
network:
  max_retries: 5
  backoff_factor: 1.5
posters:
  preferred_vote: 7.5
libraries:
  - Anime
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) returned error: %v", path, err)
	}

	if !cfg.DryRun {
		t.Error("DryRun = false, want true")
	}
	if cfg.Network.MaxRetries != 5 {
		t.Errorf("Network.MaxRetries = %d, want 5", cfg.Network.MaxRetries)
	}
	if cfg.Network.BackoffFactor != 1.5 {
		t.Errorf("Network.BackoffFactor = %g, want 1.5", cfg.Network.BackoffFactor)
	}
	if cfg.Posters.PreferredVote != 7.5 {
		t.Errorf("Posters.PreferredVote = %g, want 7.5", cfg.Posters.PreferredVote)
	}
	if diff := cmp.Diff([]string{"Anime"}, cfg.Libraries); diff != "" {
		t.Errorf("Libraries mismatch (-want +got):\n%s", diff)
	}
	// Untouched sections keep their defaults.
	if cfg.Network.RetryDelay != 2*time.Second {
		t.Errorf("Network.RetryDelay = %v, want 2s", cfg.Network.RetryDelay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("METASYNC_PLEX__TOKEN", "secret")
	t.Setenv("METASYNC_NETWORK__MAX_RETRIES", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Plex.Token != "secret" {
		t.Errorf("Plex.Token = %q, want %q", cfg.Plex.Token, "secret")
	}
	if cfg.Network.MaxRetries != 7 {
		t.Errorf("Network.MaxRetries = %d, want 7", cfg.Network.MaxRetries)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*Config){
		"zero retries":      func(c *Config) { c.Network.MaxRetries = 0 },
		"backoff below one": func(c *Config) { c.Network.BackoffFactor = 0.5 },
		"zero workers":      func(c *Config) { c.Workers.Max = 0 },
		"min above preferred": func(c *Config) {
			c.Posters.MinWidth = c.Posters.PreferredWidth + 1
		},
	}

	for name, mutate := range tests {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
