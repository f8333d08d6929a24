// Package config loads the metasync configuration from defaults, an optional
// YAML file, and environment variable overrides, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where the config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/metasync/config.yaml",
	"/etc/metasync/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "METASYNC_CONFIG"

// Config is the full configuration surface of metasync.
type Config struct {
	DryRun   bool   `koanf:"dry_run"`
	LogLevel string `koanf:"log_level"`

	Plex        PlexConfig      `koanf:"plex"`
	Libraries   []string        `koanf:"libraries"`
	Catalog     CatalogConfig   `koanf:"catalog"`
	Network     NetworkConfig   `koanf:"network"`
	Metadata    MetadataConfig  `koanf:"metadata"`
	Assets      AssetsConfig    `koanf:"assets"`
	Posters     SelectionConfig `koanf:"posters"`
	Backgrounds SelectionConfig `koanf:"backgrounds"`
	Cleanup     CleanupConfig   `koanf:"cleanup"`
	Workers     WorkersConfig   `koanf:"workers"`
	CacheDir    string          `koanf:"cache_dir"`
}

// PlexConfig locates the media server.
type PlexConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// CatalogConfig configures the remote catalog service.
type CatalogConfig struct {
	APIKey            string   `koanf:"api_key"`
	Language          string   `koanf:"language"`
	Region            string   `koanf:"region"`
	FallbackLanguages []string `koanf:"fallback_languages"`
	RequestsPerSecond float64  `koanf:"requests_per_second"`
}

// NetworkConfig controls the retry behavior of outbound requests.
type NetworkConfig struct {
	MaxRetries    int           `koanf:"max_retries"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	BackoffFactor float64       `koanf:"backoff_factor"`
	Timeout       time.Duration `koanf:"timeout"`
}

// MetadataConfig controls metadata document generation.
type MetadataConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Directory string `koanf:"directory"`
}

// AssetsConfig controls artwork downloads.
type AssetsConfig struct {
	Path           string `koanf:"path"`
	RunPoster      bool   `koanf:"run_poster"`
	RunSeason      bool   `koanf:"run_season"`
	RunBackground  bool   `koanf:"run_background"`
	PosterFile     string `koanf:"poster_filename"`
	BackgroundFile string `koanf:"background_filename"`
}

// SelectionConfig is the quality policy for one asset class.
type SelectionConfig struct {
	PreferredVote   float64 `koanf:"preferred_vote"`
	VoteRelaxed     float64 `koanf:"vote_relaxed"`
	VoteThreshold   float64 `koanf:"vote_average_threshold"`
	PreferredWidth  int     `koanf:"preferred_width"`
	PreferredHeight int     `koanf:"preferred_height"`
	MinWidth        int     `koanf:"min_width"`
	MinHeight       int     `koanf:"min_height"`
}

// CleanupConfig controls orphan reconciliation.
type CleanupConfig struct {
	Enabled bool `koanf:"enabled"`
}

// WorkersConfig bounds item-level concurrency.
type WorkersConfig struct {
	Max          int           `koanf:"max"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
}

// Default returns the built-in configuration, applied before the config file
// and environment overrides.
func Default() *Config {
	return &Config{
		DryRun:    false,
		LogLevel:  "info",
		Libraries: []string{"Movies", "TV Shows"},
		Catalog: CatalogConfig{
			Language:          "en",
			Region:            "US",
			FallbackLanguages: []string{},
			RequestsPerSecond: 20,
		},
		Network: NetworkConfig{
			MaxRetries:    3,
			RetryDelay:    2 * time.Second,
			BackoffFactor: 2,
			Timeout:       20 * time.Second,
		},
		Metadata: MetadataConfig{
			Enabled:   true,
			Directory: "metadata",
		},
		Assets: AssetsConfig{
			Path:           "assets",
			RunPoster:      true,
			RunSeason:      true,
			RunBackground:  false,
			PosterFile:     "poster.jpg",
			BackgroundFile: "fanart.jpg",
		},
		Posters: SelectionConfig{
			PreferredVote:   5.0,
			VoteRelaxed:     3.5,
			VoteThreshold:   5.0,
			PreferredWidth:  2000,
			PreferredHeight: 3000,
			MinWidth:        1000,
			MinHeight:       1500,
		},
		Backgrounds: SelectionConfig{
			PreferredVote:   5.0,
			VoteRelaxed:     3.5,
			VoteThreshold:   5.0,
			PreferredWidth:  3840,
			PreferredHeight: 2160,
			MinWidth:        1920,
			MinHeight:       1080,
		},
		Cleanup: CleanupConfig{Enabled: false},
		Workers: WorkersConfig{
			Max:          5,
			BatchTimeout: 5 * time.Minute,
		},
		CacheDir: "cache",
	}
}

// Load builds the configuration from defaults, the config file at path (or
// the first default path when path is empty), and METASYNC_* environment
// variables. A double underscore separates nesting levels, so
// METASYNC_PLEX__TOKEN maps to plex.token and
// METASYNC_NETWORK__MAX_RETRIES maps to network.max_retries.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("METASYNC_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "METASYNC_")
		return strings.Replace(strings.ToLower(s), "__", ".", -1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Network.MaxRetries < 1 {
		return fmt.Errorf("network.max_retries must be at least 1, got %d", c.Network.MaxRetries)
	}
	if c.Network.BackoffFactor < 1 {
		return fmt.Errorf("network.backoff_factor must be at least 1, got %g", c.Network.BackoffFactor)
	}
	if c.Workers.Max < 1 {
		return fmt.Errorf("workers.max must be at least 1, got %d", c.Workers.Max)
	}
	for _, sel := range []struct {
		name string
		s    SelectionConfig
	}{{"posters", c.Posters}, {"backgrounds", c.Backgrounds}} {
		if sel.s.MinWidth > sel.s.PreferredWidth || sel.s.MinHeight > sel.s.PreferredHeight {
			return fmt.Errorf("%s: minimum dimensions exceed preferred dimensions", sel.name)
		}
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
