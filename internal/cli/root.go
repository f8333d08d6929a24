// Package cli wires the configuration, the catalog client and the sync engine
// into the metasync command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"metasync/internal/catalog"
	"metasync/internal/config"
	"metasync/internal/engine"
	"metasync/internal/logging"
	"metasync/internal/plex"
	"metasync/internal/resolve"
	"metasync/internal/store"
)

const (
	cacheFilename  = "tmdb_cache.json"
	failedFilename = "failed_items.json"
)

var (
	flagConfig   string
	flagDryRun   bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "metasync",
	Short:         "Synchronize media metadata and artwork from TMDB",
	Long:          "metasync enumerates the libraries of a Plex-compatible media server,\nresolves each item against TMDB, and keeps per-library metadata documents\nand artwork files up to date.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&flagDryRun, "dry-run", "n", false, "log intended changes without writing anything")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app holds everything a command needs once the configuration is loaded.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *engine.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDryRun {
		cfg.DryRun = true
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if cfg.Plex.URL == "" {
		return nil, fmt.Errorf("plex.url is not configured")
	}
	if cfg.Catalog.APIKey == "" {
		return nil, fmt.Errorf("catalog.api_key is not configured")
	}

	log := logging.New(cfg.LogLevel, os.Stderr)
	if cfg.DryRun {
		log.Info().Msg("dry run, nothing will be written")
	}

	transport := catalog.NewHTTPTransport(cfg.Catalog.APIKey, cfg.Catalog.Language, cfg.Catalog.Region, cfg.Network.Timeout)
	client := catalog.NewClient(transport, catalog.RetryPolicy{
		MaxAttempts:   cfg.Network.MaxRetries,
		Delay:         cfg.Network.RetryDelay,
		BackoffFactor: cfg.Network.BackoffFactor,
	}, cfg.Catalog.RequestsPerSecond, log)
	service := catalog.NewService(client, cfg.Catalog.Language, log)

	cache, err := store.Open(filepath.Join(cfg.CacheDir, cacheFilename), cfg.DryRun, log)
	if err != nil {
		return nil, err
	}
	failed, err := store.OpenFailed(filepath.Join(cfg.CacheDir, failedFilename), cfg.DryRun, log)
	if err != nil {
		return nil, err
	}

	resolver := resolve.New(cache, failed, service, log)
	server := plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, cfg.Network.Timeout, log)

	return &app{
		cfg:    cfg,
		log:    log,
		engine: engine.New(cfg, server, service, resolver, cache, failed, log),
	}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
