// Package engine orchestrates a sync run: enumerate live items, resolve
// identifiers, build metadata documents and place artwork, with a bounded
// worker pool per library.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"metasync/internal/assets"
	"metasync/internal/catalog"
	"metasync/internal/config"
	"metasync/internal/media"
	"metasync/internal/metadata"
	"metasync/internal/plex"
	"metasync/internal/reconcile"
	"metasync/internal/store"
)

// MediaServer enumerates live media items.
type MediaServer interface {
	Sections(ctx context.Context) ([]plex.Section, error)
	Items(ctx context.Context, section plex.Section) ([]media.Item, error)
}

// CatalogService is the remote catalog collaborator.
type CatalogService interface {
	MovieDetails(ctx context.Context, id string) (*catalog.MovieDetails, error)
	TVDetails(ctx context.Context, id string) (*catalog.TVDetails, error)
	SeasonDetails(ctx context.Context, id string, season int) (*catalog.SeasonDetails, error)
	DownloadImage(ctx context.Context, filePath string) ([]byte, error)
}

// IdentifierResolver maps an item to its external catalog identifier.
type IdentifierResolver interface {
	Resolve(ctx context.Context, item media.Item) (string, bool, error)
}

// Engine runs the sync pass across the configured libraries.
type Engine struct {
	cfg      *config.Config
	server   MediaServer
	catalog  CatalogService
	resolver IdentifierResolver
	cache    *store.Store
	failed   *store.FailedStore
	writer   *assets.Writer
	log      zerolog.Logger

	writtenMu sync.Mutex
	written   map[string]bool
}

// New builds an engine over its collaborators.
func New(cfg *config.Config, server MediaServer, cat CatalogService, resolver IdentifierResolver, cache *store.Store, failed *store.FailedStore, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		server:   server,
		catalog:  cat,
		resolver: resolver,
		cache:    cache,
		failed:   failed,
		writer:   assets.NewWriter(cfg.Assets.Path, log),
		log:      log,
		written:  make(map[string]bool),
	}
}

// RunReport aggregates what a full run did.
type RunReport struct {
	Libraries []LibrarySummary
	Reconcile reconcile.Result
}

// Run synchronizes every configured library and, when enabled, finishes with
// an orphan reconciliation pass. A library that fails to enumerate is
// reported and skipped; it never aborts the run. The reconciliation pass only
// runs when every library enumerated: pruning against a live set that is
// known to be missing a library's items would delete that library's cache
// entries, records and artwork as orphans.
func (e *Engine) Run(ctx context.Context) (RunReport, error) {
	sections, err := e.sections(ctx)
	if err != nil {
		return RunReport{}, err
	}

	var report RunReport
	var allItems []media.Item
	var docs []*metadata.Document
	enumerationFailed := false

	for _, section := range sections {
		summary, items, doc, err := e.syncLibrary(ctx, section)
		if err != nil {
			e.log.Error().Err(err).Str("library", section.Title).Msg("library sync failed")
			enumerationFailed = true
			continue
		}
		report.Libraries = append(report.Libraries, summary)
		allItems = append(allItems, items...)
		if doc != nil {
			docs = append(docs, doc)
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	if e.cfg.Cleanup.Enabled {
		if enumerationFailed {
			e.log.Warn().Msg("skipping reconciliation, not every library enumerated")
		} else {
			report.Reconcile = e.reconciler().Run(allItems, docs, e.writtenSnapshot())
		}
	}
	return report, nil
}

// Reconcile runs the orphan pass alone, without syncing.
func (e *Engine) Reconcile(ctx context.Context) (reconcile.Result, error) {
	sections, err := e.sections(ctx)
	if err != nil {
		return reconcile.Result{}, err
	}

	var allItems []media.Item
	var docs []*metadata.Document
	for _, section := range sections {
		items, err := e.server.Items(ctx, section)
		if err != nil {
			return reconcile.Result{}, fmt.Errorf("enumerate %s: %w", section.Title, err)
		}
		allItems = append(allItems, items...)

		if e.cfg.Metadata.Enabled {
			doc, err := e.loadDocument(section)
			if err != nil {
				e.log.Error().Err(err).Str("library", section.Title).Msg("loading metadata document failed")
				continue
			}
			docs = append(docs, doc)
		}
	}
	return e.reconciler().Run(allItems, docs, e.writtenSnapshot()), nil
}

func (e *Engine) sections(ctx context.Context) ([]plex.Section, error) {
	sections, err := e.server.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library sections: %w", err)
	}

	wanted := make(map[string]bool, len(e.cfg.Libraries))
	for _, name := range e.cfg.Libraries {
		wanted[name] = true
	}

	var selected []plex.Section
	for _, s := range sections {
		if s.Type != "movie" && s.Type != "show" {
			continue
		}
		if len(wanted) > 0 && !wanted[s.Title] {
			continue
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// syncLibrary processes one library through the worker pool and returns its
// summary, the live items seen, and the metadata document (nil when metadata
// is disabled).
func (e *Engine) syncLibrary(ctx context.Context, section plex.Section) (LibrarySummary, []media.Item, *metadata.Document, error) {
	summary := LibrarySummary{Library: section.Title}

	items, err := e.server.Items(ctx, section)
	if err != nil {
		return summary, nil, nil, fmt.Errorf("enumerate %s: %w", section.Title, err)
	}
	summary.Items = len(items)
	e.log.Info().Str("library", section.Title).Int("items", len(items)).Msg("library enumerated")

	var doc *metadata.Document
	if e.cfg.Metadata.Enabled {
		doc, err = e.loadDocument(section)
		if err != nil {
			return summary, nil, nil, err
		}
	}

	if len(items) == 0 {
		return summary, nil, doc, nil
	}

	batchCtx := ctx
	if e.cfg.Workers.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, e.cfg.Workers.BatchTimeout)
		defer cancel()
	}

	workerCount := min(e.cfg.Workers.Max, len(items))
	workCh := make(chan media.Item)
	resultCh := make(chan itemResult)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if batchCtx.Err() != nil {
					return
				}
				res := e.processItem(batchCtx, item, doc)
				select {
				case resultCh <- res:
				case <-batchCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, item := range items {
			select {
			case workCh <- item:
			case <-batchCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	received := 0
	for res := range resultCh {
		received++
		summary.apply(res)
		if res.err != nil {
			e.log.Error().Err(res.err).Str("title", res.item.Title).Str("library", section.Title).Msg("item sync failed")
		}
	}
	// Items the batch timeout cut off count as failures, not retries.
	if abandoned := len(items) - received; abandoned > 0 && batchCtx.Err() != nil {
		summary.Failed += abandoned
		e.log.Error().Int("abandoned", abandoned).Str("library", section.Title).Msg("batch timeout reached")
	}

	if doc != nil {
		if err := doc.Save(); err != nil {
			e.log.Error().Err(err).Str("library", section.Title).Msg("saving metadata document failed")
		}
	}
	return summary, items, doc, nil
}

func (e *Engine) loadDocument(section plex.Section) (*metadata.Document, error) {
	path := filepath.Join(e.cfg.Metadata.Directory, documentName(section.Title))
	return metadata.LoadDocument(path, e.cfg.DryRun, e.log)
}

// documentName derives the per-library document file name, e.g.
// "TV Shows" -> "tv_shows.yml".
func documentName(library string) string {
	return strings.ReplaceAll(strings.ToLower(library), " ", "_") + ".yml"
}

func (e *Engine) reconciler() *reconcile.Reconciler {
	classes := reconcile.Classes{
		Poster:         e.cfg.Assets.RunPoster,
		Season:         e.cfg.Assets.RunSeason,
		Background:     e.cfg.Assets.RunBackground,
		PosterFile:     e.cfg.Assets.PosterFile,
		BackgroundFile: e.cfg.Assets.BackgroundFile,
	}
	return reconcile.New(e.cache, e.failed, e.cfg.Assets.Path, classes, e.cfg.DryRun, e.log)
}

func (e *Engine) markWritten(path string) {
	e.writtenMu.Lock()
	e.written[path] = true
	e.writtenMu.Unlock()
}

func (e *Engine) writtenSnapshot() map[string]bool {
	e.writtenMu.Lock()
	defer e.writtenMu.Unlock()
	snapshot := make(map[string]bool, len(e.written))
	for k, v := range e.written {
		snapshot[k] = v
	}
	return snapshot
}
