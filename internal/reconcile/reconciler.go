// Package reconcile removes cache entries, metadata records and asset files
// that no longer correspond to a live media item.
package reconcile

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"

	"metasync/internal/media"
	"metasync/internal/metadata"
	"metasync/internal/store"
)

var seasonFileRe = regexp.MustCompile(`^Season\d+\.jpg$`)

// Classes controls which asset classes are actively managed. A managed class
// is pruned strictly (files outside live item directories go); an unmanaged
// class is swept entirely except for protected paths.
type Classes struct {
	Poster     bool
	Season     bool
	Background bool

	PosterFile     string
	BackgroundFile string
}

// Result counts what a reconciliation pass removed per store.
type Result struct {
	CacheEntries    int
	FailedEntries   int
	MetadataRecords int
	AssetFiles      int
}

// Total is the combined number of removals.
func (r Result) Total() int {
	return r.CacheEntries + r.FailedEntries + r.MetadataRecords + r.AssetFiles
}

// Reconciler prunes the persistent stores against the live library state.
// Every removal is best-effort: a failure is logged and the pass moves on.
type Reconciler struct {
	cache     *store.Store
	failed    *store.FailedStore
	assetRoot string
	classes   Classes
	dryRun    bool
	log       zerolog.Logger
}

// New builds a reconciler over the identifier caches and the asset tree.
func New(cache *store.Store, failed *store.FailedStore, assetRoot string, classes Classes, dryRun bool, log zerolog.Logger) *Reconciler {
	if classes.PosterFile == "" {
		classes.PosterFile = "poster.jpg"
	}
	if classes.BackgroundFile == "" {
		classes.BackgroundFile = "fanart.jpg"
	}
	return &Reconciler{
		cache:     cache,
		failed:    failed,
		assetRoot: assetRoot,
		classes:   classes,
		dryRun:    dryRun,
		log:       log,
	}
}

// liveSet holds every identity a live item can appear under, computed once
// per pass.
type liveSet struct {
	keys   map[string]bool
	titles map[string]bool
	dirs   map[string]bool
}

func buildLiveSet(items []media.Item) liveSet {
	live := liveSet{
		keys:   make(map[string]bool),
		titles: make(map[string]bool),
		dirs:   make(map[string]bool),
	}
	for _, item := range items {
		if item.Title == "" || item.Year == 0 {
			continue
		}
		live.keys[item.Key()] = true
		live.titles[item.TitleYear()] = true
		if item.Dir != "" {
			live.dirs[item.Dir] = true
		}
		for season := range item.SeasonEpisodes {
			live.keys[media.SeasonKey(item.Title, item.Year, season)] = true
		}
	}
	return live
}

// Run prunes everything dead in one pass. protected lists asset paths written
// during the current run, which are never removed regardless of class rules.
func (r *Reconciler) Run(items []media.Item, docs []*metadata.Document, protected map[string]bool) Result {
	live := buildLiveSet(items)

	var res Result
	res.CacheEntries, res.FailedEntries = r.pruneCaches(live)
	res.MetadataRecords = r.pruneDocuments(live, docs)
	res.AssetFiles = r.pruneAssets(live, protected)

	r.log.Info().
		Int("cache", res.CacheEntries).
		Int("failed", res.FailedEntries).
		Int("metadata", res.MetadataRecords).
		Int("assets", res.AssetFiles).
		Bool("dry_run", r.dryRun).
		Msg("reconciliation finished")
	return res
}

func (r *Reconciler) pruneCaches(live liveSet) (cacheRemoved, failedRemoved int) {
	for _, key := range r.cache.Keys() {
		if live.keys[key] {
			continue
		}
		if r.dryRun {
			r.log.Info().Str("key", key).Msg("would remove dead cache entry")
			continue
		}
		r.cache.Delete(key)
		cacheRemoved++
		r.log.Debug().Str("key", key).Msg("removed dead cache entry")
	}
	if cacheRemoved > 0 {
		if err := r.cache.Save(); err != nil {
			r.log.Error().Err(err).Msg("saving identifier cache failed")
		}
	}

	for _, key := range r.failed.Keys() {
		if live.keys[key] {
			continue
		}
		if r.dryRun {
			r.log.Info().Str("key", key).Msg("would remove dead failed-lookup entry")
			continue
		}
		r.failed.Delete(key)
		failedRemoved++
		r.log.Debug().Str("key", key).Msg("removed dead failed-lookup entry")
	}
	if failedRemoved > 0 {
		if err := r.failed.Save(); err != nil {
			r.log.Error().Err(err).Msg("saving failed-lookup cache failed")
		}
	}
	return cacheRemoved, failedRemoved
}

func (r *Reconciler) pruneDocuments(live liveSet, docs []*metadata.Document) int {
	removed := 0
	for _, doc := range docs {
		changed := false
		for _, key := range doc.Keys() {
			if live.titles[key] {
				continue
			}
			if r.dryRun {
				r.log.Info().Str("key", key).Msg("would remove dead metadata record")
				continue
			}
			doc.Delete(key)
			changed = true
			removed++
			r.log.Debug().Str("key", key).Msg("removed dead metadata record")
		}
		if changed {
			if err := doc.Save(); err != nil {
				r.log.Error().Err(err).Msg("saving metadata document failed")
			}
		}
	}
	return removed
}

func (r *Reconciler) pruneAssets(live liveSet, protected map[string]bool) int {
	if r.assetRoot == "" {
		return 0
	}

	removed := 0
	err := filepath.WalkDir(r.assetRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("asset walk error")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		var strict bool
		switch {
		case name == r.classes.PosterFile:
			strict = r.classes.Poster
		case name == r.classes.BackgroundFile:
			strict = r.classes.Background
		case seasonFileRe.MatchString(name):
			strict = r.classes.Season
		default:
			return nil
		}

		if protected[path] {
			return nil
		}
		// A managed class keeps every file whose item directory is still
		// live; an unmanaged class is swept whole.
		if strict && live.dirs[filepath.Base(filepath.Dir(path))] {
			return nil
		}

		if r.dryRun {
			r.log.Info().Str("path", path).Msg("would remove orphaned asset")
			return nil
		}
		if err := os.Remove(path); err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("removing orphaned asset failed")
			return nil
		}
		removed++
		r.log.Debug().Str("path", path).Msg("removed orphaned asset")
		r.removeIfEmpty(filepath.Dir(path))
		return nil
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("asset walk aborted")
	}
	return removed
}

// removeIfEmpty deletes an item directory once its last asset is gone, but
// never the asset root itself.
func (r *Reconciler) removeIfEmpty(dir string) {
	if dir == r.assetRoot {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		r.log.Warn().Err(err).Str("path", dir).Msg("removing empty asset directory failed")
		return
	}
	r.log.Debug().Str("path", dir).Msg("removed empty asset directory")
}
