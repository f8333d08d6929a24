// Package resolve maps local media items to stable catalog identifiers.
package resolve

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"metasync/internal/catalog"
	"metasync/internal/media"
	"metasync/internal/store"
)

// guidScheme is the external-identifier scheme the resolver trusts from the
// media server's embedded GUIDs.
const guidScheme = "tmdb"

// Searcher is the catalog search operation the resolver falls back to.
type Searcher interface {
	Search(ctx context.Context, t media.Type, query string, year int) ([]catalog.SearchResult, error)
}

// Resolver resolves `(title, year, mediaType)` to an external identifier.
// Resolution for one key runs under a key-scoped critical section so two
// workers never perform the same remote search: the first writes the cache
// entry, the second observes it.
type Resolver struct {
	cache    *store.Store
	failed   *store.FailedStore
	searcher Searcher
	locks    *keyedMutex
	log      zerolog.Logger

	now func() time.Time
}

// New builds a resolver over the persistent caches and a catalog searcher.
func New(cache *store.Store, failed *store.FailedStore, searcher Searcher, log zerolog.Logger) *Resolver {
	return &Resolver{
		cache:    cache,
		failed:   failed,
		searcher: searcher,
		locks:    newKeyedMutex(),
		log:      log,
		now:      time.Now,
	}
}

// Resolve returns the external id for an item. found is false when every
// fallback came up empty; in that case the key is recorded in the negative
// cache and later calls return immediately without any remote traffic.
// A non-nil error means the outcome is unknown (e.g. the catalog was
// unreachable) and nothing is recorded.
func (r *Resolver) Resolve(ctx context.Context, item media.Item) (string, bool, error) {
	key := item.Key()
	unlock := r.locks.Lock(key)
	defer unlock()

	if entry, ok := r.cache.Get(key); ok {
		if entry.LegacyFailed {
			return "", false, nil
		}
		if entry.ExternalID != "" {
			r.log.Debug().Str("key", key).Str("id", entry.ExternalID).Msg("resolved from cache")
			return entry.ExternalID, true, nil
		}
	}

	if r.failed.Contains(key) {
		r.log.Debug().Str("key", key).Msg("skipping known dead lookup")
		return "", false, nil
	}

	if id, ok := item.GUIDValue(guidScheme); ok && id != "" {
		r.persist(key, item, id)
		r.log.Debug().Str("key", key).Str("id", id).Msg("resolved from embedded identifier")
		return id, true, nil
	}

	id, found, err := r.search(ctx, item)
	if err != nil {
		return "", false, err
	}
	if !found {
		if err := r.failed.Mark(key); err != nil {
			r.log.Error().Err(err).Str("key", key).Msg("recording dead lookup failed")
		}
		r.log.Warn().Str("key", key).Msg("could not resolve external id")
		return "", false, nil
	}

	r.persist(key, item, id)
	r.log.Debug().Str("key", key).Str("id", id).Msg("resolved from search")
	return id, true, nil
}

// search walks the query variants in order and stops at the first non-empty
// result list. Variants with a cleaned title are only tried when cleaning
// actually changed the title.
func (r *Resolver) search(ctx context.Context, item media.Item) (string, bool, error) {
	type variant struct {
		query string
		year  int
	}

	variants := []variant{
		{item.Title, item.Year},
		{item.Title, 0},
	}
	if cleaned := media.CleanTitle(item.Title); cleaned != "" && cleaned != item.Title {
		variants = append(variants, variant{cleaned, item.Year}, variant{cleaned, 0})
	}

	for _, v := range variants {
		results, err := r.searcher.Search(ctx, item.Type, v.query, v.year)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", false, err
		}
		if len(results) == 0 {
			continue
		}
		// Results are pre-sorted by (vote count, popularity) descending.
		return strconv.Itoa(results[0].ID), true, nil
	}
	return "", false, nil
}

func (r *Resolver) persist(key string, item media.Item, id string) {
	entry, _ := r.cache.Get(key)
	entry.ExternalID = id
	entry.Title = item.Title
	entry.Year = item.Year
	entry.MediaType = item.Type
	entry.LastUpdated = r.now()
	entry.LegacyFailed = false
	if err := r.cache.Put(key, entry); err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("persisting resolved id failed")
	}
}
