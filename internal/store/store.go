// Package store persists the identifier cache and the failed-lookup cache as
// JSON files. Every save is a whole-file replace through a temp file, guarded
// by an in-process mutex and a cross-process file lock.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/rs/zerolog"
)

// Store is the persistent identifier cache shared by all workers. Reads go
// to a concurrent in-memory view; writes flush the whole structure to disk.
type Store struct {
	path     string
	readOnly bool

	entries *csmap.CsMap[string, Entry]

	saveMu sync.Mutex
	flock  *flock.Flock
	log    zerolog.Logger
}

// Open loads the cache at path, or starts empty when the file is missing.
// readOnly suppresses every disk write (dry-run mode).
func Open(path string, readOnly bool, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		readOnly: readOnly,
		entries:  csmap.Create[string, Entry](),
		flock:    flock.New(path + ".lock"),
		log:      log,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debug().Str("path", path).Msg("identifier cache missing, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identifier cache: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse identifier cache %s: %w", path, err)
	}
	for key, entry := range raw {
		s.entries.Store(key, entry)
	}
	log.Debug().Int("entries", len(raw)).Str("path", path).Msg("identifier cache loaded")
	return s, nil
}

// Get returns the entry for a composite key.
func (s *Store) Get(key string) (Entry, bool) {
	return s.entries.Load(key)
}

// Put replaces the entry for a key and flushes the cache to disk. The entry
// is always written whole; there are no partial updates.
func (s *Store) Put(key string, entry Entry) error {
	s.entries.Store(key, entry)
	return s.Save()
}

// Delete removes a key. The caller decides when to flush.
func (s *Store) Delete(key string) {
	s.entries.Delete(key)
}

// Keys returns all composite keys in the cache, sorted for stable iteration.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.entries.Count())
	s.entries.Range(func(key string, _ Entry) bool {
		keys = append(keys, key)
		return false
	})
	sort.Strings(keys)
	return keys
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	return s.entries.Count()
}

// Save writes the whole cache to disk atomically. In read-only mode it logs
// and does nothing.
func (s *Store) Save() error {
	if s.readOnly {
		s.log.Debug().Str("path", s.path).Msg("dry run, skipping cache save")
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := make(map[string]Entry, s.entries.Count())
	s.entries.Range(func(key string, entry Entry) bool {
		snapshot[key] = entry
		return false
	})

	return writeJSONFile(s.path, s.flock, snapshot)
}

// writeJSONFile marshals v and replaces path with the result via a temp file
// rename, holding the cross-process lock for the duration of the write.
func writeJSONFile(path string, lock *flock.Flock, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache file: %w", err)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
