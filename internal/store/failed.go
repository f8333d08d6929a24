package store

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// FailedStore is the negative cache of lookups that found nothing. Entries
// never expire on their own; reconciliation or a manual cache edit clears
// them.
type FailedStore struct {
	path     string
	readOnly bool

	mu   sync.Mutex
	keys map[string]bool

	flock *flock.Flock
	log   zerolog.Logger
}

// OpenFailed loads the failed-lookup cache at path, or starts empty.
func OpenFailed(path string, readOnly bool, log zerolog.Logger) (*FailedStore, error) {
	s := &FailedStore{
		path:     path,
		readOnly: readOnly,
		keys:     make(map[string]bool),
		flock:    flock.New(path + ".lock"),
		log:      log,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read failed-lookup cache: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.keys); err != nil {
		return nil, fmt.Errorf("parse failed-lookup cache %s: %w", path, err)
	}
	return s, nil
}

// Contains reports whether a key is recorded as a dead lookup.
func (s *FailedStore) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key]
}

// Mark records a dead lookup and flushes the cache.
func (s *FailedStore) Mark(key string) error {
	s.mu.Lock()
	s.keys[key] = true
	s.mu.Unlock()
	return s.Save()
}

// Delete clears a key. The caller decides when to flush.
func (s *FailedStore) Delete(key string) {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}

// Keys returns all recorded keys, sorted.
func (s *FailedStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the whole cache to disk atomically.
func (s *FailedStore) Save() error {
	if s.readOnly {
		s.log.Debug().Str("path", s.path).Msg("dry run, skipping failed cache save")
		return nil
	}

	s.mu.Lock()
	snapshot := make(map[string]bool, len(s.keys))
	for k, v := range s.keys {
		snapshot[k] = v
	}
	s.mu.Unlock()

	return writeJSONFile(s.path, s.flock, snapshot)
}
