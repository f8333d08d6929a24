package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Document is one consolidated metadata file: a top-level "metadata" map of
// "Title (Year)" keys to records. Records are held in their generic decoded
// shape so fields this tool does not know about survive a round trip.
type Document struct {
	path     string
	readOnly bool

	mu      sync.Mutex
	records map[string]map[string]any

	flock *flock.Flock
	log   zerolog.Logger
}

type documentFile struct {
	Metadata map[string]map[string]any `yaml:"metadata"`
}

// LoadDocument reads the metadata document at path, or starts empty when the
// file is missing. readOnly suppresses every disk write.
func LoadDocument(path string, readOnly bool, log zerolog.Logger) (*Document, error) {
	d := &Document{
		path:     path,
		readOnly: readOnly,
		records:  make(map[string]map[string]any),
		flock:    flock.New(path + ".lock"),
		log:      log,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debug().Str("path", path).Msg("metadata document missing, starting empty")
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata document: %w", err)
	}

	var file documentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse metadata document %s: %w", path, err)
	}
	if file.Metadata != nil {
		d.records = file.Metadata
	}
	log.Debug().Int("records", len(d.records)).Str("path", path).Msg("metadata document loaded")
	return d, nil
}

// Upsert applies a freshly built record under its "Title (Year)" key. When
// nothing comparable changed the existing record is preserved byte for byte;
// otherwise the record is replaced whole. Returns the changed field names,
// empty on a preserve.
func (d *Document) Upsert(key string, rec Record) ([]string, error) {
	candidate, err := rec.body()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.records[key]
	if ok {
		changed := Diff(existing, candidate)
		if len(changed) == 0 {
			d.log.Debug().Str("key", key).Msg("metadata unchanged, preserving existing record")
			return nil, nil
		}
		d.log.Debug().Str("key", key).Strs("fields", changed).Msg("metadata changed")
		full, err := rec.asMap()
		if err != nil {
			return nil, err
		}
		d.records[key] = full
		return changed, nil
	}

	full, err := rec.asMap()
	if err != nil {
		return nil, err
	}
	d.records[key] = full

	changed := make([]string, 0, len(candidate))
	for field := range candidate {
		changed = append(changed, field)
	}
	sort.Strings(changed)
	return changed, nil
}

// Get returns the stored record for a key.
func (d *Document) Get(key string) (map[string]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[key]
	return rec, ok
}

// Delete removes a record. The caller decides when to flush.
func (d *Document) Delete(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.records, key)
}

// Keys returns all record keys, sorted.
func (d *Document) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.records))
	for k := range d.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of records.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// Save writes the whole document to disk atomically. In read-only mode it
// logs and does nothing.
func (d *Document) Save() error {
	if d.readOnly {
		d.log.Debug().Str("path", d.path).Msg("dry run, skipping metadata save")
		return nil
	}

	d.mu.Lock()
	snapshot := make(map[string]map[string]any, len(d.records))
	for k, v := range d.records {
		snapshot[k] = v
	}
	d.mu.Unlock()

	data, err := yaml.Marshal(documentFile{Metadata: snapshot})
	if err != nil {
		return fmt.Errorf("encode metadata document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	if err := d.flock.Lock(); err != nil {
		return fmt.Errorf("lock metadata document: %w", err)
	}
	defer d.flock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write metadata document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close metadata document: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace metadata document: %w", err)
	}
	return nil
}
