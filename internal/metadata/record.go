// Package metadata builds, diffs and persists Kometa-style metadata records.
package metadata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Match identifies a record to the consumer that applies it. MappingID is the
// external catalog identifier, kept as a string so numeric and "tt"-prefixed
// ids share one field.
type Match struct {
	Title     string `yaml:"title"`
	Year      int    `yaml:"year"`
	MappingID string `yaml:"mapping_id"`
}

// Episode is the per-episode block of a season.
type Episode struct {
	Title               string   `yaml:"title"`
	SortTitle           string   `yaml:"sort_title"`
	OriginallyAvailable string   `yaml:"originally_available"`
	Runtime             int      `yaml:"runtime,omitempty"`
	Summary             string   `yaml:"summary"`
	Cast                []string `yaml:"cast,omitempty"`
	Guest               []string `yaml:"guest,omitempty"`
	Director            []string `yaml:"director,omitempty"`
	Writer              []string `yaml:"writer,omitempty"`
}

// Season is the per-season block of a show record, keyed by episode number.
type Season struct {
	OriginallyAvailable string          `yaml:"originally_available"`
	Episodes            map[int]Episode `yaml:"episodes,omitempty"`
}

// Record is one movie or show entry of a metadata document.
type Record struct {
	Match               Match          `yaml:"match"`
	SortTitle           string         `yaml:"sort_title"`
	OriginalTitle       string         `yaml:"original_title"`
	OriginallyAvailable string         `yaml:"originally_available"`
	ContentRating       string         `yaml:"content_rating"`
	Studio              string         `yaml:"studio"`
	Runtime             int            `yaml:"runtime,omitempty"`
	Tagline             string         `yaml:"tagline"`
	Summary             string         `yaml:"summary"`
	Country             []string       `yaml:"country"`
	Genre               []string       `yaml:"genre"`
	Cast                []string       `yaml:"cast,omitempty"`
	Director            []string       `yaml:"director,omitempty"`
	Writer              []string       `yaml:"writer,omitempty"`
	Producer            []string       `yaml:"producer,omitempty"`
	Collection          string         `yaml:"collection,omitempty"`
	Seasons             map[int]Season `yaml:"seasons,omitempty"`
}

// asMap renders the record into the generic shape documents are stored in, so
// a freshly built record and a record read back from disk compare the same
// way.
func (r Record) asMap() (map[string]any, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode metadata record: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata record: %w", err)
	}
	return m, nil
}

// body returns the record fields that participate in change detection. The
// match block and the season tree are carried along on a rewrite but do not
// by themselves force one.
func (r Record) body() (map[string]any, error) {
	m, err := r.asMap()
	if err != nil {
		return nil, err
	}
	delete(m, "match")
	delete(m, "seasons")
	return m, nil
}
