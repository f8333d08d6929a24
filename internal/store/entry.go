package store

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"metasync/internal/media"
)

// VoteAverageMetric is the quality metric recorded for saved artwork.
const VoteAverageMetric = "vote_average"

// Entry is one resolved media unit in the identifier cache. Entries written
// by older versions may be a bare scalar identifier or boolean true instead
// of an object; both still decode. New writes always use the structured
// shape.
type Entry struct {
	ExternalID     string             `json:"tmdb_id"`
	Title          string             `json:"title,omitempty"`
	Year           int                `json:"year,omitempty"`
	MediaType      media.Type         `json:"media_type,omitempty"`
	QualityMetrics map[string]float64 `json:"quality_metrics,omitempty"`
	LastUpdated    time.Time          `json:"last_updated,omitempty"`

	// LegacyFailed is set when the entry decoded from a bare boolean,
	// a shape older versions used to mark dead lookups inline.
	LegacyFailed bool `json:"-"`
}

// Quality returns a recorded quality metric, zero when absent.
func (e Entry) Quality(name string) float64 {
	return e.QualityMetrics[name]
}

// WithQuality returns a copy of the entry with one metric set.
func (e Entry) WithQuality(name string, value float64) Entry {
	metrics := make(map[string]float64, len(e.QualityMetrics)+1)
	for k, v := range e.QualityMetrics {
		metrics[k] = v
	}
	metrics[name] = value
	e.QualityMetrics = metrics
	return e
}

// MarshalJSON always writes the structured shape; the legacy scalar and
// boolean forms are read-only compatibility.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := struct {
		ExternalID     string             `json:"tmdb_id"`
		Title          string             `json:"title,omitempty"`
		Year           int                `json:"year,omitempty"`
		MediaType      media.Type         `json:"media_type,omitempty"`
		QualityMetrics map[string]float64 `json:"quality_metrics,omitempty"`
		LastUpdated    string             `json:"last_updated,omitempty"`
	}{
		ExternalID:     e.ExternalID,
		Title:          e.Title,
		Year:           e.Year,
		MediaType:      e.MediaType,
		QualityMetrics: e.QualityMetrics,
	}
	if !e.LastUpdated.IsZero() {
		out.LastUpdated = e.LastUpdated.Format(time.RFC3339)
	}
	return json.Marshal(out)
}

type entryAlias struct {
	ExternalID     json.RawMessage    `json:"tmdb_id"`
	Title          string             `json:"title"`
	Year           int                `json:"year"`
	MediaType      media.Type         `json:"media_type"`
	QualityMetrics map[string]float64 `json:"quality_metrics"`
	VoteAverage    float64            `json:"vote_average"`
	LastUpdated    string             `json:"last_updated"`
}

// UnmarshalJSON accepts the structured shape, a bare string or numeric
// identifier, or boolean true.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty cache entry")
	}

	switch data[0] {
	case '{':
		var alias entryAlias
		if err := json.Unmarshal(data, &alias); err != nil {
			return err
		}
		e.ExternalID = scalarToString(alias.ExternalID)
		e.Title = alias.Title
		e.Year = alias.Year
		e.MediaType = alias.MediaType
		e.QualityMetrics = alias.QualityMetrics
		// Older entries recorded the poster vote average as a flat field.
		if alias.VoteAverage != 0 && e.QualityMetrics == nil {
			e.QualityMetrics = map[string]float64{VoteAverageMetric: alias.VoteAverage}
		}
		e.LastUpdated = parseTimestamp(alias.LastUpdated)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		e.LegacyFailed = b
		return nil
	default:
		e.ExternalID = scalarToString(json.RawMessage(data))
		return nil
	}
}

func scalarToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
