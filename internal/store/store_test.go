package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"metasync/internal/media"
)

func TestEntryUnmarshalShapes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		raw  string
		want Entry
	}{
		"structured": {
			raw: `{"tmdb_id":"438631","title":"Dune","year":2021,"media_type":"movie",
				"quality_metrics":{"vote_average":5.8},"last_updated":"2024-03-01T10:00:00Z"}`,
			want: Entry{
				ExternalID:     "438631",
				Title:          "Dune",
				Year:           2021,
				MediaType:      media.TypeMovie,
				QualityMetrics: map[string]float64{"vote_average": 5.8},
				LastUpdated:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		"numeric id in object": {
			raw:  `{"tmdb_id":438631}`,
			want: Entry{ExternalID: "438631"},
		},
		"legacy flat vote average": {
			raw: `{"tmdb_id":"438631","vote_average":6.5}`,
			want: Entry{
				ExternalID:     "438631",
				QualityMetrics: map[string]float64{"vote_average": 6.5},
			},
		},
		"bare string": {
			raw:  `"438631"`,
			want: Entry{ExternalID: "438631"},
		},
		"bare number": {
			raw:  `438631`,
			want: Entry{ExternalID: "438631"},
		},
		"legacy failed marker": {
			raw:  `true`,
			want: Entry{LegacyFailed: true},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got Entry
			if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tc.raw, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("entry mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEntryMarshalIsStructured(t *testing.T) {
	t.Parallel()

	e := Entry{ExternalID: "42", Title: "Up", Year: 2009, MediaType: media.TypeMovie}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}

	var round Entry
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(e, round); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStorePutPersists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	s, err := Open(path, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	entry := Entry{
		ExternalID: "603",
		Title:      "The Matrix",
		Year:       1999,
		MediaType:  media.TypeMovie,
	}
	if err := s.Put("movie:The Matrix:1999", entry); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	// A fresh store sees the entry.
	reopened, err := Open(path, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reopened.Get("movie:The Matrix:1999")
	if !ok {
		t.Fatal("entry missing after reopen")
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreReadsLegacyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	legacy := `{
		"movie:Old Film:1990": 11862,
		"tv:Old Show:1999": {"tmdb_id": "456", "vote_average": 4.2}
	}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	movie, ok := s.Get("movie:Old Film:1990")
	if !ok || movie.ExternalID != "11862" {
		t.Errorf("legacy scalar entry = (%+v, %v), want id 11862", movie, ok)
	}
	show, ok := s.Get("tv:Old Show:1999")
	if !ok || show.Quality(VoteAverageMetric) != 4.2 {
		t.Errorf("legacy object entry = (%+v, %v), want vote_average 4.2", show, ok)
	}
}

func TestStoreDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	s, err := Open(path, true, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("movie:Dune:2021", Entry{ExternalID: "438631"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cache file exists after dry-run put (stat err = %v)", err)
	}
	// The in-memory view still updated.
	if _, ok := s.Get("movie:Dune:2021"); !ok {
		t.Error("in-memory entry missing in dry-run mode")
	}
}

func TestFailedStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "failed.json")
	s, err := OpenFailed(path, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if s.Contains("movie:Nothing:2000") {
		t.Error("Contains on empty store = true")
	}
	if err := s.Mark("movie:Nothing:2000"); err != nil {
		t.Fatalf("Mark returned error: %v", err)
	}

	reopened, err := OpenFailed(path, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if !reopened.Contains("movie:Nothing:2000") {
		t.Error("marked key missing after reopen")
	}

	reopened.Delete("movie:Nothing:2000")
	if reopened.Contains("movie:Nothing:2000") {
		t.Error("key still present after Delete")
	}
}
