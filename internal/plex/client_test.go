package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"metasync/internal/media"
)

const sectionsBody = `{
	"MediaContainer": {
		"Directory": [
			{"key": "1", "title": "Movies", "type": "movie"},
			{"key": "2", "title": "TV Shows", "type": "show"}
		]
	}
}`

const movieItemsBody = `{
	"MediaContainer": {
		"Metadata": [{
			"ratingKey": "101",
			"title": "Dune",
			"year": 2021,
			"type": "movie",
			"Guid": [
				{"id": "imdb://tt1160419"},
				{"id": "tmdb://438631"}
			],
			"Media": [{"Part": [{"file": "/data/movies/Dune (2021)/Dune.mkv"}]}]
		}]
	}
}`

const showItemsBody = `{
	"MediaContainer": {
		"Metadata": [{
			"ratingKey": "201",
			"title": "Severance",
			"year": 2022,
			"type": "show",
			"Guid": [{"id": "tmdb://95396"}]
		}]
	}
}`

const showLeavesBody = `{
	"MediaContainer": {
		"Metadata": [
			{"parentIndex": 1, "index": 2, "Media": [{"Part": [{"file": "/data/tv/Severance (2022)/Season 01/S01E02.mkv"}]}]},
			{"parentIndex": 1, "index": 1, "Media": [{"Part": [{"file": "/data/tv/Severance (2022)/Season 01/S01E01.mkv"}]}]},
			{"parentIndex": 2, "index": 1, "Media": [{"Part": [{"file": "/data/tv/Severance (2022)/Season 02/S02E01.mkv"}]}]}
		]
	}
}`

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSections(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{"/library/sections": sectionsBody})
	c := NewClient(srv.URL, "secret", 5*time.Second, zerolog.Nop())

	got, err := c.Sections(context.Background())
	if err != nil {
		t.Fatalf("Sections returned error: %v", err)
	}
	want := []Section{
		{Key: "1", Title: "Movies", Type: "movie"},
		{Key: "2", Title: "TV Shows", Type: "show"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsMovie(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{"/library/sections/1/all": movieItemsBody})
	c := NewClient(srv.URL, "secret", 5*time.Second, zerolog.Nop())

	got, err := c.Items(context.Background(), Section{Key: "1", Title: "Movies", Type: "movie"})
	if err != nil {
		t.Fatalf("Items returned error: %v", err)
	}
	want := []media.Item{{
		RatingKey: "101",
		Title:     "Dune",
		Year:      2021,
		Type:      media.TypeMovie,
		GUIDs:     []media.GUID{"imdb://tt1160419", "tmdb://438631"},
		Library:   "Movies",
		Dir:       "Dune (2021)",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsShow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/library/sections/2/all":         showItemsBody,
		"/library/metadata/201/allLeaves": showLeavesBody,
	})
	c := NewClient(srv.URL, "secret", 5*time.Second, zerolog.Nop())

	got, err := c.Items(context.Background(), Section{Key: "2", Title: "TV Shows", Type: "show"})
	if err != nil {
		t.Fatalf("Items returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}

	item := got[0]
	if item.Type != media.TypeTV || item.Dir != "Severance (2022)" {
		t.Errorf("item = %+v", item)
	}
	wantSeasons := map[int][]int{1: {1, 2}, 2: {1}}
	if diff := cmp.Diff(wantSeasons, item.SeasonEpisodes); diff != "" {
		t.Errorf("season episodes mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsShowKeptWhenLeavesUnavailable(t *testing.T) {
	t.Parallel()

	// No allLeaves route: the episode listing fails, but the show must
	// still be reported so it stays in the live set.
	srv := newTestServer(t, map[string]string{"/library/sections/2/all": showItemsBody})
	c := NewClient(srv.URL, "secret", 5*time.Second, zerolog.Nop())

	got, err := c.Items(context.Background(), Section{Key: "2", Title: "TV Shows", Type: "show"})
	if err != nil {
		t.Fatalf("Items returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}

	item := got[0]
	if item.Title != "Severance" || item.Year != 2022 || item.Type != media.TypeTV {
		t.Errorf("item = %+v", item)
	}
	if item.Dir != "" || item.SeasonEpisodes != nil {
		t.Errorf("partial item carries leaf-derived data: %+v", item)
	}
}

func TestItemsUnauthorized(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{"/library/sections": sectionsBody})
	c := NewClient(srv.URL, "wrong", 5*time.Second, zerolog.Nop())

	if _, err := c.Sections(context.Background()); err == nil {
		t.Fatal("Sections succeeded with a bad token")
	}
}
