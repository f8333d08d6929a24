package catalog

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"metasync/internal/media"
)

func newServiceWithBody(t *testing.T, body string) *Service {
	t.Helper()
	tr := &scriptedTransport{responses: []*Response{{Status: 200, Body: []byte(body)}}}
	c, _ := newTestClient(t, tr, RetryPolicy{})
	return NewService(c, "en", zerolog.Nop())
}

func TestSearchSortsByVotesThenPopularity(t *testing.T) {
	t.Parallel()

	body := `{"results":[
		{"id":1,"title":"B","vote_count":10,"popularity":1.0},
		{"id":2,"title":"A","vote_count":50,"popularity":0.5},
		{"id":3,"title":"C","vote_count":50,"popularity":9.9}
	]}`
	svc := newServiceWithBody(t, body)

	results, err := svc.Search(context.Background(), media.TypeMovie, "anything", 2020)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	gotIDs := make([]int, len(results))
	for i, r := range results {
		gotIDs[i] = r.ID
	}
	if diff := cmp.Diff([]int{3, 2, 1}, gotIDs); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	t.Parallel()

	svc := newServiceWithBody(t, `{"results":[]}`)

	results, err := svc.Search(context.Background(), media.TypeTV, "unknown show", 0)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search returned %d results, want 0", len(results))
	}
}

func TestMovieDetailsDecode(t *testing.T) {
	t.Parallel()

	body := `{
		"id": 438631,
		"title": "Dune",
		"original_title": "Dune",
		"release_date": "2021-09-15",
		"runtime": 155,
		"genres": [{"name":"Science Fiction"},{"name":"Adventure"}],
		"production_companies": [{"name":"Legendary Pictures"}],
		"production_countries": [{"iso_3166_1":"US"}],
		"credits": {
			"cast": [{"name":"Timothée Chalamet"}],
			"crew": [{"name":"Denis Villeneuve","job":"Director"}]
		},
		"release_dates": {"results":[
			{"iso_3166_1":"US","release_dates":[{"certification":"PG-13"}]}
		]},
		"images": {"posters":[{"file_path":"/a.jpg","iso_639_1":"en","vote_average":5.5,"width":2000,"height":3000}]}
	}`
	svc := newServiceWithBody(t, body)

	details, err := svc.MovieDetails(context.Background(), "438631")
	if err != nil {
		t.Fatalf("MovieDetails returned error: %v", err)
	}
	if details.Title != "Dune" || details.Runtime != 155 {
		t.Errorf("details = %+v, want Dune/155", details)
	}
	if len(details.Images.Posters) != 1 || details.Images.Posters[0].Width != 2000 {
		t.Errorf("poster decode mismatch: %+v", details.Images.Posters)
	}
	if details.Credits.Crew[0].Job != "Director" {
		t.Errorf("crew decode mismatch: %+v", details.Credits.Crew)
	}
}

func TestServiceTrimsRegionalLanguage(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, "en-US", zerolog.Nop())
	if got := svc.imageLanguages(); got != "en,null" {
		t.Errorf("imageLanguages() = %q, want %q", got, "en,null")
	}
}

func TestResponseCache(t *testing.T) {
	t.Parallel()

	rc := NewResponseCache()
	if _, ok := rc.Get("sig"); ok {
		t.Error("Get on empty cache reported a hit")
	}
	rc.Put("sig", []byte("body"))
	body, ok := rc.Get("sig")
	if !ok || string(body) != "body" {
		t.Errorf("Get = (%q, %v), want (body, true)", body, ok)
	}
	if rc.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rc.Len())
	}
}
