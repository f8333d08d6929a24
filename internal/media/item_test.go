package media

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		typ   Type
		title string
		year  int
		want  string
	}{
		"movie": {TypeMovie, "Dune", 2021, "movie:Dune:2021"},
		"show":  {TypeTV, "Breaking Bad", 2008, "tv:Breaking Bad:2008"},
		"title with colon": {
			TypeMovie, "Blade Runner: 2049", 2017, "movie:Blade Runner: 2049:2017",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := Key(tc.typ, tc.title, tc.year); got != tc.want {
				t.Errorf("Key(%v, %q, %d) = %q, want %q", tc.typ, tc.title, tc.year, got, tc.want)
			}
		})
	}
}

func TestSeasonKey(t *testing.T) {
	t.Parallel()

	got := SeasonKey("Breaking Bad", 2008, 3)
	want := "tv:Breaking Bad:2008:season3"
	if got != want {
		t.Errorf("SeasonKey(...) = %q, want %q", got, want)
	}
}

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want string
	}{
		"no parenthetical":   {"Movie", "Movie"},
		"trailing":           {"Movie (Extended Cut)", "Movie"},
		"middle":             {"Movie (2019) Redux", "Movie Redux"},
		"empty":              {"", ""},
		"only parenthetical": {"(1984)", ""},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := CleanTitle(tc.in); got != tc.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestGUID(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		guid       GUID
		wantScheme string
		wantValue  string
	}{
		"tmdb":         {"tmdb://603", "tmdb", "603"},
		"imdb":         {"imdb://tt0133093", "imdb", "tt0133093"},
		"query suffix": {"tmdb://603?lang=en", "tmdb", "603"},
		"no scheme":    {"603", "", "603"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.guid.Scheme(); got != tc.wantScheme {
				t.Errorf("Scheme(%q) = %q, want %q", tc.guid, got, tc.wantScheme)
			}
			if got := tc.guid.Value(); got != tc.wantValue {
				t.Errorf("Value(%q) = %q, want %q", tc.guid, got, tc.wantValue)
			}
		})
	}
}

func TestItemGUIDValue(t *testing.T) {
	t.Parallel()

	item := Item{
		Title: "The Matrix",
		Year:  1999,
		Type:  TypeMovie,
		GUIDs: []GUID{"imdb://tt0133093", "tmdb://603"},
	}

	id, ok := item.GUIDValue("tmdb")
	if !ok || id != "603" {
		t.Errorf("GUIDValue(tmdb) = (%q, %v), want (603, true)", id, ok)
	}
	if _, ok := item.GUIDValue("tvdb"); ok {
		t.Error("GUIDValue(tvdb) = ok, want miss")
	}

	if diff := cmp.Diff("movie:The Matrix:1999", item.Key()); diff != "" {
		t.Errorf("Key mismatch (-want +got):\n%s", diff)
	}
	if got := item.TitleYear(); got != "The Matrix (1999)" {
		t.Errorf("TitleYear() = %q, want %q", got, "The Matrix (1999)")
	}
}
