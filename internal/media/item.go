// Package media defines the contract between the media-server client and the
// sync engine. The resolver and builders depend only on these types, never on
// a concrete server client.
package media

import (
	"fmt"
	"regexp"
	"strings"
)

// Type identifies the kind of media unit a cache entry describes.
type Type string

const (
	TypeMovie    Type = "movie"
	TypeTV       Type = "tv"
	TypeTVSeason Type = "tv_season"
)

// GUID is an external identifier embedded in the media server's own records,
// carrying a scheme prefix such as "tmdb://603", "imdb://tt0133093" or
// "tvdb://73739".
type GUID string

// Scheme returns the identifier scheme ("tmdb", "imdb", ...) or "" when the
// GUID carries no scheme separator.
func (g GUID) Scheme() string {
	s := string(g)
	i := strings.Index(s, "://")
	if i < 0 {
		return ""
	}
	return s[:i]
}

// Value returns the bare identifier with the scheme prefix and any query
// suffix stripped.
func (g GUID) Value() string {
	s := string(g)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	return s
}

// Item is a single live media unit as reported by the media server. The
// fields mirror what every supported server can provide; anything optional is
// zero-valued when unknown.
type Item struct {
	// RatingKey is the server's own stable identifier for the item.
	RatingKey string

	Title string
	Year  int
	Type  Type

	// GUIDs lists the external identifiers the server has already matched
	// for this item.
	GUIDs []GUID

	// Library is the name of the library section the item belongs to.
	Library string

	// Dir is the name of the item's on-disk directory (not a full path),
	// used to derive asset locations.
	Dir string

	// SeasonEpisodes maps season number to the episode numbers present on
	// disk. Only populated for shows; season 0 (specials) is included when
	// the server reports it.
	SeasonEpisodes map[int][]int
}

// Key returns the composite cache key for the item, e.g. "movie:Dune:2021".
func (it Item) Key() string {
	return Key(it.Type, it.Title, it.Year)
}

// TitleYear returns the human-readable document key, e.g. "Dune (2021)".
func (it Item) TitleYear() string {
	return fmt.Sprintf("%s (%d)", it.Title, it.Year)
}

// GUIDValue returns the embedded identifier for the given scheme, if any.
func (it Item) GUIDValue(scheme string) (string, bool) {
	for _, g := range it.GUIDs {
		if g.Scheme() == scheme {
			return g.Value(), true
		}
	}
	return "", false
}

// Key builds the composite cache key for a movie or show.
func Key(t Type, title string, year int) string {
	return fmt.Sprintf("%s:%s:%d", t, title, year)
}

// SeasonKey builds the composite cache key for one season of a show,
// e.g. "tv:Breaking Bad:2008:season3".
func SeasonKey(title string, year, season int) string {
	return fmt.Sprintf("%s:%s:%d:season%d", TypeTV, title, year, season)
}

var trailingParenRe = regexp.MustCompile(`\s*\(.*?\)`)

// CleanTitle strips parenthetical qualifiers from a title, so that
// "Movie (Extended Cut)" searches as "Movie". Returns the input unchanged
// when there is nothing to strip.
func CleanTitle(title string) string {
	return strings.TrimSpace(trailingParenRe.ReplaceAllString(title, ""))
}
