package metadata

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"metasync/internal/catalog"
	"metasync/internal/media"
)

// Crew job titles that fold into each record role.
var (
	directorJobs = map[string]bool{
		"Director": true, "Co-Director": true, "Assistant Director": true,
	}
	writerJobs = map[string]bool{
		"Writer": true, "Screenplay": true, "Story": true, "Creator": true,
		"Co-Writer": true, "Author": true, "Adaptation": true,
	}
	producerJobs = map[string]bool{
		"Producer": true, "Executive Producer": true, "Associate Producer": true,
		"Co-Producer": true, "Line Producer": true, "Co-Executive Producer": true,
	}
)

const (
	maxCast   = 10
	maxGuests = 5
)

// certificationRegion selects which country's rating lands in the record.
const certificationRegion = "US"

// BuildMovie assembles a movie record from the catalog's full movie details.
// id is the resolved external identifier; the IMDB id stands in for the
// mapping when it is empty.
func BuildMovie(item media.Item, id string, d *catalog.MovieDetails) Record {
	mapping := id
	if mapping == "" {
		mapping = d.ExternalIDs.IMDBID
	}

	var certification string
	for _, country := range d.ReleaseDates.Results {
		if country.ISO3166 != certificationRegion {
			continue
		}
		for _, rd := range country.ReleaseDates {
			if rd.Certification != "" {
				certification = rd.Certification
				break
			}
		}
		break
	}

	codes := make([]string, 0, len(d.ProductionCountries))
	for _, c := range d.ProductionCountries {
		if c.ISO3166 != "" {
			codes = append(codes, c.ISO3166)
		}
	}

	var collection string
	if d.BelongsToCollection != nil {
		collection = d.BelongsToCollection.Name
	}

	return Record{
		Match:               Match{Title: item.Title, Year: item.Year, MappingID: mapping},
		SortTitle:           item.Title,
		OriginalTitle:       originalOr(d.OriginalTitle, item.Title),
		OriginallyAvailable: d.ReleaseDate,
		ContentRating:       certification,
		Studio:              companyNames(d.ProductionCompanies),
		Runtime:             d.Runtime,
		Tagline:             d.Tagline,
		Summary:             d.Overview,
		Country:             countryNames(codes),
		Genre:               genreNames(d.Genres),
		Cast:                castNames(d.Credits.Cast, maxCast),
		Director:            crewNames(d.Credits.Crew, directorJobs),
		Writer:              crewNames(d.Credits.Crew, writerJobs),
		Producer:            crewNames(d.Credits.Crew, producerJobs),
		Collection:          collection,
	}
}

// BuildShow assembles a show record with its season and episode tree. seasons
// holds the full season details fetched for the show; only seasons and
// episodes the item actually has on disk make it into the record. The mapping
// id prefers the TVDB id, then the IMDB id.
func BuildShow(item media.Item, d *catalog.TVDetails, seasons map[int]*catalog.SeasonDetails) Record {
	var mapping string
	switch {
	case d.ExternalIDs.TVDBID != 0:
		mapping = strconv.Itoa(d.ExternalIDs.TVDBID)
	default:
		mapping = d.ExternalIDs.IMDBID
	}

	var rating string
	for _, r := range d.ContentRatings.Results {
		if r.ISO3166 == certificationRegion {
			rating = r.Rating
			break
		}
	}

	rec := Record{
		Match:               Match{Title: item.Title, Year: item.Year, MappingID: mapping},
		SortTitle:           item.Title,
		OriginalTitle:       originalOr(d.OriginalName, item.Title),
		OriginallyAvailable: d.FirstAirDate,
		ContentRating:       rating,
		Studio:              companyNames(d.Networks),
		Tagline:             d.Tagline,
		Summary:             d.Overview,
		Country:             countryNames(d.OriginCountry),
		Genre:               genreNames(d.Genres),
	}

	tree := make(map[int]Season)
	for num, sd := range seasons {
		if num == 0 || sd == nil {
			continue
		}
		wanted, ok := item.SeasonEpisodes[num]
		if !ok {
			continue
		}
		tree[num] = buildSeason(sd, wanted, d.Credits)
	}
	if len(tree) > 0 {
		rec.Seasons = tree
	}
	return rec
}

func buildSeason(sd *catalog.SeasonDetails, wanted []int, show catalog.Credits) Season {
	present := make(map[int]bool, len(wanted))
	for _, ep := range wanted {
		present[ep] = true
	}

	episodes := make(map[int]Episode)
	for _, ep := range sd.Episodes {
		if !present[ep.EpisodeNumber] {
			continue
		}

		// Episode credits fall back to the season's, then the show's, so a
		// sparse catalog record still yields a populated block.
		crew := ep.Crew
		if len(crew) == 0 {
			crew = sd.Credits.Crew
		}
		if len(crew) == 0 {
			crew = show.Crew
		}
		cast := ep.Credits.Cast
		if len(cast) == 0 {
			cast = sd.Credits.Cast
		}
		if len(cast) == 0 {
			cast = show.Cast
		}

		episodes[ep.EpisodeNumber] = Episode{
			Title:               ep.Name,
			SortTitle:           ep.Name,
			OriginallyAvailable: ep.AirDate,
			Runtime:             ep.Runtime,
			Summary:             ep.Overview,
			Cast:                castNames(cast, maxCast),
			Guest:               castNames(ep.Credits.GuestStars, maxGuests),
			Director:            crewNames(crew, directorJobs),
			Writer:              crewNames(crew, writerJobs),
		}
	}

	s := Season{OriginallyAvailable: sd.AirDate}
	if len(episodes) > 0 {
		s.Episodes = episodes
	}
	return s
}

func originalOr(original, fallback string) string {
	if original != "" {
		return original
	}
	return fallback
}

func genreNames(genres []catalog.Genre) []string {
	var names []string
	for _, g := range genres {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

func companyNames(companies []catalog.Company) string {
	var names []string
	for _, c := range companies {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return strings.Join(names, ", ")
}

func castNames(cast []catalog.CastMember, limit int) []string {
	var names []string
	for _, c := range cast {
		if len(names) == limit {
			break
		}
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

func crewNames(crew []catalog.CrewMember, jobs map[string]bool) []string {
	var names []string
	for _, m := range crew {
		if jobs[m.Job] && m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names
}

var regionNames = display.English.Regions()

// countryNames turns ISO 3166-1 alpha-2 codes into English country names,
// dropping codes the display tables do not know.
func countryNames(codes []string) []string {
	var names []string
	for _, code := range codes {
		r, err := language.ParseRegion(code)
		if err != nil {
			continue
		}
		if name := regionNames.Name(r); name != "" {
			names = append(names, name)
		}
	}
	return names
}
