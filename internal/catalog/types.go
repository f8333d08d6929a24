package catalog

// SearchResult is one entry of a catalog search response.
type SearchResult struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Name       string  `json:"name"`
	VoteCount  int     `json:"vote_count"`
	Popularity float64 `json:"popularity"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Image is one artwork candidate from the catalog's image lists.
type Image struct {
	FilePath    string  `json:"file_path"`
	Language    string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Images groups the artwork attached to a details response.
type Images struct {
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

// Genre is a catalog genre tag.
type Genre struct {
	Name string `json:"name"`
}

// Company is a production company or network.
type Company struct {
	Name string `json:"name"`
}

// Country is a production country reference.
type Country struct {
	ISO3166 string `json:"iso_3166_1"`
}

// CrewMember is one crew credit.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// CastMember is one cast credit.
type CastMember struct {
	Name string `json:"name"`
}

// Credits holds the cast and crew of a movie, show, season or episode.
type Credits struct {
	Cast       []CastMember `json:"cast"`
	Crew       []CrewMember `json:"crew"`
	GuestStars []CastMember `json:"guest_stars"`
}

// ReleaseDates carries per-country certification info for movies.
type ReleaseDates struct {
	Results []struct {
		ISO3166      string `json:"iso_3166_1"`
		ReleaseDates []struct {
			Certification string `json:"certification"`
		} `json:"release_dates"`
	} `json:"results"`
}

// ContentRatings carries per-country ratings for TV shows.
type ContentRatings struct {
	Results []struct {
		ISO3166 string `json:"iso_3166_1"`
		Rating  string `json:"rating"`
	} `json:"results"`
}

// Collection is the franchise a movie belongs to.
type Collection struct {
	Name string `json:"name"`
}

// ExternalIDs maps a catalog record to other identifier schemes.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
	TVDBID int    `json:"tvdb_id"`
}

// MovieDetails is the catalog's full movie record.
type MovieDetails struct {
	ID                  int          `json:"id"`
	Title               string       `json:"title"`
	OriginalTitle       string       `json:"original_title"`
	Overview            string       `json:"overview"`
	Tagline             string       `json:"tagline"`
	ReleaseDate         string       `json:"release_date"`
	Runtime             int          `json:"runtime"`
	Genres              []Genre      `json:"genres"`
	ProductionCompanies []Company    `json:"production_companies"`
	ProductionCountries []Country    `json:"production_countries"`
	BelongsToCollection *Collection  `json:"belongs_to_collection"`
	Credits             Credits      `json:"credits"`
	ReleaseDates        ReleaseDates `json:"release_dates"`
	ExternalIDs         ExternalIDs  `json:"external_ids"`
	Images              Images       `json:"images"`
}

// SeasonSummary is the per-season stub embedded in a show record.
type SeasonSummary struct {
	SeasonNumber int `json:"season_number"`
}

// TVDetails is the catalog's full show record.
type TVDetails struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	OriginalName   string          `json:"original_name"`
	Overview       string          `json:"overview"`
	Tagline        string          `json:"tagline"`
	FirstAirDate   string          `json:"first_air_date"`
	Genres         []Genre         `json:"genres"`
	Networks       []Company       `json:"networks"`
	OriginCountry  []string        `json:"origin_country"`
	Seasons        []SeasonSummary `json:"seasons"`
	Credits        Credits         `json:"credits"`
	ContentRatings ContentRatings  `json:"content_ratings"`
	ExternalIDs    ExternalIDs     `json:"external_ids"`
	Images         Images          `json:"images"`
}

// Episode is one episode of a season record.
type Episode struct {
	EpisodeNumber int          `json:"episode_number"`
	Name          string       `json:"name"`
	Overview      string       `json:"overview"`
	AirDate       string       `json:"air_date"`
	Runtime       int          `json:"runtime"`
	Crew          []CrewMember `json:"crew"`
	Credits       Credits      `json:"credits"`
}

// SeasonDetails is the catalog's full season record.
type SeasonDetails struct {
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
	Credits      Credits   `json:"credits"`
	Images       Images    `json:"images"`
}
