package plex

// Wire shapes for the media server's JSON API. Only the fields the sync pass
// reads are declared.

type sectionsResponse struct {
	MediaContainer struct {
		Directory []sectionDTO `json:"Directory"`
	} `json:"MediaContainer"`
}

type sectionDTO struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type itemsResponse struct {
	MediaContainer struct {
		Metadata []itemDTO `json:"Metadata"`
	} `json:"MediaContainer"`
}

type itemDTO struct {
	RatingKey string     `json:"ratingKey"`
	Title     string     `json:"title"`
	Year      int        `json:"year"`
	Type      string     `json:"type"`
	Guids     []guidDTO  `json:"Guid"`
	Media     []mediaDTO `json:"Media"`
}

type guidDTO struct {
	ID string `json:"id"`
}

type mediaDTO struct {
	Parts []partDTO `json:"Part"`
}

type partDTO struct {
	File string `json:"file"`
}

type leavesResponse struct {
	MediaContainer struct {
		Metadata []leafDTO `json:"Metadata"`
	} `json:"MediaContainer"`
}

// leafDTO is one episode from a show's allLeaves listing. ParentIndex is the
// season number, Index the episode number.
type leafDTO struct {
	ParentIndex int        `json:"parentIndex"`
	Index       int        `json:"index"`
	Media       []mediaDTO `json:"Media"`
}
