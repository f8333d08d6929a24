// Package catalog is the remote catalog collaborator: a typed API over a
// retrying, memoizing HTTP client.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"metasync/internal/media"
)

// Service exposes the catalog operations the sync engine needs. Every call
// goes through the retrying client and its response cache.
type Service struct {
	client   *Client
	language string
	log      zerolog.Logger
}

// NewService wraps a client. language is the two-letter preferred image
// language used for include_image_language.
func NewService(client *Client, language string, log zerolog.Logger) *Service {
	if i := strings.Index(language, "-"); i > 0 {
		language = language[:i]
	}
	return &Service{client: client, language: language, log: log}
}

// Search queries the catalog for a title. year <= 0 searches without a year
// filter. Results come back sorted by (vote count, popularity) descending, so
// the first entry is the best match.
func (s *Service) Search(ctx context.Context, t media.Type, query string, year int) ([]SearchResult, error) {
	params := Params{
		"query":         query,
		"include_adult": "false",
	}
	if year > 0 {
		params["year"] = strconv.Itoa(year)
	}

	body, err := s.client.Fetch(ctx, "search/"+endpointType(t), params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	sort.SliceStable(resp.Results, func(i, j int) bool {
		a, b := resp.Results[i], resp.Results[j]
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		return a.Popularity > b.Popularity
	})
	return resp.Results, nil
}

// MovieDetails fetches the full movie record, including credits,
// certifications, external ids and artwork.
func (s *Service) MovieDetails(ctx context.Context, id string) (*MovieDetails, error) {
	body, err := s.client.Fetch(ctx, "movie/"+id, Params{
		"append_to_response":     "credits,release_dates,external_ids,images",
		"include_image_language": s.imageLanguages(),
	})
	if err != nil {
		return nil, err
	}

	var details MovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("decode movie details: %w", err)
	}
	return &details, nil
}

// TVDetails fetches the full show record.
func (s *Service) TVDetails(ctx context.Context, id string) (*TVDetails, error) {
	body, err := s.client.Fetch(ctx, "tv/"+id, Params{
		"append_to_response":     "credits,content_ratings,external_ids,images",
		"include_image_language": s.imageLanguages(),
	})
	if err != nil {
		return nil, err
	}

	var details TVDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("decode tv details: %w", err)
	}
	return &details, nil
}

// SeasonDetails fetches one season of a show, episodes included.
func (s *Service) SeasonDetails(ctx context.Context, id string, season int) (*SeasonDetails, error) {
	endpoint := fmt.Sprintf("tv/%s/season/%d", id, season)
	body, err := s.client.Fetch(ctx, endpoint, Params{
		"append_to_response":     "credits,images",
		"include_image_language": s.imageLanguages(),
	})
	if err != nil {
		return nil, err
	}

	var details SeasonDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("decode season details: %w", err)
	}
	return &details, nil
}

// DownloadImage fetches the raw bytes of a catalog image path.
func (s *Service) DownloadImage(ctx context.Context, filePath string) ([]byte, error) {
	return s.client.Download(ctx, filePath)
}

func (s *Service) imageLanguages() string {
	if s.language == "" {
		return "null"
	}
	return s.language + ",null"
}

func endpointType(t media.Type) string {
	if t == media.TypeMovie {
		return "movie"
	}
	return "tv"
}
