// Package plex enumerates live media items from a Plex-compatible server.
package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"metasync/internal/media"
)

// Section is one library section of the server.
type Section struct {
	Key   string
	Title string
	Type  string
}

// Client is an authenticated HTTP client for the server's library API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for the server at baseURL.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build server request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("server returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Sections lists the server's library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var resp sectionsResponse
	if err := c.get(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(resp.MediaContainer.Directory))
	for _, d := range resp.MediaContainer.Directory {
		sections = append(sections, Section{Key: d.Key, Title: d.Title, Type: d.Type})
	}
	return sections, nil
}

// Items enumerates a section's items as media items. Shows get one extra
// request for their episode listing, which supplies both the on-disk
// directory and the per-season episode numbers.
func (c *Client) Items(ctx context.Context, section Section) ([]media.Item, error) {
	params := url.Values{"includeGuids": {"1"}}
	var resp itemsResponse
	if err := c.get(ctx, "/library/sections/"+section.Key+"/all", params, &resp); err != nil {
		return nil, err
	}

	items := make([]media.Item, 0, len(resp.MediaContainer.Metadata))
	for _, dto := range resp.MediaContainer.Metadata {
		item := media.Item{
			RatingKey: dto.RatingKey,
			Title:     dto.Title,
			Year:      dto.Year,
			Library:   section.Title,
		}
		for _, g := range dto.Guids {
			item.GUIDs = append(item.GUIDs, media.GUID(g.ID))
		}

		switch dto.Type {
		case "movie":
			item.Type = media.TypeMovie
			if file := firstFile(dto.Media); file != "" {
				item.Dir = filepath.Base(filepath.Dir(file))
			}
		case "show":
			item.Type = media.TypeTV
			if err := c.fillShow(ctx, &item); err != nil {
				// Keep the item with partial data: dropping it here
				// would make its keys, records and artwork look
				// orphaned to a following reconciliation pass.
				c.log.Warn().Err(err).Str("title", dto.Title).Msg("listing show episodes failed")
			}
		default:
			c.log.Debug().Str("type", dto.Type).Str("title", dto.Title).Msg("skipping unsupported item type")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// fillShow reads the show's episode leaves to derive its directory and the
// seasons/episodes present on disk. Episode files live two levels below the
// show directory (show/Season NN/episode.mkv).
func (c *Client) fillShow(ctx context.Context, item *media.Item) error {
	var resp leavesResponse
	if err := c.get(ctx, "/library/metadata/"+item.RatingKey+"/allLeaves", nil, &resp); err != nil {
		return err
	}

	seasons := make(map[int][]int)
	for _, leaf := range resp.MediaContainer.Metadata {
		seasons[leaf.ParentIndex] = append(seasons[leaf.ParentIndex], leaf.Index)
		if item.Dir == "" {
			if file := firstFile(leaf.Media); file != "" {
				item.Dir = filepath.Base(filepath.Dir(filepath.Dir(file)))
			}
		}
	}
	for _, episodes := range seasons {
		sort.Ints(episodes)
	}
	if len(seasons) > 0 {
		item.SeasonEpisodes = seasons
	}
	return nil
}

func firstFile(m []mediaDTO) string {
	for _, md := range m {
		for _, p := range md.Parts {
			if p.File != "" {
				return p.File
			}
		}
	}
	return ""
}
