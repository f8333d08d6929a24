package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// imagePrefix marks endpoints that address the image host instead of the API
// host. Image endpoints carry no API credentials.
const imagePrefix = "image:"

// Params are the query parameters of one catalog request.
type Params map[string]string

// Response is the raw outcome of one round trip.
type Response struct {
	Status     int
	RetryAfter time.Duration
	Body       []byte
}

// Transport performs a single catalog request with no retry behavior of its
// own. The retrying client owns all retry policy.
type Transport interface {
	RoundTrip(ctx context.Context, endpoint string, params Params) (*Response, error)
}

// HTTPTransport talks to the TMDB API and image hosts.
type HTTPTransport struct {
	APIBase   string
	ImageBase string
	APIKey    string
	Language  string
	Region    string

	httpClient *http.Client
}

// NewHTTPTransport returns a transport with the production TMDB endpoints.
func NewHTTPTransport(apiKey, language, region string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		APIBase:    "https://api.themoviedb.org/3",
		ImageBase:  "https://image.tmdb.org/t/p/original",
		APIKey:     apiKey,
		Language:   language,
		Region:     region,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RoundTrip issues one GET request. API endpoints get the api_key, language
// and region query parameters filled in unless the caller set them.
func (t *HTTPTransport) RoundTrip(ctx context.Context, endpoint string, params Params) (*Response, error) {
	reqURL, err := t.resolve(endpoint, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Body:       body,
	}, nil
}

func (t *HTTPTransport) resolve(endpoint string, params Params) (string, error) {
	if strings.HasPrefix(endpoint, imagePrefix) {
		return t.ImageBase + strings.TrimPrefix(endpoint, imagePrefix), nil
	}

	u, err := url.Parse(t.APIBase + "/" + strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("resolve endpoint %q: %w", endpoint, err)
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if t.APIKey != "" {
		q.Set("api_key", t.APIKey)
	}
	if _, ok := params["language"]; !ok && t.Language != "" {
		q.Set("language", t.Language)
	}
	if _, ok := params["region"]; !ok && t.Region != "" {
		q.Set("region", t.Region)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
