package catalog

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RetryPolicy bounds the client's retry behavior.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries for one request.
	MaxAttempts int
	// Delay is the base sleep between attempts and the fallback for 429
	// responses without a Retry-After hint.
	Delay time.Duration
	// BackoffFactor grows the sleep exponentially across transient
	// failures. Rate-limit waits do not advance the growth.
	BackoffFactor float64
}

// Client is the single retry domain for catalog traffic. Every fetch is
// memoized in the response cache on success; callers never retry themselves.
type Client struct {
	transport Transport
	cache     *ResponseCache
	limiter   *rate.Limiter
	policy    RetryPolicy
	log       zerolog.Logger

	// sleep is swapped out by tests to observe waits without real delay.
	sleep func(time.Duration)
}

// NewClient wraps a transport with retry, rate-limit honoring, and response
// memoization. requestsPerSecond <= 0 disables client-side pacing.
func NewClient(transport Transport, policy RetryPolicy, requestsPerSecond float64, log zerolog.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 3
	}
	if policy.Delay <= 0 {
		policy.Delay = 2 * time.Second
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 2
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Client{
		transport: transport,
		cache:     NewResponseCache(),
		limiter:   rate.NewLimiter(limit, 1),
		policy:    policy,
		log:       log,
		sleep:     time.Sleep,
	}
}

// Fetch issues a JSON request. A 200 response with an empty payload counts as
// a transient failure, not success.
func (c *Client) Fetch(ctx context.Context, endpoint string, params Params) ([]byte, error) {
	return c.fetch(ctx, endpoint, params, false)
}

// Download fetches raw image bytes for a catalog image path.
func (c *Client) Download(ctx context.Context, imagePath string) ([]byte, error) {
	return c.fetch(ctx, imagePrefix+imagePath, nil, true)
}

func (c *Client) fetch(ctx context.Context, endpoint string, params Params, binary bool) ([]byte, error) {
	sig := Signature(endpoint, params)
	if body, ok := c.cache.Get(sig); ok {
		c.log.Debug().Str("endpoint", endpoint).Msg("response cache hit")
		return body, nil
	}

	var lastErr error
	growth := 0

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.transport.RoundTrip(ctx, endpoint, params)
		switch {
		case err != nil:
			lastErr = err
			c.log.Warn().Int("attempt", attempt).Str("endpoint", endpoint).Err(err).
				Msg("catalog request failed")

		case resp.Status == 200:
			if !binary && emptyJSON(resp.Body) {
				lastErr = ErrEmptyBody
				c.log.Warn().Int("attempt", attempt).Str("endpoint", endpoint).
					Msg("empty catalog response")
				break
			}
			if binary && len(resp.Body) == 0 {
				lastErr = ErrEmptyBody
				break
			}
			c.cache.Put(sig, resp.Body)
			return resp.Body, nil

		case resp.Status == 404:
			return nil, ErrNotFound

		case resp.Status == 429:
			wait := resp.RetryAfter
			if wait <= 0 {
				wait = c.policy.Delay
			}
			lastErr = &StatusError{Status: 429, RetryAfter: wait}
			c.log.Warn().Dur("retry_after", wait).Str("endpoint", endpoint).
				Msg("rate limited by catalog")
			if attempt < c.policy.MaxAttempts {
				c.sleep(wait)
			}
			// Rate-limit waits use the server hint verbatim and skip
			// the exponential growth below.
			continue

		default:
			lastErr = &StatusError{Status: resp.Status}
			c.log.Warn().Int("attempt", attempt).Int("status", resp.Status).
				Str("endpoint", endpoint).Msg("catalog returned error status")
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < c.policy.MaxAttempts {
			c.sleep(c.backoff(growth))
			growth++
		}
	}

	return nil, &ExhaustedError{Attempts: c.policy.MaxAttempts, Last: lastErr}
}

func (c *Client) backoff(growth int) time.Duration {
	d := float64(c.policy.Delay)
	for i := 0; i < growth; i++ {
		d *= c.policy.BackoffFactor
	}
	return time.Duration(d)
}

var emptyBodies = [][]byte{[]byte("{}"), []byte("[]"), []byte("null")}

func emptyJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return true
	}
	for _, e := range emptyBodies {
		if bytes.Equal(trimmed, e) {
			return true
		}
	}
	return false
}
