package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports that the catalog has no record for the requested
// resource. It is terminal for one lookup and is never retried.
var ErrNotFound = errors.New("catalog: not found")

// ErrEmptyBody reports a 200 response with an empty JSON payload. The remote
// service is known to return these transiently, so the client retries them.
var ErrEmptyBody = errors.New("catalog: empty response body")

// StatusError is a non-success HTTP status from the catalog. 5xx statuses are
// retried; 429 carries the server's Retry-After hint.
type StatusError struct {
	Status     int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d", e.Status)
}

// ExhaustedError wraps the last failure after the retry budget ran out.
// Callers must not retry on their own; retry policy lives in the client.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("catalog: giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
