package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// ResponseCache memoizes catalog responses for the lifetime of one run so the
// same request is never issued twice. It is never persisted; process lifetime
// bounds its growth to the number of distinct requests.
type ResponseCache struct {
	c *gocache.Cache
}

// NewResponseCache returns an empty cache with no eviction.
func NewResponseCache() *ResponseCache {
	return &ResponseCache{c: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the memoized response body for a signature.
func (rc *ResponseCache) Get(signature string) ([]byte, bool) {
	v, ok := rc.c.Get(signature)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

// Put memoizes a successful response body.
func (rc *ResponseCache) Put(signature string, body []byte) {
	rc.c.Set(signature, body, gocache.NoExpiration)
}

// Len reports how many distinct responses are held.
func (rc *ResponseCache) Len() int {
	return rc.c.ItemCount()
}

// Signature derives the deterministic request signature from an endpoint and
// its query parameters. Parameter order never affects the result.
func Signature(endpoint string, params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
