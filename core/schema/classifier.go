package schema

import (
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	cacheNumCounters = 1e4
	cacheMaxCost     = 1e6
	cacheBufferItems = 64
	cacheTTL         = 10 * time.Minute

	headerKeySep = "\x1f"
)

// Classifier classifies rows against a header set, memoizing the
// header-to-role mapping per header list. MapHeaders is a pure function of
// the headers, so the cache only ever stores structure, never row data;
// cell values are bound fresh on every call.
type Classifier struct {
	cache *ristretto.Cache
}

// NewClassifier creates a Classifier with its mapping cache.
func NewClassifier() (*Classifier, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Classifier{cache: cache}, nil
}

// Classify resolves roles for one row, reusing the cached header mapping
// when this header set has been seen before.
func (c *Classifier) Classify(headers []string, row map[string]string) map[Role]Detection {
	return bind(c.Mapping(headers), row)
}

// Mapping returns the role mapping for a header set, from cache when warm.
func (c *Classifier) Mapping(headers []string) map[Role]HeaderMatch {
	key := strings.Join(headers, headerKeySep)
	if cached, found := c.cache.Get(key); found {
		if mapping, ok := cached.(map[Role]HeaderMatch); ok {
			return mapping
		}
	}

	mapping := MapHeaders(headers)
	cost := int64(len(key)) + int64(len(mapping))*32
	c.cache.SetWithTTL(key, mapping, cost, cacheTTL)
	return mapping
}

// Close releases the cache.
func (c *Classifier) Close() {
	c.cache.Close()
}
