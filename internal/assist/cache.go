package assist

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// responseCache memoizes assistant replies per exact input text. Identical
// questions in a session are common ("what did you say?" re-sends), and the
// answers behind them cost model and search calls.
//
// Safe for concurrent use.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]string
	max     int
}

func newResponseCache(max int) *responseCache {
	if max <= 0 {
		max = 256
	}
	return &responseCache{entries: make(map[string]string), max: max}
}

// cacheKey hashes the input so arbitrarily long messages stay cheap map keys.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *responseCache) get(text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reply, ok := c.entries[cacheKey(text)]
	return reply, ok
}

func (c *responseCache) put(text, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Full reset at capacity. Crude but bounded; the cache is a courtesy,
	// not a correctness feature.
	if len(c.entries) >= c.max {
		c.entries = make(map[string]string)
	}
	c.entries[cacheKey(text)] = reply
}
