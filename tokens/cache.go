package tokens

import (
	"sync"

	"github.com/markawm/acme-github-issues/core"
)

// Cache holds one bearer token per slot for the process lifetime. Entries are
// overwritten on refresh and never evicted. The mutex guards the map only; two
// callers refreshing the same slot both write and the last one wins.
type Cache struct {
	mu      sync.Mutex
	entries map[string]core.CachedToken
}

func NewCache() *Cache {
	return &Cache{entries: map[string]core.CachedToken{}}
}

func (c *Cache) Get(key string) (core.CachedToken, bool) {
	if c == nil {
		return core.CachedToken{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.entries[key]
	return token, ok
}

func (c *Cache) Put(key string, token core.CachedToken) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]core.CachedToken{}
	}
	c.entries[key] = token
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
