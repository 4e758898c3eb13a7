package catalog

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// valueCache keeps unfiltered lookup results for a short while so typing
// through an argument does not hit the server on every keystroke.
type valueCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedValues
}

type cachedValues struct {
	values  []string
	expires time.Time
}

func newValueCache(ttl time.Duration, now func() time.Time) *valueCache {
	return &valueCache{ttl: ttl, now: now, entries: make(map[string]cachedValues)}
}

func (c *valueCache) get(key string) ([]string, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.values, true
}

func (c *valueCache) put(key string, values []string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedValues{values: values, expires: c.now().Add(c.ttl)}
}

func (c *valueCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedValues)
}

func cacheKey(query domain.ValueQuery) string {
	parts := append([]string{query.Command.Name, strconv.Itoa(query.Position)}, query.Preceding...)
	return strings.Join(parts, "\x00")
}
