// Package cache provides the in-memory, time-expiring response cache shared by
// catalogue and dataset lookups.
package cache

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	DefaultMaxEntries = 256
	DefaultTTL        = 24 * time.Hour
)

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	MaxEntries int64
	TTL        time.Duration
}

// Info is a snapshot of cache state.
type Info struct {
	Size    int
	MaxSize int64
	TTL     time.Duration
	// HitRate is nil until the first lookup.
	HitRate *float64
}

func (i Info) String() string {
	rate := "n/a"
	if i.HitRate != nil {
		rate = fmt.Sprintf("%.1f%%", *i.HitRate*100)
	}
	return fmt.Sprintf("size=%d max=%d ttl=%s hit_rate=%s", i.Size, i.MaxSize, i.TTL, rate)
}

// Cache stores raw response bodies keyed by request. It is safe for
// concurrent use.
type Cache struct {
	store      *ristretto.Cache
	maxEntries int64
	ttl        time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64

	mu      sync.Mutex
	expires map[string]time.Time
}

// New creates a Cache.
func New(opts Options) (*Cache, error) {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        opts.MaxEntries * 10,
		MaxCost:            opts.MaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{
		store:      store,
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		expires:    map[string]time.Time{},
	}, nil
}

// Key builds the cache key for a request URL and its query parameters.
// url.Values.Encode sorts by key, so parameter order does not matter.
func Key(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	return rawURL + "?" + params.Encode()
}

// Get returns the body stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		c.misses.Add(1)
		c.forget(key)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]byte), true
}

// Set stores body under key for the configured TTL. It reports whether the
// entry was admitted.
func (c *Cache) Set(key string, body []byte) bool {
	if !c.store.SetWithTTL(key, body, 1, c.ttl) {
		return false
	}
	c.store.Wait()

	c.mu.Lock()
	c.expires[key] = time.Now().Add(c.ttl)
	c.mu.Unlock()
	return true
}

// Flush removes every entry and resets statistics.
func (c *Cache) Flush() {
	c.store.Clear()
	c.hits.Store(0)
	c.misses.Store(0)

	c.mu.Lock()
	clear(c.expires)
	c.mu.Unlock()
}

// Info reports the current size, limits and hit rate.
func (c *Cache) Info() Info {
	info := Info{MaxSize: c.maxEntries, TTL: c.ttl}

	now := time.Now()
	c.mu.Lock()
	for k, exp := range c.expires {
		if now.After(exp) {
			delete(c.expires, k)
			continue
		}
		info.Size++
	}
	c.mu.Unlock()
	if int64(info.Size) > c.maxEntries {
		info.Size = int(c.maxEntries)
	}

	hits, misses := c.hits.Load(), c.misses.Load()
	if total := hits + misses; total > 0 {
		rate := float64(hits) / float64(total)
		info.HitRate = &rate
	}
	return info
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.store.Close()
}

func (c *Cache) forget(key string) {
	c.mu.Lock()
	delete(c.expires, key)
	c.mu.Unlock()
}
