// Package cache memoizes doubled values for a fixed TTL.
package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cache maps an input value to its doubled result. A nil *Cache is a
// valid, always-empty cache.
type Cache struct {
	items *ttlcache.Cache[int64, int64]
}

// New returns a cache whose entries expire ttl after they are stored.
// A zero ttl disables caching and returns nil.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	return &Cache{
		items: ttlcache.New[int64, int64](
			ttlcache.WithTTL[int64, int64](ttl),
			ttlcache.WithDisableTouchOnHit[int64, int64](),
		),
	}
}

// Get returns the cached result for value.
func (c *Cache) Get(value int64) (int64, bool) {
	if c == nil {
		return 0, false
	}
	item := c.items.Get(value)
	if item == nil {
		return 0, false
	}
	return item.Value(), true
}

// Set stores result for value with the default TTL.
func (c *Cache) Set(value, result int64) {
	if c == nil {
		return
	}
	c.items.Set(value, result, ttlcache.DefaultTTL)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.items.Len()
}

// Start runs the expiry loop in the background until Stop is called.
func (c *Cache) Start() {
	if c == nil {
		return
	}
	go c.items.Start()
}

// Stop ends the expiry loop.
func (c *Cache) Stop() {
	if c == nil {
		return
	}
	c.items.Stop()
}
