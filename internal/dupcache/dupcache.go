// Package dupcache implements the at-most-once duplicate-request cache:
// (client endpoint, request id) -> cached reply bytes, with a TTL.
package dupcache

import (
	"sync"
	"time"

	"github.com/arjunpatel/facilitybook/internal/interfaces"
)

// Key identifies a request for deduplication purposes.
type Key struct {
	ClientAddr string
	RequestID  uint32
}

type entry struct {
	reply  []byte
	expiry time.Time
}

// Cache stores the reply already sent for a given Key so retransmissions
// get a byte-identical response without re-executing the operation.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
	ttl     time.Duration
	clock   interfaces.Clock
}

func New(ttl time.Duration, clock interfaces.Clock) *Cache {
	return &Cache{entries: make(map[Key]entry), ttl: ttl, clock: clock}
}

// Lookup returns the cached reply for key, if present and unexpired.
func (c *Cache) Lookup(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiry.After(c.clock.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.reply, true
}

// Store caches reply for key with the configured TTL, starting now.
func (c *Cache) Store(key Key, reply []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{reply: reply, expiry: c.clock.Now().Add(c.ttl)}
}

// Sweep removes every expired entry. Safe to call periodically from the
// server's sweep loop; Lookup already drops an expired entry for the key
// it is asked about.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	for k, e := range c.entries {
		if !e.expiry.After(now) {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of entries currently cached, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
