// Package qcache implements the in-memory question cache: batches of
// generated questions grouped under a scenario key, with each batch aging
// out after a fixed TTL. Absence is never an error; callers get an empty
// result and fall through to their next source.
package qcache

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// TTL is how long a cached batch stays live. Expired entries are dropped
// lazily on the next read of their key.
const TTL = time.Hour

// Entry is one cached question with its category and insertion time.
type Entry struct {
	Question   string
	Category   string
	InsertedAt time.Time
}

// Cache is a concurrency-safe, scenario-keyed question cache. Get mutates
// the store (lazy eviction) even though it is semantically a read, so all
// operations take the write lock. The `now` function is injectable for
// deterministic testing (same pattern as the session store).
type Cache struct {
	mu      sync.Mutex
	entries map[string][]Entry

	ttl time.Duration

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// New creates an empty cache with the fixed production TTL.
func New() *Cache {
	return &Cache{
		entries: make(map[string][]Entry),
		ttl:     TTL,
		now:     time.Now,
	}
}

// Key builds the scenario key for a role, target institution, candidate
// background, and category. Parts are lowercased and joined so the same
// scenario always maps to the same key; empty parts keep their slot to
// avoid collisions between distinct scenarios.
func Key(role, institution, background, category string) string {
	return strings.ToLower(strings.Join([]string{role, institution, background, category}, "|"))
}

// Put stores a fresh batch of questions under key, stamped with the
// current time. Any prior batch for that key is replaced wholesale.
// Empty batches clear the key.
func (c *Cache) Put(key string, questions []string, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(questions) == 0 {
		delete(c.entries, key)
		return
	}

	now := c.now()
	batch := make([]Entry, 0, len(questions))
	for _, q := range questions {
		batch = append(batch, Entry{
			Question:   q,
			Category:   category,
			InsertedAt: now,
		})
	}
	c.entries[key] = batch
}

// Get returns the non-expired question strings cached under key, dropping
// expired entries as a side effect. A key left with zero live entries is
// removed entirely. A miss returns an empty slice, never an error.
func (c *Cache) Get(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.evictExpired(key)
	if len(live) == 0 {
		return nil
	}

	out := make([]string, 0, len(live))
	for _, e := range live {
		out = append(out, e.Question)
	}
	return out
}

// GetRandom returns one live question for key chosen uniformly at random.
// The second return is false when the key has no live entries.
func (c *Cache) GetRandom(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.evictExpired(key)
	if len(live) == 0 {
		return "", false
	}
	return live[rand.IntN(len(live))].Question, true
}

// evictExpired drops expired entries for key and returns the survivors.
// Callers must hold c.mu.
func (c *Cache) evictExpired(key string) []Entry {
	batch, ok := c.entries[key]
	if !ok {
		return nil
	}

	now := c.now()
	live := batch[:0]
	for _, e := range batch {
		if now.Sub(e.InsertedAt) < c.ttl {
			live = append(live, e)
		}
	}

	if len(live) == 0 {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = live
	return live
}

// Sweep drops every expired entry across all keys and returns the number
// of entries removed. Intended for a periodic background job; the lazy
// eviction in Get already keeps read paths correct without it.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, batch := range c.entries {
		live := batch[:0]
		for _, e := range batch {
			if now.Sub(e.InsertedAt) < c.ttl {
				live = append(live, e)
			} else {
				removed++
			}
		}
		if len(live) == 0 {
			delete(c.entries, key)
		} else {
			c.entries[key] = live
		}
	}
	return removed
}

// Len returns the number of live keys. Expired-but-unswept keys count
// until their next read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
