// Package dedup suppresses QoS1 redeliveries by remembering event ids for a
// bounded time window.
package dedup

import (
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time, max)}
}

// Seen reports whether id was already processed inside the TTL window and
// records it otherwise. Empty ids are never considered duplicates.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return true
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.sweepLocked(now)
	}
	return false
}

// Forget drops an id so a later redelivery is processed again.
func (d *Deduper) Forget(id string) {
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

// Len returns the number of tracked ids, expired entries included.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduper) sweepLocked(now time.Time) {
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
		if len(d.seen) <= d.max {
			break
		}
	}
}
