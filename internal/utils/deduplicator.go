package utils

import (
	"sync"
	"time"
)

// Deduplicator remembers ids seen within a time window.
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDeduplicator returns a Deduplicator treating repeats within window as duplicates.
func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{window: window, now: time.Now, seen: make(map[string]time.Time)}
}

// IsDuplicate reports whether id was seen within the window and records it.
// Empty ids are never duplicates.
func (d *Deduplicator) IsDuplicate(id string) bool {
	if id == "" {
		return false
	}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if ts, ok := d.seen[id]; ok && now.Sub(ts) < d.window {
		return true
	}
	d.seen[id] = now

	// Cleanup old entries if map gets too big
	if len(d.seen) > 10000 {
		for k, v := range d.seen {
			if now.Sub(v) > 2*d.window {
				delete(d.seen, k)
			}
		}
	}
	return false
}

// Forget drops id so a failed request can be resubmitted with the same id.
func (d *Deduplicator) Forget(id string) {
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}
