package pull

import "sync"

// Deduplicator is the process-wide index of admitted assets for one run.
// The same underlying asset can be enumerated from several sections
// (shared-with-me and inside an album, for example); the first candidate
// with a given DedupKey wins and every later one is rejected.
//
// The index always starts empty: duplicates already on disk from a
// previous run are not this component's concern. An admitted key stays
// consumed for the rest of the run even if the subsequent commit fails,
// which prevents pointless retries of known-bad assets.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[DedupKey]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[DedupKey]struct{})}
}

// Admit atomically checks and inserts the key. It returns true exactly
// once per distinct key for the lifetime of the run.
func (d *Deduplicator) Admit(key DedupKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.seen[key]; dup {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len returns the number of admitted keys.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
