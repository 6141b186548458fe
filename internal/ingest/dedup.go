package ingest

import "github.com/google/uuid"

// Deduplicator remembers every event_id accepted during one run. It is shared
// by all files of the run and is not safe for concurrent use.
type Deduplicator struct {
	seen map[uuid.UUID]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[uuid.UUID]struct{})}
}

func (d *Deduplicator) Seen(id uuid.UUID) bool {
	_, ok := d.seen[id]
	return ok
}

func (d *Deduplicator) Mark(id uuid.UUID) {
	d.seen[id] = struct{}{}
}

// Len returns the number of distinct ids marked so far.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
