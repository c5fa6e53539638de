package history

// DefaultCapacity caps the per-session viewed-products log.
const DefaultCapacity = 30

// Ring is a bounded log of viewed product IDs, most-recent-last.
// Re-viewing a product moves it to the most-recent position instead of
// duplicating it; once full, the oldest entry is dropped.
type Ring struct {
	capacity int
	ids      []uint
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity}
}

// newRingFrom restores a ring from persisted IDs, trimming to capacity.
func newRingFrom(capacity int, ids []uint) *Ring {
	r := NewRing(capacity)
	for _, id := range ids {
		r.Touch(id)
	}
	return r
}

// Touch records a view of the product, deduplicating on re-view.
func (r *Ring) Touch(id uint) {
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	r.ids = append(r.ids, id)
	if len(r.ids) > r.capacity {
		r.ids = r.ids[len(r.ids)-r.capacity:]
	}
}

// IDs returns the log in stored order, most-recent-last.
func (r *Ring) IDs() []uint {
	out := make([]uint, len(r.ids))
	copy(out, r.ids)
	return out
}

// Recent returns up to limit IDs, most-recent-first. limit <= 0 means all.
func (r *Ring) Recent(limit int) []uint {
	n := len(r.ids)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]uint, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.ids[i])
	}
	return out
}

func (r *Ring) Len() int {
	return len(r.ids)
}
