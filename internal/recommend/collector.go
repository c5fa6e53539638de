package recommend

import catalog "github.com/storecraft/backend/internal/catalog/domain"

// collector accumulates candidates across fallback stages. Every add
// deduplicates against everything already selected (and anything
// explicitly excluded); the limit caps the final result.
type collector struct {
	limit    int
	seen     map[uint]bool
	excluded map[uint]bool
	items    []catalog.Product
}

func newCollector(limit int) *collector {
	return &collector{
		limit:    limit,
		seen:     make(map[uint]bool),
		excluded: make(map[uint]bool),
	}
}

// exclude marks product IDs that must never appear in the result.
func (c *collector) exclude(ids ...uint) {
	for _, id := range ids {
		c.excluded[id] = true
	}
}

func (c *collector) add(products ...catalog.Product) {
	for _, p := range products {
		if c.full() {
			return
		}
		if c.seen[p.ID] || c.excluded[p.ID] {
			continue
		}
		c.seen[p.ID] = true
		c.items = append(c.items, p)
	}
}

func (c *collector) full() bool {
	return c.limit > 0 && len(c.items) >= c.limit
}

func (c *collector) seenIDs() []uint {
	ids := make([]uint, 0, len(c.seen))
	for id := range c.seen {
		ids = append(ids, id)
	}
	return ids
}

func (c *collector) result() []catalog.Product {
	if c.limit > 0 && len(c.items) > c.limit {
		return c.items[:c.limit]
	}
	return c.items
}
