package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingTouchAppendsMostRecentLast(t *testing.T) {
	ring := NewRing(DefaultCapacity)

	ring.Touch(1)
	ring.Touch(2)
	ring.Touch(3)

	assert.Equal(t, []uint{1, 2, 3}, ring.IDs())
	assert.Equal(t, 3, ring.Len())
}

func TestRingTouchDeduplicatesOnReView(t *testing.T) {
	ring := NewRing(DefaultCapacity)

	ring.Touch(1)
	ring.Touch(2)
	ring.Touch(3)
	ring.Touch(1)

	assert.Equal(t, []uint{2, 3, 1}, ring.IDs())
	assert.Equal(t, 3, ring.Len())
}

func TestRingEvictsOldestAtCapacity(t *testing.T) {
	ring := NewRing(3)

	ring.Touch(1)
	ring.Touch(2)
	ring.Touch(3)
	ring.Touch(4)

	assert.Equal(t, []uint{2, 3, 4}, ring.IDs())
}

func TestRingCapsAtThirtyByDefault(t *testing.T) {
	ring := NewRing(0)

	for id := uint(1); id <= 40; id++ {
		ring.Touch(id)
	}

	assert.Equal(t, DefaultCapacity, ring.Len())
	ids := ring.IDs()
	assert.Equal(t, uint(11), ids[0])
	assert.Equal(t, uint(40), ids[len(ids)-1])
}

func TestRingRecentReturnsMostRecentFirst(t *testing.T) {
	ring := NewRing(DefaultCapacity)

	ring.Touch(1)
	ring.Touch(2)
	ring.Touch(3)

	assert.Equal(t, []uint{3, 2, 1}, ring.Recent(0))
	assert.Equal(t, []uint{3, 2}, ring.Recent(2))
	assert.Equal(t, []uint{3, 2, 1}, ring.Recent(10))
}

func TestRingRecentOnEmptyRing(t *testing.T) {
	ring := NewRing(DefaultCapacity)

	assert.Empty(t, ring.Recent(5))
}
