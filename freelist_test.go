package memheap

import (
	"testing"

	s "github.com/bnclabs/gosettings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketFor(t *testing.T) {
	table := []struct {
		size     uint32
		expected int
	}{
		{size: 16, expected: 0},
		{size: 31, expected: 0},
		{size: 32, expected: 1},
		{size: 63, expected: 1},
		{size: 64, expected: 2},
		{size: 4096, expected: 8},
		{size: 32768, expected: 11},
		{size: 1 << 20, expected: 11},
	}

	for _, e := range table {
		assert.Equal(t, e.expected, bucketFor(12, e.size), "size %v", e.size)
	}
}

// three free blocks of the same size class, separated by allocated
// guards so coalescing never merges them.
func newListFixture(t *testing.T) (*Heap, []uint32) {
	h := New("freelist", s.Settings{"capacity": int64(1 << 20)})

	var blocks []uint32
	for i := 0; i < 3; i++ {
		bp := h.Alloc(24)
		require.NotEqual(t, uint32(0), bp)
		blocks = append(blocks, bp)
		require.NotEqual(t, uint32(0), h.Alloc(24)) // guard stays allocated
	}
	for _, bp := range blocks {
		h.Free(bp)
	}
	return h, blocks
}

func TestInsertFreeIsLIFO(t *testing.T) {
	h, blocks := newListFixture(t)

	expected := []uint32{blocks[2], blocks[1], blocks[0]}
	assert.Equal(t, expected, h.contentOfList(1))
	assert.Equal(t, uint32(nullAddr), h.prevFree(blocks[2]))
	assert.Equal(t, uint32(nullAddr), h.nextFree(blocks[0]))
}

func TestRemoveFreeInterior(t *testing.T) {
	h, blocks := newListFixture(t)

	h.removeFree(blocks[1])

	assert.Equal(t, []uint32{blocks[2], blocks[0]}, h.contentOfList(1))
	assert.Equal(t, blocks[0], h.nextFree(blocks[2]))
	assert.Equal(t, blocks[2], h.prevFree(blocks[0]))
}

func TestRemoveFreeHead(t *testing.T) {
	h, blocks := newListFixture(t)

	h.removeFree(blocks[2])

	assert.Equal(t, []uint32{blocks[1], blocks[0]}, h.contentOfList(1))
	assert.Equal(t, uint32(nullAddr), h.prevFree(blocks[1]))
}

func TestRemoveFreeTail(t *testing.T) {
	h, blocks := newListFixture(t)

	h.removeFree(blocks[0])

	assert.Equal(t, []uint32{blocks[2], blocks[1]}, h.contentOfList(1))
	assert.Equal(t, uint32(nullAddr), h.nextFree(blocks[1]))
}

func TestRemoveFreeSole(t *testing.T) {
	h, blocks := newListFixture(t)

	h.removeFree(blocks[0])
	h.removeFree(blocks[2])
	assert.Equal(t, []uint32{blocks[1]}, h.contentOfList(1))

	h.removeFree(blocks[1])
	assert.Equal(t, []uint32(nil), h.contentOfList(1))
}
