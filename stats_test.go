package memheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	h := newTestHeap(1 << 20)
	h.Alloc(10)

	stats := h.Stats()
	assert.Equal(t, int64(16+4096), stats["arena.size"])
	assert.Equal(t, int64(1<<20), stats["arena.capacity"])
	assert.Equal(t, int64(24), stats["allocated"])
	assert.Equal(t, int64(4096-24), stats["free.bytes"])
	assert.Equal(t, int64(1), stats["free.blocks"])
	assert.Equal(t, int64(1), stats["extensions"])

	perbucket := stats["free.perbucket"].([]int64)
	assert.Equal(t, int64(1), perbucket[7])

	h.LogStats() // logging disabled by default, must not panic
}

func TestStatsAfterFree(t *testing.T) {
	h := newTestHeap(1 << 20)
	p := h.Alloc(10)
	h.Free(p)

	stats := h.Stats()
	assert.Equal(t, int64(0), stats["allocated"])
	assert.Equal(t, int64(4096), stats["free.bytes"])
	assert.Equal(t, int64(1), stats["free.blocks"])
}
