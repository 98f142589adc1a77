package memheap

import "math/bits"

// bucketFor maps a block size to its size-class bucket: bucket i covers
// sizes in [1<<(i+4), 1<<(i+5)), the last bucket open-ended. Monotonic
// in size and shared by insert, remove, find and the checker.
func bucketFor(numBuckets int, size uint32) int {
	bucket := bits.Len32(size) - 5
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= numBuckets {
		bucket = numBuckets - 1
	}
	return bucket
}

// insertFree pushes the block to the front of its bucket. The block
// must not already be on any list.
func (h *Heap) insertFree(bp uint32) {
	idx := bucketFor(len(h.buckets), h.blockSize(bp))
	head := h.buckets[idx]

	h.setPrevFree(bp, nullAddr)
	h.setNextFree(bp, head)
	if head != nullAddr {
		h.setPrevFree(head, bp)
	}
	h.buckets[idx] = bp
}

// removeFree detaches the block from its bucket using its own links.
func (h *Heap) removeFree(bp uint32) {
	idx := bucketFor(len(h.buckets), h.blockSize(bp))
	prev := h.prevFree(bp)
	next := h.nextFree(bp)

	switch {
	case prev == nullAddr && next == nullAddr: // sole element
		h.buckets[idx] = nullAddr

	case prev == nullAddr: // head
		h.setPrevFree(next, nullAddr)
		h.buckets[idx] = next

	case next == nullAddr: // tail
		h.setNextFree(prev, nullAddr)

	default: // interior
		h.setNextFree(prev, next)
		h.setPrevFree(next, prev)
	}
}

func (h *Heap) contentOfList(idx int) []uint32 {
	var result []uint32
	for bp := h.buckets[idx]; bp != nullAddr; bp = h.nextFree(bp) {
		result = append(result, bp)
	}
	return result
}
