// Package memheap implements a general-purpose dynamic memory
// allocator over a single growable arena: boundary-tagged blocks,
// segregated free lists with LIFO insertion, first-fit placement
// scanning size classes upward, and boundary-tag coalescing on every
// free. Types and functions exported by this package are not thread
// safe; a Heap assumes a single logical caller.
package memheap

import (
	"errors"
	"fmt"

	s "github.com/bnclabs/gosettings"
)

// ErrorOutofMemory is returned by Init when the arena capacity cannot
// accommodate the first extension. Alloc and Realloc surface the same
// condition as the null address.
var ErrorOutofMemory = errors.New("memheap.outofmemory")

// Heap is one allocator instance: an arena plus its bucket table.
// Several independent heaps can coexist within a process.
type Heap struct {
	arena   *Arena
	buckets []uint32

	// settings
	capacity  int64
	chunksize uint32
	setts     s.Settings
	logprefix string

	inited bool

	// statistics
	allocated   uint64
	nextensions int64
}

// New creates a heap from configuration, settings keys in
// Defaultsettings(). The arena is established lazily, on Init or on
// the first operation.
func New(name string, setts s.Settings) *Heap {
	h := &Heap{logprefix: fmt.Sprintf("heap [%s]", name)}
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	h.readsettings(setts)

	if h.capacity <= 0 {
		panicerr("capacity must be > 0")
	} else if h.capacity > Maxarenasize {
		panicerr("capacity %v exceeds %v", h.capacity, Maxarenasize)
	}
	if h.chunksize%alignment != 0 {
		panicerr("chunksize %v is not a multiple of %v", h.chunksize, alignment)
	}

	h.arena = NewArena(h.capacity)
	return h
}

func (h *Heap) readsettings(setts s.Settings) {
	h.capacity = setts.Int64("capacity")
	chunksize := setts.Int64("chunksize")
	// range-check before narrowing, a negative value would survive
	// the uint32 conversion as a huge chunk
	if chunksize < int64(minBlockSize) {
		panicerr("chunksize %v below minimum block size %v", chunksize, minBlockSize)
	} else if chunksize > Maxarenasize {
		panicerr("chunksize %v exceeds %v", chunksize, Maxarenasize)
	}
	h.chunksize = uint32(chunksize)
	numBuckets := setts.Int64("buckets")
	if numBuckets <= 0 {
		panicerr("buckets must be > 0")
	}
	h.buckets = make([]uint32, numBuckets)
	for i := range h.buckets {
		h.buckets[i] = nullAddr
	}
	h.setts = setts
}

// Init establishes the arena: an alignment padding word, an allocated
// prologue, an allocated zero-size epilogue, and the first extension of
// one chunk. Idempotent, and invoked lazily by every operation.
func (h *Heap) Init() error {
	if h.inited {
		return nil
	}
	if h.arena.size() == 0 {
		if _, ok := h.arena.extend(4 * wordSize); !ok {
			return ErrorOutofMemory
		}
		h.arena.putWord(0, 0) // padding keeps payloads double-word aligned
		h.arena.putWord(1*wordSize, pack(alignment, true)) // prologue header
		h.arena.putWord(2*wordSize, pack(alignment, true)) // prologue footer
		h.arena.putWord(3*wordSize, pack(0, true))         // epilogue header
	}
	if _, ok := h.extendHeap(h.chunksize); !ok {
		return ErrorOutofMemory
	}
	h.inited = true
	infof("%v arena established: capacity %v, chunksize %v, buckets %v\n",
		h.logprefix, h.capacity, h.chunksize, len(h.buckets))
	return nil
}

// Alloc returns the address of a block holding at least n payload
// bytes, or 0 when n is zero or the arena is exhausted.
func (h *Heap) Alloc(n uint32) uint32 {
	if !h.inited {
		if err := h.Init(); err != nil {
			return 0
		}
	}
	if n == 0 {
		return 0
	}

	asize := adjustSize(n)
	if asize == 0 { // block size would overflow
		return 0
	}
	if bp, ok := h.findFit(asize); ok {
		return h.place(bp, asize)
	}

	// no fit anywhere, grow the arena and place into the new block
	bp, ok := h.extendHeap(asize)
	if !ok {
		return 0
	}
	return h.place(bp, asize)
}

// Free returns the block at bp to its free list, merging it with any
// free neighbor first. Freeing address 0 is a no-op; freeing anything
// that was not returned by Alloc or Realloc corrupts the heap.
func (h *Heap) Free(bp uint32) {
	if bp == 0 {
		return
	}
	if !h.inited {
		if err := h.Init(); err != nil {
			return
		}
	}

	size := h.blockSize(bp)
	h.setTags(bp, size, false)
	h.allocated -= uint64(size)
	h.coalesce(bp)
}

// Realloc resizes the block at bp to hold n payload bytes by
// allocate-copy-free. With n == 0 it behaves as Free and returns 0,
// with bp == 0 it behaves as Alloc. On allocation failure the original
// block is left untouched and 0 is returned.
func (h *Heap) Realloc(bp uint32, n uint32) uint32 {
	if n == 0 {
		h.Free(bp)
		return 0
	}
	if bp == 0 {
		return h.Alloc(n)
	}

	newbp := h.Alloc(n)
	if newbp == 0 {
		return 0
	}
	count := h.blockSize(bp) - 2*wordSize
	if n < count {
		count = n
	}
	copy(h.arena.slice(newbp, count), h.arena.slice(bp, count))
	h.Free(bp)
	return newbp
}

// Payload returns the usable bytes of the allocated block at bp.
func (h *Heap) Payload(bp uint32) []byte {
	return h.arena.slice(bp, h.blockSize(bp)-2*wordSize)
}

// findFit scans buckets upward from the request's size class, each
// bucket front to back, and returns the first block large enough.
func (h *Heap) findFit(asize uint32) (uint32, bool) {
	for i := bucketFor(len(h.buckets), asize); i < len(h.buckets); i++ {
		for bp := h.buckets[i]; bp != nullAddr; bp = h.nextFree(bp) {
			if h.blockSize(bp) >= asize {
				return bp, true
			}
		}
	}
	return 0, false
}

// place detaches the block and allocates asize bytes at its front,
// splitting off the remainder when it can still hold a minimum block.
func (h *Heap) place(bp uint32, asize uint32) uint32 {
	csize := h.blockSize(bp)
	h.removeFree(bp)

	if csize-asize >= minBlockSize {
		h.setTags(bp, asize, true)
		remainder := bp + asize
		h.setTags(remainder, csize-asize, false)
		h.insertFree(remainder)
		h.allocated += uint64(asize)
	} else {
		// remainder too small to stand alone, absorb it
		h.setTags(bp, csize, true)
		h.allocated += uint64(csize)
	}
	return bp
}

// extendHeap grows the arena by at least n bytes (never less than one
// chunk), carves the new span into a free block reusing the old
// epilogue word as its header, and installs a fresh epilogue.
func (h *Heap) extendHeap(n uint32) (uint32, bool) {
	size := n
	if size < h.chunksize {
		size = h.chunksize
	}
	size = alignUp(size)

	base, ok := h.arena.extend(size)
	if !ok {
		return 0, false
	}
	h.nextensions++

	bp := base
	h.setTags(bp, size, false)
	h.arena.putWord(bp+size-wordSize, pack(0, true)) // new epilogue header
	debugf("%v extended by %v to %v\n", h.logprefix, size, h.arena.size())

	// merge with the previous tail block when it is free
	return h.coalesce(bp), true
}

// coalesce merges the free block at bp with its free neighbors,
// dispatching on the (predecessor, successor) allocation bits, then
// inserts the merged block into its bucket. The block must be tagged
// free and must not be on any list yet.
func (h *Heap) coalesce(bp uint32) uint32 {
	size := h.blockSize(bp)
	prevAlloc := allocOf(h.arena.word(bp - 2*wordSize)) // predecessor footer
	next := h.nextBlock(bp)
	nextAlloc := h.blockAlloc(next)

	switch {
	case prevAlloc && nextAlloc:
		// nothing adjacent to merge

	case prevAlloc && !nextAlloc:
		h.removeFree(next)
		size += h.blockSize(next)
		h.setTags(bp, size, false)

	case !prevAlloc && nextAlloc:
		prev := h.prevBlock(bp)
		h.removeFree(prev)
		size += h.blockSize(prev)
		bp = prev
		h.setTags(bp, size, false)

	default:
		prev := h.prevBlock(bp)
		h.removeFree(prev)
		h.removeFree(next)
		size += h.blockSize(prev) + h.blockSize(next)
		bp = prev
		h.setTags(bp, size, false)
	}

	h.insertFree(bp)
	return bp
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
