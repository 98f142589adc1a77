package memheap

import "math"

const (
	// wordSize is the size of a header, footer or free-list link word.
	wordSize uint32 = 4

	// alignment is the double-word boundary every block size is a
	// multiple of. It keeps the low bits of a size word free for the
	// allocation bit.
	alignment uint32 = 8

	// minBlockSize fits a header, two link words and a footer, the
	// smallest span that can live on a free list.
	minBlockSize uint32 = 16

	allocBit uint32 = 0x1
	sizeMask uint32 = ^uint32(alignment - 1)
)

const nullAddr uint32 = math.MaxUint32

// prologueAddr is the block address of the allocated prologue sentinel,
// firstBlockAddr the address of the first real block after it.
const (
	prologueAddr   uint32 = 2 * wordSize
	firstBlockAddr uint32 = prologueAddr + alignment
)

func pack(size uint32, allocated bool) uint32 {
	if allocated {
		return size | allocBit
	}
	return size
}

func sizeOf(word uint32) uint32 {
	return word & sizeMask
}

func allocOf(word uint32) bool {
	return word&allocBit != 0
}

func alignUp(n uint32) uint32 {
	return (n + alignment - 1) &^ (alignment - 1)
}

// adjustSize converts a requested payload size into a block size:
// header and footer overhead included, rounded up to the alignment
// unit, never below minBlockSize. Returns 0 when overhead plus
// rounding would wrap the 32-bit size word; such a request can never
// be satisfied.
func adjustSize(n uint32) uint32 {
	if n <= alignment {
		return minBlockSize
	}
	if n > math.MaxUint32-(2*wordSize+alignment-1) {
		return 0
	}
	return alignUp(n + 2*wordSize)
}

func (h *Heap) blockSize(bp uint32) uint32 {
	return sizeOf(h.arena.word(bp - wordSize))
}

func (h *Heap) blockAlloc(bp uint32) bool {
	return allocOf(h.arena.word(bp - wordSize))
}

// setTags writes the header and footer of the block at bp in one step.
func (h *Heap) setTags(bp uint32, size uint32, allocated bool) {
	word := pack(size, allocated)
	h.arena.putWord(bp-wordSize, word)
	h.arena.putWord(bp+size-2*wordSize, word)
}

func (h *Heap) nextBlock(bp uint32) uint32 {
	return bp + h.blockSize(bp)
}

func (h *Heap) prevBlock(bp uint32) uint32 {
	return bp - sizeOf(h.arena.word(bp-2*wordSize))
}

// prev/next free-list links overlap the first two payload words of a
// free block.

func (h *Heap) prevFree(bp uint32) uint32 {
	return h.arena.word(bp)
}

func (h *Heap) nextFree(bp uint32) uint32 {
	return h.arena.word(bp + wordSize)
}

func (h *Heap) setPrevFree(bp uint32, addr uint32) {
	h.arena.putWord(bp, addr)
}

func (h *Heap) setNextFree(bp uint32, addr uint32) {
	h.arena.putWord(bp+wordSize, addr)
}
