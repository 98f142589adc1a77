package memheap

import "encoding/binary"

// Arena is the single contiguous byte region managed by a Heap. It is
// bounded by a fixed capacity and only ever grows; blocks are addressed
// by offsets into it, so growing may reallocate the backing slice
// without invalidating any block address.
type Arena struct {
	buf      []byte
	capacity int64
}

// NewArena ...
func NewArena(capacity int64) *Arena {
	return &Arena{capacity: capacity}
}

func (a *Arena) size() uint32 {
	return uint32(len(a.buf))
}

// extend grows the arena by n zeroed bytes and returns the offset where
// they begin. Fails when the capacity would be exceeded; never retried.
func (a *Arena) extend(n uint32) (uint32, bool) {
	if int64(len(a.buf))+int64(n) > a.capacity {
		return 0, false
	}
	base := uint32(len(a.buf))
	a.buf = append(a.buf, make([]byte, n)...)
	return base, true
}

func (a *Arena) word(off uint32) uint32 {
	return binary.LittleEndian.Uint32(a.buf[off:])
}

func (a *Arena) putWord(off uint32, value uint32) {
	binary.LittleEndian.PutUint32(a.buf[off:], value)
}

func (a *Arena) slice(off uint32, n uint32) []byte {
	return a.buf[off : off+n]
}
