package memheap

import s "github.com/bnclabs/gosettings"

// Maxarenasize maximum capacity of a heap's arena. Block addresses are
// 32-bit offsets, sizes 32-bit words with the low bits reserved for
// tagging.
const Maxarenasize = int64(1024 * 1024 * 1024)

// Defaultsettings for a heap, applied under user supplied settings.
//
// "capacity" (int64, default: Maxarenasize)
//		Maximum size, in bytes, the arena can grow to. Growth beyond
//		it fails as out-of-memory.
//
// "chunksize" (int64, default: 4096)
//		Minimum extension granted when the arena grows, amortizing
//		growth cost for small requests. Must be a multiple of the
//		alignment unit.
//
// "buckets" (int64, default: 12)
//		Number of size-class buckets in the segregated free list.
//		Bucket i holds blocks of size 16<<i, the last bucket is
//		open ended.
func Defaultsettings() s.Settings {
	return s.Settings{
		"capacity":  Maxarenasize,
		"chunksize": int64(4096),
		"buckets":   int64(12),
	}
}
