package memheap

import humanize "github.com/dustin/go-humanize"

// Stats returns a snapshot of arena and free-list accounting. The
// free-list figures walk every bucket, so this is a diagnostic call,
// not meant for the allocation path.
func (h *Heap) Stats() map[string]interface{} {
	freeblocks, freebytes := int64(0), int64(0)
	perbucket := make([]int64, len(h.buckets))
	for i := range h.buckets {
		for bp := h.buckets[i]; bp != nullAddr; bp = h.nextFree(bp) {
			perbucket[i]++
			freeblocks++
			freebytes += int64(h.blockSize(bp))
		}
	}
	return map[string]interface{}{
		"arena.size":     int64(h.arena.size()),
		"arena.capacity": h.capacity,
		"allocated":      int64(h.allocated),
		"free.bytes":     freebytes,
		"free.blocks":    freeblocks,
		"free.perbucket": perbucket,
		"extensions":     h.nextensions,
	}
}

// LogStats ...
func (h *Heap) LogStats() {
	stats := h.Stats()
	arenasize := uint64(stats["arena.size"].(int64))
	allocated := uint64(stats["allocated"].(int64))
	freebytes := uint64(stats["free.bytes"].(int64))
	fmsg := "%v arena %v of %v, allocated %v, free %v in %v blocks, %v extensions\n"
	infof(fmsg, h.logprefix,
		humanize.Bytes(arenasize), humanize.Bytes(uint64(h.capacity)),
		humanize.Bytes(allocated), humanize.Bytes(freebytes),
		stats["free.blocks"], stats["extensions"])
}
