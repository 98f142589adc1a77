package memheap

import (
	"fmt"
	"strings"
)

// Check walks the whole heap and every bucket asserting the structural
// invariants: matching boundary tags, valid sizes, intact sentinels, no
// adjacent free blocks, consistent doubly-linked lists, correct bucket
// membership, no allocated block on a free list and no cycles. It
// returns one message per violation, never mutates state, and mirrors
// each finding to the error log.
func (h *Heap) Check() []string {
	if !h.inited {
		return nil
	}

	var violations []string
	report := func(fmsg string, args ...interface{}) {
		msg := fmt.Sprintf(fmsg, args...)
		violations = append(violations, msg)
		errorf("%v %v\n", h.logprefix, msg)
	}

	h.checkChain(report)
	h.checkBuckets(report)
	return violations
}

// CheckText is the diagnostic-text form of Check.
func (h *Heap) CheckText() string {
	violations := h.Check()
	if len(violations) == 0 {
		return "heap ok"
	}
	return strings.Join(violations, "\n")
}

// checkChain walks the block chain from the prologue to the epilogue.
func (h *Heap) checkChain(report func(string, ...interface{})) {
	if h.blockSize(prologueAddr) != alignment || !h.blockAlloc(prologueAddr) {
		report("bad prologue header %v", h.describeBlock(prologueAddr))
	}

	bp := firstBlockAddr
	for {
		size := h.blockSize(bp)
		if size == 0 {
			break
		}
		if bp+size > h.arena.size() {
			report("block %v runs past arena end %v", h.describeBlock(bp), h.arena.size())
			return
		}
		h.checkBlock(bp, report)
		bp += size
	}

	if !h.blockAlloc(bp) {
		report("bad epilogue header %v", h.describeBlock(bp))
	}
	if bp != h.arena.size() {
		report("epilogue at %v, arena ends at %v", bp, h.arena.size())
	}
}

func (h *Heap) checkBlock(bp uint32, report func(string, ...interface{})) {
	header := h.arena.word(bp - wordSize)
	size := sizeOf(header)
	footer := h.arena.word(bp + size - 2*wordSize)

	if header != footer {
		report("header/footer mismatch %v", h.describeBlock(bp))
	}
	if size%alignment != 0 || size < minBlockSize {
		report("bad block size %v at %v", size, bp)
	}
	if !allocOf(header) && !h.blockAlloc(bp+size) {
		report("adjacent free blocks at %v and %v", bp, bp+size)
	}
}

// checkBuckets walks every free list checking link integrity and
// membership. Cycle detection runs first so the walk terminates.
func (h *Heap) checkBuckets(report func(string, ...interface{})) {
	for i := range h.buckets {
		if h.hasCycle(h.buckets[i]) {
			report("cycle in bucket %v", i)
			continue
		}
		for bp := h.buckets[i]; bp != nullAddr; bp = h.nextFree(bp) {
			if next := h.nextFree(bp); next != nullAddr && h.prevFree(next) != bp {
				report("broken links: prev(next(%v)) = %v", bp, h.prevFree(next))
			}
			if prev := h.prevFree(bp); prev != nullAddr && h.nextFree(prev) != bp {
				report("broken links: next(prev(%v)) = %v", bp, h.nextFree(prev))
			}
			if bucketFor(len(h.buckets), h.blockSize(bp)) != i {
				report("block %v of size %v stored in bucket %v", bp, h.blockSize(bp), i)
			}
			if h.blockAlloc(bp) {
				report("allocated block %v in free list %v", bp, i)
			}
		}
	}
}

// hasCycle runs tortoise and hare over one bucket list: the hare moves
// two links per step, the tortoise one; equal addresses mean a cycle,
// the hare reaching the list end first means none.
func (h *Heap) hasCycle(head uint32) bool {
	tortoise, hare := head, head
	for hare != nullAddr {
		hare = h.nextFree(hare)
		if hare == nullAddr {
			return false
		}
		hare = h.nextFree(hare)
		tortoise = h.nextFree(tortoise)
		if tortoise != nullAddr && tortoise == hare {
			return true
		}
	}
	return false
}

func (h *Heap) describeBlock(bp uint32) string {
	header := h.arena.word(bp - wordSize)
	state := "free"
	if allocOf(header) {
		state = "allocated"
	}
	if bp+sizeOf(header) <= h.arena.size() && sizeOf(header) >= 2*wordSize {
		footer := h.arena.word(bp + sizeOf(header) - 2*wordSize)
		return fmt.Sprintf("[%v size:%v %v footer-size:%v]",
			bp, sizeOf(header), state, sizeOf(footer))
	}
	return fmt.Sprintf("[%v size:%v %v]", bp, sizeOf(header), state)
}
