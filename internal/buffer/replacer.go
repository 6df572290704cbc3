// Package buffer implements the buffer pool: a fixed-size cache of pages
// backed by a disk manager, with pluggable replacement policy.
package buffer

import "github.com/Zhouua/minisql/internal/common"

// Replacer chooses which unpinned frame to evict next. Implementations
// track only frames that have been Unpin'd and not since re-Pin'd.
type Replacer interface {
	// Victim picks a frame to evict, writes its id to *out, removes it from
	// the replacer's tracking, and returns true. Returns false, writing
	// common.InvalidFrameID to *out, if no frame is currently evictable.
	Victim(out *common.FrameID) bool
	// Pin removes id from eviction tracking (the frame is in use).
	Pin(id common.FrameID)
	// Unpin adds id to eviction tracking (the frame is free to steal).
	// A frame already tracked is not added a second time.
	Unpin(id common.FrameID)
	// Size returns the number of frames currently evictable.
	Size() int
}

// lruNode is one entry of LRUReplacer's hand-rolled doubly linked list,
// ordered least- to most-recently-unpinned.
type lruNode struct {
	id         common.FrameID
	prev, next *lruNode
}

// LRUReplacer evicts the least-recently-unpinned frame first. It is the
// default replacer (spec.md §4.4).
type LRUReplacer struct {
	head, tail *lruNode // head = least recent, tail = most recent
	index      map[common.FrameID]*lruNode
}

// NewLRUReplacer returns an empty LRUReplacer able to track up to
// numFrames distinct frame ids (numFrames only sizes the index map).
func NewLRUReplacer(numFrames int) *LRUReplacer {
	return &LRUReplacer{index: make(map[common.FrameID]*lruNode, numFrames)}
}

func (r *LRUReplacer) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		r.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		r.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// Victim evicts the frame at the head of the list (least recently unpinned).
func (r *LRUReplacer) Victim(out *common.FrameID) bool {
	if r.head == nil {
		*out = common.InvalidFrameID
		return false
	}
	n := r.head
	r.unlink(n)
	delete(r.index, n.id)
	*out = n.id
	return true
}

// Pin removes id from the replacer, if present.
func (r *LRUReplacer) Pin(id common.FrameID) {
	n, ok := r.index[id]
	if !ok {
		return
	}
	r.unlink(n)
	delete(r.index, id)
}

// Unpin appends id to the tail (most recent) if not already tracked.
func (r *LRUReplacer) Unpin(id common.FrameID) {
	if _, ok := r.index[id]; ok {
		return
	}
	n := &lruNode{id: id}
	if r.tail == nil {
		r.head, r.tail = n, n
	} else {
		n.prev = r.tail
		r.tail.next = n
		r.tail = n
	}
	r.index[id] = n
}

// Size returns the number of frames currently evictable.
func (r *LRUReplacer) Size() int { return len(r.index) }

// ClockReplacer is the second-chance alternative to LRUReplacer: frames sit
// on a circular list with a reference bit; Victim sweeps clearing reference
// bits until it finds one already clear. Grounded on
// original_source's clock_replacer.cpp.
type ClockReplacer struct {
	ids  []common.FrameID
	ref  map[common.FrameID]bool
	hand int
}

// NewClockReplacer returns an empty ClockReplacer.
func NewClockReplacer(numFrames int) *ClockReplacer {
	return &ClockReplacer{ref: make(map[common.FrameID]bool, numFrames)}
}

func (r *ClockReplacer) indexOf(id common.FrameID) int {
	for i, x := range r.ids {
		if x == id {
			return i
		}
	}
	return -1
}

// Victim sweeps the clock hand, clearing reference bits, until it lands on
// a frame whose bit was already clear, evicting that one.
func (r *ClockReplacer) Victim(out *common.FrameID) bool {
	if len(r.ids) == 0 {
		*out = common.InvalidFrameID
		return false
	}
	for {
		if r.hand >= len(r.ids) {
			r.hand = 0
		}
		id := r.ids[r.hand]
		if r.ref[id] {
			r.ref[id] = false
			r.hand++
			continue
		}
		r.ids = append(r.ids[:r.hand], r.ids[r.hand+1:]...)
		delete(r.ref, id)
		*out = id
		return true
	}
}

// Pin removes id from the clock.
func (r *ClockReplacer) Pin(id common.FrameID) {
	i := r.indexOf(id)
	if i < 0 {
		return
	}
	r.ids = append(r.ids[:i], r.ids[i+1:]...)
	delete(r.ref, id)
	if r.hand > i {
		r.hand--
	}
}

// Unpin adds id to the clock with its reference bit set; if id is already
// on the clock, only its reference bit is set again.
func (r *ClockReplacer) Unpin(id common.FrameID) {
	if _, ok := r.ref[id]; ok {
		r.ref[id] = true
		return
	}
	r.ids = append(r.ids, id)
	r.ref[id] = true
}

// Size returns the number of frames currently tracked by the clock.
func (r *ClockReplacer) Size() int { return len(r.ids) }
