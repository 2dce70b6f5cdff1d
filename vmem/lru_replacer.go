package vmem

// noSlot marks a page that has no slot in the residency ledger
const noSlot = -1

// LRUReplacer implements true LRU (Least Recently Used) replacement.
//
// Every reference advances a global counter and stamps the referenced page.
// Resident pages live in a compact ledger of numFrames slots so the victim
// scan only visits resident pages; slotOf maps a page back to its slot.
type LRUReplacer struct {
	clock      uint64
	lastAccess []uint64 // per page, counter value of the latest reference
	resident   []uint32 // residency ledger, first count slots are used
	slotOf     []int32  // per page, slot in resident or noSlot
	count      int
}

// NewLRUReplacer creates a new LRU replacer
func NewLRUReplacer(numPages, numFrames uint32) *LRUReplacer {
	lru := &LRUReplacer{
		lastAccess: make([]uint64, numPages),
		resident:   make([]uint32, numFrames),
		slotOf:     make([]int32, numPages),
	}
	for i := range lru.slotOf {
		lru.slotOf[i] = noSlot
	}
	return lru
}

// Touch stamps page with the next counter value
func (lru *LRUReplacer) Touch(page uint32) {
	lru.clock++
	lru.lastAccess[page] = lru.clock
}

// Load appends page to the next free ledger slot and stamps it
func (lru *LRUReplacer) Load(page uint32) {
	if lru.count == len(lru.resident) {
		panic(ErrInvariant("LRUReplacer.Load", "residency ledger already holds every frame"))
	}
	lru.clock++
	lru.place(lru.count, page)
	lru.count++
}

// Evict replaces the resident page with the smallest stamp.
// Ties go to the lowest slot.
func (lru *LRUReplacer) Evict(page uint32) uint32 {
	if lru.count == 0 {
		panic(ErrNoResidentPages("LRUReplacer.Evict"))
	}
	lru.clock++

	victimSlot := 0
	oldest := lru.lastAccess[lru.resident[0]]
	for i := 1; i < lru.count; i++ {
		if stamp := lru.lastAccess[lru.resident[i]]; stamp < oldest {
			oldest = stamp
			victimSlot = i
		}
	}

	victim := lru.resident[victimSlot]
	lru.slotOf[victim] = noSlot
	lru.place(victimSlot, page)
	return victim
}

func (lru *LRUReplacer) place(slot int, page uint32) {
	lru.resident[slot] = page
	lru.slotOf[page] = int32(slot)
	lru.lastAccess[page] = lru.clock
}

// LastAccess returns the counter value page was last referenced at
func (lru *LRUReplacer) LastAccess(page uint32) uint64 {
	return lru.lastAccess[page]
}

// Slot returns the ledger slot holding page
func (lru *LRUReplacer) Slot(page uint32) (int, bool) {
	slot := lru.slotOf[page]
	return int(slot), slot != noSlot
}

// Size returns the number of resident pages
func (lru *LRUReplacer) Size() uint32 {
	return uint32(lru.count)
}

// Pages returns the residency ledger in slot order
func (lru *LRUReplacer) Pages() []uint32 {
	pages := make([]uint32, lru.count)
	copy(pages, lru.resident[:lru.count])
	return pages
}

// Clone returns an independent copy
func (lru *LRUReplacer) Clone() Replacer {
	c := &LRUReplacer{
		clock:      lru.clock,
		lastAccess: make([]uint64, len(lru.lastAccess)),
		resident:   make([]uint32, len(lru.resident)),
		slotOf:     make([]int32, len(lru.slotOf)),
		count:      lru.count,
	}
	copy(c.lastAccess, lru.lastAccess)
	copy(c.resident, lru.resident)
	copy(c.slotOf, lru.slotOf)
	return c
}
