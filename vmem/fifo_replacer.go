package vmem

// FIFOReplacer evicts the page that has been resident the longest.
// Re-accessing a page does not change its position.
type FIFOReplacer struct {
	queue []uint32 // ring buffer, head is the oldest page
	head  int
	count int
}

// NewFIFOReplacer creates a FIFO replacer for numFrames frames
func NewFIFOReplacer(numFrames uint32) *FIFOReplacer {
	return &FIFOReplacer{
		queue: make([]uint32, numFrames),
	}
}

// Touch is a no-op: FIFO ignores re-access
func (f *FIFOReplacer) Touch(page uint32) {}

// Load appends page to the tail of the queue
func (f *FIFOReplacer) Load(page uint32) {
	f.push(page)
}

// Evict pops the oldest page and appends page to the tail
func (f *FIFOReplacer) Evict(page uint32) uint32 {
	if f.count == 0 {
		panic(ErrNoResidentPages("FIFOReplacer.Evict"))
	}
	victim := f.queue[f.head]
	f.head = (f.head + 1) % len(f.queue)
	f.count--

	f.push(page)
	return victim
}

func (f *FIFOReplacer) push(page uint32) {
	if f.count == len(f.queue) {
		panic(ErrInvariant("FIFOReplacer.Load", "queue already holds every frame"))
	}
	f.queue[(f.head+f.count)%len(f.queue)] = page
	f.count++
}

// Size returns the number of queued pages
func (f *FIFOReplacer) Size() uint32 {
	return uint32(f.count)
}

// Pages returns the queued pages, oldest first
func (f *FIFOReplacer) Pages() []uint32 {
	pages := make([]uint32, f.count)
	for i := 0; i < f.count; i++ {
		pages[i] = f.queue[(f.head+i)%len(f.queue)]
	}
	return pages
}

// Clone returns an independent copy
func (f *FIFOReplacer) Clone() Replacer {
	queue := make([]uint32, len(f.queue))
	copy(queue, f.queue)
	return &FIFOReplacer{queue: queue, head: f.head, count: f.count}
}
