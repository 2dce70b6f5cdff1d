package vmem

// LIFOReplacer evicts the most recently loaded page.
// Victims are chosen by load time only, never by access recency.
type LIFOReplacer struct {
	stack []uint32
}

// NewLIFOReplacer creates a LIFO replacer for numFrames frames
func NewLIFOReplacer(numFrames uint32) *LIFOReplacer {
	return &LIFOReplacer{
		stack: make([]uint32, 0, numFrames),
	}
}

// Touch is a no-op: LIFO ignores re-access
func (l *LIFOReplacer) Touch(page uint32) {}

// Load pushes page onto the stack
func (l *LIFOReplacer) Load(page uint32) {
	if len(l.stack) == cap(l.stack) {
		panic(ErrInvariant("LIFOReplacer.Load", "stack already holds every frame"))
	}
	l.stack = append(l.stack, page)
}

// Evict pops the top of the stack and pushes page in its place
func (l *LIFOReplacer) Evict(page uint32) uint32 {
	top := len(l.stack) - 1
	if top < 0 {
		panic(ErrNoResidentPages("LIFOReplacer.Evict"))
	}
	victim := l.stack[top]
	l.stack[top] = page
	return victim
}

// Size returns the number of stacked pages
func (l *LIFOReplacer) Size() uint32 {
	return uint32(len(l.stack))
}

// Pages returns the stacked pages, bottom first
func (l *LIFOReplacer) Pages() []uint32 {
	pages := make([]uint32, len(l.stack))
	copy(pages, l.stack)
	return pages
}

// Clone returns an independent copy
func (l *LIFOReplacer) Clone() Replacer {
	stack := make([]uint32, len(l.stack), cap(l.stack))
	copy(stack, l.stack)
	return &LIFOReplacer{stack: stack}
}
