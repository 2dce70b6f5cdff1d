package vmem

// FrameAllocator tracks which physical frames are free and which page
// occupies each used frame.
type FrameAllocator struct {
	inUse    []bool
	occupant []uint32
	used     uint32
}

// NewFrameAllocator creates an allocator with numFrames free frames
func NewFrameAllocator(numFrames uint32) *FrameAllocator {
	return &FrameAllocator{
		inUse:    make([]bool, numFrames),
		occupant: make([]uint32, numFrames),
	}
}

// Allocate binds page to the lowest-numbered free frame.
// Returns the frame index and true, or NoFrame and false when every frame is in use.
func (fa *FrameAllocator) Allocate(page uint32) (int, bool) {
	if fa.used == uint32(len(fa.inUse)) {
		return NoFrame, false
	}
	for i, used := range fa.inUse {
		if !used {
			fa.occupy(i, page)
			return i, true
		}
	}
	return NoFrame, false
}

// Release marks frame as free
func (fa *FrameAllocator) Release(frame int) {
	if !fa.inUse[frame] {
		return
	}
	fa.inUse[frame] = false
	fa.used--
}

func (fa *FrameAllocator) occupy(frame int, page uint32) {
	if !fa.inUse[frame] {
		fa.used++
	}
	fa.inUse[frame] = true
	fa.occupant[frame] = page
}

// Occupant returns the page bound to frame, if any
func (fa *FrameAllocator) Occupant(frame int) (uint32, bool) {
	if frame < 0 || frame >= len(fa.inUse) || !fa.inUse[frame] {
		return 0, false
	}
	return fa.occupant[frame], true
}

// NumFrames returns the total number of frames
func (fa *FrameAllocator) NumFrames() uint32 {
	return uint32(len(fa.inUse))
}

// Used returns the number of occupied frames
func (fa *FrameAllocator) Used() uint32 {
	return fa.used
}

// Free returns the number of free frames
func (fa *FrameAllocator) Free() uint32 {
	return uint32(len(fa.inUse)) - fa.used
}

func (fa *FrameAllocator) clone() *FrameAllocator {
	c := &FrameAllocator{
		inUse:    make([]bool, len(fa.inUse)),
		occupant: make([]uint32, len(fa.occupant)),
		used:     fa.used,
	}
	copy(c.inUse, fa.inUse)
	copy(c.occupant, fa.occupant)
	return c
}
