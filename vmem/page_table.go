package vmem

// NoFrame marks a page entry that is not bound to any physical frame
const NoFrame = -1

// PageEntry holds the metadata of one logical page
type PageEntry struct {
	Frame      int  // Bound frame index, or NoFrame
	Valid      bool // Resident in a frame
	Dirty      bool // Written since it was loaded
	Referenced bool // Accessed since it was loaded
}

// PageTable is a flat lookup table indexed by page number.
// It carries no replacement policy; the engine mutates entries while
// resolving accesses.
type PageTable struct {
	pages []PageEntry
}

// NewPageTable creates a page table with numPages invalid, unbound entries
func NewPageTable(numPages uint32) *PageTable {
	pt := &PageTable{
		pages: make([]PageEntry, numPages),
	}
	for i := range pt.pages {
		pt.pages[i].Frame = NoFrame
	}
	return pt
}

// Len returns the number of pages in the table
func (pt *PageTable) Len() uint32 {
	return uint32(len(pt.pages))
}

// Entry returns a copy of the entry for page.
// Panics with an ErrCodeInvalidPage error if page is out of range.
func (pt *PageTable) Entry(page uint32) PageEntry {
	return *pt.entry(page)
}

func (pt *PageTable) entry(page uint32) *PageEntry {
	if page >= uint32(len(pt.pages)) {
		panic(ErrInvalidPage("PageTable.Entry", page, uint32(len(pt.pages))))
	}
	return &pt.pages[page]
}

// ValidCount returns the number of resident pages
func (pt *PageTable) ValidCount() uint32 {
	var n uint32
	for i := range pt.pages {
		if pt.pages[i].Valid {
			n++
		}
	}
	return n
}

// bind installs page into frame
func (pt *PageTable) bind(page uint32, frame int, dirty bool) {
	e := pt.entry(page)
	e.Frame = frame
	e.Valid = true
	e.Dirty = dirty
	e.Referenced = true
}

// unbind resets page to its initial, non-resident state
func (pt *PageTable) unbind(page uint32) {
	e := pt.entry(page)
	e.Frame = NoFrame
	e.Valid = false
	e.Dirty = false
	e.Referenced = false
}

func (pt *PageTable) clone() *PageTable {
	pages := make([]PageEntry, len(pt.pages))
	copy(pages, pt.pages)
	return &PageTable{pages: pages}
}
