package vmem

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Outcome describes how a single reference was resolved
type Outcome struct {
	Page    uint32
	Fault   bool
	Evicted bool   // A resident page was replaced
	Victim  uint32 // Replaced page, meaningful only when Evicted
	Frame   int    // Frame the referenced page is bound to afterwards
}

// Replacement simulates demand paging over a fixed frame pool.
// It owns its page table, frame allocator and replacement policy; nothing
// is shared between instances.
type Replacement struct {
	algorithm string
	numPages  uint32
	numFrames uint32
	pageTable *PageTable
	frames    *FrameAllocator
	replacer  Replacer
	logger    logrus.FieldLogger
	debug     bool // logger emits debug entries

	totalReferences  uint64
	pageFaults       uint64
	pageReplacements uint64
}

// NewReplacement creates a simulator with the given replacement policy.
// numPages and numFrames must be positive with numFrames <= numPages.
func NewReplacement(algorithm string, numPages, numFrames uint32) (*Replacement, error) {
	if numPages == 0 {
		return nil, ErrInvalidConfig("NewReplacement", "number of pages must be greater than 0")
	}
	if numFrames == 0 {
		return nil, ErrInvalidConfig("NewReplacement", "number of frames must be greater than 0")
	}
	if numFrames > numPages {
		return nil, ErrInvalidConfig("NewReplacement",
			fmt.Sprintf("number of frames (%d) exceeds number of pages (%d)", numFrames, numPages))
	}

	replacer, err := NewReplacer(algorithm, numPages, numFrames)
	if err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Replacement{
		algorithm: algorithm,
		numPages:  numPages,
		numFrames: numFrames,
		pageTable: NewPageTable(numPages),
		frames:    NewFrameAllocator(numFrames),
		replacer:  replacer,
		logger:    discard,
	}, nil
}

// SetLogger sets the logger that receives per-eviction debug entries.
// The debug level is sampled here; later level changes are not seen.
func (r *Replacement) SetLogger(logger logrus.FieldLogger) {
	r.logger = logger.WithField("algorithm", r.algorithm)
	r.debug = debugEnabled(logger)
}

func debugEnabled(logger logrus.FieldLogger) bool {
	switch l := logger.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return true
}

// Algorithm returns the name of the active policy
func (r *Replacement) Algorithm() string {
	return r.algorithm
}

// NumPages returns the size of the logical address space in pages
func (r *Replacement) NumPages() uint32 {
	return r.numPages
}

// NumFrames returns the number of physical frames
func (r *Replacement) NumFrames() uint32 {
	return r.numFrames
}

// Access simulates a single page reference and reports whether it faulted
func (r *Replacement) Access(page uint32, isWrite bool) bool {
	return r.AccessPage(page, isWrite).Fault
}

// AccessPage simulates a single page reference.
// page must lie in [0, NumPages()); anything else is a caller bug and panics.
func (r *Replacement) AccessPage(page uint32, isWrite bool) Outcome {
	if page >= r.numPages {
		panic(ErrInvalidPage("Replacement.Access", page, r.numPages))
	}
	r.totalReferences++

	entry := r.pageTable.entry(page)
	if entry.Valid {
		r.replacer.Touch(page)
		entry.Referenced = true
		if isWrite {
			entry.Dirty = true
		}
		return Outcome{Page: page, Frame: entry.Frame}
	}

	r.pageFaults++

	if frame, ok := r.frames.Allocate(page); ok {
		r.pageTable.bind(page, frame, isWrite)
		r.replacer.Load(page)
		return Outcome{Page: page, Fault: true, Frame: frame}
	}

	victim := r.replacer.Evict(page)
	frame := r.pageTable.entry(victim).Frame
	if frame == NoFrame {
		panic(ErrInvariant("Replacement.Access", fmt.Sprintf("victim page %d is not resident", victim)))
	}

	r.pageTable.unbind(victim)
	r.frames.Release(frame)
	r.frames.occupy(frame, page)
	r.pageTable.bind(page, frame, isWrite)
	r.pageReplacements++

	if r.debug {
		r.logger.WithFields(logrus.Fields{
			"page":   page,
			"victim": victim,
			"frame":  frame,
		}).Debug("Page replaced")
	}

	return Outcome{Page: page, Fault: true, Evicted: true, Victim: victim, Frame: frame}
}

// GetPageEntry returns a copy of the page table entry for page
func (r *Replacement) GetPageEntry(page uint32) PageEntry {
	return r.pageTable.Entry(page)
}

// ResidentPages returns the pages tracked by the active policy
func (r *Replacement) ResidentPages() []uint32 {
	return r.replacer.Pages()
}

// UsedFrames returns the number of occupied frames
func (r *Replacement) UsedFrames() uint32 {
	return r.frames.Used()
}

// Stats returns a snapshot of the counters
func (r *Replacement) Stats() Stats {
	return Stats{
		TotalReferences:  r.totalReferences,
		PageFaults:       r.pageFaults,
		PageReplacements: r.pageReplacements,
	}
}

// PrintStatistics writes the counters to w
func (r *Replacement) PrintStatistics(w io.Writer) error {
	return r.Stats().Report(w)
}

// Clone returns a fully independent copy of the simulator, including
// policy state. The copy keeps the original's logger.
func (r *Replacement) Clone() *Replacement {
	return &Replacement{
		algorithm:        r.algorithm,
		numPages:         r.numPages,
		numFrames:        r.numFrames,
		pageTable:        r.pageTable.clone(),
		frames:           r.frames.clone(),
		replacer:         r.replacer.Clone(),
		logger:           r.logger,
		debug:            r.debug,
		totalReferences:  r.totalReferences,
		pageFaults:       r.pageFaults,
		pageReplacements: r.pageReplacements,
	}
}

// CheckInvariants verifies the consistency between the page table, the
// frame allocator, the policy and the counters
func (r *Replacement) CheckInvariants() error {
	const op = "Replacement.CheckInvariants"

	var valid uint32
	for page := uint32(0); page < r.numPages; page++ {
		e := r.pageTable.entry(page)
		if !e.Valid {
			if e.Frame != NoFrame {
				return ErrInvariant(op, fmt.Sprintf("invalid page %d bound to frame %d", page, e.Frame))
			}
			continue
		}
		valid++
		occupant, ok := r.frames.Occupant(e.Frame)
		if !ok {
			return ErrInvariant(op, fmt.Sprintf("page %d bound to free frame %d", page, e.Frame))
		}
		if occupant != page {
			return ErrInvariant(op, fmt.Sprintf("frame %d holds page %d, not %d", e.Frame, occupant, page))
		}
	}

	if used := r.frames.Used(); used != valid {
		return ErrInvariant(op, fmt.Sprintf("%d frames in use but %d valid pages", used, valid))
	}
	if valid > r.numFrames {
		return ErrInvariant(op, fmt.Sprintf("%d valid pages exceed %d frames", valid, r.numFrames))
	}

	tracked := r.replacer.Pages()
	if uint32(len(tracked)) != valid {
		return ErrInvariant(op, fmt.Sprintf("policy tracks %d pages but %d are valid", len(tracked), valid))
	}
	seen := make(map[uint32]struct{}, len(tracked))
	for _, page := range tracked {
		if _, dup := seen[page]; dup {
			return ErrInvariant(op, fmt.Sprintf("policy tracks page %d twice", page))
		}
		seen[page] = struct{}{}
		if page >= r.numPages || !r.pageTable.entry(page).Valid {
			return ErrInvariant(op, fmt.Sprintf("policy tracks non-resident page %d", page))
		}
	}

	if r.pageFaults > r.totalReferences {
		return ErrInvariant(op, "more page faults than references")
	}
	if r.pageReplacements > r.pageFaults {
		return ErrInvariant(op, "more page replacements than page faults")
	}
	return nil
}
