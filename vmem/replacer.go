package vmem

import "strings"

// Replacer interface for page replacement policies.
// Allows different algorithms (FIFO, LIFO, LRU)
type Replacer interface {
	// Touch records a hit on a resident page
	Touch(page uint32)

	// Load registers a page that was just installed in a free frame
	Load(page uint32)

	// Evict selects a resident victim under the policy's rule, drops it from
	// the tracking structure and registers page in its place.
	// Panics with ErrCodeNoResidentPages when nothing is resident.
	Evict(page uint32) uint32

	// Size returns the number of tracked (resident) pages
	Size() uint32

	// Pages returns the tracked pages in the policy's internal order
	Pages() []uint32

	// Clone returns an independent copy of the policy state
	Clone() Replacer
}

// Supported algorithm names
const (
	AlgorithmFIFO = "fifo"
	AlgorithmLIFO = "lifo"
	AlgorithmLRU  = "lru"
)

// Algorithms lists every supported algorithm in presentation order
var Algorithms = []string{AlgorithmFIFO, AlgorithmLIFO, AlgorithmLRU}

// NewReplacer creates a replacer based on the specified algorithm
func NewReplacer(algorithm string, numPages, numFrames uint32) (Replacer, error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmFIFO:
		return NewFIFOReplacer(numFrames), nil
	case AlgorithmLIFO:
		return NewLIFOReplacer(numFrames), nil
	case AlgorithmLRU:
		return NewLRUReplacer(numPages, numFrames), nil
	default:
		return nil, ErrUnknownPolicy("NewReplacer", algorithm)
	}
}
