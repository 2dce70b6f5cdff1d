package vmem

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Stats is a read-only snapshot of the engine counters
type Stats struct {
	TotalReferences  uint64
	PageFaults       uint64
	PageReplacements uint64
}

// Hits returns the number of references that found their page resident
func (s Stats) Hits() uint64 {
	return s.TotalReferences - s.PageFaults
}

// FaultRate returns faults per reference, or 0 before the first reference
func (s Stats) FaultRate() float64 {
	if s.TotalReferences == 0 {
		return 0.0
	}
	return float64(s.PageFaults) / float64(s.TotalReferences)
}

// Report prints the counters in a fixed tabular layout
func (s Stats) Report(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Number of references: \t\t%d\nNumber of page faults: \t\t%d\nNumber of page replacements: \t%d\n",
		s.TotalReferences, s.PageFaults, s.PageReplacements)
	return err
}

// LogStats logs the snapshot using structured logging
func (s Stats) LogStats(logger logrus.FieldLogger, algorithm string) {
	logger.WithFields(logrus.Fields{
		"algorithm":         algorithm,
		"references":        s.TotalReferences,
		"page_faults":       s.PageFaults,
		"page_replacements": s.PageReplacements,
		"fault_rate":        s.FaultRate(),
	}).Info("Replacement statistics")
}
