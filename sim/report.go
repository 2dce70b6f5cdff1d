package sim

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/sibexico/pagesim/vmem"
)

// WriteSteps prints one line per reference: address, page, frame and whether it faulted
func WriteSteps(w io.Writer, steps []Step) error {
	bw := bufio.NewWriter(w)
	for _, s := range steps {
		fmt.Fprintf(bw, "Logical address: %d, \tpage number: %d, \tframe number = %d, \tis page fault? %d\n",
			s.Address, s.Page, s.Frame, boolByte(s.Fault))
	}
	return errors.Wrap(bw.Flush(), "failed to write steps")
}

// WriteComparison prints a statistics block and run time for every result.
// LRU's time is labelled "Elapsed time", the others "Run time".
func WriteComparison(w io.Writer, results []*Result) error {
	bw := bufio.NewWriter(w)
	for i, res := range results {
		name := strings.ToUpper(res.Algorithm)
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "****************Simulate %s replacement****************************\n", name)
		fmt.Fprintf(bw, "%s Replacement Statistics:\n", name)
		if err := res.Stats.Report(bw); err != nil {
			return errors.Wrap(err, "failed to write statistics")
		}
		label := "Run time"
		if strings.EqualFold(res.Algorithm, vmem.AlgorithmLRU) {
			label = "Elapsed time"
		}
		fmt.Fprintf(bw, "%s: %.6f seconds\n", label, res.Elapsed.Seconds())
	}
	return errors.Wrap(bw.Flush(), "failed to write comparison")
}
