package vmem

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestStatsDerived(t *testing.T) {
	s := Stats{TotalReferences: 10, PageFaults: 4, PageReplacements: 1}

	if s.Hits() != 6 {
		t.Errorf("Expected 6 hits, got %d", s.Hits())
	}

	if s.FaultRate() != 0.4 {
		t.Errorf("Expected fault rate 0.40, got %.2f", s.FaultRate())
	}
}

func TestStatsFaultRateEdgeCases(t *testing.T) {
	// No references - should return 0.0
	if (Stats{}).FaultRate() != 0.0 {
		t.Errorf("Expected 0.0 fault rate with no references, got %.2f", (Stats{}).FaultRate())
	}

	// Every reference faulted
	s := Stats{TotalReferences: 3, PageFaults: 3}
	if s.FaultRate() != 1.0 {
		t.Errorf("Expected 1.0 fault rate, got %.2f", s.FaultRate())
	}
}

func TestStatsLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	Stats{TotalReferences: 5, PageFaults: 2}.LogStats(logger, AlgorithmLRU)

	out := buf.String()
	for _, want := range []string{"algorithm=lru", "references=5", "page_faults=2", "page_replacements=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %q, got %q", want, out)
		}
	}
}
