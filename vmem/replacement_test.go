package vmem

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReplacement(t *testing.T, alg string, numPages, numFrames uint32) *Replacement {
	t.Helper()
	r, err := NewReplacement(alg, numPages, numFrames)
	require.NoError(t, err)
	return r
}

func TestNewReplacementRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name      string
		numPages  uint32
		numFrames uint32
	}{
		{"zero pages", 0, 0},
		{"zero frames", 16, 0},
		{"more frames than pages", 4, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReplacement(AlgorithmFIFO, tt.numPages, tt.numFrames)
			require.Error(t, err)
			assert.True(t, IsErrorCode(err, ErrCodeInvalidConfig))
		})
	}

	_, err := NewReplacement("optimal", 16, 4)
	assert.True(t, IsErrorCode(err, ErrCodeUnknownPolicy))
}

func TestInitialPageTable(t *testing.T) {
	r := newTestReplacement(t, AlgorithmLRU, 8, 2)
	for page := uint32(0); page < 8; page++ {
		assert.Equal(t, PageEntry{Frame: NoFrame}, r.GetPageEntry(page))
	}
	assert.Equal(t, Stats{}, r.Stats())
}

func TestAccessOutOfRangePanics(t *testing.T) {
	r := newTestReplacement(t, AlgorithmFIFO, 8, 2)
	require.Panics(t, func() { r.Access(8, false) })

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.Equal(t, ErrCodeInvalidPage, GetErrorCode(err))
	}()
	r.Access(100, true)
}

func TestSingleFrameSaturation(t *testing.T) {
	for _, alg := range Algorithms {
		t.Run(alg, func(t *testing.T) {
			r := newTestReplacement(t, alg, 16, 1)

			out := r.AccessPage(3, false)
			assert.True(t, out.Fault)
			assert.False(t, out.Evicted)
			assert.Equal(t, 0, out.Frame)

			assert.False(t, r.Access(3, false))

			out = r.AccessPage(7, false)
			assert.True(t, out.Fault)
			assert.True(t, out.Evicted)
			assert.Equal(t, uint32(3), out.Victim)
			assert.Equal(t, 0, out.Frame)

			assert.False(t, r.GetPageEntry(3).Valid)
			assert.Equal(t, NoFrame, r.GetPageEntry(3).Frame)
			assert.True(t, r.GetPageEntry(7).Valid)
			assert.Equal(t, Stats{TotalReferences: 3, PageFaults: 2, PageReplacements: 1}, r.Stats())
		})
	}
}

func accessAll(r *Replacement, pages ...uint32) []Outcome {
	outcomes := make([]Outcome, 0, len(pages))
	for _, p := range pages {
		outcomes = append(outcomes, r.AccessPage(p, false))
	}
	return outcomes
}

func TestFIFOEvictsOldest(t *testing.T) {
	r := newTestReplacement(t, AlgorithmFIFO, 16, 2)
	outs := accessAll(r, 1, 2, 3)
	require.True(t, outs[2].Evicted)
	assert.Equal(t, uint32(1), outs[2].Victim)
}

func TestLIFOEvictsNewest(t *testing.T) {
	r := newTestReplacement(t, AlgorithmLIFO, 16, 2)
	outs := accessAll(r, 1, 2, 3)
	require.True(t, outs[2].Evicted)
	assert.Equal(t, uint32(2), outs[2].Victim)
}

func TestLRUEvictsLeastRecent(t *testing.T) {
	r := newTestReplacement(t, AlgorithmLRU, 16, 2)
	outs := accessAll(r, 1, 2, 1, 3)
	assert.False(t, outs[2].Fault)
	require.True(t, outs[3].Evicted)
	assert.Equal(t, uint32(2), outs[3].Victim)

	// FIFO on the same stream ignores the re-access
	f := newTestReplacement(t, AlgorithmFIFO, 16, 2)
	outs = accessAll(f, 1, 2, 1, 3)
	assert.Equal(t, uint32(1), outs[3].Victim)
}

func TestFreeFramesAssignedLowestFirst(t *testing.T) {
	r := newTestReplacement(t, AlgorithmFIFO, 32, 4)
	outs := accessAll(r, 9, 4, 17, 2)
	for i, out := range outs {
		assert.Equal(t, i, out.Frame)
	}
	assert.Equal(t, uint32(4), r.UsedFrames())
	assert.Equal(t, uint64(0), r.Stats().PageReplacements)
}

func TestDirtyTracking(t *testing.T) {
	r := newTestReplacement(t, AlgorithmFIFO, 16, 1)

	r.Access(1, false)
	assert.False(t, r.GetPageEntry(1).Dirty)
	r.Access(1, true)
	assert.True(t, r.GetPageEntry(1).Dirty)
	r.Access(1, false)
	assert.True(t, r.GetPageEntry(1).Dirty, "read must not clear the dirty bit")

	r.Access(2, true)
	assert.True(t, r.GetPageEntry(2).Dirty)
	assert.False(t, r.GetPageEntry(1).Dirty, "evicted page is reset")

	r.Access(1, false)
	assert.False(t, r.GetPageEntry(1).Dirty)
	assert.True(t, r.GetPageEntry(1).Referenced)
}

func TestNoFaultOnRepeat(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, alg := range Algorithms {
		r := newTestReplacement(t, alg, 64, 4)
		for i := 0; i < 500; i++ {
			page := uint32(rng.Intn(64))
			r.Access(page, rng.Intn(2) == 0)
			assert.False(t, r.Access(page, false), "%s: repeat of page %d faulted", alg, page)
		}
	}
}

func TestInvariantsHoldOnRandomStreams(t *testing.T) {
	geometries := []struct{ pages, frames uint32 }{
		{1, 1}, {8, 1}, {8, 3}, {16, 16}, {64, 7}, {256, 32},
	}

	for _, alg := range Algorithms {
		for _, g := range geometries {
			r := newTestReplacement(t, alg, g.pages, g.frames)
			rng := rand.New(rand.NewSource(int64(g.pages*31 + g.frames)))
			prev := r.Stats()

			for i := 0; i < 2000; i++ {
				page := uint32(rng.Intn(int(g.pages)))
				r.Access(page, rng.Intn(4) == 0)

				require.NoError(t, r.CheckInvariants(), "%s %dx%d after %d refs", alg, g.pages, g.frames, i+1)
				cur := r.Stats()
				require.Equal(t, prev.TotalReferences+1, cur.TotalReferences)
				require.GreaterOrEqual(t, cur.PageFaults, prev.PageFaults)
				require.GreaterOrEqual(t, cur.PageReplacements, prev.PageReplacements)
				require.LessOrEqual(t, cur.PageReplacements, cur.PageFaults)
				require.LessOrEqual(t, cur.PageFaults, cur.TotalReferences)
				require.LessOrEqual(t, r.UsedFrames(), g.frames)
				prev = cur
			}
		}
	}
}

func TestDeterministicRerun(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	stream := make([]uint32, 3000)
	for i := range stream {
		stream[i] = uint32(rng.Intn(128))
	}

	for _, alg := range Algorithms {
		a := newTestReplacement(t, alg, 128, 16)
		b := newTestReplacement(t, alg, 128, 16)
		assert.Equal(t, accessAll(a, stream...), accessAll(b, stream...), alg)
		assert.Equal(t, a.Stats(), b.Stats(), alg)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := newTestReplacement(t, AlgorithmLRU, 32, 3)
	accessAll(r, 1, 2, 3, 1)

	branch := r.Clone()
	accessAll(branch, 4, 5, 6)

	assert.Equal(t, uint64(4), r.Stats().TotalReferences)
	assert.True(t, r.GetPageEntry(1).Valid)
	assert.False(t, branch.GetPageEntry(1).Valid)
	require.NoError(t, r.CheckInvariants())
	require.NoError(t, branch.CheckInvariants())

	// Same continuation on both sides yields the same result
	again := r.Clone()
	assert.Equal(t, accessAll(again, 4, 5, 6), accessAll(r, 4, 5, 6))
}

func TestEvictionIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r := newTestReplacement(t, AlgorithmFIFO, 16, 1)
	r.SetLogger(logger)
	accessAll(r, 1, 2)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Page replaced", entry.Message)
	assert.Equal(t, uint32(1), entry.Data["victim"])
	assert.Equal(t, AlgorithmFIFO, entry.Data["algorithm"])
}

func TestPrintStatistics(t *testing.T) {
	r := newTestReplacement(t, AlgorithmFIFO, 16, 2)
	accessAll(r, 1, 2, 3, 3)

	var buf bytes.Buffer
	require.NoError(t, r.PrintStatistics(&buf))
	assert.Equal(t,
		"Number of references: \t\t4\nNumber of page faults: \t\t3\nNumber of page replacements: \t1\n",
		buf.String())
}
