// Package sim drives replacement simulations over reference traces.
package sim

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sibexico/pagesim/trace"
	"github.com/sibexico/pagesim/vmem"
)

// cancelCheckInterval is how many references run between context checks
const cancelCheckInterval = 4096

// Options tunes a single run
type Options struct {
	Verify      bool               // Check engine invariants after every reference
	RecordSteps bool               // Keep the per-reference outcome list
	Logger      logrus.FieldLogger // Receives run summaries and eviction debug entries
}

// Step is the resolved outcome of one trace reference
type Step struct {
	Address uint64
	vmem.Outcome
}

// Result summarises one policy run over a trace
type Result struct {
	Algorithm string
	Stats     vmem.Stats
	Elapsed   time.Duration
	Digest    uint64 // xxhash64 over every outcome, equal digests mean identical runs
	Steps     []Step
}

// Run simulates algorithm over refs using a freshly built engine sized from cfg
func Run(ctx context.Context, cfg *vmem.Config, algorithm string, refs []trace.Reference, opts Options) (*Result, error) {
	engine, err := vmem.NewReplacement(algorithm, cfg.NumPages(), cfg.NumFrames())
	if err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		engine.SetLogger(opts.Logger)
	}

	result := &Result{Algorithm: algorithm}
	if opts.RecordSteps {
		result.Steps = make([]Step, 0, len(refs))
	}

	digest := xxhash.New64()
	var record [18]byte
	numPages := engine.NumPages()

	start := time.Now()
	for i, ref := range refs {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrapf(err, "%s run cancelled after %d references", algorithm, i)
			}
		}

		page, ok := cfg.PageNumber(ref.Address)
		if !ok || page >= numPages {
			return nil, errors.Wrapf(vmem.NewSimError(vmem.ErrCodeInvalidPage, "sim.Run",
				fmt.Sprintf("address %d lies outside the %d-page logical address space", ref.Address, numPages), nil),
				"reference %d", i)
		}

		out := engine.AccessPage(page, ref.Write)

		if opts.Verify {
			if err := engine.CheckInvariants(); err != nil {
				return nil, errors.Wrapf(err, "reference %d (address %d)", i, ref.Address)
			}
		}

		encodeOutcome(record[:], out)
		digest.Write(record[:])

		if opts.RecordSteps {
			result.Steps = append(result.Steps, Step{Address: ref.Address, Outcome: out})
		}
	}
	result.Elapsed = time.Since(start)
	result.Stats = engine.Stats()
	result.Digest = digest.Sum64()

	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"algorithm":  algorithm,
			"references": result.Stats.TotalReferences,
			"faults":     result.Stats.PageFaults,
			"elapsed":    result.Elapsed,
			"digest":     result.Digest,
		}).Info("Simulation finished")
	}
	return result, nil
}

// encodeOutcome packs out into an 18 byte record:
// page(4) victim(4) frame(8) fault(1) evicted(1)
func encodeOutcome(buf []byte, out vmem.Outcome) {
	binary.LittleEndian.PutUint32(buf[0:4], out.Page)
	binary.LittleEndian.PutUint32(buf[4:8], out.Victim)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(out.Frame)))
	buf[16] = boolByte(out.Fault)
	buf[17] = boolByte(out.Evicted)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// RunEach runs every algorithm over the same trace one after another, so each
// Elapsed is measured without the other runs competing for the CPU.
// Results keep the order of algorithms.
func RunEach(ctx context.Context, cfg *vmem.Config, refs []trace.Reference, algorithms []string, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(algorithms))
	for _, alg := range algorithms {
		res, err := Run(ctx, cfg, alg, refs, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "%s simulation failed", alg)
		}
		results = append(results, res)
	}
	return results, nil
}

// Compare runs every algorithm over the same trace concurrently.
// Each run owns an independent engine; results keep the order of algorithms.
// The runs overlap, so Elapsed includes contention; use RunEach for timings.
func Compare(ctx context.Context, cfg *vmem.Config, refs []trace.Reference, algorithms []string, opts Options) ([]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(algorithms))
	errs := make([]error, len(algorithms))

	var wg sync.WaitGroup
	for i, alg := range algorithms {
		wg.Add(1)
		go func(i int, alg string) {
			defer wg.Done()
			results[i], errs[i] = Run(ctx, cfg, alg, refs, opts)
			if errs[i] != nil {
				cancel()
			}
		}(i, alg)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil && errors.Cause(err) != context.Canceled {
			return nil, errors.Wrapf(err, "%s simulation failed", algorithms[i])
		}
	}
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "%s simulation failed", algorithms[i])
		}
	}
	return results, nil
}
