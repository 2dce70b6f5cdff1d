// Command pagesim simulates demand paging over logical address traces and
// compares FIFO, LIFO and LRU page replacement.
//
// Usage:
//
//	pagesim [flags] <page_size> <phys_mem_mb>
//	pagesim gen [flags]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sibexico/pagesim/sim"
	"github.com/sibexico/pagesim/trace"
	"github.com/sibexico/pagesim/vmem"
)

const banner = `=================================================================
pagesim: virtual memory page replacement simulator
Policies: FIFO, LIFO, LRU
Description: simulates demand paging over logical address traces
=================================================================
`

const usageTooFew = `You have entered too few parameters to run the program.  You must enter
two command-line arguments:
 - page size (in bytes): between 256 and 8192, inclusive
 - physical memory size (in megabytes): between 4 and 64, inclusive
`

const sectionRule = "================================"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "gen" {
		return runGen(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("pagesim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file (.json or .toml)")
	smallPath := fs.String("small", "", "trace for the per-reference listing")
	largePath := fs.String("large", "", "trace for the policy comparison")
	policies := fs.String("policy", "", "comma separated policies to compare (fifo,lifo,lru)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFile := fs.String("log-file", "", "also append log entries to this file")
	verify := fs.Bool("verify", false, "check engine invariants after every reference")
	parallel := fs.Bool("parallel", false, "run the policy comparison concurrently (run times then overlap)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pagesim [flags] <page_size> <phys_mem_mb>\n       pagesim gen [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg := vmem.DefaultConfig()
	if *configPath != "" {
		loaded, err := vmem.LoadConfigFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	// Explicit flags win over file and environment
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "small":
			cfg.SmallTraceFile = *smallPath
		case "large":
			cfg.TraceFile = *largePath
		case "policy":
			list, err := vmem.ParsePolicies(*policies)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Policies = list
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		case "verify":
			cfg.Verify = *verify
		}
	})
	if flagErr != nil {
		fmt.Fprintf(stderr, "Invalid -policy: %v\n", flagErr)
		return 2
	}

	fmt.Fprint(stdout, banner+"\n")

	if fs.NArg() < 2 {
		fmt.Fprint(stdout, usageTooFew)
		return 1
	}
	if msg := applyGeometry(cfg, fs.Arg(0), fs.Arg(1)); msg != "" {
		fmt.Fprint(stdout, msg)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stdout, "Invalid configuration: %v\n", err)
		return 1
	}

	logger, closeLog, err := initLogger(stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer closeLog()

	if err := simulate(ctx, cfg, *parallel, logger, stdout); err != nil {
		logger.WithError(err).Error("Simulation failed")
		return 1
	}
	return 0
}

// applyGeometry parses and checks the positional page size and memory size.
// It returns the message to print when either is rejected.
func applyGeometry(cfg *vmem.Config, pageArg, memArg string) string {
	pageSize, err := strconv.ParseUint(pageArg, 10, 32)
	if err != nil || !isPowerOfTwo(pageSize) || pageSize < vmem.MinPageSize || pageSize > vmem.MaxPageSize {
		return "You have entered an invalid parameter for page size (bytes)\n" +
			"  (must be a power of 2 between 256 and 8192, inclusive).\n"
	}

	memMB, err := strconv.ParseUint(memArg, 10, 32)
	if err != nil || memMB < vmem.MinPhysicalMemoryMB || memMB > vmem.MaxPhysicalMemoryMB {
		return "You have entered an invalid parameter for physical memory size (MB)\n" +
			"  (must be between 4 and 64 MB, inclusive).\n"
	}
	if !isPowerOfTwo(memMB) {
		return "You have entered an invalid parameter for physical memory size\n" +
			"  (must be a power of 2).\n"
	}

	cfg.PageSize = uint32(pageSize)
	cfg.PhysicalMemoryMB = uint32(memMB)
	return ""
}

func isPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

func simulate(ctx context.Context, cfg *vmem.Config, parallel bool, logger *logrus.Logger, stdout io.Writer) error {
	fmt.Fprintf(stdout, "Page size = %d bytes\n", cfg.PageSize)
	fmt.Fprintf(stdout, "Physical Memory size = %d bytes\n", cfg.PhysicalMemoryBytes())
	fmt.Fprintf(stdout, "Number of pages = %d\n", cfg.NumPages())
	fmt.Fprintf(stdout, "Number of physical frames = %d\n", cfg.NumFrames())

	logger.WithFields(logrus.Fields{
		"page_size":  cfg.PageSize,
		"memory_mb":  cfg.PhysicalMemoryMB,
		"num_pages":  cfg.NumPages(),
		"num_frames": cfg.NumFrames(),
		"policies":   cfg.Policies,
	}).Debug("Configuration resolved")

	opts := sim.Options{Verify: cfg.Verify, Logger: logger}

	// Test 1: per-reference listing with FIFO
	fmt.Fprintf(stdout, "\n%sTest 1%s\n", sectionRule, sectionRule)
	small, err := trace.Load(cfg.SmallTraceFile)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s, please check your path", cfg.SmallTraceFile)
	}
	listing := opts
	listing.RecordSteps = true
	res, err := sim.Run(ctx, cfg, vmem.AlgorithmFIFO, small, listing)
	if err != nil {
		return err
	}
	if err := sim.WriteSteps(stdout, res.Steps); err != nil {
		return err
	}
	if err := res.Stats.Report(stdout); err != nil {
		return errors.Wrap(err, "failed to write statistics")
	}

	// Test 2: policy comparison over the large trace
	fmt.Fprintf(stdout, "\n%sTest 2%s\n", sectionRule, sectionRule)
	large, err := trace.Load(cfg.TraceFile)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s, please check your path", cfg.TraceFile)
	}
	logger.WithFields(logrus.Fields{
		"references": len(large),
		"parallel":   parallel,
	}).Info("Comparing replacement policies")

	compare := sim.RunEach
	if parallel {
		compare = sim.Compare
	}
	results, err := compare(ctx, cfg, large, cfg.Policies, opts)
	if err != nil {
		return err
	}
	for _, r := range results {
		r.Stats.LogStats(logger, r.Algorithm)
	}
	return sim.WriteComparison(stdout, results)
}

// runGen writes a synthetic trace
func runGen(args []string, stdout, stderr io.Writer) int {
	defaults := trace.DefaultGenerateOptions()

	fs := flag.NewFlagSet("pagesim gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	count := fs.Int("n", defaults.Count, "number of references")
	pages := fs.Int("pages", defaults.WorkingSet, "pages in the hot working set, 0 for uniform addresses")
	pageSize := fs.Uint("page-size", uint(defaults.PageSize), "page size used to shape locality")
	bits := fs.Uint("bits", uint(defaults.AddressBits), "logical address width")
	locality := fs.Float64("locality", defaults.Locality, "fraction of references drawn from the working set")
	drift := fs.Int("drift", defaults.Drift, "references between working set shifts, 0 to keep it fixed")
	writes := fs.Float64("writes", defaults.WriteRatio, "fraction of references marked as writes")
	seed := fs.Int64("seed", defaults.Seed, "random seed")
	out := fs.String("o", "large_refs.txt", "output path; .lz4 and .sz compress")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *count < 0 || *pages < 0 || *bits == 0 || *bits > 32 {
		fmt.Fprintln(stderr, "Invalid generator parameters: -n and -pages must be non-negative, -bits in [1, 32]")
		return 2
	}

	refs := trace.Generate(trace.GenerateOptions{
		Count:       *count,
		AddressBits: uint32(*bits),
		PageSize:    uint32(*pageSize),
		WorkingSet:  *pages,
		Locality:    *locality,
		Drift:       *drift,
		WriteRatio:  *writes,
		Seed:        *seed,
	})
	if err := trace.Write(*out, refs); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %d references to %s\n", len(refs), *out)
	return 0
}
