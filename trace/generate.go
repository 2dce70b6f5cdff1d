package trace

import "math/rand"

// GenerateOptions controls synthetic trace generation
type GenerateOptions struct {
	Count       int     // Number of references
	AddressBits uint32  // Width of generated addresses
	PageSize    uint32  // Page size used to shape locality
	WorkingSet  int     // Pages in the hot set, 0 for uniform addresses
	Locality    float64 // Fraction of references drawn from the hot set
	Drift       int     // References between hot set shifts, 0 to keep it fixed
	WriteRatio  float64 // Fraction of references that are writes
	Seed        int64
}

// DefaultGenerateOptions returns options producing a 27-bit trace with a
// drifting 256-page working set
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Count:       100000,
		AddressBits: 27,
		PageSize:    4096,
		WorkingSet:  256,
		Locality:    0.9,
		Drift:       5000,
		WriteRatio:  0.0,
		Seed:        1,
	}
}

// Generate produces a deterministic synthetic reference stream.
// The same options always yield the same stream.
func Generate(opts GenerateOptions) []Reference {
	rng := rand.New(rand.NewSource(opts.Seed))
	if opts.AddressBits == 0 || opts.AddressBits > 62 {
		opts.AddressBits = 27
	}

	space := uint64(1) << opts.AddressBits
	pageSize := uint64(opts.PageSize)
	if pageSize == 0 || pageSize > space {
		pageSize = 1
	}
	numPages := space / pageSize

	hotBase := uint64(0)
	refs := make([]Reference, opts.Count)
	for i := range refs {
		if opts.Drift > 0 && i > 0 && i%opts.Drift == 0 {
			hotBase = uint64(rng.Int63n(int64(numPages)))
		}

		var addr uint64
		if opts.WorkingSet > 0 && rng.Float64() < opts.Locality {
			page := (hotBase + uint64(rng.Intn(opts.WorkingSet))) % numPages
			addr = page*pageSize + uint64(rng.Int63n(int64(pageSize)))
		} else {
			addr = uint64(rng.Int63n(int64(space)))
		}

		refs[i] = Reference{
			Address: addr,
			Write:   opts.WriteRatio > 0 && rng.Float64() < opts.WriteRatio,
		}
	}
	return refs
}
