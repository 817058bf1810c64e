package codec

import (
	"sort"
	"time"
)

// SampleSize caps the data sampled for auto-selection, per spec.md §4.1
// ("a sample of up to 100 KB").
const SampleSize = 100 * 1024

// MinLenForCompression carries original_source/codec.c's MIN_LEN_FOR_COMPRESSION
// value. AssignBest does not consult it: auto-selection benchmarks samples
// of any length.
const MinLenForCompression = 90

// Candidates is the fixed codec set benchmarked by AssignBest, in the order
// original_source/codec.c lists them (BZ2, NONE, BSC, LZMA).
var Candidates = []Type{BZ2, NONE, BSC, LZMA}

type trial struct {
	codec Type
	size  int
	clock time.Duration
}

// AssignBest benchmarks Candidates against sample and returns the winner
// per spec.md §4.1's layered tie-break (and the --fast relaxation), along
// with the winner's compressed bytes so the caller need not recompress.
//
// Candidates reporting ErrUnavailable are skipped transparently: the
// selection never picks (and never penalizes availability of) BSC/GTSHARK
// in this build.
func AssignBest(sample []byte, fast bool) (Type, []byte, error) {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	trials := make([]trial, 0, len(Candidates))
	out := make(map[Type][]byte, len(Candidates))
	for _, id := range Candidates {
		c, err := Get(id)
		if err != nil {
			continue
		}
		start := time.Now()
		compressed, err := c.Compress(sample)
		if err != nil {
			continue
		}
		trials = append(trials, trial{codec: id, size: len(compressed), clock: time.Since(start)})
		out[id] = compressed
	}
	if len(trials) == 0 {
		return 0, nil, ErrUnavailable
	}

	sort.Slice(trials, func(i, j int) bool {
		return rankLess(trials[i], trials[j], fast)
	})
	winner := trials[0]
	return winner.codec, out[winner.codec], nil
}

// rankLess implements original_source/codec.c's codec_assign_sorter.
func rankLess(a, b trial, fast bool) bool {
	if fast {
		if float64(a.clock) < float64(b.clock)*0.90 && float64(a.size) < float64(b.size)*1.3 {
			return true
		}
		if float64(b.clock) < float64(a.clock)*0.90 && float64(b.size) < float64(a.size)*1.3 {
			return false
		}
	}

	// >2% size delta beats any time delta.
	if float64(a.size) < float64(b.size)*0.98 {
		return true
	}
	if float64(b.size) < float64(a.size)*0.98 {
		return false
	}

	// else >50% time delta wins.
	if float64(a.clock) < float64(b.clock)*0.50 {
		return true
	}
	if float64(b.clock) < float64(a.clock)*0.50 {
		return false
	}

	// else >1% size.
	if float64(a.size) < float64(b.size)*0.99 {
		return true
	}
	if float64(b.size) < float64(a.size)*0.99 {
		return false
	}

	// else >15% time.
	if float64(a.clock) < float64(b.clock)*0.85 {
		return true
	}
	if float64(b.clock) < float64(a.clock)*0.85 {
		return false
	}

	// else smaller size.
	return a.size < b.size
}
