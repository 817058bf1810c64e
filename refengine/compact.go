package refengine

import "github.com/akm0001/genozip-sub000/bitarray"

// interiorClearBreakEven is the empirical break-even point from spec.md
// §4.2: compacting only pays for itself once the number of interior clear
// bits (after trimming flanking zero-regions) exceeds this many bits,
// since a separate IS_SET section has its own fixed overhead.
const interiorClearBreakEven = 470

// Compacted is a range rewritten as the concatenation of its set regions
// only, plus the IS_SET bitmap needed to undo that at PIZ time.
type Compacted struct {
	Seq   *bitarray.TwoBit
	IsSet *bitarray.BitArray
	// Trimmed records how many bases were trimmed off the front (flanking
	// zero-region), so uncompacting can place bases back at the right
	// absolute offset.
	Trimmed uint64
}

// trimFlankingZeros returns the [first, last] inclusive bit indices of r's
// set region, or ok=false if r.IsSet has no set bits at all.
func trimFlankingZeros(isSet *bitarray.BitArray) (first, last uint64, ok bool) {
	n := isSet.Len()
	var firstFound bool
	for i := uint64(0); i < n; i++ {
		if isSet.Get(i) {
			if !firstFound {
				first = i
				firstFound = true
			}
			last = i
		}
	}
	return first, last, firstFound
}

// ShouldCompact reports whether r should be compacted for a REF_EXT_STORE
// write-out: flanking zero-regions are trimmed unconditionally first, and
// then the decision hinges on how many interior clear bits remain.
func ShouldCompact(r *Range) bool {
	first, last, ok := trimFlankingZeros(r.IsSet)
	if !ok {
		return false // nothing set at all; nothing to compact either
	}
	interiorLen := last - first + 1
	setInInterior := r.IsSet.PopcountRegion(first, interiorLen)
	clearInInterior := interiorLen - setInInterior
	return clearInInterior > interiorClearBreakEven
}

// Compact rewrites r's sequence as the concatenation of its set regions
// only. The returned IsSet bitmap still spans the full trimmed interior
// (first..last of the original), so Uncompact can walk its 1-regions to
// know exactly where each compacted base belongs.
func Compact(r *Range) *Compacted {
	first, last, ok := trimFlankingZeros(r.IsSet)
	if !ok {
		return &Compacted{Seq: bitarray.NewTwoBit(0), IsSet: bitarray.New(0)}
	}
	interiorLen := last - first + 1
	setCount := r.IsSet.PopcountRegion(first, interiorLen)

	compactedSeq := bitarray.NewTwoBit(setCount)
	compactedIsSet := bitarray.New(interiorLen)

	var w uint64
	for i := uint64(0); i < interiorLen; i++ {
		if r.IsSet.Get(first + i) {
			compactedSeq.Set(w, r.Seq.Get(first+i))
			compactedIsSet.Set(i)
			w++
		}
	}
	return &Compacted{Seq: compactedSeq, IsSet: compactedIsSet, Trimmed: first}
}

// Uncompact rebuilds a full-length range sequence from a Compacted,
// walking IsSet's 1-regions and copying 2-bit bases back into place —
// spec.md §4.2's "uncompacting walks is_set 1-regions and copies 2-bit
// pairs back into place".
func Uncompact(c *Compacted, fullLength uint64) *Range {
	out := NewRange("", 0, fullLength)
	var src uint64
	for i := uint64(0); i < c.IsSet.Len(); i++ {
		dst := c.Trimmed + i
		if c.IsSet.Get(i) {
			out.Seq.Set(dst, c.Seq.Get(src))
			out.IsSet.Set(dst)
			src++
		}
	}
	return out
}
