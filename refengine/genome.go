package refengine

import (
	"fmt"
	"sort"

	"github.com/akm0001/genozip-sub000/bitarray"
)

// Genome is the shared reference: an ordered set of Ranges addressed in a
// single flat gpos coordinate space, one RegionLocker sharding writes to
// that space into 64 Kbp chunks, and (lazily, only when needed) the
// reverse-complement of each range's sequence — spec.md §4.2's
// "genome"/"emoneg" pair.
type Genome struct {
	Mode   Mode
	Ranges []*Range // sorted by GPos
	Total  uint64   // total bases across all ranges

	locker *RegionLocker
}

// NewGenome builds a Genome from a set of already-sized ranges (their
// GPos/Length must already be assigned and non-overlapping, ascending).
func NewGenome(mode Mode, ranges []*Range) *Genome {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].GPos < ranges[j].GPos })
	var total uint64
	for _, r := range ranges {
		total = r.GPos + r.Length
	}
	return &Genome{
		Mode:   mode,
		Ranges: ranges,
		Total:  total,
		locker: NewRegionLocker(total),
	}
}

// RangeAt returns the range containing genome-relative position gpos.
func (g *Genome) RangeAt(gpos uint64) (*Range, bool) {
	i := sort.Search(len(g.Ranges), func(i int) bool {
		return g.Ranges[i].GPos+g.Ranges[i].Length > gpos
	})
	if i == len(g.Ranges) || !g.Ranges[i].Contains(gpos) {
		return nil, false
	}
	return g.Ranges[i], true
}

// RangeByChrom returns the range named chromName, if any (ModeExternal and
// friends have exactly one range per contig).
func (g *Genome) RangeByChrom(chromName string) (*Range, bool) {
	for _, r := range g.Ranges {
		if r.ChromName == chromName {
			return r, true
		}
	}
	return nil, false
}

// Lock acquires the region mutexes covering [gpos, gpos+seqLen).
func (g *Genome) Lock(gpos uint64, seqLen uint32) (Lock, error) {
	return g.locker.Lock(gpos, seqLen)
}

// Unlock releases a Lock acquired from Lock.
func (g *Genome) Unlock(l Lock) { g.locker.Unlock(l) }

// ReverseComplement returns the reverse-complement ("emoneg") sequence for
// r, computed on demand rather than kept permanently alongside every
// range — most PIZ/ZIP operations only need the forward strand.
func (r *Range) ReverseComplement() *bitarray.TwoBit {
	return r.Seq.ReverseComplement()
}

// SetBase writes base at genome-relative position gpos into the owning
// range and marks it as set. Caller must hold the corresponding region
// lock (via Genome.Lock) when called from a compute thread other than the
// one that owns this range exclusively.
func (g *Genome) SetBase(gpos uint64, base bitarray.Base) error {
	r, ok := g.RangeAt(gpos)
	if !ok {
		return fmt.Errorf("refengine: gpos %d not covered by any range", gpos)
	}
	off := r.LocalOffset(gpos)
	r.Seq.Set(off, base)
	r.IsSet.Set(off)
	return nil
}

// IsBaseSet reports whether genome-relative position gpos has been
// assigned a base. ModeExternal ranges are filled up front but leave
// positions whose FASTA byte is not A/C/G/T (such as N runs) unset.
func (g *Genome) IsBaseSet(gpos uint64) (bool, error) {
	r, ok := g.RangeAt(gpos)
	if !ok {
		return false, fmt.Errorf("refengine: gpos %d not covered by any range", gpos)
	}
	return r.IsSet.Get(r.LocalOffset(gpos)), nil
}

// BaseAt returns the base at genome-relative position gpos.
func (g *Genome) BaseAt(gpos uint64) (bitarray.Base, error) {
	r, ok := g.RangeAt(gpos)
	if !ok {
		return 0, fmt.Errorf("refengine: gpos %d not covered by any range", gpos)
	}
	return r.Seq.Get(r.LocalOffset(gpos)), nil
}
