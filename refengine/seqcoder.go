package refengine

import (
	"fmt"

	"github.com/akm0001/genozip-sub000/bitarray"
	"github.com/akm0001/genozip-sub000/sam"
)

// SequenceResult is the output of EncodeSequence: a match/mismatch bitmap
// (one bit per M/=/X read base, in read order; I and S bases take no bit,
// and the bitmap is allocated at len(seq) bits) plus the literal bytes of
// every base the bitmap alone can't reconstruct.
type SequenceResult struct {
	Bitmap *bitarray.BitArray
	NonRef []byte
}

// EncodeSequence implements spec.md §4.2's sequence coder: given a read's
// chromosome, 1-based leftmost mapping position, CIGAR and bases, it walks
// the CIGAR against g and produces the bitmap/NONREF pair PIZ needs to
// reconstruct seq exactly. pos == 0 means unaligned.
func (g *Genome) EncodeSequence(chromName string, pos uint64, cigar sam.Cigar, seq []byte) (*SequenceResult, error) {
	if pos == 0 {
		return unalignedResult(seq), nil
	}

	r, ok := g.RangeByChrom(chromName)
	if !ok {
		// range unavailable (e.g. INTERNAL hash collision never populated it)
		return unalignedResult(seq), nil
	}

	bitmap := bitarray.New(uint64(len(seq)))
	var nonref []byte
	var bitPos uint64

	seqIdx := 0
	gpos := r.GPos + (pos - 1)
	curRange := r
	depth := 0

	crossBoundary := func() error {
		depth++
		if depth > MaxCigarRecursionDepth {
			return fmt.Errorf("refengine: CIGAR crosses more than %d ranges", MaxCigarRecursionDepth)
		}
		next, ok := g.RangeAt(gpos)
		if !ok {
			return fmt.Errorf("refengine: CIGAR overruns genome at gpos %d", gpos)
		}
		curRange = next
		return nil
	}

	for _, op := range cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				if !curRange.Contains(gpos) {
					if err := crossBoundary(); err != nil {
						return nil, err
					}
				}
				match, err := g.consumeAlignedBase(curRange, gpos, seq[seqIdx])
				if err != nil {
					return nil, err
				}
				if match {
					bitmap.Set(bitPos)
				} else {
					nonref = append(nonref, seq[seqIdx])
				}
				bitPos++
				seqIdx++
				gpos++
			}
		case sam.CigarInsertion, sam.CigarSoftClipped:
			nonref = append(nonref, seq[seqIdx:seqIdx+n]...)
			seqIdx += n
		case sam.CigarDeletion, sam.CigarSkipped:
			gpos += uint64(n)
		case sam.CigarHardClipped, sam.CigarPadded:
			// no-op: consumes neither query nor reference.
		case sam.CigarBack:
			if uint64(n) > gpos {
				return nil, fmt.Errorf("refengine: CIGAR back-skip underflows gpos")
			}
			gpos -= uint64(n)
		}
	}

	return &SequenceResult{Bitmap: bitmap, NonRef: nonref}, nil
}

// consumeAlignedBase implements spec.md §4.2 steps 1-2 for a single
// M/=/X-consumed base: compare against the reference (writing a
// previously-unset INTERNAL position on the fly), reporting whether the
// result counts as a bitmap match.
func (g *Genome) consumeAlignedBase(r *Range, gpos uint64, readBase byte) (match bool, err error) {
	off := r.LocalOffset(gpos)
	isSet := r.IsSet.Get(off)

	if g.Mode == ModeInternal && !isSet {
		base, ok := bitarray.BaseFromByte(readBase)
		if !ok {
			return false, nil // non-canonical base over an unset position: mismatch, goes to NONREF
		}
		if err := g.SetBase(gpos, base); err != nil {
			return false, err
		}
		return true, nil
	}

	if !isSet {
		return false, nil // unset position outside INTERNAL mode: treat as mismatch
	}

	refBase := r.Seq.Get(off)
	readVal, ok := bitarray.BaseFromByte(readBase)
	return ok && readVal == refBase, nil
}

func unalignedResult(seq []byte) *SequenceResult {
	return &SequenceResult{
		Bitmap: bitarray.New(uint64(len(seq))), // all-zero: spec.md §4.2 step 4
		NonRef: append([]byte(nil), seq...),
	}
}
