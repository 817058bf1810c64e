package refengine

import "github.com/akm0001/genozip-sub000/bitarray"

// Range is one contiguous, named span of the genome — one per contig in
// ModeExternal/ModeExtStore/ModeStored, or one per synthetic 1 Mbp bucket
// in ModeInternal. GPos is the range's offset within the flat genome
// coordinate space the sequence coder and region locker both address.
type Range struct {
	ChromName string
	GPos      uint64
	Length    uint64 // bases

	Seq   *bitarray.TwoBit // 2-bit packed bases for this range
	IsSet *bitarray.BitArray
}

// NewRange allocates an empty range of length bases at gpos.
func NewRange(chromName string, gpos, length uint64) *Range {
	return &Range{
		ChromName: chromName,
		GPos:      gpos,
		Length:    length,
		Seq:       bitarray.NewTwoBit(length),
		IsSet:     bitarray.New(length),
	}
}

// Contains reports whether the genome-relative position gpos falls inside
// this range.
func (r *Range) Contains(gpos uint64) bool {
	return gpos >= r.GPos && gpos < r.GPos+r.Length
}

// LocalOffset converts a genome-relative position into a range-relative
// base offset. Caller must ensure Contains(gpos).
func (r *Range) LocalOffset(gpos uint64) uint64 { return gpos - r.GPos }
