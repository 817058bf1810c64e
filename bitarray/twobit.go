package bitarray

// Base is a 2-bit nucleotide code, A=0 C=1 G=2 T=3, matching the ACGT codec
// registered in codec.ACGT and original_source/reference.c's packing order.
type Base uint8

const (
	A Base = 0
	C Base = 1
	G Base = 2
	T Base = 3
)

var baseToByte = [4]byte{'A', 'C', 'G', 'T'}
var byteToBase = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['a'] = int8(A), int8(A)
	t['C'], t['c'] = int8(C), int8(C)
	t['G'], t['g'] = int8(G), int8(G)
	t['T'], t['t'] = int8(T), int8(T)
	return t
}()

// Byte returns the ASCII base letter for b.
func (b Base) Byte() byte { return baseToByte[b&3] }

// BaseFromByte maps an ASCII base letter to a Base; ok is false for
// non-canonical bases (N and friends), matching spec.md §4.2 step 2's
// "canonical base {A,C,G,T}" gate.
func BaseFromByte(c byte) (b Base, ok bool) {
	v := byteToBase[c]
	if v < 0 {
		return 0, false
	}
	return Base(v), true
}

// complement returns the Watson-Crick complement of a 2-bit base.
func (b Base) complement() Base { return 3 - (b & 3) }

// TwoBit is a packed array of 2-bit bases, the "genome" or "emoneg"
// (reverse-complement genome) buffer of spec.md §4.2.
type TwoBit struct {
	bits *BitArray // 2*length bits
	n    uint64    // number of bases
}

// NewTwoBit allocates a packed 2-bit array for n bases.
func NewTwoBit(n uint64) *TwoBit {
	return &TwoBit{bits: New(2 * n), n: n}
}

// Len returns the number of bases.
func (t *TwoBit) Len() uint64 { return t.n }

// Get returns the base at position i.
func (t *TwoBit) Get(i uint64) Base {
	lo := t.bits.Get(2 * i)
	hi := t.bits.Get(2*i + 1)
	var v Base
	if lo {
		v |= 1
	}
	if hi {
		v |= 2
	}
	return v
}

// Set stores base v at position i.
func (t *TwoBit) Set(i uint64, v Base) {
	if v&1 != 0 {
		t.bits.Set(2 * i)
	} else {
		t.bits.Clear(2 * i)
	}
	if v&2 != 0 {
		t.bits.Set(2*i + 1)
	} else {
		t.bits.Clear(2*i + 1)
	}
}

// ReverseComplement returns a new TwoBit containing the reverse complement
// of t, used to build "emoneg" alongside "genome" (spec.md §4.2).
func (t *TwoBit) ReverseComplement() *TwoBit {
	r := NewTwoBit(t.n)
	for i := uint64(0); i < t.n; i++ {
		r.Set(t.n-1-i, t.Get(i).complement())
	}
	return r
}

// CopySpan copies length bases from src[srcStart:] into t[dstStart:],
// used when uncompacting a REF_EXT_STORE range (spec.md §4.2) back into
// place.
func (t *TwoBit) CopySpan(dstStart uint64, src *TwoBit, srcStart, length uint64) {
	for i := uint64(0); i < length; i++ {
		t.Set(dstStart+i, src.Get(srcStart+i))
	}
}
