package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/akm0001/genozip-sub000/bitarray"
)

// acgtCodec packs a pure-nucleotide byte stream into 2 bits/base
// (bitarray.TwoBit), the codec the sequence coder (refengine) selects for
// SQBITMAP/NONREF-adjacent sequence data per spec.md §2 component C.
//
// Wire layout: uint32 base count, then a varint-free exception list
// (uint32 count, then count*(uint32 position, byte original)) for any
// non-canonical base (N, IUPAC ambiguity codes, ...), then the packed
// 2-bit stream with exception positions packed as 'A' placeholders.
type acgtCodec struct{}

func (acgtCodec) ID() Type { return ACGT }

func (acgtCodec) Compress(src []byte) ([]byte, error) {
	packed, exceptions := packACGT(src)

	out := make([]byte, 0, 8+len(exceptions)*5+len(packed.Words())*8)
	out = appendUint32(out, uint32(len(src)))
	out = appendUint32(out, uint32(len(exceptions)))
	for _, e := range exceptions {
		out = appendUint32(out, e.pos)
		out = append(out, e.b)
	}
	for _, w := range packed.Words() {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], w)
		out = append(out, b[:]...)
	}
	return out, nil
}

func (acgtCodec) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	n, exceptions, body, err := parseACGTHeader(src)
	if err != nil {
		return nil, err
	}
	tb := bitarray.NewTwoBit(uint64(n))
	words := tb.Words()
	if len(body) < len(words)*8 {
		return nil, fmt.Errorf("codec: ACGT stream truncated")
	}
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	out := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		out[i] = tb.Get(uint64(i)).Byte()
	}
	for _, e := range exceptions {
		if int(e.pos) < len(out) {
			out[e.pos] = e.b
		}
	}
	return out, nil
}

type acgtException struct {
	pos uint32
	b   byte
}

func packACGT(src []byte) (*bitarray.TwoBit, []acgtException) {
	tb := bitarray.NewTwoBit(uint64(len(src)))
	var exceptions []acgtException
	// bitsAccess is tb itself; Compress reads the raw words from the
	// returned *TwoBit.
	bitsAccess := tb
	for i, c := range src {
		base, ok := bitarray.BaseFromByte(c)
		if !ok {
			exceptions = append(exceptions, acgtException{pos: uint32(i), b: c})
			base = bitarray.A
		}
		bitsAccess.Set(uint64(i), base)
	}
	return tb, exceptions
}

func appendUint32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func parseACGTHeader(src []byte) (n uint32, exceptions []acgtException, body []byte, err error) {
	if len(src) < 8 {
		return 0, nil, nil, fmt.Errorf("codec: ACGT header truncated")
	}
	n = binary.LittleEndian.Uint32(src[0:4])
	count := binary.LittleEndian.Uint32(src[4:8])
	off := 8
	exceptions = make([]acgtException, count)
	for i := range exceptions {
		if off+5 > len(src) {
			return 0, nil, nil, fmt.Errorf("codec: ACGT exception list truncated")
		}
		exceptions[i] = acgtException{
			pos: binary.LittleEndian.Uint32(src[off : off+4]),
			b:   src[off+4],
		}
		off += 5
	}
	return n, exceptions, src[off:], nil
}

// xcgtCodec extends acgtCodec with a lowercase (soft-mask) bitmap, the form
// genozip uses for FASTA reference sequences that carry repeat-masking
// case information alongside the base calls (spec.md §2 registers XCGT
// separately from ACGT for exactly this reason).
type xcgtCodec struct{}

func (xcgtCodec) ID() Type { return XCGT }

func (xcgtCodec) Compress(src []byte) ([]byte, error) {
	upper := make([]byte, len(src))
	lower := bitarray.New(uint64(len(src)))
	for i, c := range src {
		if c >= 'a' && c <= 'z' {
			lower.Set(uint64(i))
			upper[i] = c - ('a' - 'A')
		} else {
			upper[i] = c
		}
	}
	base, err := (acgtCodec{}).Compress(upper)
	if err != nil {
		return nil, err
	}
	out := appendUint32(nil, uint32(len(src)))
	for _, w := range lower.Words() {
		out = append(out, le64(w)...)
	}
	out = append(out, base...)
	return out, nil
}

func (xcgtCodec) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("codec: XCGT header truncated")
	}
	n := binary.LittleEndian.Uint32(src[0:4])
	lower := bitarray.New(uint64(n))
	nWords := len(lower.Words())
	off := 4
	if off+nWords*8 > len(src) {
		return nil, fmt.Errorf("codec: XCGT mask truncated")
	}
	words := lower.Words()
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(src[off+i*8:])
	}
	off += nWords * 8

	out, err := (acgtCodec{}).Decompress(src[off:], int(n))
	if err != nil {
		return nil, err
	}
	for i := range out {
		if lower.Get(uint64(i)) && out[i] >= 'A' && out[i] <= 'Z' {
			out[i] += 'a' - 'A'
		}
	}
	return out, nil
}

func le64(w uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], w)
	return b[:]
}
