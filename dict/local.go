package dict

import "encoding/binary"

// LocalBuffer accumulates per-line data that doesn't belong in a
// dictionary: numeric series (POS deltas, QUAL, DP), free text too varied
// to dedup, or packed sequence/bitmap data. It is appended to during
// segmenting and replayed in order during reconstruction.
type LocalBuffer struct {
	LType LType
	Bytes []byte
	iter  int // PIZ read cursor
}

func NewLocalBuffer(lt LType) *LocalBuffer {
	return &LocalBuffer{LType: lt}
}

func (b *LocalBuffer) Reset() {
	b.Bytes = b.Bytes[:0]
	b.iter = 0
}

func (b *LocalBuffer) Len() int { return len(b.Bytes) }

func (b *LocalBuffer) AppendInt32(v int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	b.Bytes = append(b.Bytes, buf[:]...)
}

func (b *LocalBuffer) AppendUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.Bytes = append(b.Bytes, buf[:]...)
}

func (b *LocalBuffer) AppendFloat64Bits(bits uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], bits)
	b.Bytes = append(b.Bytes, buf[:]...)
}

func (b *LocalBuffer) AppendText(s string) {
	b.Bytes = append(b.Bytes, s...)
	b.Bytes = append(b.Bytes, 0)
}

// NextInt32 reads the next 4-byte little-endian integer from the iterator
// position, advancing it. Used by PIZ reconstruction.
func (b *LocalBuffer) NextInt32() (int32, bool) {
	if b.iter+4 > len(b.Bytes) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(b.Bytes[b.iter : b.iter+4])
	b.iter += 4
	return int32(v), true
}

func (b *LocalBuffer) NextUint32() (uint32, bool) {
	if b.iter+4 > len(b.Bytes) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(b.Bytes[b.iter : b.iter+4])
	b.iter += 4
	return v, true
}

func (b *LocalBuffer) NextFloat64Bits() (uint64, bool) {
	if b.iter+8 > len(b.Bytes) {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(b.Bytes[b.iter : b.iter+8])
	b.iter += 8
	return v, true
}

// NextText reads a NUL-terminated string starting at the iterator
// position, advancing past the terminator.
func (b *LocalBuffer) NextText() (string, bool) {
	for i := b.iter; i < len(b.Bytes); i++ {
		if b.Bytes[i] == 0 {
			s := string(b.Bytes[b.iter:i])
			b.iter = i + 1
			return s, true
		}
	}
	return "", false
}

func (b *LocalBuffer) ResetIterator() { b.iter = 0 }
