package codec

import (
	"encoding/binary"
	"fmt"
)

// hapmCodec implements a simplified haplotype-matrix transform: genotype
// data for a VCF block is naturally a matrix of (variant row) x (sample
// column) allele bytes. Adjacent samples at the same variant, and the same
// sample across adjacent variants, are both highly repetitive, but a
// row-major byte stream only exposes the first kind of repetition to a
// generic compressor. Transposing to column-major before the generic
// codec runs exposes the second, usually dominant, axis of redundancy —
// the same rationale as original_source's HAPM codec for the FORMAT/GT
// matrix.
//
// Wire layout: uint32 rows, uint32 cols, then the BZ2-compressed
// column-major bytes (exactly rows*cols; ragged input is rejected).
type hapmCodec struct{}

func (hapmCodec) ID() Type { return HAPM }

// CompressMatrix compresses src, a row-major rows x cols byte matrix. HAPM
// has no single-slice Compress because the byte stream alone doesn't carry
// a row length; callers (the GT context codec hint) always know the
// sample count and call this instead.
func (hapmCodec) CompressMatrix(src []byte, rows, cols int) ([]byte, error) {
	if rows <= 0 || cols <= 0 || rows*cols != len(src) {
		return nil, fmt.Errorf("codec: HAPM: %w: matrix dims %dx%d don't match %d bytes", ErrUnavailable, rows, cols, len(src))
	}
	transposed := make([]byte, len(src))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			transposed[c*rows+r] = src[r*cols+c]
		}
	}
	body, err := (bz2Codec{}).Compress(transposed)
	if err != nil {
		return nil, err
	}
	out := appendUint32(nil, uint32(rows))
	out = appendUint32(out, uint32(cols))
	out = append(out, body...)
	return out, nil
}

// Compress satisfies the Codec interface for callers that don't know the
// matrix shape; HAPM always requires CompressMatrix with explicit
// dimensions, since the byte stream alone doesn't carry a row length.
func (hapmCodec) Compress(src []byte) ([]byte, error) {
	return nil, fmt.Errorf("codec: HAPM: %w: requires CompressMatrix with explicit dimensions", ErrUnavailable)
}

func (hapmCodec) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	if len(src) < 8 {
		return nil, fmt.Errorf("codec: HAPM header truncated")
	}
	rows := int(binary.LittleEndian.Uint32(src[0:4]))
	cols := int(binary.LittleEndian.Uint32(src[4:8]))
	transposed, err := (bz2Codec{}).Decompress(src[8:], rows*cols)
	if err != nil {
		return nil, err
	}
	if len(transposed) != rows*cols {
		return nil, fmt.Errorf("codec: HAPM: decompressed size mismatch")
	}
	out := make([]byte, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = transposed[c*rows+r]
		}
	}
	return out, nil
}
