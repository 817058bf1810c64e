package codec

import (
	"encoding/binary"
	"fmt"
)

// domqCodec implements the "dominant value" quality-score transform from
// original_source/domqual.c: when one byte value (typically Illumina
// binned 'F') makes up more than half of a quality stream, separate the
// stream into a run-length array (length of each run of the dominant
// byte) and an exceptions array (every other byte, in order). Both
// compress far better independently than the interleaved original.
//
// A run length is encoded as zero or more 255 continuation bytes followed
// by one terminating byte in [0,254] (255 means "add 255 and keep going");
// there are always exactly len(exceptions)+1 runs: one before each
// exception and one trailing run after the last exception.
//
// Wire layout: byte dom, uint32 len(exceptions), exceptions,
// uint32 len(runs), runs.
const runContinue = 255

type domqCodec struct{}

func (domqCodec) ID() Type { return DOMQ }

func (domqCodec) Compress(src []byte) ([]byte, error) {
	dom, ok := dominantByte(src)
	if !ok {
		return nil, fmt.Errorf("codec: DOMQ: %w: no dominant value in sample", ErrUnavailable)
	}

	var exceptions, runs []byte
	i := 0
	for {
		run := 0
		for i < len(src) && src[i] == dom {
			run++
			i++
		}
		runs = appendRun(runs, run)
		if i >= len(src) {
			break
		}
		exceptions = append(exceptions, src[i])
		i++
	}

	out := []byte{dom}
	out = appendUint32(out, uint32(len(exceptions)))
	out = append(out, exceptions...)
	out = appendUint32(out, uint32(len(runs)))
	out = append(out, runs...)
	return out, nil
}

func appendRun(runs []byte, n int) []byte {
	for n > 254 {
		runs = append(runs, runContinue)
		n -= 255
	}
	return append(runs, byte(n))
}

func (domqCodec) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	if len(src) < 1 {
		return nil, fmt.Errorf("codec: DOMQ header truncated")
	}
	dom := src[0]
	off := 1
	if off+4 > len(src) {
		return nil, fmt.Errorf("codec: DOMQ header truncated")
	}
	excLen := binary.LittleEndian.Uint32(src[off : off+4])
	off += 4
	if off+int(excLen) > len(src) {
		return nil, fmt.Errorf("codec: DOMQ exceptions truncated")
	}
	exceptions := src[off : off+int(excLen)]
	off += int(excLen)
	if off+4 > len(src) {
		return nil, fmt.Errorf("codec: DOMQ header truncated")
	}
	runLen := binary.LittleEndian.Uint32(src[off : off+4])
	off += 4
	if off+int(runLen) > len(src) {
		return nil, fmt.Errorf("codec: DOMQ runs truncated")
	}
	runs := src[off : off+int(runLen)]

	out := make([]byte, 0, uncompressedLen)
	ri := 0
	for ei := 0; ; ei++ {
		total := 0
		for ri < len(runs) {
			b := runs[ri]
			ri++
			total += int(b)
			if b != runContinue {
				break
			}
		}
		for k := 0; k < total; k++ {
			out = append(out, dom)
		}
		if ei >= len(exceptions) {
			break
		}
		out = append(out, exceptions[ei])
	}
	return out, nil
}

func dominantByte(src []byte) (byte, bool) {
	if len(src) == 0 {
		return 0, false
	}
	var hist [256]int
	for _, b := range src {
		hist[b]++
	}
	if hist['F'] > len(src)/2 {
		return 'F', true
	}
	const minThreshold = 5
	for c := 32; c <= 126; c++ {
		if hist[c] > len(src)/2 && hist[c] > minThreshold {
			return byte(c), true
		}
	}
	return 0, false
}
