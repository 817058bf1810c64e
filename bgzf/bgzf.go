// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"compress/gzip"
	"errors"
)

// Chunk is a byte range in a BGZF stream, addressed in virtual file
// offsets: a compressed-file byte offset paired with an offset into that
// block's decompressed bytes. CSI/tabix indexes store alignment spans as
// Chunks so a reader can Seek straight to the block holding a region of
// interest.
type Chunk struct {
	Begin, End Offset
}

// expectedBlockSize reads the BSIZE extra subfield out of a gzip header,
// the same computation as Header.BlockSize but usable directly on a bare
// gzip.Header (as cache.go's block bookkeeping needs, before it has been
// wrapped in the bgzf.Header type).
func expectedBlockSize(h gzip.Header) int {
	i := bytes.Index(h.Extra, bgzfExtraPrefix)
	if i < 0 || i+5 >= len(h.Extra) {
		return -1
	}
	return (int(h.Extra[i+4]) | int(h.Extra[i+5])<<8) + 1
}

const (
	// BlockSize is the maximum amount of uncompressed data packed into
	// one BGZF member before it is flushed.
	BlockSize = 0x0ff00
	// MaxBlockSize is the largest a single compressed BGZF member may be;
	// the 16-bit BSIZE subfield in its extra header caps it at 64 KiB.
	MaxBlockSize = 0x10000
)

// bgzfExtraPrefix tags the gzip FEXTRA subfield BGZF uses to carry BSIZE,
// the compressed size of the member minus one, so a reader can locate the
// next member without inflating the current one.
var bgzfExtraPrefix = []byte("BC\x02\x00")

func compressBound(srcLen int) int {
	return srcLen + srcLen>>12 + srcLen>>14 + srcLen>>25 + 13
}

func init() {
	if compressBound(BlockSize) > MaxBlockSize {
		panic("bgzf: BlockSize too large")
	}
}

var (
	ErrNoBlockSize       = errors.New("bgzf: no BGZF BSIZE extra field")
	ErrNotASeeker        = errors.New("bgzf: not a seeker")
	ErrBlockSizeMismatch = errors.New("bgzf: mismatched BGZF block size and data length")
	ErrClosed            = errors.New("bgzf: write to closed writer")
	ErrBlockOverflow     = errors.New("bgzf: block overflow")
	ErrNoEnd             = errors.New("bgzf: cannot determine end of reader")
)

// MagicBlock is the 28-byte empty BGZF member every well-formed archive
// ends with, letting a reader distinguish a truncated file from a clean
// EOF.
var MagicBlock = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}
