// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
)

// Header is a BGZF member's gzip header, carrying the BSIZE extra
// subfield BlockSize reads out.
type Header gzip.Header

// BlockSize returns the on-disk size of the gzip member h was read from,
// decoded from its BC/BSIZE extra subfield, or -1 if h carries none (and
// so is not a valid BGZF member).
func (h Header) BlockSize() int {
	return expectedBlockSize(gzip.Header(h))
}

// Offset is a BGZF virtual file offset: a byte offset to the start of a
// compressed member, paired with a byte offset into that member's
// decompressed data.
type Offset struct {
	File  int64
	Block uint16
}

// Reader reads a BGZF stream as a single logical decompressed stream,
// transparently hopping from one gzip member to the next. Decompressed
// members may be cached via SetCache so repeated Seeks to the same
// member avoid re-inflating it.
type Reader struct {
	Header

	r  io.Reader
	rs io.ReadSeeker
	cr *countReader
	gz *gzip.Reader

	cache Cache
	cur   Block

	nextBase int64
	consumed int

	lastChunk Chunk

	// Blocked, if true, stops Read from transparently advancing into
	// the following member once the current one is exhausted; it
	// returns io.EOF instead, letting a caller iterating a fixed set
	// of Chunks (see bgzf/index) Seek to the next one explicitly.
	Blocked bool

	err error
}

func makeReader(r io.Reader) *countReader {
	switch r := r.(type) {
	case *countReader:
		panic("bgzf: illegal use of internal type")
	case flate.Reader:
		return &countReader{r: r}
	default:
		return &countReader{r: bufio.NewReader(r)}
	}
}

type countReader struct {
	r flate.Reader
	n int64
}

func (r *countReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.n += int64(n)
	return n, err
}

func (r *countReader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	r.n++
	return b, err
}

// NewReader returns a new Reader reading BGZF members from r. rd sets the
// intended read concurrency; this implementation resolves one member at a
// time but accepts rd to match callers sizing a read-ahead pool, and a
// future concurrent member prefetcher could use it without an API change.
func NewReader(r io.Reader, rd int) (*Reader, error) {
	bg := &Reader{r: r, cr: makeReader(r)}
	if rs, ok := r.(io.ReadSeeker); ok {
		bg.rs = rs
	}
	if err := bg.fillNext(); err != nil {
		return nil, err
	}
	return bg, nil
}

// decompressAt inflates the next gzip member from cr, recording base as
// its file offset.
func (bg *Reader) decompressAt(base int64) (Block, error) {
	if bg.gz == nil {
		gz, err := gzip.NewReader(bg.cr)
		if err != nil {
			return nil, err
		}
		gz.Multistream(false)
		bg.gz = gz
	} else {
		if err := bg.gz.Reset(bg.cr); err != nil {
			return nil, err
		}
		bg.gz.Multistream(false)
	}
	h := bg.gz.Header
	b := &block{}
	b.setOwner(bg)
	b.setBase(base)
	b.setHeader(h)
	if _, err := b.readFrom(bg.gz); err != nil {
		return nil, err
	}
	bg.Header = Header(h)
	return b, nil
}

// fillNext advances bg.cur to the next member, consulting the cache
// first so a previously-decompressed member (typically reached again via
// Seek) doesn't need re-inflating.
func (bg *Reader) fillNext() error {
	base := bg.nextBase
	if bg.cache != nil {
		if b := bg.cache.Get(base); b != nil {
			if err := b.seek(0); err != nil {
				return err
			}
			bg.cur = b
			bg.consumed = 0
			bg.nextBase = b.NextBase()
			return nil
		}
	}
	b, err := bg.decompressAt(base)
	if err != nil {
		return err
	}
	bg.cur = b
	bg.consumed = 0
	if nb := b.NextBase(); nb >= 0 {
		bg.nextBase = nb
	}
	return nil
}

// SetCache installs c as the Reader's member cache. Passing nil disables
// caching.
func (bg *Reader) SetCache(c Cache) { bg.cache = c }

// Seek moves the Reader to the BGZF virtual offset off: a member at
// off.File is located (decompressing it if it isn't already cached), then
// off.Block decompressed bytes into that member are skipped. Cache.Get
// removes the returned Block from the cache, so it is fetched at most
// once per Seek and threaded straight into bg.cur rather than probed and
// re-fetched.
func (bg *Reader) Seek(off Offset) error {
	if bg.rs == nil {
		return ErrNotASeeker
	}
	bg.err = nil
	if bg.cur != nil && bg.cur.Base() == off.File {
		if err := bg.cur.seek(int64(off.Block)); err != nil {
			return err
		}
		bg.consumed = int(off.Block)
		return nil
	}
	var b Block
	if bg.cache != nil {
		b = bg.cache.Get(off.File)
	}
	if b == nil {
		if _, err := bg.rs.Seek(off.File, io.SeekStart); err != nil {
			return err
		}
		bg.cr = makeReader(bg.rs)
		bg.gz = nil
		var err error
		b, err = bg.decompressAt(off.File)
		if err != nil {
			return err
		}
	} else if err := b.seek(0); err != nil {
		return err
	}
	bg.cur = b
	bg.consumed = 0
	if nb := b.NextBase(); nb >= 0 {
		bg.nextBase = nb
	}
	if off.Block > 0 {
		if err := bg.cur.seek(int64(off.Block)); err != nil {
			return err
		}
		bg.consumed = int(off.Block)
	}
	return nil
}

// Begin starts a read transaction, used to compute the Chunk a group of
// Read calls spans (see End).
func (bg *Reader) Begin() Tx {
	return Tx{r: bg, begin: bg.offset()}
}

// Tx tracks the virtual offset span of a set of reads performed between a
// Begin call and a matching End call.
type Tx struct {
	r     *Reader
	begin Offset
}

// End closes the transaction, returning (and recording as the Reader's
// LastChunk) the Chunk of virtual offsets consumed since Begin.
func (t Tx) End() Chunk {
	c := Chunk{Begin: t.begin, End: t.r.offset()}
	t.r.lastChunk = c
	return c
}

// LastChunk returns the Chunk recorded by the most recently completed Tx.
func (bg *Reader) LastChunk() Chunk { return bg.lastChunk }

func (bg *Reader) offset() Offset {
	if bg.cur == nil {
		return Offset{}
	}
	return Offset{File: bg.cur.Base(), Block: uint16(bg.consumed)}
}

// BlockLen returns the total decompressed length of the member currently
// being read from.
func (bg *Reader) BlockLen() int {
	if bg.cur == nil {
		return 0
	}
	return bg.consumed + bg.cur.len()
}

func (bg *Reader) Close() error {
	if bg.gz == nil {
		return nil
	}
	return bg.gz.Close()
}

func (bg *Reader) Read(p []byte) (n int, err error) {
	defer func() { bg.lastChunk.End = bg.offset() }()

	if bg.err != nil {
		return 0, bg.err
	}
	if bg.cur == nil {
		if err := bg.fillNext(); err != nil {
			bg.err = err
			return 0, err
		}
	}

	for n < len(p) {
		m, rerr := bg.cur.Read(p[n:])
		n += m
		bg.consumed += m
		if rerr == nil {
			continue
		}
		if rerr != io.EOF {
			bg.err = rerr
			return n, rerr
		}
		if bg.cache != nil {
			bg.cache.Put(bg.cur)
		}
		if bg.Blocked {
			bg.cur = nil
			return n, io.EOF
		}
		if n == len(p) {
			return n, nil
		}
		if ferr := bg.fillNext(); ferr != nil {
			bg.err = ferr
			return n, ferr
		}
	}
	return n, nil
}

// ReadByte reads and returns the next decompressed byte.
func (bg *Reader) ReadByte() (byte, error) {
	var b [1]byte
	n, err := bg.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	return 0, err
}

// HasEOF reports whether r ends with the standard empty BGZF EOF member.
func HasEOF(r io.ReaderAt) (bool, error) {
	var size int64
	switch rt := r.(type) {
	case interface{ Size() int64 }:
		size = rt.Size()
	case io.Seeker:
		end, err := rt.Seek(0, io.SeekEnd)
		if err != nil {
			return false, err
		}
		size = end
	default:
		return false, ErrNoEnd
	}
	if size < int64(len(MagicBlock)) {
		return false, nil
	}
	buf := make([]byte, len(MagicBlock))
	if _, err := r.ReadAt(buf, size-int64(len(MagicBlock))); err != nil && err != io.EOF {
		return false, err
	}
	return bytes.Equal(buf, MagicBlock), nil
}

// ExpectedMemberSize returns the on-disk size of the gzip member h was
// read from, per its BSIZE extra subfield.
func ExpectedMemberSize(h Header) int {
	return h.BlockSize()
}
