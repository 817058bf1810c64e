// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"compress/gzip"
	"container/heap"
	"io"
	"io/ioutil"
	"sync"
)

// Writer compresses data into a sequence of BGZF blocks (gzip members
// carrying a BSIZE extra field), compressing blocks concurrently across
// wc workers while writing them out to the underlying io.Writer strictly
// in submission order. The worker-pool-plus-ordered-reassembly split
// mirrors the decompression pipeline in pbzip2's parallel.go, run here in
// the opposite direction: many compress, one writes, in order.
type Writer struct {
	gzip.Header

	w     io.Writer
	level int

	buf []byte

	workCh chan *blockJob
	doneCh chan *blockResult
	workWg sync.WaitGroup

	mu        sync.Mutex
	cond      *sync.Cond
	nextOrder uint64 // order of the most recently submitted block; 0 before any, so the first gets 1
	expected  uint64 // order the assembler is waiting to write next
	written   uint64 // highest order fully written to w
	err       error
	closed    bool

	assembleDone chan struct{}
	pending      blockResultHeap
}

type blockJob struct {
	order  uint64
	data   []byte
	header gzip.Header
}

type blockResult struct {
	order uint64
	out   []byte
	err   error
}

type blockResultHeap []*blockResult

func (h blockResultHeap) Len() int            { return len(h) }
func (h blockResultHeap) Less(i, j int) bool  { return h[i].order < h[j].order }
func (h blockResultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *blockResultHeap) Push(x interface{}) { *h = append(*h, x.(*blockResult)) }
func (h *blockResultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NewWriter returns a new Writer using gzip.DefaultCompression and wc
// concurrent compression workers.
func NewWriter(w io.Writer, wc int) *Writer {
	bw, _ := NewWriterLevel(w, gzip.DefaultCompression, wc)
	return bw
}

// NewWriterLevel returns a new Writer writing BGZF blocks to w, compressed
// at level (see compress/gzip for valid values) using wc concurrent
// compression workers.
func NewWriterLevel(w io.Writer, level, wc int) (*Writer, error) {
	if _, err := gzip.NewWriterLevel(ioutil.Discard, level); err != nil {
		return nil, err
	}
	if wc < 1 {
		wc = 1
	}
	bw := &Writer{
		Header:       gzip.Header{OS: 0xff},
		w:            w,
		level:        level,
		workCh:       make(chan *blockJob, wc),
		doneCh:       make(chan *blockResult, wc),
		expected:     1,
		assembleDone: make(chan struct{}),
	}
	bw.cond = sync.NewCond(&bw.mu)
	bw.workWg.Add(wc)
	for i := 0; i < wc; i++ {
		go func() {
			defer bw.workWg.Done()
			bw.worker()
		}()
	}
	go bw.assemble()
	return bw, nil
}

func (bw *Writer) worker() {
	for job := range bw.workCh {
		out, err := compressBlock(job.data, bw.level, job.header)
		bw.doneCh <- &blockResult{order: job.order, out: out, err: err}
	}
}

func (bw *Writer) assemble() {
	defer close(bw.assembleDone)
	for res := range bw.doneCh {
		heap.Push(&bw.pending, res)
		for len(bw.pending) > 0 && bw.pending[0].order == bw.expected {
			min := heap.Pop(&bw.pending).(*blockResult)
			bw.expected++
			bw.mu.Lock()
			if min.err != nil && bw.err == nil {
				bw.err = min.err
			}
			if bw.err == nil {
				if _, err := bw.w.Write(min.out); err != nil {
					bw.err = err
				}
			}
			bw.written = min.order
			bw.cond.Broadcast()
			bw.mu.Unlock()
		}
	}
}

// compressBlock gzip-compresses data into one BGZF member, patching in its
// BSIZE extra subfield once the compressed length is known.
func compressBlock(data []byte, level int, h gzip.Header) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	gz.Header = gzip.Header{
		Comment: h.Comment,
		Extra:   append(append(append([]byte(nil), bgzfExtraPrefix...), 0, 0), h.Extra...),
		ModTime: h.ModTime,
		Name:    h.Name,
		OS:      h.OS,
	}
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	b := buf.Bytes()
	i := bytes.Index(b, bgzfExtraPrefix)
	if i < 0 {
		return nil, gzip.ErrHeader
	}
	size := len(b) - 1
	if size >= MaxBlockSize {
		return nil, ErrBlockOverflow
	}
	b[i+4], b[i+5] = byte(size), byte(size>>8)
	return b, nil
}

// submit assigns the next order to data and hands it to the worker pool.
func (bw *Writer) submit(data []byte) {
	bw.mu.Lock()
	order := bw.nextOrder + 1
	bw.nextOrder = order
	h := bw.Header
	bw.mu.Unlock()
	bw.workCh <- &blockJob{order: order, data: data, header: h}
}

// Write buffers p and submits full BlockSize chunks for concurrent
// compression as they fill. It does not wait for a block to be compressed,
// but blocks while the queue of submitted blocks (wc deep) is full.
func (bw *Writer) Write(p []byte) (int, error) {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return 0, ErrClosed
	}
	if bw.err != nil {
		err := bw.err
		bw.mu.Unlock()
		return 0, err
	}
	bw.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		room := BlockSize - len(bw.buf)
		n := room
		if n > len(p) {
			n = len(p)
		}
		bw.buf = append(bw.buf, p[:n]...)
		p = p[n:]
		if len(bw.buf) == BlockSize {
			data := bw.buf
			bw.buf = nil
			bw.submit(data)
		}
	}
	return total, nil
}

// Flush submits any partially-filled block for compression without
// waiting for it (or any prior block) to finish; call Wait to block until
// everything submitted so far has been written out.
func (bw *Writer) Flush() error {
	bw.mu.Lock()
	if bw.err != nil {
		err := bw.err
		bw.mu.Unlock()
		return err
	}
	bw.mu.Unlock()

	if len(bw.buf) > 0 {
		data := bw.buf
		bw.buf = nil
		bw.submit(data)
	}
	return nil
}

// Wait blocks until every block submitted so far has been compressed and
// written to the underlying writer, in order, then returns the first
// error encountered (if any).
func (bw *Writer) Wait() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	target := bw.nextOrder
	for bw.written < target && bw.err == nil {
		bw.cond.Wait()
	}
	return bw.err
}

// Close flushes any buffered data, waits for all outstanding compression
// to complete, and appends the standard empty BGZF EOF marker. It does
// not close the underlying io.Writer.
func (bw *Writer) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return nil
	}
	bw.closed = true
	bw.mu.Unlock()

	if err := bw.Flush(); err != nil {
		return err
	}
	if err := bw.Wait(); err != nil {
		return err
	}

	close(bw.workCh)
	bw.workWg.Wait()
	close(bw.doneCh)
	<-bw.assembleDone

	bw.mu.Lock()
	err := bw.err
	bw.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = bw.w.Write(MagicBlock)
	return err
}
