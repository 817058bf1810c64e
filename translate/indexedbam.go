package translate

import (
	"fmt"
	"io"

	"github.com/akm0001/genozip-sub000/bam"
	"github.com/akm0001/genozip-sub000/bgzf"
	"github.com/akm0001/genozip-sub000/csi"
	"github.com/akm0001/genozip-sub000/sam"
)

// IndexedBAMWriter writes translated records to a BGZF-compressed BAM
// stream while building the csi.Index that locates them again — the
// "on-disk coordinate index writer for translated output" the SAM/BAM
// components are adapted into. One record is flushed to its own BGZF
// block, trading the block-packing a production BAM writer would do for a
// byte-offset bookkeeping a single-threaded writer can track directly, the
// same way cmd/genozip's archiveWriter tracks section offsets.
type IndexedBAMWriter struct {
	bg     *bgzf.Writer
	idx    *csi.Index
	offset *countingWriter
}

// NewIndexedBAMWriter opens w for BAM output and starts a fresh CSI index
// over it. h is written as the BAM header before any record, encoded the
// same way bam.Writer's own (unexported) writeHeader does.
func NewIndexedBAMWriter(w io.Writer, h *sam.Header, minShift, depth int) (*IndexedBAMWriter, error) {
	cw := &countingWriter{w: w}
	bgw, err := bgzf.NewWriterLevel(cw, -1, 1)
	if err != nil {
		return nil, fmt.Errorf("translate: open indexed BAM writer: %w", err)
	}
	if err := writeBAMHeader(bgw, h); err != nil {
		return nil, err
	}
	return &IndexedBAMWriter{
		bg:     bgw,
		idx:    csi.New(minShift, depth),
		offset: cw,
	}, nil
}

func writeBAMHeader(bgw *bgzf.Writer, h *sam.Header) error {
	if err := h.EncodeBinary(bgw); err != nil {
		return err
	}
	if err := bgw.Flush(); err != nil {
		return err
	}
	return bgw.Wait()
}

// WriteRecord encodes r to BAM binary, flushes it as its own BGZF block,
// and records the resulting chunk in the CSI index.
func (w *IndexedBAMWriter) WriteRecord(r *sam.Record) error {
	data, err := bam.EncodeRecord(r)
	if err != nil {
		return err
	}
	begin := w.offset.n
	if _, err := w.bg.Write(data); err != nil {
		return err
	}
	if err := w.bg.Flush(); err != nil {
		return err
	}
	if err := w.bg.Wait(); err != nil {
		return err
	}
	end := w.offset.n
	chunk := bgzf.Chunk{
		Begin: bgzf.Offset{File: begin},
		End:   bgzf.Offset{File: end},
	}
	placed := r.Ref != nil && r.Ref.ID() >= 0
	mapped := r.Flags&sam.Unmapped == 0
	return w.idx.Add(r, chunk, mapped, placed)
}

// Close closes the underlying BGZF stream. The caller writes the
// accumulated index (w.Index()) separately via csi.WriteTo.
func (w *IndexedBAMWriter) Close() error { return w.bg.Close() }

// Index returns the CSI index built from every WriteRecord call so far.
func (w *IndexedBAMWriter) Index() *csi.Index { return w.idx }

// countingWriter tracks bytes written so WriteRecord can compute each
// record's chunk as a byte range in the underlying stream, mirroring
// cmd/genozip's archiveWriter.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
