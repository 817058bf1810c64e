package main

import (
	"bytes"
	"compress/gzip"
	"io"
	"strconv"

	"github.com/akm0001/genozip-sub000/bgzf"
	"github.com/akm0001/genozip-sub000/tabix"
)

// tabixSink wraps the VCF output file in a BGZF stream and feeds every
// reconstructed data line (CHROM, POS taken from columns 1 and 2) into a
// tabix.Index, one BGZF block per line so each record's chunk is known
// exactly — the same one-block-per-record trade-off translate.IndexedBAMWriter
// makes for BAM, now doing the same job for tabix's plain-text sibling
// format so a genounzip'd VCF can carry the .tbi sidecar real VCF tooling
// expects, not just genozip's own internal RA section.
type tabixSink struct {
	bg  *bgzf.Writer
	cw  *countingWriter
	idx *tabix.Index
}

func newTabixSink(w io.Writer) (*tabixSink, error) {
	cw := &countingWriter{w: w}
	bg, err := bgzf.NewWriterLevel(cw, gzip.DefaultCompression, 1)
	if err != nil {
		return nil, err
	}
	return &tabixSink{bg: bg, cw: cw, idx: tabix.New()}, nil
}

func (s *tabixSink) Write(p []byte) (int, error) {
	var total int
	for len(p) > 0 {
		nl := bytes.IndexByte(p, '\n')
		var line []byte
		if nl < 0 {
			line = p
			p = nil
		} else {
			line = p[:nl+1]
			p = p[nl+1:]
		}

		begin := s.cw.n
		n, err := s.bg.Write(line)
		total += n
		if err != nil {
			return total, err
		}
		if err := s.bg.Flush(); err != nil {
			return total, err
		}
		if err := s.bg.Wait(); err != nil {
			return total, err
		}
		end := s.cw.n

		if len(line) > 0 && line[0] != '#' {
			if rec, ok := parseVCFCoord(line); ok {
				chunk := bgzf.Chunk{Begin: bgzf.Offset{File: begin}, End: bgzf.Offset{File: end}}
				if err := s.idx.Add(rec, chunk, true, true); err != nil {
					return total, err
				}
			}
		}
	}
	return total, nil
}

// Close closes the underlying BGZF stream. The caller still owes a
// separate tabix.WriteTo call to persist s.idx as the .tbi sidecar.
func (s *tabixSink) Close() error { return s.bg.Close() }

// vcfCoord adapts a VCF data line's CHROM/POS columns to tabix.Record.
// POS is treated as a single reference base (no REF-length span lookup),
// matching genozip's own RA section's per-line granularity.
type vcfCoord struct {
	chrom string
	pos   int
}

func (c vcfCoord) RefName() string { return c.chrom }
func (c vcfCoord) Start() int      { return c.pos - 1 }
func (c vcfCoord) End() int        { return c.pos }

func parseVCFCoord(line []byte) (vcfCoord, bool) {
	line = bytes.TrimRight(line, "\n")
	fields := bytes.SplitN(line, []byte("\t"), 3)
	if len(fields) < 2 {
		return vcfCoord{}, false
	}
	pos, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return vcfCoord{}, false
	}
	return vcfCoord{chrom: string(fields[0]), pos: pos}, true
}

// countingWriter tracks bytes written so tabixSink can compute each line's
// chunk as a byte range in the underlying BGZF stream, the same role
// cmd/genozip's archiveWriter and translate's countingWriter play.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
