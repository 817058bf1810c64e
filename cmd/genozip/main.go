// Command genozip compresses a VCF file into a genozip archive. This is
// the minimal compression entrypoint spec.md §6's CLI surface describes;
// a full CLI (filters, translators, encryption) is out of scope.
package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/akm0001/genozip-sub000/codec"
	"github.com/akm0001/genozip-sub000/dict"
	"github.com/akm0001/genozip-sub000/section"
	"github.com/akm0001/genozip-sub000/segment"
	"github.com/akm0001/genozip-sub000/vb"
)

func main() {
	var (
		inPath  = flag.String("input", "", "input VCF path (required)")
		outPath = flag.String("output", "", "output .genozip path (default: input + \".genozip\")")
		vblock  = flag.Int("vblock", vb.DefaultVBlockSize, "VBlock size in bytes")
		md5     = flag.Bool("md5", false, "use MD5 instead of Adler32 for the running digest")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "genozip: -input is required")
		os.Exit(2)
	}
	if *outPath == "" {
		*outPath = *inPath + ".genozip"
	}

	if err := run(*inPath, *outPath, *vblock, *md5); err != nil {
		log.Fatalf("genozip: %v", err)
	}
}

func run(inPath, outPath string, vblockSize int, useMD5 bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	algo := section.DigestAdler32
	if useMD5 {
		algo = section.DigestMD5
	}

	seg := segment.NewVCF()
	d := vb.NewDispatcher(seg, vb.WithVBlockSize(vblockSize), vb.WithDigest(algo))

	// VB sections are staged into an in-memory buffer rather than written
	// straight to the output file: the VCF header text (seg.Header) is
	// only fully known once d.Run returns (it accumulates across whatever
	// VB(s) segment the leading '#' lines), but a valid VCF's header must
	// precede its data lines on disk. Buffering lets the TxtHeader section
	// be written first, with the already-serialized VB bytes appended
	// (and their section-list offsets rebiased) right after.
	var vbBuf bytes.Buffer
	vbBW := bufio.NewWriter(&vbBuf)
	vbw := &archiveWriter{w: vbBW, list: section.NewSectionList()}

	var numVBlocks uint32
	var recordsInTxt uint64
	err = d.Run(in, func(vblk *vb.VBlock) error {
		numVBlocks++
		recordsInTxt += uint64(vblk.Toplevel.Repeats)
		return vbw.writeVBlock(vblk)
	})
	if err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("compress: %w", err)
	}
	if err := vbBW.Flush(); err != nil {
		return fmt.Errorf("flush staged vblocks: %w", err)
	}

	w := &archiveWriter{w: bw, list: section.NewSectionList()}

	// seg.Header now holds the complete header text; write it first.
	if err := w.writeSection(section.Header{
		SectionType: section.TxtHeader, Codec: uint8(codec.NONE),
		DataUncompressedLen: uint32(seg.Header.Len()),
	}, dict.DictId{}, seg.Header.Bytes()); err != nil {
		return fmt.Errorf("write txt header: %w", err)
	}

	// Append the staged VB bytes verbatim (already-serialized headers and
	// payloads), then rebias every recorded offset by how far into the
	// real file that staged data actually landed.
	bias := w.offset
	if _, err := w.Write(vbBuf.Bytes()); err != nil {
		return fmt.Errorf("write vblocks: %w", err)
	}
	w.txtSoFar = vbw.txtSoFar
	for _, e := range vbw.list.Entries() {
		e.Offset += uint64(bias)
		w.list.Append(e)
	}

	// The section list itself is written as an ordinary (uncompressed)
	// section; its own file offset goes into the genozip header so
	// genounzip can seek straight to it after reading the footer, rather
	// than needing a second footer field or a backward scan.
	var listBuf bytes.Buffer
	if _, err := w.list.WriteTo(&listBuf); err != nil {
		return fmt.Errorf("encode section list: %w", err)
	}
	sectionListOffset := w.offset
	if err := w.writeSection(section.Header{
		SectionType: section.SectionListType, Codec: uint8(codec.NONE),
		DataUncompressedLen: uint32(listBuf.Len()),
	}, dict.DictId{}, listBuf.Bytes()); err != nil {
		return fmt.Errorf("write section list: %w", err)
	}

	gh := section.GenozipHeader{
		Version:           section.FormatVersion,
		DataType:          section.DataTypeVCF,
		DigestAlgo:        algo,
		NumComponents:     1,
		NumVBlocks:        numVBlocks,
		RecordsInTxt:      recordsInTxt,
		TxtDataSoFarBin:   uint64(w.txtSoFar),
		SectionListOffset: uint64(sectionListOffset),
	}
	copy(gh.DigestOfTxt[:], d.Session.Digest.SoFar())

	var ghBuf bytes.Buffer
	if _, err := gh.WriteTo(&ghBuf); err != nil {
		return fmt.Errorf("encode genozip header: %w", err)
	}
	ghOffset := w.offset
	if err := w.writeSection(section.Header{
		SectionType: section.GenozipHeaderType, Codec: uint8(codec.NONE),
		DataUncompressedLen: uint32(ghBuf.Len()),
	}, dict.DictId{}, ghBuf.Bytes()); err != nil {
		return fmt.Errorf("write genozip header: %w", err)
	}

	footer := section.Footer{GenozipHeaderOffset: uint64(ghOffset)}
	if _, err := footer.WriteTo(w); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}

	return bw.Flush()
}

// archiveWriter tracks the running byte offset as sections are written so
// each one can be indexed in the section list at its true file position —
// io.Writer plus a running counter, the same role bgzf.Writer's own
// offset bookkeeping plays over its underlying stream. One instance stages
// VB sections into an in-memory buffer; a second writes the real file.
type archiveWriter struct {
	w        *bufio.Writer
	offset   int64
	txtSoFar int64
	list     *section.SectionList
}

func (w *archiveWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.offset += int64(n)
	return n, err
}

func (w *archiveWriter) writeSection(h section.Header, dictID dict.DictId, payload []byte) error {
	h.CompressedOffset = section.HeaderSize
	h.DataCompressedLen = uint32(len(payload))
	entryOffset := w.offset
	if _, err := h.WriteTo(w); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	w.list.Append(section.SectionListEntry{
		Offset: uint64(entryOffset), DictId: [8]byte(dictID), VBlockI: h.VBlockI, SectionType: h.SectionType,
	})
	return nil
}

func (w *archiveWriter) writeVBlock(vblk *vb.VBlock) error {
	w.txtSoFar += int64(len(vblk.TxtData))

	var repeatsBuf [4]byte
	binary.BigEndian.PutUint32(repeatsBuf[:], vblk.Toplevel.Repeats)
	if err := w.writeSection(section.Header{
		VBlockI: vblk.Index, SectionType: section.VBHeader, Codec: uint8(codec.NONE),
		DataUncompressedLen: 4,
	}, dict.DictId{}, repeatsBuf[:]); err != nil {
		return err
	}

	for _, s := range vblk.Sections {
		if err := w.writeSection(section.Header{
			VBlockI: vblk.Index, SectionType: s.Type, Codec: s.Codec, SubCodec: s.SubCodec,
			DataUncompressedLen: uint32(s.OrigLen),
		}, s.DictId, s.Payload); err != nil {
			return err
		}
	}
	return nil
}
