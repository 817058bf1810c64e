// Command genounzip decompresses a genozip archive back to its original
// VCF text. This is the minimal decompression entrypoint matching
// cmd/genozip's minimal compression entrypoint; a full CLI (filters,
// translators, decryption) is out of scope.
package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/akm0001/genozip-sub000/codec"
	"github.com/akm0001/genozip-sub000/container"
	"github.com/akm0001/genozip-sub000/dict"
	"github.com/akm0001/genozip-sub000/section"
	"github.com/akm0001/genozip-sub000/segment"
	"github.com/akm0001/genozip-sub000/tabix"
)

func main() {
	var (
		inPath  = flag.String("input", "", "input .genozip path (required)")
		outPath = flag.String("output", "", "output VCF path (default: stdout)")
		tabix   = flag.Bool("tabix", false, "also write a .tbi sidecar index of -output (requires -output)")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "genounzip: -input is required")
		os.Exit(2)
	}
	if *tabix && *outPath == "" {
		fmt.Fprintln(os.Stderr, "genounzip: -tabix requires -output")
		os.Exit(2)
	}

	if err := run(*inPath, *outPath, *tabix); err != nil {
		log.Fatalf("genounzip: %v", err)
	}
}

// sectionListEntrySize is section.SectionListEntry's fixed 21-byte wire
// width (offset 8 + dict_id 8 + vblock_i 4 + section_type 1); not exported
// by section, so mirrored here to size ReadSectionList's count argument.
const sectionListEntrySize = 21

func run(inPath, outPath string, buildTabix bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if fi.Size() < 8 {
		return fmt.Errorf("genounzip: %s is too small to be a genozip archive", inPath)
	}

	// Locate the genozip header via the trailing footer, then the section
	// list via the offset the genozip header itself carries — the
	// backward-seek entry spec.md describes, now that every section's
	// true file offset is recorded in the list cmd/genozip writes.
	if _, err := in.Seek(fi.Size()-8, io.SeekStart); err != nil {
		return err
	}
	footer, err := section.ReadFooter(in)
	if err != nil {
		return fmt.Errorf("read footer: %w", err)
	}

	if _, err := in.Seek(int64(footer.GenozipHeaderOffset), io.SeekStart); err != nil {
		return err
	}
	ghHeader, ghPayload, err := readSection(in)
	if err != nil {
		return fmt.Errorf("read genozip header section: %w", err)
	}
	if ghHeader.SectionType != section.GenozipHeaderType {
		return fmt.Errorf("genounzip: section at genozip header offset is %s, not GENOZIP_HEADER", ghHeader.SectionType)
	}
	gh, err := section.ReadGenozipHeader(bytes.NewReader(ghPayload))
	if err != nil {
		return fmt.Errorf("decode genozip header: %w", err)
	}

	if _, err := in.Seek(int64(gh.SectionListOffset), io.SeekStart); err != nil {
		return err
	}
	slHeader, slPayload, err := readSection(in)
	if err != nil {
		return fmt.Errorf("read section list: %w", err)
	}
	if slHeader.SectionType != section.SectionListType {
		return fmt.Errorf("genounzip: section at section-list offset is %s, not SECTION_LIST", slHeader.SectionType)
	}
	list, err := section.ReadSectionList(bytes.NewReader(slPayload), len(slPayload)/sectionListEntrySize)
	if err != nil {
		return fmt.Errorf("decode section list: %w", err)
	}
	byOffset := make(map[uint64]section.SectionListEntry, len(list.Entries()))
	for _, e := range list.Entries() {
		byOffset[e.Offset] = e
	}

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	var sink *tabixSink
	if buildTabix {
		var err error
		sink, err = newTabixSink(out)
		if err != nil {
			return fmt.Errorf("genounzip: open tabix sink: %w", err)
		}
		out = sink
	}
	bw := bufio.NewWriter(out)

	digest := section.NewDigest(gh.DigestAlgo)
	accum := newAccumStore()

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := bufio.NewReader(in)

	var curVB *pizVB
	var offset int64

	finalize := func() error {
		if curVB == nil {
			return nil
		}
		toplevel := segment.VCFToplevel()
		toplevel.Repeats = curVB.repeats
		var buf bytes.Buffer
		if err := container.Reconstruct(curVB, curVB, toplevel, &buf, nil); err != nil {
			return fmt.Errorf("vb %d: reconstruct: %w", curVB.index, err)
		}
		digest.Write(buf.Bytes())
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return err
		}
		accum.mergeFrom(curVB)
		curVB = nil
		return nil
	}

scan:
	for {
		h, rerr := section.ReadHeader(r)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read section header at offset %d: %w", offset, rerr)
		}
		entryOffset := offset
		offset += section.HeaderSize
		payload := make([]byte, h.DataCompressedLen)
		if _, rerr := io.ReadFull(r, payload); rerr != nil {
			return fmt.Errorf("read section payload at offset %d: %w", entryOffset, rerr)
		}
		offset += int64(len(payload))

		switch h.SectionType {
		case section.TxtHeader:
			data, err := decompress(h, payload)
			if err != nil {
				return fmt.Errorf("decompress txt header: %w", err)
			}
			// The running digest is order-sensitive but not call-boundary-
			// sensitive: it must see the header bytes before any VB's data,
			// matching the ZIP side where VB1's raw TxtData already carries
			// the header as its own leading bytes in a single Write.
			digest.Write(data)
			if _, err := bw.Write(data); err != nil {
				return err
			}

		case section.VBHeader:
			if err := finalize(); err != nil {
				return err
			}
			data, err := decompress(h, payload)
			if err != nil {
				return fmt.Errorf("vb %d: decompress vb header: %w", h.VBlockI, err)
			}
			if len(data) < 4 {
				return fmt.Errorf("vb %d: truncated VBHeader payload", h.VBlockI)
			}
			curVB = newPizVB(h.VBlockI, binary.BigEndian.Uint32(data[0:4]), accum)

		case section.Dict, section.B250, section.Local:
			if curVB == nil {
				return fmt.Errorf("genounzip: %s section at offset %d outside any VBlock", h.SectionType, entryOffset)
			}
			entry, ok := byOffset[uint64(entryOffset)]
			if !ok {
				return fmt.Errorf("genounzip: no section-list entry for section at offset %d", entryOffset)
			}
			data, err := decompress(h, payload)
			if err != nil {
				return fmt.Errorf("vb %d: decompress %s for %s: %w", h.VBlockI, h.SectionType, dict.DictId(entry.DictId), err)
			}
			ctx := curVB.ctxFor(dict.DictId(entry.DictId))
			switch h.SectionType {
			case section.Dict:
				newDict, newNodes, err := dict.DecodeDictPayload(data)
				if err != nil {
					return fmt.Errorf("vb %d: decode dict for %s: %w", h.VBlockI, ctx.Name, err)
				}
				ctx.Dict = newDict
				ctx.Nodes = newNodes
			case section.B250:
				ctx.B250 = data
			case section.Local:
				ctx.Local.Bytes = data
			}

		case section.SectionListType, section.GenozipHeaderType:
			break scan
		}
	}

	if err := finalize(); err != nil {
		return err
	}

	want := gh.DigestOfTxt[:digest.Len()]
	if !bytes.Equal(digest.SoFar(), want) {
		return fmt.Errorf("genounzip: digest mismatch: archive is corrupt or was written by an incompatible version")
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if sink == nil {
		return nil
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("genounzip: close tabix sink: %w", err)
	}
	tbi, err := os.Create(outPath + ".tbi")
	if err != nil {
		return fmt.Errorf("genounzip: create .tbi sidecar: %w", err)
	}
	defer tbi.Close()
	if err := tabix.WriteTo(tbi, sink.idx); err != nil {
		return fmt.Errorf("genounzip: write .tbi sidecar: %w", err)
	}
	return nil
}

// readSection reads one section.Header plus its full payload from r,
// without needing a section-list lookup (used for the genozip header and
// section list sections themselves, located directly by offset).
func readSection(r io.Reader) (section.Header, []byte, error) {
	h, err := section.ReadHeader(r)
	if err != nil {
		return section.Header{}, nil, err
	}
	payload := make([]byte, h.DataCompressedLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return section.Header{}, nil, err
	}
	return h, payload, nil
}

// decompress resolves h's codec and decodes payload to its original size.
func decompress(h section.Header, payload []byte) ([]byte, error) {
	c, err := codec.Get(codec.Type(h.Codec))
	if err != nil {
		return nil, err
	}
	return c.Decompress(payload, int(h.DataUncompressedLen))
}

// dictAccum is the cross-VB snapshot of one context's merged-in dictionary:
// the running concatenation of every earlier VB's new nodes, exactly what
// dict.Store.Merge builds on the ZIP side, replayed here from each VB's own
// SEC_DICT payload instead of from live segmenting.
type dictAccum struct {
	bytes []byte
	nodes []dict.Node
}

// mergeAppend folds ctx's VB-local dict/nodes (its own new contribution,
// per EncodeDictPayload's contract) onto the end of the accumulated
// dictionary, offsetting CharIndex into the growing shared arena.
func (a *dictAccum) mergeAppend(ctx *dict.Ctx) {
	base := uint32(len(a.bytes))
	for _, n := range ctx.Nodes {
		a.nodes = append(a.nodes, dict.Node{
			CharIndex: base + n.CharIndex,
			Len:       n.Len,
			WordIndex: uint32(len(a.nodes)),
		})
	}
	a.bytes = append(a.bytes, ctx.Dict...)
}

// accumStore is the persistent (archive-lifetime) set of dictAccums, one
// per dict_id, standing in for the ZIP side's global dict.Store.
type accumStore struct {
	byID map[dict.DictId]*dictAccum
}

func newAccumStore() *accumStore {
	return &accumStore{byID: make(map[dict.DictId]*dictAccum)}
}

func (s *accumStore) get(id dict.DictId) *dictAccum {
	a, ok := s.byID[id]
	if !ok {
		a = &dictAccum{}
		s.byID[id] = a
	}
	return a
}

// mergeFrom folds every context vb touched this VB into its accum, the
// mirror of mergeAndRewrite's commit step on the ZIP side, run once a VB
// has been fully reconstructed.
func (s *accumStore) mergeFrom(vb *pizVB) {
	for id, ctx := range vb.ctxByID {
		s.get(id).mergeAppend(ctx)
	}
}

// pizVB is one VB's working set on the decompression side: a fresh Ctx per
// dict_id touched this VB, overlaid on the accumStore's snapshot as of the
// start of this VB. It implements container.ContextProvider the same way
// vb.VBlock does on the ZIP side.
type pizVB struct {
	index   uint32
	repeats uint32
	accum   *accumStore
	ctxByID map[dict.DictId]*dict.Ctx
}

func newPizVB(index, repeats uint32, accum *accumStore) *pizVB {
	return &pizVB{
		index:   index,
		repeats: repeats,
		accum:   accum,
		ctxByID: make(map[dict.DictId]*dict.Ctx),
	}
}

// ctxFor returns this VB's context for id, creating it on first reference
// with an overlay snapshot of the accumulated dictionary as of the start
// of this VB (a dictAccum never mutates mid-VB; new nodes land in the
// fresh Ctx's own Dict/Nodes instead, exactly mirroring dict.Ctx.Clone's
// overlay/new split).
func (vb *pizVB) ctxFor(id dict.DictId) *dict.Ctx {
	if c, ok := vb.ctxByID[id]; ok {
		return c
	}
	a := vb.accum.get(id)
	lt, noStons, store := vcfFieldKind(id)
	c := dict.NewCtx(id, 0, id.String(), lt)
	c.OLDict = a.bytes
	c.OLNodes = a.nodes
	c.NoStons = noStons
	c.Store = store
	vb.ctxByID[id] = c
	return c
}

// NextSnip implements container.ContextProvider against this VB's own
// context set, identically to vb.VBlock.NextSnip: a NoStons+StoreInt
// context (POS) decodes from its Local delta stream rather than b250.
func (vb *pizVB) NextSnip(id dict.DictId) ([]byte, dict.Kind, error) {
	c, ok := vb.ctxByID[id]
	if !ok {
		return nil, 0, fmt.Errorf("genounzip: %w: %s", container.ErrMissingDict, id)
	}
	if c.NoStons && c.Store == dict.StoreInt {
		v, err := c.GetNextIntDelta()
		if err != nil {
			return nil, 0, err
		}
		return []byte(strconv.FormatInt(v, 10)), dict.KindIndex, nil
	}
	return c.GetNextSnip()
}

// vcfFieldKind reports the LType/NoStons/StoreType a context needs, the
// PIZ-side mirror of segment.VCF.Initialize's per-field setup (that
// segmenter has no PIZ-side counterpart to read this from, so the two
// field lists are kept in step by hand).
func vcfFieldKind(id dict.DictId) (dict.LType, bool, dict.StoreType) {
	if id == segment.PosDictID {
		return dict.LTypeInt32, true, dict.StoreInt
	}
	return dict.LTypeText, false, dict.StoreNone
}

