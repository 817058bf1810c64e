// Package segment implements the plug-in segmenter contract (spec.md §6):
// a data-type package that turns input lines into context updates and,
// conversely, supplies the toplevel Container that drives reconstruction.
// VCF is the one concrete segmenter here, exercising the full vb pipeline
// end-to-end.
package segment

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/akm0001/genozip-sub000/container"
	"github.com/akm0001/genozip-sub000/dict"
	"github.com/akm0001/genozip-sub000/vb"
)

// Dict ids for VCF's fixed columns, exported so cmd/genounzip's forward
// PIZ scanner can recognize which context is POS (for its delta-decode
// path) and rebuild the same toplevel Container without duplicating this
// field list.
var (
	ChromDictID  = dict.NewDictId(dict.SpaceField, "CHROM")
	PosDictID    = dict.NewDictId(dict.SpaceField, "POS")
	IDDictID     = dict.NewDictId(dict.SpaceField, "ID")
	RefDictID    = dict.NewDictId(dict.SpaceField, "REF")
	AltDictID    = dict.NewDictId(dict.SpaceField, "ALT")
	QualDictID   = dict.NewDictId(dict.SpaceField, "QUAL")
	FilterDictID = dict.NewDictId(dict.SpaceField, "FILTER")
	RestDictID   = dict.NewDictId(dict.SpaceField, "vFORMAT") // INFO + FORMAT + sample columns, joined verbatim
)

// VCF segments VCF text (spec.md §8 scenario 1): header lines (leading '#')
// are collected verbatim and reconstructed ahead of the toplevel Container;
// each data line's first 7 fixed columns get their own context, and the
// INFO+FORMAT+samples tail is kept as one joined field — VCF's per-sample
// genotype matrix is out of scope for this segmenter, same as the FASTQ/
// SAM/GVF/23andMe segmenters spec.md leaves as future plug-ins.
type VCF struct {
	Header bytes.Buffer
}

// NewVCF returns a ready-to-drive VCF segmenter.
func NewVCF() *VCF { return &VCF{} }

func (s *VCF) Initialize(b *vb.VBlock) {
	b.CloneCtx(ChromDictID, "CHROM", dict.LTypeText)
	pos := b.CloneCtx(PosDictID, "POS", dict.LTypeInt32)
	pos.NoStons = true
	pos.Store = dict.StoreInt
	b.CloneCtx(IDDictID, "ID", dict.LTypeText)
	b.CloneCtx(RefDictID, "REF", dict.LTypeText)
	b.CloneCtx(AltDictID, "ALT", dict.LTypeText)
	b.CloneCtx(QualDictID, "QUAL", dict.LTypeText)
	b.CloneCtx(FilterDictID, "FILTER", dict.LTypeText)
	b.CloneCtx(RestDictID, "vFORMAT", dict.LTypeText)

	b.Toplevel = VCFToplevel()
}

func (s *VCF) SegLine(b *vb.VBlock, line []byte) (int, error) {
	text := strings.TrimRight(string(line), "\n")
	if text == "" {
		return len(line), nil
	}
	if strings.HasPrefix(text, "#") {
		s.Header.WriteString(text)
		s.Header.WriteByte('\n')
		return len(line), nil
	}

	fields := strings.SplitN(text, "\t", 8)
	if len(fields) < 7 {
		return 0, fmt.Errorf("segment: vcf: line has %d fields, want at least 7: %q", len(fields), text)
	}
	chrom, posStr, id, ref, alt, qual, filter := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]
	rest := ""
	if len(fields) == 8 {
		rest = fields[7]
	}

	pos, err := strconv.ParseInt(posStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("segment: vcf: bad POS %q: %w", posStr, err)
	}

	segText(b, ChromDictID, chrom)
	b.Ctx(PosDictID).AppendIntDelta(pos)
	segText(b, IDDictID, id)
	segText(b, RefDictID, ref)
	segText(b, AltDictID, alt)
	segText(b, QualDictID, qual)
	segText(b, FilterDictID, filter)
	segText(b, RestDictID, rest)

	b.Toplevel.Repeats++
	return len(line), nil
}

// segText records one line's value for a plain dictionary-backed field,
// distinguishing "present but empty" from the word-index path the rest of
// the fields take.
func segText(b *vb.VBlock, id dict.DictId, v string) {
	c := b.Ctx(id)
	if v == "" {
		c.AppendEmpty()
		return
	}
	idx, _ := c.EvaluateSnip(v)
	c.AppendWord(idx)
}

func (s *VCF) Finalize(b *vb.VBlock) error { return nil }

// Unconsumed finds the last newline in data, returning the length of
// whatever trails it (an as-yet-incomplete line) as the tail to prepend to
// the next VB.
func (s *VCF) Unconsumed(data []byte) (int, error) {
	nl := bytes.LastIndexByte(data, '\n')
	if nl < 0 {
		return len(data), nil
	}
	return len(data) - nl - 1, nil
}

// VCFToplevel returns the reconstructor contract (spec.md §6) for one VCF
// data line: the 7 fixed columns tab-separated, the INFO+FORMAT+samples tail
// newline-terminated. A missing field (KindMissing) would make Reconstruct
// skip both the value and its separator, which is wrong for fixed-column
// formats; VCF instead always seg's an explicit empty string for absent
// fields (segText's AppendEmpty path), so every item always reconstructs
// as KindIndex or KindEmpty, never KindMissing, and the separator is never
// skipped. Exported so cmd/genounzip can rebuild the identical Container
// shape on the PIZ side without segmenting anything itself.
func VCFToplevel() *container.Container {
	return &container.Container{
		Items: []container.Item{
			{DictId: ChromDictID, Separator: [2]byte{'\t', 0}},
			{DictId: PosDictID, Separator: [2]byte{'\t', 0}},
			{DictId: IDDictID, Separator: [2]byte{'\t', 0}},
			{DictId: RefDictID, Separator: [2]byte{'\t', 0}},
			{DictId: AltDictID, Separator: [2]byte{'\t', 0}},
			{DictId: QualDictID, Separator: [2]byte{'\t', 0}},
			{DictId: FilterDictID, Separator: [2]byte{'\t', 0}},
			{DictId: RestDictID, Separator: [2]byte{'\n', 0}},
		},
	}
}
