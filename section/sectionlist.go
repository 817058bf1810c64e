package section

import (
	"encoding/binary"
	"io"
)

// sectionListEntrySize is the fixed on-disk width of one SectionListEntry:
// offset (8) + dict_id (8) + vblock_i (4) + section_type (1), no padding.
const sectionListEntrySize = 21

// SectionListEntry is one row of the archive's section list: a flat index
// of every section's file offset, letting PIZ seek directly to the
// section it needs (e.g. one VB's B250 for one context) instead of
// scanning the file sequentially.
type SectionListEntry struct {
	Offset      uint64
	DictId      [8]byte
	VBlockI     uint32
	SectionType Type
}

// WriteTo encodes e to its 21-byte wire form.
func (e SectionListEntry) WriteTo(w io.Writer) (int64, error) {
	var buf [sectionListEntrySize]byte
	binary.BigEndian.PutUint64(buf[0:8], e.Offset)
	copy(buf[8:16], e.DictId[:])
	binary.BigEndian.PutUint32(buf[16:20], e.VBlockI)
	buf[20] = byte(e.SectionType)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// ReadSectionListEntry decodes one entry from r.
func ReadSectionListEntry(r io.Reader) (SectionListEntry, error) {
	var buf [sectionListEntrySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SectionListEntry{}, err
	}
	var e SectionListEntry
	e.Offset = binary.BigEndian.Uint64(buf[0:8])
	copy(e.DictId[:], buf[8:16])
	e.VBlockI = binary.BigEndian.Uint32(buf[16:20])
	e.SectionType = Type(buf[20])
	return e, nil
}

// SectionList accumulates entries as sections are written, and is itself
// serialized as a trailing section (it references itself as a GenozipHeader
// sibling, not a self-referential offset).
type SectionList struct {
	entries []SectionListEntry
}

func NewSectionList() *SectionList { return &SectionList{} }

// Append records a just-written section's offset and identity.
func (sl *SectionList) Append(e SectionListEntry) {
	sl.entries = append(sl.entries, e)
}

// Entries returns the recorded entries in write order.
func (sl *SectionList) Entries() []SectionListEntry {
	return sl.entries
}

// Find returns every entry matching dictId and sectionType across all VBs,
// in ascending vblock_i order — the lookup PIZ needs to jump straight to a
// specific context's data without decompressing unrelated sections.
func (sl *SectionList) Find(dictId [8]byte, sectionType Type) []SectionListEntry {
	var out []SectionListEntry
	for _, e := range sl.entries {
		if e.DictId == dictId && e.SectionType == sectionType {
			out = append(out, e)
		}
	}
	return out
}

// WriteTo serializes the whole list as a sequence of fixed-width entries.
func (sl *SectionList) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range sl.entries {
		n, err := e.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadSectionList reads exactly count entries from r.
func ReadSectionList(r io.Reader, count int) (*SectionList, error) {
	sl := NewSectionList()
	for i := 0; i < count; i++ {
		e, err := ReadSectionListEntry(r)
		if err != nil {
			return nil, err
		}
		sl.Append(e)
	}
	return sl, nil
}
