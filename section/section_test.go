package section

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		CompressedOffset:    12,
		DataEncryptedLen:    0,
		DataCompressedLen:   100,
		DataUncompressedLen: 400,
		VBlockI:             7,
		SectionType:         B250,
		Codec:               1,
		SubCodec:            0,
		Flags:               0x03,
	}
	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, HeaderSize))
	if _, err := ReadHeader(buf); err == nil {
		t.Fatal("expected bad-magic error on all-zero bytes")
	}
}

func TestFooterRoundTrip(t *testing.T) {
	f := Footer{GenozipHeaderOffset: 123456}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFooter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != f {
		t.Fatalf("got %+v, want %+v", got, f)
	}
}

func TestRABuilderSingleChrom(t *testing.T) {
	b := NewRABuilder(3)
	b.UpdateChrom(10)
	b.UpdatePos(100)
	b.UpdatePos(50)
	b.UpdatePos(200)
	entries := b.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.VBlockI != 3 || e.ChromIndex != 10 || e.MinPos != 50 || e.MaxPos != 200 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestRABuilderMultiChromRevisit(t *testing.T) {
	b := NewRABuilder(1)
	b.UpdateChrom(1)
	b.UpdatePos(10)
	b.UpdateChrom(2)
	b.UpdatePos(500)
	b.UpdateChrom(1) // unsorted input revisits chrom 1 -> widens its entry
	b.UpdatePos(999)

	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (one entry per chrom per VB)", len(entries))
	}
	if entries[0].ChromIndex != 1 || entries[0].MinPos != 10 || entries[0].MaxPos != 999 {
		t.Fatalf("entry 0: %+v", entries[0])
	}
	if entries[1].ChromIndex != 2 || entries[1].MinPos != 500 {
		t.Fatalf("entry 1: %+v", entries[1])
	}
}

func TestRemapChromsAndMergeIn(t *testing.T) {
	b := NewRABuilder(5)
	b.UpdateChrom(0) // VB-local word index
	b.UpdatePos(1)
	b.UpdatePos(1000)

	remap := map[uint32]uint32{0: 42}
	entries := b.Entries()
	RemapChroms(entries, remap)
	if entries[0].ChromIndex != 42 {
		t.Fatalf("chrom index = %d, want 42", entries[0].ChromIndex)
	}

	store := NewRAStore()
	store.MergeIn(entries)
	got := store.Entries()
	if len(got) != 1 || got[0].ChromIndex != 42 || got[0].VBlockI != 5 {
		t.Fatalf("unexpected store state: %+v", got)
	}
}

func TestVBsOverlapping(t *testing.T) {
	store := NewRAStore()
	store.MergeIn([]RAEntry{
		{VBlockI: 1, ChromIndex: 9, MinPos: 100, MaxPos: 200},
		{VBlockI: 2, ChromIndex: 9, MinPos: 300, MaxPos: 400},
		{VBlockI: 3, ChromIndex: 9, MinPos: 150, MaxPos: 250},
		{VBlockI: 4, ChromIndex: 1, MinPos: 100, MaxPos: 200}, // different chrom
	})
	got := store.VBsOverlapping(9, 180, 320)
	want := map[uint32]bool{1: true, 2: true, 3: true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want 3 VBs", got)
	}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("unexpected vb %d in result %v", v, got)
		}
	}
}

func TestDigestAdler32SnapshotStable(t *testing.T) {
	d := NewDigest(DigestAdler32)
	d.Write([]byte("hello "))
	snap1 := append([]byte(nil), d.SoFar()...)
	d.Write([]byte("world"))
	snap2 := d.SoFar()
	if bytes.Equal(snap1, snap2) {
		t.Fatal("digest should change after more data is written")
	}
	if len(snap1) != 4 {
		t.Fatalf("adler32 digest length = %d, want 4", len(snap1))
	}
}

func TestDigestMD5Length(t *testing.T) {
	d := NewDigest(DigestMD5)
	d.Write([]byte("genozip"))
	if len(d.SoFar()) != 16 {
		t.Fatalf("md5 digest length = %d, want 16", len(d.SoFar()))
	}
}

func TestCipherRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, aesKeyLen)
	c, err := NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	plain := []byte("the quick brown fox jumps over the lazy dog")
	ct := c.Encrypt(7, 2, plain)
	if bytes.Equal(ct, plain) {
		t.Fatal("ciphertext should differ from plaintext")
	}
	pt := c.Decrypt(7, 2, ct)
	if !bytes.Equal(pt, plain) {
		t.Fatalf("decrypt mismatch: got %q, want %q", pt, plain)
	}
}

func TestCipherDifferentSectionsDifferentKeystream(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, aesKeyLen)
	c, err := NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	plain := bytes.Repeat([]byte{0}, 32)
	ct1 := c.Encrypt(1, 0, plain)
	ct2 := c.Encrypt(1, 1, plain)
	if bytes.Equal(ct1, ct2) {
		t.Fatal("different section_index should produce a different keystream")
	}
}

func TestCipherBadKeyLen(t *testing.T) {
	if _, err := NewCipher([]byte("too short")); err == nil {
		t.Fatal("expected error for non-32-byte key")
	}
}

func TestGenozipHeaderRoundTrip(t *testing.T) {
	h := GenozipHeader{
		Version:         FormatVersion,
		DataType:        DataTypeVCF,
		Encrypted:       true,
		DigestAlgo:      DigestMD5,
		NumComponents:   1,
		NumVBlocks:      4,
		RecordsInTxt:    1000,
		TxtDataSoFarBin: 99999,
	}
	copy(h.DigestOfTxt[:], []byte("0123456789abcdef"))

	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadGenozipHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestSectionListFindFiltersByDictAndType(t *testing.T) {
	sl := NewSectionList()
	dictA := [8]byte{'C', 'H', 'R', 'O', 'M'}
	dictB := [8]byte{'P', 'O', 'S'}
	sl.Append(SectionListEntry{Offset: 0, DictId: dictA, VBlockI: 1, SectionType: B250})
	sl.Append(SectionListEntry{Offset: 50, DictId: dictA, VBlockI: 1, SectionType: Dict})
	sl.Append(SectionListEntry{Offset: 80, DictId: dictA, VBlockI: 2, SectionType: B250})
	sl.Append(SectionListEntry{Offset: 120, DictId: dictB, VBlockI: 1, SectionType: B250})

	got := sl.Find(dictA, B250)
	if len(got) != 2 || got[0].VBlockI != 1 || got[1].VBlockI != 2 {
		t.Fatalf("unexpected Find result: %+v", got)
	}
}

func TestSectionListWriteReadRoundTrip(t *testing.T) {
	sl := NewSectionList()
	dict := [8]byte{'G', 'T'}
	sl.Append(SectionListEntry{Offset: 10, DictId: dict, VBlockI: 1, SectionType: Local})
	sl.Append(SectionListEntry{Offset: 99, DictId: dict, VBlockI: 2, SectionType: Local})

	var buf bytes.Buffer
	if _, err := sl.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSectionList(&buf, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries()) != 2 || got.Entries()[1].Offset != 99 {
		t.Fatalf("unexpected round trip: %+v", got.Entries())
	}
}
