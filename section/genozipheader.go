package section

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DataType identifies which segmenter/translator pair produced a
// component, per spec.md §2's supported formats.
type DataType uint8

const (
	DataTypeVCF DataType = iota
	DataTypeSAM
	DataTypeBAM
	DataTypeFASTQ
	DataTypeFASTA
	DataTypeGVF
	DataType23andMe
)

func (d DataType) String() string {
	switch d {
	case DataTypeVCF:
		return "VCF"
	case DataTypeSAM:
		return "SAM"
	case DataTypeBAM:
		return "BAM"
	case DataTypeFASTQ:
		return "FASTQ"
	case DataTypeFASTA:
		return "FASTA"
	case DataTypeGVF:
		return "GVF"
	case DataType23andMe:
		return "23ANDME"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
}

// FormatVersion is the on-disk genozip format revision this package
// writes and reads. Bumped whenever Header or Footer's wire layout
// changes incompatibly.
const FormatVersion = 1

const genozipHeaderSize = 52

// GenozipHeader is the archive-level header: one per file, written once
// the whole component (all of its VBs) is known, and located via the
// trailing Footer.
type GenozipHeader struct {
	Version            uint8
	DataType           DataType
	Encrypted          bool
	DigestAlgo         DigestAlgo
	NumComponents      uint32
	NumVBlocks         uint32
	RecordsInTxt       uint64
	TxtDataSoFarBin    uint64 // uncompressed size of the original text, for progress/sanity checks
	DigestOfTxt        [md5DigestLen]byte
	SectionListOffset  uint64 // file offset of the trailing SEC_SECTION_LIST section's own header
}

// md5DigestLen is always used as the fixed on-disk digest width in the
// genozip header, independent of which DigestAlgo produced it during
// compression (a shorter Adler32 sum is zero-padded): the header's layout
// must not change size based on the --md5 flag.
const md5DigestLen = 16

// WriteTo encodes h to its fixed 52-byte wire form, big-endian.
func (h GenozipHeader) WriteTo(w io.Writer) (int64, error) {
	var buf [genozipHeaderSize]byte
	buf[0] = h.Version
	buf[1] = byte(h.DataType)
	if h.Encrypted {
		buf[2] = 1
	}
	buf[3] = byte(h.DigestAlgo)
	binary.BigEndian.PutUint32(buf[4:8], h.NumComponents)
	binary.BigEndian.PutUint32(buf[8:12], h.NumVBlocks)
	binary.BigEndian.PutUint64(buf[12:20], h.RecordsInTxt)
	binary.BigEndian.PutUint64(buf[20:28], h.TxtDataSoFarBin)
	copy(buf[28:44], h.DigestOfTxt[:])
	binary.BigEndian.PutUint64(buf[44:52], h.SectionListOffset)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// ReadGenozipHeader reads and decodes a GenozipHeader from r.
func ReadGenozipHeader(r io.Reader) (GenozipHeader, error) {
	var buf [genozipHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return GenozipHeader{}, err
	}
	h := GenozipHeader{
		Version:         buf[0],
		DataType:        DataType(buf[1]),
		Encrypted:       buf[2] != 0,
		DigestAlgo:      DigestAlgo(buf[3]),
		NumComponents:   binary.BigEndian.Uint32(buf[4:8]),
		NumVBlocks:      binary.BigEndian.Uint32(buf[8:12]),
		RecordsInTxt:    binary.BigEndian.Uint64(buf[12:20]),
		TxtDataSoFarBin: binary.BigEndian.Uint64(buf[20:28]),
	}
	copy(h.DigestOfTxt[:], buf[28:44])
	h.SectionListOffset = binary.BigEndian.Uint64(buf[44:52])
	if h.Version != FormatVersion {
		return h, fmt.Errorf("section: genozip header version %d unsupported (want %d)", h.Version, FormatVersion)
	}
	return h, nil
}
