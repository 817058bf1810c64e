// Package section implements the on-disk wire format: section headers,
// the stable section-type and codec registries, the genozip header and
// footer, the random-access table, and digest computation.
package section

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Type is the stable, on-disk section type registry from spec.md §6.
// Numbers MUST NOT be reassigned.
type Type uint8

const (
	RandomAccess  Type = 0
	Reference     Type = 1
	RefIsSet      Type = 2
	RefHash       Type = 3
	RefRandAccess Type = 4
	RefContigs    Type = 5
	GenozipHeaderType Type = 6
	DictIdAliases Type = 7
	TxtHeader     Type = 8
	VBHeader      Type = 9
	Dict          Type = 10
	B250          Type = 11
	Local         Type = 12
	RefAltChroms  Type = 13
	Stats         Type = 14
	Bgzf          Type = 15

	// SectionListType is not in spec.md §6's stable registry table, which
	// describes SEC_SECTION_LIST's existence and on-disk position but
	// never assigns it a section_type number (it's located via the
	// footer, not scanned for by type, in the spec's backward-seek PIZ
	// entry). Wrapping it in an ordinary Header — as this implementation's
	// forward-scanning genounzip needs, to size it without a backward
	// seek — requires a number; 16 is chosen as the next free slot,
	// extending rather than reassigning the registry.
	SectionListType Type = 16
)

func (t Type) String() string {
	switch t {
	case RandomAccess:
		return "RANDOM_ACCESS"
	case Reference:
		return "REFERENCE"
	case RefIsSet:
		return "REF_IS_SET"
	case RefHash:
		return "REF_HASH"
	case RefRandAccess:
		return "REF_RAND_ACC"
	case RefContigs:
		return "REF_CONTIGS"
	case GenozipHeaderType:
		return "GENOZIP_HEADER"
	case DictIdAliases:
		return "DICT_ID_ALIASES"
	case TxtHeader:
		return "TXT_HEADER"
	case VBHeader:
		return "VB_HEADER"
	case Dict:
		return "DICT"
	case B250:
		return "B250"
	case Local:
		return "LOCAL"
	case RefAltChroms:
		return "REF_ALT_CHROMS"
	case Stats:
		return "STATS"
	case Bgzf:
		return "BGZF"
	case SectionListType:
		return "SECTION_LIST"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// headerMagic opens every section header on disk.
const headerMagic uint32 = 0x0a7e276a

// footerMagic closes the file: the last 4 bytes of every valid archive.
const footerMagic uint32 = 0x27052012

// HeaderSize is the fixed prefix every section begins with, before any
// section-specific tail.
const HeaderSize = 28

// Header is the fixed 28-byte prefix of every section: magic,
// compressed_offset, data_encrypted_len, data_compressed_len,
// data_uncompressed_len, vblock_i, section_type, codec, sub_codec, flags.
type Header struct {
	CompressedOffset    uint32
	DataEncryptedLen    uint32
	DataCompressedLen   uint32
	DataUncompressedLen uint32
	VBlockI             uint32
	SectionType         Type
	Codec               uint8
	SubCodec            uint8
	Flags               Flags
}

// Flags is the one-byte, section-type-dependent bitfield from spec.md §6.
type Flags uint8

// WriteTo writes h's 28-byte wire form to w, all multi-byte integers
// big-endian per spec.md §6.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], headerMagic)
	binary.BigEndian.PutUint32(buf[4:8], h.CompressedOffset)
	binary.BigEndian.PutUint32(buf[8:12], h.DataEncryptedLen)
	binary.BigEndian.PutUint32(buf[12:16], h.DataCompressedLen)
	binary.BigEndian.PutUint32(buf[16:20], h.DataUncompressedLen)
	binary.BigEndian.PutUint32(buf[20:24], h.VBlockI)
	buf[24] = byte(h.SectionType)
	buf[25] = h.Codec
	buf[26] = h.SubCodec
	buf[27] = byte(h.Flags)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// ReadHeader reads and validates a 28-byte Header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	if magic != headerMagic {
		return Header{}, fmt.Errorf("section: bad header magic %#x", magic)
	}
	return Header{
		CompressedOffset:    binary.BigEndian.Uint32(buf[4:8]),
		DataEncryptedLen:    binary.BigEndian.Uint32(buf[8:12]),
		DataCompressedLen:   binary.BigEndian.Uint32(buf[12:16]),
		DataUncompressedLen: binary.BigEndian.Uint32(buf[16:20]),
		VBlockI:             binary.BigEndian.Uint32(buf[20:24]),
		SectionType:         Type(buf[24]),
		Codec:               buf[25],
		SubCodec:            buf[26],
		Flags:               Flags(buf[27]),
	}, nil
}

// Footer is the final 8 bytes of every archive: PIZ seeks to file_end-8 (or
// a conservative file_end-12 window to tolerate trailing padding) and reads
// this to locate the genozip header without a linear scan.
type Footer struct {
	GenozipHeaderOffset uint64
}

// footerSize is 8 bytes on disk: a uint32 offset plus the uint32 magic.
// Kept narrower than the uint64 Go field: WriteTo stores only the low 32
// bits of the offset, and ReadFooter validates the magic, not the offset.
const footerSize = 8

func (f Footer) WriteTo(w io.Writer) (int64, error) {
	var buf [footerSize]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(f.GenozipHeaderOffset))
	binary.BigEndian.PutUint32(buf[4:8], footerMagic)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// ReadFooter reads and validates the trailing 8 bytes of an archive.
func ReadFooter(r io.Reader) (Footer, error) {
	var buf [footerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Footer{}, err
	}
	magic := binary.BigEndian.Uint32(buf[4:8])
	if magic != footerMagic {
		return Footer{}, fmt.Errorf("section: bad footer magic %#x, not a genozip archive", magic)
	}
	return Footer{GenozipHeaderOffset: uint64(binary.BigEndian.Uint32(buf[0:4]))}, nil
}
