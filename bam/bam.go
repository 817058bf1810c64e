// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bam encodes sam.Records into BAM's binary record layout. It backs
// the translate package's SAM→BAM output translator: one record in, one
// record's worth of BAM bytes out, with no BAM file reading, BAI indexing
// or multi-file merging — those stay genozip's own section/csi machinery.
// The BAM format is described in the SAM specification.
//
// http://samtools.github.io/hts-specs/SAMv1.pdf
package bam

import (
	"encoding/binary"
	"unsafe"

	"github.com/akm0001/genozip-sub000/sam"
)

// bamRecordFixed mirrors the fixed-width prefix of one binary BAM record,
// used only to size bamFixedRemainder; no value of this type is ever
// constructed.
type bamRecordFixed struct {
	blockSize int32
	refID     int32
	pos       int32
	nLen      uint8
	mapQ      uint8
	bin       uint16
	nCigar    uint16
	flags     sam.Flags
	lSeq      int32
	nextRefID int32
	nextPos   int32
	tLen      int32
}

var (
	lenFieldSize      = binary.Size(bamRecordFixed{}.blockSize)
	bamFixedRemainder = binary.Size(bamRecordFixed{}) - lenFieldSize
)

// buildAux constructs a single byte slice that represents a slice of sam.Aux.
func buildAux(aa []sam.Aux) (aux []byte) {
	for _, a := range aa {
		aux = append(aux, []byte(a)...)
		switch a.Type() {
		case 'Z', 'H':
			aux = append(aux, 0)
		}
	}
	return
}

// doublets packs a sequence's 2-bit-per-base nibbles for the BAM binary
// SEQ field.
type doublets []sam.Doublet

func (np doublets) Bytes() []byte { return *(*[]byte)(unsafe.Pointer(&np)) }
