// Package dict implements the context/dictionary store: per-field snip
// dictionaries, their base-250 word-index streams, and the local-buffer
// side channel for non-dictionary (numeric/sequence) data.
package dict

import (
	"encoding/binary"
	"hash/fnv"
)

// DictId is a compact, fixed-size identifier for a dictionary context,
// packed the way a short field name (CHROM, POS, GT, MIN_0) fits directly
// into 8 bytes, and hashed down to 8 bytes when it doesn't. The packing is
// what makes DictId comparable and usable as a plain Go map key, the same
// role move_to_front.h's DictIdType plays as a hash-table key in the
// original engine.
type DictId [8]byte

// Space distinguishes which container a dict_id's subfield lives in: two
// different INFO keys and a FORMAT key with the same short name must not
// collide, so the space occupies the top two bits of the first byte.
type Space uint8

const (
	SpaceField Space = iota
	SpaceInfo
	SpaceFormat
	SpaceQname
)

// NewDictId packs name into a DictId tagged with space. Names of 7 bytes
// or fewer are stored verbatim (left in the low 7 bytes, null-padded);
// longer names are folded with FNV-1a so DictId stays fixed size while
// remaining a stable, collision-resistant key across runs.
func NewDictId(space Space, name string) DictId {
	var id DictId
	if len(name) <= 7 {
		copy(id[1:], name)
	} else {
		h := fnv.New64a()
		h.Write([]byte(name))
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], h.Sum64())
		copy(id[1:], buf[:7])
	}
	id[0] = byte(space) << 6
	return id
}

// Space reports the subfield space this id was tagged with.
func (id DictId) Space() Space { return Space(id[0] >> 6) }

func (id DictId) String() string {
	end := 8
	for end > 1 && id[end-1] == 0 {
		end--
	}
	return string(id[1:end])
}
