package dict

// Node is one entry in a context's dictionary: the span of the snip's text
// within the context's dict arena, plus the stable word index this snip was
// assigned at first sight. Mirrors move_to_front.h's MtfNode (char_index,
// snip_len, word_index) fields, renamed to Go-facing names.
type Node struct {
	CharIndex uint32
	Len       uint32
	WordIndex uint32
}

// LType names the physical encoding a context's Local buffer holds, used
// both to pick the right typed accessor and to choose a default codec.
type LType uint8

const (
	LTypeText LType = iota
	LTypeInt8
	LTypeUint8
	LTypeInt16
	LTypeUint16
	LTypeInt32
	LTypeUint32
	LTypeInt64
	LTypeUint64
	LTypeFloat32
	LTypeFloat64
	LTypeSequence // 2-bit packed ACGT, via bitarray.TwoBit
	LTypeBitmap   // raw bit array, e.g. phasing or strand bits
)

func (t LType) String() string {
	switch t {
	case LTypeText:
		return "TEXT"
	case LTypeInt8, LTypeUint8, LTypeInt16, LTypeUint16, LTypeInt32, LTypeUint32, LTypeInt64, LTypeUint64:
		return "INT"
	case LTypeFloat32, LTypeFloat64:
		return "FLOAT"
	case LTypeSequence:
		return "SEQUENCE"
	case LTypeBitmap:
		return "BITMAP"
	default:
		return "UNKNOWN"
	}
}

// StoreType records what a context's LastValue should be reinterpreted as
// when a later snip in the same field needs a numeric or index delta
// against it (spec.md's "last value tracking" for INFO/FORMAT fields such
// as AF, DP, POS).
type StoreType uint8

const (
	StoreNone StoreType = iota
	StoreInt
	StoreFloat
	StoreIndex
)
