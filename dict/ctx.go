package dict

import "fmt"

// Ctx is a VB-local working view of one field's dictionary: a read-only
// overlay of everything committed to the global store as of this VB's
// Clone, plus whatever new snips this VB's segmenting discovers. It is the
// Go-facing equivalent of move_to_front.h's per-VB MtfContext.
type Ctx struct {
	DictId DictId
	DidI   int
	Name   string

	LType     LType
	Store     StoreType
	LCodec    uint8 // codec.Type, kept untyped here to avoid an import cycle with codec
	BCodec    uint8
	NoStons   bool // true if this field's values must never become b250 dictionary snips (e.g. QUAL local data)
	AllTheSame bool

	// Overlay: read-only snapshot of the global dict as of Clone.
	OLDict  []byte
	OLNodes []Node
	olHash  *Hash

	// New this VB.
	Dict     []byte
	Nodes    []Node
	newHash  *Hash
	B250     []byte
	Local    *LocalBuffer

	lastWordIndex uint32
	haveLast      bool

	// PIZ iteration state.
	b250Pos       int
	prevWordIndex uint32
	havePrev      bool

	// Last-value tracking (StoreInt): the running absolute value used to
	// turn successive Local entries into deltas on seg, and deltas back
	// into absolute values on reconstruction. Reset per VB since a Ctx is
	// never reused across VBs.
	lastInt     int64
	haveLastInt bool
}

// NewCtx creates an empty VB-local context with no overlay, used for a
// field first seen in this VB (no global entry exists yet).
func NewCtx(id DictId, didI int, name string, lt LType) *Ctx {
	return &Ctx{
		DictId:  id,
		DidI:    didI,
		Name:    name,
		LType:   lt,
		olHash:  NewHash(),
		newHash: NewHash(),
		Local:   NewLocalBuffer(lt),
	}
}

// totalOverlay is the word index boundary: indices below it resolve
// against the overlay (OLDict/OLNodes), indices at or above it resolve
// against this VB's own new Nodes.
func (c *Ctx) totalOverlay() uint32 { return uint32(len(c.OLNodes)) }

// EvaluateSnip resolves snip to a stable word index, creating a new node
// in this VB's local dictionary if the snip has never been seen before
// (neither in the overlay nor earlier in this same VB).
func (c *Ctx) EvaluateSnip(snip string) (wordIndex uint32, isNew bool) {
	if idx, ok := c.newHash.Lookup(snip, ^uint32(0)); ok {
		return idx, false
	}
	if idx, ok := c.olHash.Lookup(snip, ^uint32(0)); ok {
		return idx, false
	}
	wordIndex = c.totalOverlay() + uint32(len(c.Nodes))
	c.Nodes = append(c.Nodes, Node{
		CharIndex: uint32(len(c.Dict)),
		Len:       uint32(len(snip)),
		WordIndex: wordIndex,
	})
	c.Dict = append(c.Dict, snip...)
	c.newHash.Insert(snip, wordIndex, 0)
	return wordIndex, true
}

// AppendWord encodes wordIndex onto this context's b250 stream, collapsing
// to the one-byte ONE_UP code when it repeats the immediately preceding
// value — the single most common case in sorted genomic data (POS, CHROM
// runs) and the reason ONE_UP exists as a reserved code at all.
func (c *Ctx) AppendWord(wordIndex uint32) {
	if c.haveLast && c.lastWordIndex == wordIndex {
		c.B250 = AppendSentinel(c.B250, KindOneUp)
	} else {
		c.B250 = AppendIndex(c.B250, wordIndex)
	}
	c.lastWordIndex = wordIndex
	c.haveLast = true
}

// AppendEmpty records that this field was present but held an empty value.
func (c *Ctx) AppendEmpty() {
	c.B250 = AppendSentinel(c.B250, KindEmpty)
	c.haveLast = false
}

// AppendMissing records that this field was absent entirely on this line.
func (c *Ctx) AppendMissing() {
	c.B250 = AppendSentinel(c.B250, KindMissing)
	c.haveLast = false
}

// AppendIntDelta records v in this context's Local buffer as the delta from
// the previous call's v (or as v itself on the first call of the VB), the
// last-value-tracking scheme StoreInt names for numeric fields like POS, DP
// and AF that tend to change by a small, often constant, amount between
// consecutive lines.
func (c *Ctx) AppendIntDelta(v int64) {
	delta := v
	if c.haveLastInt {
		delta = v - c.lastInt
	}
	c.Local.AppendInt32(int32(delta))
	c.lastInt = v
	c.haveLastInt = true
}

// GetNextIntDelta reads the next delta from this context's Local buffer
// during reconstruction and returns the absolute value it represents,
// maintaining the running sum across calls within a VB.
func (c *Ctx) GetNextIntDelta() (int64, error) {
	d, ok := c.Local.NextInt32()
	if !ok {
		return 0, fmt.Errorf("dict: %s: local delta overrun", c.Name)
	}
	c.lastInt += int64(d)
	return c.lastInt, nil
}

// snipAt returns the dictionary text for wordIndex, resolving against the
// overlay or this VB's new nodes as appropriate.
func (c *Ctx) snipAt(wordIndex uint32) ([]byte, error) {
	if wordIndex < c.totalOverlay() {
		n := c.OLNodes[wordIndex]
		return c.OLDict[n.CharIndex : n.CharIndex+n.Len], nil
	}
	localIdx := wordIndex - c.totalOverlay()
	if int(localIdx) >= len(c.Nodes) {
		return nil, fmt.Errorf("dict: %s: word index %d out of range", c.Name, wordIndex)
	}
	n := c.Nodes[localIdx]
	return c.Dict[n.CharIndex : n.CharIndex+n.Len], nil
}

// GetNextSnip decodes the next code from this context's b250 stream during
// reconstruction, returning the literal text to emit and whether the field
// was empty or missing.
func (c *Ctx) GetNextSnip() (snip []byte, kind Kind, err error) {
	kind, idx, n, err := Decode(c.B250[c.b250Pos:])
	if err != nil {
		return nil, 0, fmt.Errorf("dict: %s: %w", c.Name, err)
	}
	c.b250Pos += n

	switch kind {
	case KindIndex:
		snip, err = c.snipAt(idx)
		if err != nil {
			return nil, 0, err
		}
		c.prevWordIndex, c.havePrev = idx, true
		return snip, KindIndex, nil
	case KindOneUp:
		if !c.havePrev {
			return nil, 0, fmt.Errorf("dict: %s: ONE_UP with no preceding value", c.Name)
		}
		snip, err = c.snipAt(c.prevWordIndex)
		if err != nil {
			return nil, 0, err
		}
		return snip, KindIndex, nil // caller sees it as an ordinary value
	case KindEmpty:
		return nil, KindEmpty, nil
	default: // KindMissing
		return nil, KindMissing, nil
	}
}

// ResetIterator rewinds PIZ decode state, used when a context's b250
// stream must be replayed (e.g. unit tests, or re-reconstructing a VB).
func (c *Ctx) ResetIterator() {
	c.b250Pos = 0
	c.havePrev = false
}

// CommitCodec records which codec compressed this context's b250 and local
// streams, learned once per VB from AssignBest and reused by later VBs of
// the same field unless AssignBest picks differently on new data.
func (c *Ctx) CommitCodec(b250Codec, localCodec uint8) {
	c.BCodec = b250Codec
	c.LCodec = localCodec
}
