package vb

import (
	"fmt"
	"strconv"

	"github.com/akm0001/genozip-sub000/container"
	"github.com/akm0001/genozip-sub000/dict"
	"github.com/akm0001/genozip-sub000/refengine"
	"github.com/akm0001/genozip-sub000/section"
)

// Segmenter is the plug-in contract a data-type package (segment/vcf.go
// and friends) satisfies, per spec.md §6. A VBlock drives exactly one
// Segmenter across its lifetime.
type Segmenter interface {
	// Initialize configures vb's ctx ltypes, codec hints, no-stons bits
	// and toplevel Container before the first line is segmented.
	Initialize(vb *VBlock)
	// SegLine populates contexts from one input line, returning the
	// number of bytes consumed (normally len(line), but formats with
	// multi-line records may consume more than one line at a time).
	SegLine(vb *VBlock, line []byte) (consumed int, err error)
	// Finalize emits the toplevel Container snip once all lines have
	// been segmented.
	Finalize(vb *VBlock) error
	// Unconsumed locates the last complete record boundary in data,
	// returning the length of the trailing partial record (to be
	// prepended to the next VB's input).
	Unconsumed(data []byte) (tailLen int, err error)
}

// VBlock is the per-thread working set for one VB: cloned contexts, the
// text range being segmented, the toplevel Container and the section data
// produced so far. It implements container.ContextProvider against its
// own per-field Ctx set, the role genozip's compute thread plays reading
// back through a VB's own contexts during PIZ.
type VBlock struct {
	Index uint32 // 1-based VB sequence number within this component

	Session *Session
	Ref     *refengine.Genome

	TxtData []byte // this VB's raw input text range
	NLines  int

	ctxByID map[dict.DictId]*dict.Ctx
	order   []dict.DictId // first-seen order within this VB, mirrors Store.order

	Toplevel *container.Container

	// Sections accumulates (type, dict_id, payload) triples staged at VB
	// finalize, after the dictionary merge, and handed to the write callback.
	Sections []Section
}

// Section is one section this VBlock produced, staged for writeout.
type Section struct {
	Type    section.Type
	DictId  dict.DictId
	Codec   uint8
	SubCodec uint8
	Payload []byte
	OrigLen int // uncompressed length, for the section header's data_uncompressed_len
}

// NewVBlock allocates a VBlock bound to session and numbered index. Pool
// recycling (spec.md §4.4 lifecycle step 1) is the Dispatcher's
// responsibility; NewVBlock itself always returns a clean block.
func NewVBlock(session *Session, ref *refengine.Genome, index uint32) *VBlock {
	return &VBlock{
		Index:   index,
		Session: session,
		Ref:     ref,
		ctxByID: make(map[dict.DictId]*dict.Ctx),
	}
}

// reset clears a VBlock for reuse by the Dispatcher's pool, preserving the
// allocated ctxByID map (cleared, not reallocated) and Sections slice.
func (vb *VBlock) reset(index uint32) {
	vb.Index = index
	vb.TxtData = vb.TxtData[:0]
	vb.NLines = 0
	for k := range vb.ctxByID {
		delete(vb.ctxByID, k)
	}
	vb.order = vb.order[:0]
	vb.Toplevel = nil
	vb.Sections = vb.Sections[:0]
}

// CloneCtx clones (or retrieves an already-cloned) context for id from the
// Session's dictionary store. Segmenters call this, typically from
// Initialize, once per field they touch.
func (vb *VBlock) CloneCtx(id dict.DictId, name string, lt dict.LType) *dict.Ctx {
	if c, ok := vb.ctxByID[id]; ok {
		return c
	}
	c := vb.Session.Store.Clone(id, name, lt)
	vb.ctxByID[id] = c
	vb.order = append(vb.order, id)
	return c
}

// Ctx returns the already-cloned context for id, or nil if none has been
// cloned this VB.
func (vb *VBlock) Ctx(id dict.DictId) *dict.Ctx { return vb.ctxByID[id] }

// Contexts returns this VB's contexts in first-seen order, the order
// sections are written in (spec.md §4.4: "one section per ctx in did_i
// order" is approximated here by first-seen order within the VB, which
// matches did_i order since did_i is itself assigned on first sight).
func (vb *VBlock) Contexts() []*dict.Ctx {
	out := make([]*dict.Ctx, len(vb.order))
	for i, id := range vb.order {
		out[i] = vb.ctxByID[id]
	}
	return out
}

// NextSnip implements container.ContextProvider, resolving id against this
// VB's own context set. A context seg'd with AppendIntDelta (NoStons plus
// StoreInt — POS and similar monotone numeric fields) never gets a b250
// stream at all, so its next value comes from its Local delta stream
// instead of GetNextSnip's ordinary b250 decode.
func (vb *VBlock) NextSnip(id dict.DictId) ([]byte, dict.Kind, error) {
	c, ok := vb.ctxByID[id]
	if !ok {
		return nil, 0, fmt.Errorf("vb: %w: %s", container.ErrMissingDict, id)
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

// mergeAndRewrite commits every context's new nodes into the Session's
// dictionary store and rewrites that context's b250 stream through the
// resulting remap table — spec.md §4.5's merge_in_vb_ctx, run once per
// context at VB finalize.
func (vb *VBlock) mergeAndRewrite() error {
	for _, c := range vb.Contexts() {
		remap := vb.Session.Store.Merge(c)
		if err := dict.RemapB250(c, remap); err != nil {
			return err
		}
	}
	return nil
}
