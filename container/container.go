// Package container implements the declarative reconstruction template
// that drives PIZ output: a Container is a small serialized tree describing
// how many times to repeat an item list, which context each item pulls its
// next value from (or which nested Container to recurse into), what
// separator follows it, and which translator (if any) rewrites it.
package container

import (
	"bytes"
	"fmt"

	"github.com/akm0001/genozip-sub000/dict"
)

// Item is one element of a Container's item list. An item either pulls its
// next value directly from a context (DictId set, SubContainer nil) or
// recurses into a nested Container (SubContainer set) — the latter is how
// a VCF line's toplevel container reaches into its per-sample FORMAT
// fields, itself repeated once per sample.
type Item struct {
	DictId       dict.DictId
	Separator    [2]byte // Separator[0] == 0 means "no separator"
	TranslatorID uint8
	SubContainer *Container
}

// Container is the Go-facing form of the on-disk declarative template
// described in spec.md §4.1: a repeat count, an item list, and the two
// optional hooks (filter, callback) that let a data-type package suppress
// items/repeats or post-process each repeat without the walker itself
// knowing anything about --grep, --regions, or --samples.
type Container struct {
	Repeats       uint32
	Items         []Item
	FilterItems   FilterItemsFunc
	FilterRepeats FilterRepeatsFunc
	Callback      CallbackFunc
}

// FilterItemsFunc reports whether item-th item of repeat-th repeat should
// be reconstructed at all. A nil func means "always reconstruct".
type FilterItemsFunc func(state interface{}, id dict.DictId, repeat, item int) bool

// FilterRepeatsFunc reports whether repeat-th repeat should be
// reconstructed at all (e.g. a variant excluded by --regions). A nil func
// means "always reconstruct".
type FilterRepeatsFunc func(state interface{}, id dict.DictId, repeat int) bool

// CallbackFunc is invoked after each repeat is fully reconstructed, for
// data-type-specific post-processing (e.g. recomputing a running digest,
// or rewriting a just-built INFO string).
type CallbackFunc func(state interface{}, id dict.DictId, repeat int, reconstructed []byte)

// ContextProvider resolves a dict_id to its next reconstructed value
// during a walk. VBlock implements this against its per-field Ctx set.
type ContextProvider interface {
	NextSnip(id dict.DictId) (snip []byte, kind dict.Kind, err error)
}

// ErrMissingDict is returned when a Container references a dict_id with no
// corresponding context — spec.md §4.1 calls this fatal.
var ErrMissingDict = fmt.Errorf("container: referenced dict_id has no context")

// ErrB250Overrun is returned when a context's b250 iterator is asked for
// a value past the end of its stream — spec.md §4.1 calls this fatal.
var ErrB250Overrun = fmt.Errorf("container: b250 iterator overrun")

// Reconstruct walks con, appending reconstructed bytes to out. state is an
// opaque value threaded through to Filter/Callback hooks (typically the
// owning VBlock); cp resolves dict_id -> next snip; translators resolves
// translator ids to rewrite functions (nil is fine when none are used).
func Reconstruct(state interface{}, cp ContextProvider, con *Container, out *bytes.Buffer, translators *Translators) error {
	for repeat := 0; repeat < int(con.Repeats); repeat++ {
		if con.FilterRepeats != nil && !con.FilterRepeats(state, dict.DictId{}, repeat) {
			continue
		}
		start := out.Len()
		for item, it := range con.Items {
			if con.FilterItems != nil && !con.FilterItems(state, it.DictId, repeat, item) {
				continue
			}
			if it.SubContainer != nil {
				if err := Reconstruct(state, cp, it.SubContainer, out, translators); err != nil {
					return err
				}
			} else {
				snip, kind, err := cp.NextSnip(it.DictId)
				if err != nil {
					return fmt.Errorf("%w: %s: %v", ErrMissingDict, it.DictId, err)
				}
				if kind == dict.KindMissing {
					// absent field contributes nothing, not even a separator gap.
					continue
				}
				if it.TranslatorID != 0 && translators != nil {
					snip, err = translators.Apply(it.TranslatorID, snip)
					if err != nil {
						return err
					}
				}
				out.Write(snip)
			}
			if it.Separator[0] != 0 {
				out.WriteByte(it.Separator[0])
				if it.Separator[1] != 0 {
					out.WriteByte(it.Separator[1])
				}
			}
		}
		if con.Callback != nil {
			con.Callback(state, dict.DictId{}, repeat, out.Bytes()[start:])
		}
	}
	return nil
}
