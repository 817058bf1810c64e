package container

import (
	"bytes"
	"strings"
	"testing"

	"github.com/akm0001/genozip-sub000/dict"
)

// fakeProvider serves a fixed sequence of values per dict_id, in order,
// standing in for a VBlock's per-field Ctx set.
type fakeProvider struct {
	values map[dict.DictId][][]byte
	pos    map[dict.DictId]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{values: make(map[dict.DictId][][]byte), pos: make(map[dict.DictId]int)}
}

func (f *fakeProvider) set(id dict.DictId, vals ...string) {
	for _, v := range vals {
		f.values[id] = append(f.values[id], []byte(v))
	}
}

func (f *fakeProvider) NextSnip(id dict.DictId) ([]byte, dict.Kind, error) {
	vals := f.values[id]
	i := f.pos[id]
	if i >= len(vals) {
		return nil, 0, ErrB250Overrun
	}
	f.pos[id] = i + 1
	v := vals[i]
	if v == nil {
		return nil, dict.KindMissing, nil
	}
	return v, dict.KindIndex, nil
}

func TestReconstructFlatLine(t *testing.T) {
	chrom := dict.NewDictId(dict.SpaceField, "CHROM")
	pos := dict.NewDictId(dict.SpaceField, "POS")

	p := newFakeProvider()
	p.set(chrom, "chr1", "chr2")
	p.set(pos, "100", "200")

	con := &Container{
		Repeats: 2,
		Items: []Item{
			{DictId: chrom, Separator: [2]byte{'\t'}},
			{DictId: pos, Separator: [2]byte{'\n'}},
		},
	}

	var out bytes.Buffer
	if err := Reconstruct(nil, p, con, &out, nil); err != nil {
		t.Fatal(err)
	}
	want := "chr1\t100\nchr2\t200\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestReconstructNestedSamples(t *testing.T) {
	gt := dict.NewDictId(dict.SpaceFormat, "GT")
	dp := dict.NewDictId(dict.SpaceFormat, "DP")

	p := newFakeProvider()
	p.set(gt, "0/1", "1/1")
	p.set(dp, "30", "45")

	samples := &Container{
		Repeats: 2,
		Items: []Item{
			{DictId: gt, Separator: [2]byte{':'}},
			{DictId: dp, Separator: [2]byte{'\t'}},
		},
	}
	line := &Container{
		Repeats: 1,
		Items: []Item{
			{SubContainer: samples},
		},
	}

	var out bytes.Buffer
	if err := Reconstruct(nil, p, line, &out, nil); err != nil {
		t.Fatal(err)
	}
	want := "0/1:30\t1/1:45\t"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestReconstructMissingFieldSkipped(t *testing.T) {
	id := dict.NewDictId(dict.SpaceInfo, "AF")
	p := newFakeProvider()
	p.values[id] = [][]byte{nil} // nil => KindMissing
	p.set(dict.NewDictId(dict.SpaceField, "ID"), "rs1")

	con := &Container{
		Repeats: 1,
		Items: []Item{
			{DictId: id, Separator: [2]byte{';'}},
			{DictId: dict.NewDictId(dict.SpaceField, "ID"), Separator: [2]byte{'\n'}},
		},
	}
	var out bytes.Buffer
	if err := Reconstruct(nil, p, con, &out, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), ";") {
		t.Fatalf("missing field should contribute no separator: %q", out.String())
	}
	if out.String() != "rs1\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestReconstructFilterRepeats(t *testing.T) {
	id := dict.NewDictId(dict.SpaceField, "CHROM")
	p := newFakeProvider()
	p.set(id, "chr1", "chrM", "chr2")

	con := &Container{
		Repeats: 3,
		Items:   []Item{{DictId: id, Separator: [2]byte{'\n'}}},
		FilterRepeats: func(state interface{}, d dict.DictId, repeat int) bool {
			return repeat != 1 // drop the second repeat
		},
	}
	var out bytes.Buffer
	if err := Reconstruct(nil, p, con, &out, nil); err != nil {
		t.Fatal(err)
	}
	// repeat 1 is filtered out before any NextSnip call, so the provider's
	// cursor for this dict_id only advances twice: chr1 (repeat 0), then
	// chrM (repeat 2) — chr2 is never reached.
	if out.String() != "chr1\nchrM\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestTranslatorApply(t *testing.T) {
	tr := NewTranslators()
	tr.Register(1, func(snip []byte) ([]byte, error) {
		return bytes.ToUpper(snip), nil
	})
	id := dict.NewDictId(dict.SpaceField, "REF")
	p := newFakeProvider()
	p.set(id, "acgt")

	con := &Container{
		Repeats: 1,
		Items:   []Item{{DictId: id, TranslatorID: 1}},
	}
	var out bytes.Buffer
	if err := Reconstruct(nil, p, con, &out, tr); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ACGT" {
		t.Fatalf("got %q", out.String())
	}
}
