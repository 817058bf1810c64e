package dict

import (
	"bytes"
	"testing"
)

func TestEvaluateSnipDedup(t *testing.T) {
	c := NewCtx(NewDictId(SpaceField, "CHROM"), 0, "CHROM", LTypeText)
	i1, isNew1 := c.EvaluateSnip("chr1")
	i2, isNew2 := c.EvaluateSnip("chr2")
	i3, isNew3 := c.EvaluateSnip("chr1")
	if !isNew1 || !isNew2 {
		t.Fatal("first sightings of chr1/chr2 should be new")
	}
	if isNew3 {
		t.Fatal("second sighting of chr1 should not be new")
	}
	if i1 != i3 {
		t.Fatalf("chr1 got two different word indices: %d vs %d", i1, i3)
	}
	if i1 == i2 {
		t.Fatal("chr1 and chr2 collided on the same word index")
	}
}

func TestAppendWordOneUp(t *testing.T) {
	c := NewCtx(NewDictId(SpaceField, "CHROM"), 0, "CHROM", LTypeText)
	i, _ := c.EvaluateSnip("chr1")
	c.AppendWord(i)
	c.AppendWord(i) // should collapse to ONE_UP
	c.AppendWord(i) // still ONE_UP

	c.ResetIterator()
	snip1, k1, err := c.GetNextSnip()
	if err != nil {
		t.Fatal(err)
	}
	snip2, k2, err := c.GetNextSnip()
	if err != nil {
		t.Fatal(err)
	}
	snip3, k3, err := c.GetNextSnip()
	if err != nil {
		t.Fatal(err)
	}
	if k1 != KindIndex || k2 != KindIndex || k3 != KindIndex {
		t.Fatalf("expected all three to resolve as values, got %v %v %v", k1, k2, k3)
	}
	for _, s := range [][]byte{snip1, snip2, snip3} {
		if !bytes.Equal(s, []byte("chr1")) {
			t.Fatalf("got %q, want chr1", s)
		}
	}
	// only the first code should be a word index; the rest collapse
	// to the one-byte ONE_UP sentinel.
	if len(c.B250) != 1+1+1 {
		t.Fatalf("b250 len = %d, want 3 (1-byte index + 2 ONE_UP)", len(c.B250))
	}
}

func TestAppendEmptyMissing(t *testing.T) {
	c := NewCtx(NewDictId(SpaceInfo, "AF"), 0, "AF", LTypeText)
	idx, _ := c.EvaluateSnip("0.5")
	c.AppendWord(idx)
	c.AppendEmpty()
	c.AppendMissing()

	c.ResetIterator()
	_, k1, _ := c.GetNextSnip()
	_, k2, _ := c.GetNextSnip()
	_, k3, _ := c.GetNextSnip()
	if k1 != KindIndex || k2 != KindEmpty || k3 != KindMissing {
		t.Fatalf("kinds = %v %v %v", k1, k2, k3)
	}
}

func TestStoreCloneMerge(t *testing.T) {
	store := NewStore()
	id := NewDictId(SpaceField, "CHROM")

	// VB 1 sees chr1, chr2.
	vb1 := store.Clone(id, "CHROM", LTypeText)
	i1chr1, _ := vb1.EvaluateSnip("chr1")
	i1chr2, _ := vb1.EvaluateSnip("chr2")
	vb1.AppendWord(i1chr1)
	vb1.AppendWord(i1chr2)

	// VB 2 clones concurrently (before VB 1 merges), independently sees
	// chr2 (already known to VB1 but not yet merged) and chrX (brand new).
	vb2 := store.Clone(id, "CHROM", LTypeText)
	i2chr2, isNew2chr2 := vb2.EvaluateSnip("chr2")
	i2chrX, _ := vb2.EvaluateSnip("chrX")
	vb2.AppendWord(i2chr2)
	vb2.AppendWord(i2chrX)
	if !isNew2chr2 {
		t.Fatal("vb2 should not have seen vb1's chr2 yet (merge hasn't happened)")
	}

	remap1 := store.Merge(vb1)
	if err := RemapB250(vb1, remap1); err != nil {
		t.Fatal(err)
	}
	remap2 := store.Merge(vb2)
	if err := RemapB250(vb2, remap2); err != nil {
		t.Fatal(err)
	}

	// After both merges, vb2's chr2 index must have been canonicalized to
	// vb1's chr2 global index, not duplicated.
	finalChr2 := remap1[i1chr2]
	if remap2[i2chr2] != finalChr2 {
		t.Fatalf("chr2 merged to two different global indices: %d vs %d", finalChr2, remap2[i2chr2])
	}
	if remap2[i2chrX] == finalChr2 {
		t.Fatal("chrX should not collide with chr2's global index")
	}
}
