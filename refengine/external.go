package refengine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/akm0001/genozip-sub000/bitarray"
	"github.com/akm0001/genozip-sub000/fai"
)

// LoadExternal builds a ModeExternal Genome from a FASTA file and its FAI
// sidecar, read via mmap so a chromosome-sized reference doesn't have to be
// paged into the heap up front — the same trade-off fai.File/fai.Seq make
// for the teacher's own FASTA consumers.
//
// faiPath names the .fai index; an empty faiPath falls back to path+".fai".
// If that index file doesn't exist, one is built in memory from the FASTA
// itself (fai.NewIndex) and not persisted to disk.
func LoadExternal(path, faiPath string) (*Genome, error) {
	if faiPath == "" {
		faiPath = path + ".fai"
	}
	idx, err := readOrBuildIndex(path, faiPath)
	if err != nil {
		return nil, fmt.Errorf("refengine: load external reference: %w", err)
	}

	f, err := fai.OpenFile(path, idx)
	if err != nil {
		return nil, fmt.Errorf("refengine: mmap reference %s: %w", path, err)
	}
	defer f.Close()

	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return idx[names[i]].Start < idx[names[j]].Start })

	var gpos uint64
	ranges := make([]*Range, 0, len(names))
	for _, name := range names {
		rec := idx[name]
		r := NewRange(name, gpos, uint64(rec.Length))
		if err := fillRangeFromFAI(r, f, name); err != nil {
			return nil, fmt.Errorf("refengine: read contig %s: %w", name, err)
		}
		ranges = append(ranges, r)
		gpos += uint64(rec.Length)
	}

	return NewGenome(ModeExternal, ranges), nil
}

func readOrBuildIndex(path, faiPath string) (fai.Index, error) {
	if idxFile, err := os.Open(faiPath); err == nil {
		defer idxFile.Close()
		return fai.ReadFrom(idxFile)
	}

	fastaFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fastaFile.Close()
	return fai.NewIndex(fastaFile)
}

// fillRangeFromFAI decodes one contig's bases out of the mmapped FASTA into
// r's 2-bit packed Seq. A non-ACGT byte (N runs, ambiguity codes) is left
// unset rather than rejected: ModeExternal ranges otherwise behave like
// ModeInternal's lazily-filled ones, where IsSet tracks "is this position a
// known canonical base" independent of whether it has been visited yet.
func fillRangeFromFAI(r *Range, f *fai.File, name string) error {
	seq, err := f.Seq(name)
	if err != nil {
		return err
	}
	br := bufio.NewReaderSize(seq, 1<<16)
	var i uint64
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if base, ok := bitarray.BaseFromByte(c); ok {
			r.Seq.Set(i, base)
			r.IsSet.Set(i)
		}
		i++
	}
	if i != uint64(r.Length) {
		return fmt.Errorf("refengine: contig %s: read %d bases, index says %d", name, i, r.Length)
	}
	return nil
}
