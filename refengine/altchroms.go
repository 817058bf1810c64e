package refengine

import "strings"

// AltChroms maps chromosome names as they appear in the input text to the
// (possibly differently spelled, or differently ordered) contig name the
// loaded reference uses for the same sequence — e.g. a VCF using "22"
// against a reference whose contig is named "chr22", or a 23andMe file's
// numeric mitochondrial/sex-chromosome codes. Ported from
// original_source/ref_alt_chroms.c's two stated cases: header-less
// alternate naming, and header/reference contig order mismatches.
type AltChroms struct {
	toCanonical map[string]string
}

func NewAltChroms() *AltChroms {
	return &AltChroms{toCanonical: make(map[string]string)}
}

// Register records an explicit alias, e.g. from matching a txt header's
// contig list against the reference's contig list by position.
func (a *AltChroms) Register(alias, canonical string) {
	a.toCanonical[alias] = canonical
}

// Resolve returns the canonical reference contig name for name, if known.
func (a *AltChroms) Resolve(name string) (string, bool) {
	c, ok := a.toCanonical[name]
	return c, ok
}

// me23ChromNames maps 23andMe's numeric chromosome codes (1-22 autosomes,
// 23=X, 24=Y, 25=XY pseudoautosomal, 26=MT) to their usual reference
// names, per original_source/me23.c's chromosome encoding.
var me23ChromNames = map[string]string{
	"23": "X", "24": "Y", "25": "XY", "26": "MT",
}

// normalizeCandidates returns, in preference order, the alternate
// spellings of a chrom name worth trying against a reference's contig set
// when no explicit alias was registered: bare <-> "chr"-prefixed, "M" <->
// "MT", and the 23andMe numeric codes.
func normalizeCandidates(name string) []string {
	var out []string
	switch {
	case strings.HasPrefix(name, "chr"):
		out = append(out, strings.TrimPrefix(name, "chr"))
	default:
		out = append(out, "chr"+name)
	}
	switch name {
	case "M", "chrM":
		out = append(out, "MT", "chrMT")
	case "MT", "chrMT":
		out = append(out, "M", "chrM")
	}
	if alt, ok := me23ChromNames[name]; ok {
		out = append(out, alt, "chr"+alt)
	}
	return out
}

// BuildFromContigs auto-populates aliases for every txt chrom name that
// doesn't appear verbatim in refContigs but does under one of
// normalizeCandidates' alternate spellings.
func BuildFromContigs(refContigs, txtChroms []string) *AltChroms {
	a := NewAltChroms()
	present := make(map[string]bool, len(refContigs))
	for _, c := range refContigs {
		present[c] = true
	}
	for _, name := range txtChroms {
		if present[name] {
			continue
		}
		for _, cand := range normalizeCandidates(name) {
			if present[cand] {
				a.Register(name, cand)
				break
			}
		}
	}
	return a
}
