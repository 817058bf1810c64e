// Package translate implements the cross-format translators spec.md §6
// names: container.TranslatorFunc values that rewrite one just-reconstructed
// item's bytes in place, registered under a translator id in a
// container.Translators table built for one source×target data-type pair.
package translate

import (
	"fmt"

	"github.com/akm0001/genozip-sub000/bam"
	"github.com/akm0001/genozip-sub000/container"
	"github.com/akm0001/genozip-sub000/sam"
)

// NewSAMToBAM returns the SAM→BAM translator spec.md §6 lists by name: a
// reconstructed SAM text line in, its BAM binary record encoding out. h
// resolves reference and mate-reference names to the numeric IDs the BAM
// encoding carries, exactly as it would for a real .bam file's own
// reference dictionary.
func NewSAMToBAM(h *sam.Header) container.TranslatorFunc {
	return func(snip []byte) ([]byte, error) {
		var r sam.Record
		if err := r.UnmarshalSAM(h, snip); err != nil {
			return nil, fmt.Errorf("translate: parse SAM record: %w", err)
		}
		rec, err := bam.EncodeRecord(&r)
		if err != nil {
			return nil, fmt.Errorf("translate: encode BAM record: %w", err)
		}
		return rec, nil
	}
}
