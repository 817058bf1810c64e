package translate

import (
	"io"

	"github.com/akm0001/genozip-sub000/sam"
)

// TranslateSAMStream reads whole SAM text (its own header line included)
// from src via sam.NewReader and writes every record through dst as an
// indexed BAM stream. It is the batch counterpart to NewSAMToBAM's
// per-line TranslatorFunc: the container reconstructor calls the latter
// one reconstructed line at a time, while a caller handed a complete SAM
// text body (e.g. re-translating an already-reconstructed .sam file) can
// use this instead of driving NewSAMToBAM itself line by line.
func TranslateSAMStream(src io.Reader, dst *IndexedBAMWriter) (int, error) {
	sr, err := sam.NewReader(src)
	if err != nil {
		return 0, err
	}
	var n int
	for {
		r, err := sr.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := dst.WriteRecord(r); err != nil {
			return n, err
		}
		n++
	}
}
