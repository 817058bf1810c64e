package section

import (
	"crypto/md5"
	"hash"
	"hash/adler32"
)

// DigestAlgo selects the running checksum used to detect txt<->decompressed
// mismatches. Adler32 is the fast default; MD5 is used under --test/--md5
// for a cryptographically stronger guarantee, mirroring biogo-hts's own
// use of MD5 for @SQ M5 reference checksums (sam/reference.go).
type DigestAlgo uint8

const (
	DigestAdler32 DigestAlgo = iota
	DigestMD5
)

// Digest is a running checksum over a stream of VB text, snapshotted at
// each VB boundary (digest_so_far) so a mismatch can be localized to the
// VB that introduced it rather than only detected at EOF.
type Digest struct {
	algo DigestAlgo
	h    hash.Hash32
	md5  interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
	}
}

func NewDigest(algo DigestAlgo) *Digest {
	d := &Digest{algo: algo}
	switch algo {
	case DigestMD5:
		d.md5 = md5.New()
	default:
		d.h = adler32.New()
	}
	return d
}

// Write feeds the next chunk of uncompressed txt data into the running
// digest, in file order.
func (d *Digest) Write(p []byte) {
	if d.algo == DigestMD5 {
		d.md5.Write(p)
		return
	}
	d.h.Write(p)
}

// SoFar returns the digest of everything written so far, without
// disturbing the running state — the per-VB snapshot written into each
// VBHeader section.
func (d *Digest) SoFar() []byte {
	if d.algo == DigestMD5 {
		// md5.digest's Sum is side-effect-free on the accumulated state;
		// snapshotting requires no reset.
		return d.md5.Sum(nil)
	}
	sum := d.h.Sum32()
	return []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
}

// Len is the digest's on-disk width: 4 bytes for Adler32, 16 for MD5.
func (d *Digest) Len() int {
	if d.algo == DigestMD5 {
		return md5.Size
	}
	return 4
}
