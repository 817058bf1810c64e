package section

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// aesKeyLen is 256-bit AES, per spec.md's encryption requirement.
const aesKeyLen = 32

// Cipher encrypts/decrypts section payloads with AES-256 in CTR mode. Each
// section gets its own counter derived from (vblock_i, section_index)
// rather than a random nonce, so encryption is deterministic and a section
// can be re-decrypted standalone during random-access reads without
// replaying every section before it.
type Cipher struct {
	block cipher.Block
}

// NewCipher builds a Cipher from a 32-byte AES-256 key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("section: AES-256 key must be %d bytes, got %d", aesKeyLen, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// sectionIV derives a 16-byte counter-mode IV from a section's coordinates,
// vblock_i*1000 + section_index in the IV's low 8 bytes, reproducible
// without storing an IV per section on disk. CTR mode advances that counter
// once per 16-byte block, so a section longer than 16 bytes uses counter
// values that the sections after it start from.
func sectionIV(vblockI uint32, sectionIndex uint32) [aes.BlockSize]byte {
	var iv [aes.BlockSize]byte
	ctr := uint64(vblockI)*1000 + uint64(sectionIndex)
	for i := 0; i < 8; i++ {
		iv[aes.BlockSize-1-i] = byte(ctr >> (8 * i))
	}
	return iv
}

// Encrypt and Decrypt are the same CTR-mode XOR operation; named
// separately so call sites read as what they intend.

func (c *Cipher) Encrypt(vblockI, sectionIndex uint32, plaintext []byte) []byte {
	return c.xor(vblockI, sectionIndex, plaintext)
}

func (c *Cipher) Decrypt(vblockI, sectionIndex uint32, ciphertext []byte) []byte {
	return c.xor(vblockI, sectionIndex, ciphertext)
}

func (c *Cipher) xor(vblockI, sectionIndex uint32, in []byte) []byte {
	iv := sectionIV(vblockI, sectionIndex)
	stream := cipher.NewCTR(c.block, iv[:])
	out := make([]byte, len(in))
	stream.XORKeyStream(out, in)
	return out
}
