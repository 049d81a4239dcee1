package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Digest computes a running SHA-256 over everything written to it.
type Digest struct {
	h hash.Hash
	n int64
}

// New creates an empty Digest.
func New() *Digest {
	return &Digest{h: sha256.New()}
}

// Write adds p to the digest. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	d.n += int64(len(p))
	return d.h.Write(p)
}

// Sum returns the hex-encoded SHA-256 of the bytes written so far.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// Size returns the number of bytes written so far.
func (d *Digest) Size() int64 {
	return d.n
}
