package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns the first 12 hex digits.
func (h Hash) Short() string {
	if len(h) < 12 {
		return string(h)
	}
	return string(h[:12])
}

// FloatHasher accumulates float64 values in little-endian IEEE-754 form so
// numerically identical datasets always hash identically.
type FloatHasher struct {
	buf []byte
}

// Int appends an integer marker (shape information).
func (fh *FloatHasher) Int(v int) {
	fh.buf = binary.LittleEndian.AppendUint64(fh.buf, uint64(v))
}

// Floats appends values.
func (fh *FloatHasher) Floats(vs ...float64) {
	for _, v := range vs {
		fh.buf = binary.LittleEndian.AppendUint64(fh.buf, math.Float64bits(v))
	}
}

// Text appends a length-prefixed string.
func (fh *FloatHasher) Text(s string) {
	fh.Int(len(s))
	fh.buf = append(fh.buf, s...)
}

// Sum returns the hash of everything appended so far.
func (fh *FloatHasher) Sum() Hash {
	return NewHash(fh.buf)
}
