package random

import (
	"crypto/rand"
)

// IDAlphabet is the character set used for generated identifiers
const IDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// rejectAbove is the largest multiple of len(IDAlphabet) that fits in a byte.
// Bytes at or above it are redrawn so every character is equally likely.
const rejectAbove = 256 - 256%len(IDAlphabet)

// Random produces the random suffixes of generated identifiers and can be
// mocked for testing
type Random interface {
	// ID returns length characters drawn from IDAlphabet
	ID(length int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

func (r *CryptoRandom) ID(length int) string {
	if length <= 0 {
		return ""
	}
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand.Read never returns an error on supported platforms
			panic(err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, IDAlphabet[int(b)%len(IDAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}
