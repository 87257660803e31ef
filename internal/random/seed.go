// Package random provides the seed used when a command is not given one.
//
// Seeds come from crypto/rand; everything downstream of a seed is a
// deterministic math/rand source, so a printed seed reproduces a run.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// SeedOrNew returns seed when it is non-zero and a fresh seed otherwise.
func SeedOrNew(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return NewSeed()
}
