package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const defaultTokenBytes = 16

// Generator creates opaque tokens, such as recalculation lock owners.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct {
	prefix  string
	entropy io.Reader
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{entropy: rand.Reader}
}

// NewPrefixedGenerator tags every token with prefix so lock owners can be told apart in the cache.
func NewPrefixedGenerator(prefix string) *RandomGenerator {
	g := NewRandomGenerator()
	g.prefix = prefix
	return g
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, defaultTokenBytes)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return g.prefix + hex.EncodeToString(buf), nil
}
