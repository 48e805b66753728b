// Package generator draws target characters for the game.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/quickkeys/internal/model"
)

// Generator draws characters uniformly from a fixed alphabet.
type Generator struct {
	rnd      *rand.Rand
	alphabet []rune
}

// New returns a Generator seeded with the current time.
func New(alphabet string) *Generator {
	return NewWithSeed(alphabet, time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a deterministic sequence.
func NewWithSeed(alphabet string, seed int64) *Generator {
	runes := []rune(alphabet)
	if len(runes) == 0 {
		runes = []rune(model.DefaultAlphabet)
	}
	return &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		alphabet: runes,
	}
}

// Next returns the next random character.
func (g *Generator) Next() rune {
	return g.alphabet[g.rnd.Intn(len(g.alphabet))]
}

// Alphabet returns a copy of the characters the generator draws from.
func (g *Generator) Alphabet() []rune {
	out := make([]rune, len(g.alphabet))
	copy(out, g.alphabet)
	return out
}
