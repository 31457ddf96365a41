package testutil

import (
	"fmt"
	"sync/atomic"
)

// SeqTokenGenerator returns "<prefix>-1", "<prefix>-2", ... .
//
// The same scenario with a fresh SeqTokenGenerator produces byte-identical
// decision traces, which is what golden files compare. Tokens stay unique
// per cycle, so hold ownership still works.
//
// Thread-safety: safe for concurrent use.
type SeqTokenGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSeqTokenGenerator creates a sequential cycle token generator.
// If prefix is empty, "test-cycle" is used.
func NewSeqTokenGenerator(prefix string) *SeqTokenGenerator {
	if prefix == "" {
		prefix = "test-cycle"
	}
	return &SeqTokenGenerator{prefix: prefix}
}

// Generate returns the next token. Implements engine.TokenGenerator.
func (g *SeqTokenGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
