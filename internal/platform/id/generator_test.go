package id

import (
	"bytes"
	"strings"
	"testing"
)

func TestRandomGenerator_NewID(t *testing.T) {
	t.Parallel()

	g := NewRandomGenerator()
	first, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(first) != 2*defaultTokenBytes {
		t.Fatalf("unexpected id length: got=%d want=%d", len(first), 2*defaultTokenBytes)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
}

func TestPrefixedGenerator_NewID(t *testing.T) {
	t.Parallel()

	g := NewPrefixedGenerator("worker-")
	g.entropy = bytes.NewReader(bytes.Repeat([]byte{0xab}, defaultTokenBytes))

	got, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if want := "worker-" + strings.Repeat("ab", defaultTokenBytes); got != want {
		t.Fatalf("unexpected id: got=%s want=%s", got, want)
	}

	if _, err := g.NewID(); err == nil {
		t.Fatalf("expected error once entropy is exhausted")
	}
}
