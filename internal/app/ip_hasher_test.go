package app

import "testing"

func TestIPHasher(t *testing.T) {
	h := NewIPHasher("pepper")

	a := h.Hash("203.0.113.5")
	if len(a) != 64 {
		t.Fatalf("expected 32-byte hex digest, got %q", a)
	}
	if a != h.Hash("203.0.113.5") {
		t.Fatalf("expected stable digest")
	}
	if a == h.Hash("203.0.113.6") {
		t.Fatalf("expected different digest for different ip")
	}
	if a == NewIPHasher("other").Hash("203.0.113.5") {
		t.Fatalf("expected salt to change digest")
	}
	if h.Hash("") != "" {
		t.Fatalf("expected empty digest for empty ip")
	}
}
