package rng

import "testing"

func TestDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 8; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("same seed must produce same sequence at step %d", i)
		}
	}
}

func TestHashVariesByInput(t *testing.T) {
	if Hash(1) == Hash(2) {
		t.Fatal("expected different inputs to (overwhelmingly likely) hash differently")
	}
}

func TestJitterFractionRange(t *testing.T) {
	for seq := uint64(0); seq < 1000; seq++ {
		f := JitterFraction(seq)
		if f < 0 || f >= 1 {
			t.Fatalf("jitter fraction out of [0,1): %v for seq %d", f, seq)
		}
	}
}
