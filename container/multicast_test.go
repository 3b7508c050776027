package container

import (
	"testing"

	"github.com/relaykit/delegates/delegate"
)

// S2 (multicast order): insert a, b, c; broadcast appends "abc"; remove b;
// broadcast again appends "ac".
func TestMulticastOrderAndRemove(t *testing.T) {
	var m Multicast
	var buf string

	letter := func(s string) delegate.Delegate {
		return delegate.Opaque(func(...any) (any, error) {
			buf += s
			return nil, nil
		})
	}
	a, b, c := letter("a"), letter("b"), letter("c")
	m.PushBack(a)
	m.PushBack(b)
	m.PushBack(c)

	m.Broadcast()
	if buf != "abc" {
		t.Fatalf("expected %q, got %q", "abc", buf)
	}

	m.Remove(b)
	m.Broadcast()
	if buf != "abcac" {
		t.Fatalf("expected %q, got %q", "abcac", buf)
	}
}

func TestMulticastRemoveAbsentIsNoOp(t *testing.T) {
	var m Multicast
	d := delegate.Free(func() {})
	m.Remove(d) // must not panic
	if m.Size() != 0 {
		t.Fatalf("expected size 0, got %d", m.Size())
	}
}

func TestMulticastReentrantPushDuringBroadcast(t *testing.T) {
	var m Multicast
	var calls int
	var extra delegate.Delegate
	first := delegate.Opaque(func(...any) (any, error) {
		calls++
		m.PushBack(extra) // re-entrant mutation from within a subscriber
		return nil, nil
	})
	extra = delegate.Opaque(func(...any) (any, error) {
		calls++
		return nil, nil
	})
	m.PushBack(first)

	m.Broadcast() // first call only; extra wasn't in the snapshot yet
	if calls != 1 {
		t.Fatalf("expected 1 call in the first broadcast, got %d", calls)
	}
	if m.Size() != 2 {
		t.Fatalf("expected size 2 after re-entrant push, got %d", m.Size())
	}

	m.Broadcast() // now both run
	if calls != 3 {
		t.Fatalf("expected 3 cumulative calls, got %d", calls)
	}
}
