package container

import (
	"testing"

	"github.com/relaykit/delegates/delegate"
)

func TestUnicastReplacesAndInvokes(t *testing.T) {
	var u Unicast
	got := 0
	d := delegate.Free(func(x int) { got = x })
	u.Set(d)

	if _, err := u.Invoke(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected target invoked with 7, got %d", got)
	}
}

func TestUnicastEmptyIsNoOp(t *testing.T) {
	var u Unicast
	if !u.IsEmpty() {
		t.Fatal("zero-value Unicast must be empty")
	}
	out, err := u.Invoke(1)
	if out != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", out, err)
	}
}

func TestUnicastSetNilClears(t *testing.T) {
	var u Unicast
	u.Set(delegate.Free(func() {}))
	u.Set(nil)
	if !u.IsEmpty() {
		t.Fatal("expected empty after setting nil")
	}
}
