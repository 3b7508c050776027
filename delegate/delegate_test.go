package delegate

import "testing"

func square(x int) int { return x * x }
func cube(x int) int   { return x * x * x }

// S1 (sync free): bind square, invoke, check clone equality.
func TestFreeSyncInvoke(t *testing.T) {
	d := Free(square)
	out, err := d.Invoke(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 9 {
		t.Fatalf("expected 9, got %v", out)
	}
	if !d.Equal(d.Clone()) {
		t.Fatal("clone must be equal to the original")
	}
}

func TestFreeEquality(t *testing.T) {
	a := Free(square)
	b := Free(square)
	c := Free(cube)
	if !a.Equal(b) {
		t.Fatal("delegates bound to the same free function must be equal")
	}
	if a.Equal(c) {
		t.Fatal("delegates bound to different free functions must not be equal")
	}
}

func TestEmptyDelegateInvoke(t *testing.T) {
	d := Empty()
	if !d.IsEmpty() {
		t.Fatal("expected IsEmpty")
	}
	out, err := d.Invoke(1, 2, 3)
	if out != nil || err != nil {
		t.Fatalf("expected (nil, nil) from empty delegate invoke, got (%v, %v)", out, err)
	}
}

func TestClearMakesEmpty(t *testing.T) {
	d := Free(square)
	d.Clear()
	if !d.IsEmpty() {
		t.Fatal("expected IsEmpty after Clear")
	}
	out, _ := d.Invoke(3)
	if out != nil {
		t.Fatalf("expected no-op invoke after Clear, got %v", out)
	}
}

type counter struct{ n int }

func (c *counter) Add(v int) int { c.n += v; return c.n }

func TestMemberRaw(t *testing.T) {
	c := &counter{}
	d := MemberRaw(c, "Add")
	out, err := d.Invoke(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 5 || c.n != 5 {
		t.Fatalf("expected receiver mutated to 5, got %v / %d", out, c.n)
	}

	d2 := MemberRaw(c, "Add")
	if !d.Equal(d2) {
		t.Fatal("same receiver + method must be equal")
	}
}

func TestMemberSharedResetMakesSiblingsEmpty(t *testing.T) {
	shared := NewSharedRef(&counter{})
	a := MemberShared(shared, "Add")
	b := a.Clone()

	if _, err := a.Invoke(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shared.Reset()

	out, err := b.Invoke(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected silent no-op after shared reset, got %v", out)
	}
}

func TestOpaqueIdentityEquality(t *testing.T) {
	state := 0
	fn := func(args ...any) (any, error) {
		state += args[0].(int)
		return state, nil
	}
	a := Opaque(fn)
	b := a.Clone()
	c := Opaque(fn) // distinct box, same underlying func value

	if !a.Equal(b) {
		t.Fatal("clone of an opaque delegate must be equal (same stored box)")
	}
	if a.Equal(c) {
		t.Fatal("two independently-bound opaque delegates must not be equal")
	}
}
