package delegate

// opaqueDelegate wraps a type-erased callable (a closure with captured
// state). Per spec.md §4.1, equality for this variant degrades to address
// identity of the stored callable object: comparing two Go func values
// directly is not meaningful (two distinct closures created from the same
// literal share the same code pointer), so the closure is boxed once at
// Opaque() time and clones share the box pointer — Clone().Equal(original)
// holds because both point at the identical box, and two independently
// constructed closures are always unequal even if behaviorally identical.
type opaqueDelegate struct {
	box     *closureBox
	cleared bool
}

type closureBox struct {
	fn func(args ...any) (any, error)
}

// Opaque binds an already type-erased callable.
func Opaque(fn func(args ...any) (any, error)) Delegate {
	return &opaqueDelegate{box: &closureBox{fn: fn}}
}

func (d *opaqueDelegate) Invoke(args ...any) (any, error) {
	if d.cleared {
		return nil, nil
	}
	return d.box.fn(args...)
}

func (d *opaqueDelegate) Clone() Delegate {
	return &opaqueDelegate{box: d.box, cleared: d.cleared}
}

func (d *opaqueDelegate) IsEmpty() bool { return d.cleared }
func (d *opaqueDelegate) Clear()        { d.cleared = true }

func (d *opaqueDelegate) Equal(other Delegate) bool {
	o, ok := other.(*opaqueDelegate)
	return ok && o.box == d.box && o.cleared == d.cleared
}
