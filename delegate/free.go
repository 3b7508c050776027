package delegate

import "reflect"

// freeDelegate binds a plain function pointer. Equality is by the
// function's entry address (spec.md §4.1, "Free: equal iff same function
// pointer"); this is meaningful in Go for free functions because they
// carry no captured state, unlike closures (see opaque.go).
type freeDelegate struct {
	fn      reflect.Value
	ptr     uintptr
	cleared bool
}

// Free binds fn, a free (unbound, stateless) function of any signature.
func Free(fn any) Delegate {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("delegate.Free: fn must be a function")
	}
	return &freeDelegate{fn: v, ptr: v.Pointer()}
}

func (d *freeDelegate) Invoke(args ...any) (any, error) {
	if d.cleared {
		return nil, nil
	}
	return call(d.fn, args)
}

func (d *freeDelegate) Clone() Delegate {
	return &freeDelegate{fn: d.fn, ptr: d.ptr, cleared: d.cleared}
}

func (d *freeDelegate) IsEmpty() bool { return d.cleared }
func (d *freeDelegate) Clear()        { d.cleared = true }

func (d *freeDelegate) Equal(other Delegate) bool {
	o, ok := other.(*freeDelegate)
	return ok && o.ptr == d.ptr && o.cleared == d.cleared
}
