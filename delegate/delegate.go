// Package delegate implements the polymorphic callable handle at the
// bottom of the invocation pipeline: a Delegate binds exactly one of a
// free function, a raw-pointer bound method, a shared-owned bound method,
// or a type-erased closure, and invokes it uniformly regardless of variant.
//
// The teacher repo has no direct analogue (aistore is a storage system,
// not a callback library); the variant dispatch and clone/equal contract
// below follow spec.md §3/§4.1 directly, reshaped as a Go tagged sum
// (distinct concrete types behind one interface, switched on by a type
// assertion in Equal) instead of the C++ source's RTTI-based downcasting,
// per the reimplementation guidance in spec.md §9.
package delegate

import (
	"reflect"

	"github.com/relaykit/delegates/internal/xdebug"
)

// Delegate is a bound, callable target. A Clear()-ed Delegate, or one
// returned by Empty, is "empty": Invoke on it performs no call and
// returns (nil, nil). A nil Delegate is not callable; the holders in
// package container treat a nil Delegate as empty themselves.
type Delegate interface {
	// Invoke calls the bound target synchronously with args and returns
	// its result. On an empty delegate it returns (nil, nil) without
	// touching any target.
	Invoke(args ...any) (any, error)

	// Clone returns an independent handle with identical behavior and
	// equal identity (Clone().Equal(original) is always true).
	Clone() Delegate

	// Equal reports structural equality per spec.md §4.1: same variant
	// and same identifying fields. Two delegates of different concrete
	// variants are never equal.
	Equal(other Delegate) bool

	// IsEmpty reports whether Invoke is a no-op.
	IsEmpty() bool

	// Clear resets the delegate to empty in place.
	Clear()
}

// Empty returns a Delegate that is already cleared.
func Empty() Delegate { return &emptyDelegate{} }

type emptyDelegate struct{}

func (*emptyDelegate) Invoke(...any) (any, error) { return nil, nil }
func (*emptyDelegate) Clone() Delegate            { return &emptyDelegate{} }
func (*emptyDelegate) Equal(other Delegate) bool  { _, ok := other.(*emptyDelegate); return ok }
func (*emptyDelegate) IsEmpty() bool              { return true }
func (*emptyDelegate) Clear()                     {}

// call invokes fn (a func value obtained via reflect) with the given
// arguments, adapting them to fn's declared parameter types and
// translating a trailing error return value, if any, into the (any,
// error) shape every Delegate variant returns. It is shared by the Free,
// MemberRaw, and MemberShared variants below.
func call(fnVal reflect.Value, args []any) (any, error) {
	xdebug.Assert(fnVal.Kind() == reflect.Func, "call: not a function")
	in := make([]reflect.Value, len(args))
	ft := fnVal.Type()
	for i, a := range args {
		if a == nil {
			if i < ft.NumIn() {
				in[i] = reflect.Zero(ft.In(i))
			} else {
				in[i] = reflect.ValueOf(a)
			}
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	out := fnVal.Call(in)
	return splitResults(out)
}

// splitResults adapts a reflect.Call result slice to (any, error): the
// last return value is treated as the error iff its declared type
// implements the error interface, matching how idiomatic Go targets
// report failure.
func splitResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if isErrorType(last.Type()) {
		var err error
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, err
		}
		if len(out) == 2 {
			return out[0].Interface(), err
		}
		vals := make([]any, len(out)-1)
		for i := 0; i < len(out)-1; i++ {
			vals[i] = out[i].Interface()
		}
		return vals, err
	}
	if len(out) == 1 {
		return out[0].Interface(), nil
	}
	vals := make([]any, len(out))
	for i, v := range out {
		vals[i] = v.Interface()
	}
	return vals, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isErrorType(t reflect.Type) bool { return t.Implements(errorType) }
