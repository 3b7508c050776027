package delegate

import "reflect"

// memberRawDelegate binds a method on a non-owning receiver: the caller
// is responsible for the receiver's lifetime outliving every invocation
// (spec.md §3, "Member-raw"). Equality is by receiver address plus method
// selector (spec.md §4.1).
type memberRawDelegate struct {
	receiver any
	method   string
	fn       reflect.Value // cached bound method value
	recvPtr  uintptr
	cleared  bool
}

// MemberRaw binds methodName on receiver (normally a pointer). The
// receiver is stored as-is, not copied or reference-counted: the caller
// owns its lifetime.
func MemberRaw(receiver any, methodName string) Delegate {
	rv := reflect.ValueOf(receiver)
	m := rv.MethodByName(methodName)
	if !m.IsValid() {
		panic("delegate.MemberRaw: no such method " + methodName)
	}
	return &memberRawDelegate{
		receiver: receiver,
		method:   methodName,
		fn:       m,
		recvPtr:  receiverAddr(rv),
	}
}

func receiverAddr(rv reflect.Value) uintptr {
	if rv.Kind() == reflect.Ptr {
		return rv.Pointer()
	}
	// value receivers have no stable address, so every value (rather
	// than pointer) receiver records address 0. Equal therefore does not
	// tell value receivers apart: two delegates binding the same method
	// name on value receivers compare equal whatever values they hold.
	// Pointer receivers compare by address, as member-raw equality is
	// receiver-address based.
	return 0
}

func (d *memberRawDelegate) Invoke(args ...any) (any, error) {
	if d.cleared {
		return nil, nil
	}
	return call(d.fn, args)
}

func (d *memberRawDelegate) Clone() Delegate {
	return &memberRawDelegate{receiver: d.receiver, method: d.method, fn: d.fn, recvPtr: d.recvPtr, cleared: d.cleared}
}

func (d *memberRawDelegate) IsEmpty() bool { return d.cleared }
func (d *memberRawDelegate) Clear()        { d.cleared = true }

func (d *memberRawDelegate) Equal(other Delegate) bool {
	o, ok := other.(*memberRawDelegate)
	return ok && o.recvPtr == d.recvPtr && o.method == d.method && o.cleared == d.cleared
}
