package delegate

import (
	"reflect"
	"sync/atomic"
)

// SharedRef is a shared-ownership handle to a receiver, analogous to the
// source C++ library's shared_ptr-bound receiver. Every clone of a
// member-shared Delegate that was bound from the same SharedRef keeps it
// alive together and observes the same Reset: once any holder calls
// Reset(), every delegate sharing this SharedRef invokes as empty from
// then on (spec.md §4.1: "Member-shared invokes fail silently with the
// default return if the shared receiver has been reset to null prior to
// invoke").
type SharedRef struct {
	v atomic.Pointer[any]
}

// NewSharedRef wraps receiver (normally a pointer to a struct) for
// shared ownership.
func NewSharedRef(receiver any) *SharedRef {
	s := &SharedRef{}
	s.v.Store(&receiver)
	return s
}

// Get returns the current receiver, or nil if Reset has been called.
func (s *SharedRef) Get() any {
	p := s.v.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Reset releases the receiver; visible to every delegate sharing this ref.
func (s *SharedRef) Reset() { s.v.Store(nil) }

type memberSharedDelegate struct {
	shared  *SharedRef
	method  string
	cleared bool
}

// MemberShared binds methodName on the receiver held by shared. The
// delegate (and every clone of it) keeps shared's receiver alive for as
// long as any of them exist, and all of them see a Reset on shared.
func MemberShared(shared *SharedRef, methodName string) Delegate {
	if shared.Get() == nil {
		panic("delegate.MemberShared: shared receiver must not be nil at bind time")
	}
	if !reflect.ValueOf(shared.Get()).MethodByName(methodName).IsValid() {
		panic("delegate.MemberShared: no such method " + methodName)
	}
	return &memberSharedDelegate{shared: shared, method: methodName}
}

func (d *memberSharedDelegate) Invoke(args ...any) (any, error) {
	if d.cleared {
		return nil, nil
	}
	recv := d.shared.Get()
	if recv == nil {
		return nil, nil // reset to null: fail silently per spec.md §4.1
	}
	m := reflect.ValueOf(recv).MethodByName(d.method)
	if !m.IsValid() {
		return nil, nil
	}
	return call(m, args)
}

func (d *memberSharedDelegate) Clone() Delegate {
	return &memberSharedDelegate{shared: d.shared, method: d.method, cleared: d.cleared}
}

func (d *memberSharedDelegate) IsEmpty() bool { return d.cleared || d.shared.Get() == nil }
func (d *memberSharedDelegate) Clear()        { d.cleared = true }

func (d *memberSharedDelegate) Equal(other Delegate) bool {
	o, ok := other.(*memberSharedDelegate)
	return ok && o.shared == d.shared && o.method == d.method && o.cleared == d.cleared
}
