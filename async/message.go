package async

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/relaykit/delegates/delegate"
)

// Message is an owned, deep-copied unit of work queued to a
// WorkerContext. Everything it points at is private to the message: the
// caller's originals may be mutated or go out of scope the instant
// Invoke returns, per spec.md §4.3's "the caller's copy may be destroyed
// before the worker runs."
type Message struct {
	delegate delegate.Delegate
	args     []any
	Priority Priority

	invoker Invoker
	result  *resultSlot // set only for the blocking variant (blocking.go)

	// seq disambiguates Messages for ordering/debug purposes only; it has
	// no relation to the remote-invocation sequence numbers of package
	// remote.
	seq uint64
}

var msgSeq uint64

// nextMsgSeq is called from every goroutine that may construct a
// Message concurrently (spec.md §5's free-threading requirement), so
// the counter is advanced atomically rather than with a bare msgSeq++.
func nextMsgSeq() uint64 {
	return atomic.AddUint64(&msgSeq, 1)
}

// newMessage clones target and deep-copies args into an owned Message.
// It rejects argument shapes that can't be safely owned across the
// worker boundary (spec.md §4.3): raw, untyped pointers (chan/func/
// unsafe.Pointer-like escape hatches aren't deep-copyable) are forbidden.
func newMessage(target delegate.Delegate, args []any, prio Priority, result *resultSlot) (*Message, error) {
	owned := make([]any, len(args))
	for i, a := range args {
		cp, err := deepCopyArg(a)
		if err != nil {
			return nil, fmt.Errorf("async: argument %d: %w", i, err)
		}
		owned[i] = cp
	}
	return &Message{
		delegate: target.Clone(),
		args:     owned,
		Priority: prio,
		result:   result,
		seq:      nextMsgSeq(),
	}, nil
}

// ownedArgs returns the message's private argument slice for the
// Invoker; callers must not hand this slice back to another Message.
func (m *Message) ownedArgs() []any { return m.args }

// Seq returns the message's internal sequencing number, exposed so a
// WorkerContext implementation can keep FIFO order as a heap tie-break.
func (m *Message) Seq() uint64 { return m.seq }

// Invoker returns the Invoker this message should be handed to once
// dequeued by its WorkerContext.
func (m *Message) Invoker() Invoker { return m.invoker }

// deepCopyArg produces an owned copy of a single argument. Values,
// structs, slices, and maps of value types are copied by reflect-driven
// recursion; pointers to a value type are copied by allocating a fresh
// target and copying through it (spec.md's "pointer to value" owned
// shape). Channels, funcs, and unsafe.Pointer are rejected outright:
// none of them can be meaningfully deep-copied, and funcs in particular
// may themselves be delegate-style closures capturing call-site state
// that it would be unsafe for the worker to run outside that context.
func deepCopyArg(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	cp, err := deepCopyValue(rv)
	if err != nil {
		return nil, err
	}
	return cp.Interface(), nil
}

func deepCopyValue(rv reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return reflect.Value{}, ErrForbiddenArgShape
	case reflect.Ptr:
		if rv.IsNil() {
			return rv, nil
		}
		elemCp, err := deepCopyValue(rv.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(elemCp)
		return out, nil
	case reflect.Slice:
		if rv.IsNil() {
			return rv, nil
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elemCp, err := deepCopyValue(rv.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elemCp)
		}
		return out, nil
	case reflect.Map:
		if rv.IsNil() {
			return rv, nil
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			kCp, err := deepCopyValue(iter.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			vCp, err := deepCopyValue(iter.Value())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(kCp, vCp)
		}
		return out, nil
	case reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue // unexported field: left zero-valued, not copyable via reflect
			}
			fCp, err := deepCopyValue(rv.Field(i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Field(i).Set(fCp)
		}
		return out, nil
	default:
		return rv, nil
	}
}
