package remote

import (
	"fmt"
	"sync"

	"github.com/relaykit/delegates/delegate"
)

// ArgShape records how an argument was originally bound, so a receiver
// can hand the unmarshaled value back to the target delegate in the
// same shape it was declared with (spec.md §4.5): a plain value, a
// pointer to a value, or a pointer to a pointer — an out-param slot the
// target itself may reassign.
type ArgShape int

const (
	ArgValue ArgShape = iota
	ArgPointer
	ArgPointerToPointer
)

// registration is one locally-addressable target a Receiver can invoke
// on behalf of an inbound frame. busy is the "temporarily-set sync
// flag" of spec.md §4.5: a second invoke frame for the same id arriving
// while one is still running is rejected rather than queued or run
// re-entrantly.
type registration struct {
	mu        sync.Mutex
	busy      bool
	target    delegate.Delegate
	argShapes []ArgShape
}

// Receiver is the far side of a remote.Delegate: it owns the set of
// locally-registered targets reachable by remote id, and drives the
// §4.5 "receiver side" contract for each inbound invoke frame: build
// default-valued argument slots preserving shape, deserialize into
// them, invoke the target, and discard its return value. The only
// feedback the original caller gets is the ack (or error) frame
// Dispatcher sends once Handle returns.
type Receiver struct {
	serializer Serializer

	mu   sync.Mutex
	byID map[uint16]*registration
}

// NewReceiver returns a Receiver decoding inbound payloads with serializer.
func NewReceiver(serializer Serializer) *Receiver {
	return &Receiver{serializer: serializer, byID: make(map[uint16]*registration)}
}

// Register binds target to id, addressable by invoke frames naming id.
// argShapes, one entry per expected argument, drives default-slot
// construction in Handle; a nil or short argShapes treats every
// argument as ArgValue. id must not be one of the reserved reply ids
// (AckID, InvalidID).
func (r *Receiver) Register(id uint16, target delegate.Delegate, argShapes []ArgShape) error {
	if id == AckID || id == InvalidID {
		return fmt.Errorf("remote: id %d is reserved, cannot be registered", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = &registration{target: target, argShapes: argShapes}
	return nil
}

// Unregister removes id, if present. A frame arriving for an
// unregistered id becomes an InvalidID error reply.
func (r *Receiver) Unregister(id uint16) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

func (r *Receiver) lookup(id uint16) *registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// Handle runs the receiver-side contract for one inbound invoke frame
// addressed to id, carrying the still-serialized payload. A non-nil
// return becomes an InvalidID reply frame; nil becomes a zero-payload
// AckID frame. The target delegate's own return value, if any, never
// leaves this call — only failures (unknown id, busy receiver,
// deserialization failure, the target's own error) are reported back,
// as the error's text in the InvalidID reply's payload.
func (r *Receiver) Handle(id uint16, payload []byte) error {
	reg := r.lookup(id)
	if reg == nil {
		return fmt.Errorf("remote: no receiver registered for id %d", id)
	}

	reg.mu.Lock()
	if reg.busy {
		reg.mu.Unlock()
		return fmt.Errorf("remote: receiver %d is already handling a call", id)
	}
	reg.busy = true
	reg.mu.Unlock()
	defer func() {
		reg.mu.Lock()
		reg.busy = false
		reg.mu.Unlock()
	}()

	slots := defaultSlots(reg.argShapes)
	args, err := r.serializer.Unmarshal(payload, slots)
	if err != nil {
		return fmt.Errorf("remote: unmarshal args for id %d: %w", id, err)
	}

	_, err = reg.target.Invoke(args...)
	return err
}

// defaultSlots builds one default-valued slot per declared shape for
// the serializer to decode into: ArgValue gets a nil slot (the
// serializer decodes to whatever concrete type the wire data implies),
// ArgPointer gets a *any pointing at a zero value, and
// ArgPointerToPointer gets a **any pointing at one. ApplyArgShape uses
// these same slot shapes to re-wrap a decoded value before it's handed
// to the target delegate.
func defaultSlots(shapes []ArgShape) []any {
	if len(shapes) == 0 {
		return nil
	}
	slots := make([]any, len(shapes))
	for i, shape := range shapes {
		switch shape {
		case ArgPointer:
			var v any
			slots[i] = &v
		case ArgPointerToPointer:
			var v any
			p := &v
			slots[i] = &p
		default:
			slots[i] = nil
		}
	}
	return slots
}

// ApplyArgShape re-wraps a decoded value v to match slot's declared
// shape: a nil or non-pointer slot passes v through unchanged, a *any
// slot wraps v behind one pointer, and a **any slot wraps it behind
// two. Serializer adapters implementing Unmarshal's argTypes contract
// call this once per decoded argument.
func ApplyArgShape(v any, slot any) any {
	switch s := slot.(type) {
	case *any:
		*s = v
		return s
	case **any:
		inner := *s
		*inner = v
		return s
	default:
		return v
	}
}
