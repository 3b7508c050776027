// Package async implements the asynchronous invocation protocol from
// spec.md §4.3/§4.4: a Delegate is bound to a named WorkerContext; Invoke
// clones the delegate, deep-copies its arguments into an owned Message,
// and hands the Message to the worker's dispatch queue instead of calling
// the target in the caller's own context.
//
// The worker-side dequeue/dispatch loop and its priority ordering are
// grounded on the teacher's transport.collector (transport/collect.go): a
// ticker/channel-driven loop that pops work ordered by a container/heap
// priority, exactly the shape spec.md §4.3's "FIFO within a priority,
// priorities served highest first" calls for.
package async

import (
	"errors"

	"github.com/relaykit/delegates/delegate"
	"github.com/relaykit/delegates/internal/xdebug"
)

// Priority is an ordinal with total order; higher values are served
// first. PriorityNormal is the spec-mandated default ("middle value").
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// ErrForbiddenArgShape is returned (wrapped) by Delegate.Invoke and
// BlockingDelegate.Invoke when an argument can't be safely deep-copied
// across the worker boundary: a channel, a func, or an unsafe.Pointer,
// at any depth of the argument. Bind itself performs no check.
var ErrForbiddenArgShape = errors.New("async: forbidden argument shape (channel, func, or unsafe.Pointer)")

// Invoker is called by a WorkerContext with the Message it dequeued.
// Implementations downcast the message to their own concrete argument
// type; a false return means the downcast failed and the worker should
// drop the message (spec.md §4.3).
type Invoker interface {
	Invoke(msg *Message) bool
}

// WorkerContext is the single external collaborator this package
// consumes (spec.md §6): something that can enqueue a Message for later,
// FIFO-within-priority, invocation on its own execution context.
type WorkerContext interface {
	Dispatch(msg *Message) error
}

// Delegate is a Delegate bound to a specific worker and priority. Invoke
// never blocks beyond cloning and enqueueing; its return value is always
// (nil, nil) — the fire-and-forget contract of spec.md §4.3. Use
// BlockingDelegate (blocking.go) when the caller needs the true result.
type Delegate struct {
	target   delegate.Delegate
	Worker   WorkerContext
	Priority Priority
}

// Bind wraps target for async dispatch to worker at the given priority.
func Bind(target delegate.Delegate, worker WorkerContext, priority Priority) *Delegate {
	return &Delegate{target: target, Worker: worker, Priority: priority}
}

// Invoke clones the delegate, deep-copies args, and dispatches to the
// bound worker. Worker-unavailable (nil Worker) is silently dropped, per
// spec.md §4.10 ("fire-and-forget async ... silently dropped").
func (d *Delegate) Invoke(args ...any) (any, error) {
	if d.target == nil || d.target.IsEmpty() {
		return nil, nil
	}
	if d.Worker == nil {
		return nil, nil
	}
	msg, err := newMessage(d.target, args, d.Priority, nil)
	if err != nil {
		return nil, err
	}
	msg.invoker = &syncInvoker{}
	if err := d.Worker.Dispatch(msg); err != nil {
		return nil, err
	}
	return nil, nil
}

// syncInvoker performs the plain, non-blocking synchronous call of the
// underlying target once a Message reaches its worker (spec.md §4.3:
// "unpack the owned arguments and perform a synchronous invocation").
type syncInvoker struct{}

func (*syncInvoker) Invoke(msg *Message) bool {
	xdebug.Assert(msg != nil)
	args := msg.ownedArgs()
	_, _ = msg.delegate.Invoke(args...)
	return true
}
