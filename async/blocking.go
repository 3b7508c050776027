package async

import (
	"errors"
	"sync"
	"time"

	"github.com/relaykit/delegates/delegate"
)

// Forever is the BlockingDelegate deadline meaning "wait with no
// timeout." A zero Deadline would be ambiguous with "don't wait at all,"
// so spec.md §4.4 calls for a distinguished sentinel; Forever is that
// sentinel for this Go rendition.
const Forever time.Duration = -1

// ErrBlockingTimeout is returned by BlockingDelegate.Invoke when the
// worker hasn't produced a result before the deadline elapses.
var ErrBlockingTimeout = errors.New("async: blocking invocation timed out waiting on worker")

// resultSlot is a single-use, goroutine-safe completion signal: the
// worker-side Invoker writes exactly once, the caller reads exactly
// once. sync.Once models the "single producer, first writer wins"
// half; the done channel is what the waiting caller selects on.
type resultSlot struct {
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

func newResultSlot() *resultSlot {
	return &resultSlot{done: make(chan struct{})}
}

func (r *resultSlot) complete(val any, err error) {
	r.once.Do(func() {
		r.val, r.err = val, err
		close(r.done)
	})
}

// BlockingDelegate is an async.Delegate whose caller waits for the
// worker to actually run the target, up to Deadline (or Forever). It
// implements spec.md §4.4: the clone-and-enqueue discipline of the plain
// async delegate, plus a rendezvous back to the calling goroutine.
type BlockingDelegate struct {
	Delegate
	Deadline time.Duration
}

// BindBlocking wraps target for async dispatch with the caller blocked
// until the worker completes it or the deadline elapses.
func BindBlocking(target delegate.Delegate, worker WorkerContext, priority Priority, deadline time.Duration) *BlockingDelegate {
	return &BlockingDelegate{
		Delegate: Delegate{target: target, Worker: worker, Priority: priority},
		Deadline: deadline,
	}
}

// Invoke dispatches to the worker and blocks for the target's real
// result. An unreachable worker (nil Worker, or empty target) returns
// (nil, nil) immediately, matching the non-blocking Delegate's contract
// for the same condition.
func (d *BlockingDelegate) Invoke(args ...any) (any, error) {
	if d.target == nil || d.target.IsEmpty() {
		return nil, nil
	}
	if d.Worker == nil {
		return nil, nil
	}

	slot := newResultSlot()
	msg, err := newMessage(d.target, args, d.Priority, slot)
	if err != nil {
		return nil, err
	}
	msg.invoker = &blockingInvoker{slot: slot}
	if err := d.Worker.Dispatch(msg); err != nil {
		return nil, err
	}

	if d.Deadline == Forever {
		<-slot.done
		return slot.val, slot.err
	}
	timer := time.NewTimer(d.Deadline)
	defer timer.Stop()
	select {
	case <-slot.done:
		return slot.val, slot.err
	case <-timer.C:
		return nil, ErrBlockingTimeout
	}
}

// blockingInvoker runs the target synchronously on the worker and posts
// the outcome back through the shared resultSlot exactly once.
type blockingInvoker struct {
	slot *resultSlot
}

func (b *blockingInvoker) Invoke(msg *Message) bool {
	val, err := msg.delegate.Invoke(msg.ownedArgs()...)
	b.slot.complete(val, err)
	return true
}
