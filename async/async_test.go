package async

import (
	"sync"
	"testing"
	"time"

	"github.com/relaykit/delegates/delegate"
)

// inlineWorker runs dispatched messages synchronously in Dispatch
// itself; good enough to exercise Delegate/BlockingDelegate without the
// scheduling nondeterminism of Pool.
type inlineWorker struct{}

func (inlineWorker) Dispatch(msg *Message) error {
	msg.Invoker().Invoke(msg)
	return nil
}

func TestDelegateInvokeIsFireAndForget(t *testing.T) {
	var mu sync.Mutex
	got := 0
	target := delegate.Free(func(x int) { mu.Lock(); got = x; mu.Unlock() })
	d := Bind(target, inlineWorker{}, PriorityNormal)

	out, err := d.Invoke(42)
	if out != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", out, err)
	}
	mu.Lock()
	defer mu.Unlock()
	if got != 42 {
		t.Fatalf("expected target invoked with 42, got %d", got)
	}
}

func TestDelegateNilWorkerIsSilentNoOp(t *testing.T) {
	target := delegate.Free(func() {})
	d := Bind(target, nil, PriorityNormal)
	out, err := d.Invoke()
	if out != nil || err != nil {
		t.Fatalf("expected (nil, nil) with no worker, got (%v, %v)", out, err)
	}
}

func TestDeepCopyRejectsChannelArg(t *testing.T) {
	target := delegate.Free(func(ch chan int) {})
	d := Bind(target, inlineWorker{}, PriorityNormal)
	_, err := d.Invoke(make(chan int))
	if err == nil {
		t.Fatal("expected forbidden-arg-shape error for a channel argument")
	}
}

func TestBlockingDelegateReturnsRealResult(t *testing.T) {
	square := delegate.Free(func(x int) int { return x * x })
	bd := BindBlocking(square, inlineWorker{}, PriorityNormal, Forever)
	out, err := bd.Invoke(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 25 {
		t.Fatalf("expected 25, got %v", out)
	}
}

// slowWorker never invokes anything, so the blocking delegate must
// observe its deadline rather than hang forever.
type slowWorker struct{}

func (slowWorker) Dispatch(msg *Message) error { return nil }

func TestBlockingDelegateTimesOut(t *testing.T) {
	target := delegate.Free(func() {})
	bd := BindBlocking(target, slowWorker{}, PriorityNormal, 10*time.Millisecond)
	_, err := bd.Invoke()
	if err != ErrBlockingTimeout {
		t.Fatalf("expected ErrBlockingTimeout, got %v", err)
	}
}

func TestPoolRunsHighestPriorityFirst(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	var mu sync.Mutex
	var order []string
	record := func(tag string) delegate.Delegate {
		return delegate.Opaque(func(...any) (any, error) {
			mu.Lock()
			order = append(order, tag)
			mu.Unlock()
			return nil, nil
		})
	}

	// Block the single worker first so low/high priority messages queue
	// up together before either is dequeued.
	gate := make(chan struct{})
	blocker := delegate.Opaque(func(...any) (any, error) { <-gate; return nil, nil })
	Bind(blocker, p, PriorityNormal).Invoke()
	time.Sleep(20 * time.Millisecond) // let the blocker actually start

	Bind(record("low"), p, PriorityLow).Invoke()
	Bind(record("high"), p, PriorityHigh).Invoke()
	close(gate)

	// Give the worker time to drain both queued messages in order.
	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for queued messages to run")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if order[0] != "high" || order[1] != "low" {
		t.Fatalf("expected [high low], got %v", order)
	}
}
