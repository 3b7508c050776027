package async

import (
	"container/heap"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/relaykit/delegates/internal/nlog"
)

// Pool is a reference WorkerContext: a fixed set of goroutines draining
// one priority-ordered queue. Highest Priority first, FIFO (by Message
// Seq) within a priority — the ordering gc's stream collector keeps for
// its idle-timeout heap, applied here to dispatch ordering instead.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	q       msgHeap
	group   *errgroup.Group
	closing bool
}

// NewPool starts workers goroutines draining the pool's queue. Call
// Close to drain in-flight work and stop every worker.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	g, ctx := errgroup.WithContext(context.Background())
	p.group = g
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p.runWorker(ctx)
			return nil
		})
	}
	return p
}

// Dispatch implements WorkerContext: it pushes msg onto the pool's
// priority heap and wakes one idle worker.
func (p *Pool) Dispatch(msg *Message) error {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return errPoolClosed
	}
	heap.Push(&p.q, msg)
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Close stops accepting new work, lets queued work drain, then waits for
// every worker goroutine to exit. Adapted from the teacher's refcounted
// quiescence callback (xact's idle-drain pattern): rather than tracking
// a live refcount, the pool sets its closing flag and wakes every
// worker; each one keeps draining and exits once it finds the queue
// empty.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
	p.cond.Broadcast()
	_ = p.group.Wait()
}

func (p *Pool) runWorker(ctx context.Context) {
	for {
		msg := p.dequeue()
		if msg == nil {
			return
		}
		if msg.Invoker() == nil {
			nlog.Warningln("async: dequeued message with no invoker, dropping")
			continue
		}
		if !msg.Invoker().Invoke(msg) {
			nlog.Warningf("async: invoker rejected message seq=%d", msg.Seq())
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// dequeue blocks until work is available or the pool is closing with an
// empty queue, in which case it returns nil to signal the worker to
// exit.
func (p *Pool) dequeue() *Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.q.Len() == 0 {
		if p.closing {
			return nil
		}
		p.cond.Wait()
	}
	return heap.Pop(&p.q).(*Message)
}

var errPoolClosed = poolClosedErr{}

type poolClosedErr struct{}

func (poolClosedErr) Error() string { return "async: pool is closed" }

// msgHeap is a container/heap.Interface ordering by Priority descending,
// then Seq ascending (FIFO within a priority) — same Len/Less/Swap/
// Push/Pop shape as the teacher's collector heap over *streamBase.
type msgHeap []*Message

func (h msgHeap) Len() int { return len(h) }

func (h msgHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h msgHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *msgHeap) Push(x any) {
	*h = append(*h, x.(*Message))
}

func (h *msgHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return m
}
