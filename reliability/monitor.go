// Package reliability layers delivery guarantees on top of the bare
// remote invocation protocol: Monitor tracks outstanding (unacked)
// calls and reports timeouts through an observable SendStatus signal;
// Retry decorates a remote.Transport so a timed-out send is resent,
// under its original sequence number, up to a bounded number of
// attempts with jittered backoff.
//
// The outstanding-calls-indexed-by-key, periodically-swept design
// mirrors the teacher's stream bundle (transport/bundle/stream_bundle.go):
// a map guarded by its own lock, snapshotted under that lock and acted
// on after release — never holding the map lock across a call into
// another component.
package reliability

import (
	"sync"
	"time"

	"github.com/relaykit/delegates/container"
	"github.com/relaykit/delegates/internal/mono"
	"github.com/relaykit/delegates/telemetry"
)

// SendState is the terminal or transitional state of a tracked send,
// broadcast on Monitor.Events (spec.md §4.6).
type SendState int

const (
	// SendAcked means an ack (or error reply) arrived before deadline.
	SendAcked SendState = iota
	// SendTimedOut means no reply arrived before deadline; the seq has
	// been dropped from the outstanding set, and it is up to a Retry (or
	// other subscriber) to decide whether to resend it.
	SendTimedOut
)

// SendStatus is one event broadcast on Monitor.Events: seq reached
// State, having been outstanding for Elapsed.
type SendStatus struct {
	Seq     uint16
	State   SendState
	Elapsed time.Duration
}

// outstanding is one call the Monitor is waiting on an ack for. sentAt
// is a monotonic timestamp (internal/mono) and deadline a duration, both
// in nanoseconds, so a wall-clock adjustment mid-flight can never make a
// call look timed out (or not) prematurely.
type outstanding struct {
	seq       uint16
	sentAt    int64
	deadline  int64
	onTimeout func(seq uint16)
}

// Monitor tracks in-flight remote sends and reports, via Events, the
// ones that ack and the ones that blow past their deadline without an
// ack. It does not itself resend anything — that's Retry's job, wired
// in through Track's onTimeout callback.
type Monitor struct {
	mu      sync.Mutex
	pending map[uint16]*outstanding
	tracker telemetry.Tracker

	// Events broadcasts a SendStatus for every Ack and every timeout
	// Process observes. Never nil; built by NewMonitor.
	Events *container.Signal
}

// NewMonitor returns a Monitor reporting through tracker (nil is fine;
// a nil tracker just means no metrics are recorded).
func NewMonitor(tracker telemetry.Tracker) *Monitor {
	return &Monitor{
		pending: make(map[uint16]*outstanding),
		tracker: tracker,
		Events:  container.NewSignal(),
	}
}

// Track registers seq as outstanding as of now, to be considered timed
// out after deadline if Ack hasn't been called for it by then.
func (m *Monitor) Track(seq uint16, deadline time.Duration, onTimeout func(seq uint16)) {
	m.mu.Lock()
	m.pending[seq] = &outstanding{seq: seq, sentAt: mono.NanoTime(), deadline: deadline.Nanoseconds(), onTimeout: onTimeout}
	m.mu.Unlock()
	if m.tracker != nil {
		m.tracker.Inc(telemetry.MetricAcksOutstanding)
	}
}

// Ack marks seq as acknowledged, removing it from the outstanding set
// and broadcasting a SendAcked status. A seq Ack doesn't recognize
// (already timed out and removed, or never tracked) is a no-op — acking
// twice, or acking late, must never panic and must never broadcast.
func (m *Monitor) Ack(seq uint16) {
	m.mu.Lock()
	o, ok := m.pending[seq]
	delete(m.pending, seq)
	m.mu.Unlock()
	if !ok {
		return
	}
	if m.tracker != nil {
		m.tracker.Add(telemetry.MetricAcksOutstanding, -1)
	}
	m.Events.Broadcast(SendStatus{
		Seq:     seq,
		State:   SendAcked,
		Elapsed: time.Duration(mono.NanoTime() - o.sentAt),
	})
}

// Process sweeps the outstanding set for entries past their deadline,
// broadcasts a SendTimedOut status for each, and fires their onTimeout
// callback. Intended to be driven by package hk's periodic ticker, not
// called inline from the hot path.
func (m *Monitor) Process() {
	nowT := mono.NanoTime()
	var fired []*outstanding

	m.mu.Lock()
	for seq, o := range m.pending {
		if nowT-o.sentAt >= o.deadline {
			fired = append(fired, o)
			delete(m.pending, seq)
		}
	}
	m.mu.Unlock()

	for _, o := range fired {
		if m.tracker != nil {
			m.tracker.Add(telemetry.MetricAcksOutstanding, -1)
		}
		m.Events.Broadcast(SendStatus{
			Seq:     o.seq,
			State:   SendTimedOut,
			Elapsed: time.Duration(nowT - o.sentAt),
		})
		if o.onTimeout != nil {
			o.onTimeout(o.seq)
		}
	}
}

// Outstanding returns the current count of unacked calls.
func (m *Monitor) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
