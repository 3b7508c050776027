package container

import (
	"errors"
	"sync"

	"github.com/relaykit/delegates/delegate"
)

// ErrSignalNotShared is returned by Connect when a Signal was not
// constructed via NewSignal, i.e. it has no weak-self capability to hand
// to subscription handles (spec.md §4.2 precondition).
var ErrSignalNotShared = errors.New("container: signal must be constructed via NewSignal to support Connect")

// Signal is a thread-safe Multicast that issues RAII Subscription handles
// from Connect. The teacher's own enable_shared_from_this analogue doesn't
// exist in aistore; the construction precondition in spec.md §9 ("signal
// instance must be reachable via a shared-owning handle") is modeled here
// by requiring Signals to be built with NewSignal, which is the only
// place a *Signal's self-reference is captured into the weak cell every
// Subscription holds.
type Signal struct {
	Multicast
	self *weakCell
}

type weakCell struct {
	mu    sync.Mutex
	alive bool
	sig   *Signal
}

// NewSignal constructs a Signal usable with Connect. A stack-allocated
// `Signal{}` zero value is also safe to use as a plain Multicast, but its
// Connect always fails with ErrSignalNotShared — matching spec.md §9's
// guidance that un-shared signals should be rejected rather than produce
// a handle that can dangle.
func NewSignal() *Signal {
	s := &Signal{}
	s.self = &weakCell{alive: true, sig: s}
	return s
}

// Close marks the signal destroyed: outstanding Subscriptions' Disconnect
// becomes a safe no-op from this point on (spec.md §3, Subscription
// handle / weak-self capability).
func (s *Signal) Close() {
	if s.self == nil {
		return
	}
	s.self.mu.Lock()
	s.self.alive = false
	s.self.mu.Unlock()
}

// Connect subscribes d and returns a handle that disconnects it exactly
// once. Fails with ErrSignalNotShared if s was not built via NewSignal.
func (s *Signal) Connect(d delegate.Delegate) (*Subscription, error) {
	if s.self == nil {
		return nil, ErrSignalNotShared
	}
	s.PushBack(d)
	return &Subscription{weak: s.self, target: d}, nil
}

// Subscription is the RAII handle returned by Signal.Connect. Disconnect
// is idempotent; once the underlying Signal is Close()-d, Disconnect is a
// no-op rather than touching freed state.
type Subscription struct {
	weak       *weakCell
	target     delegate.Delegate
	disconnect sync.Once
}

// Disconnect removes the subscribed delegate from its signal. Safe to
// call more than once and safe to call after the signal has been closed.
func (s *Subscription) Disconnect() {
	s.disconnect.Do(func() {
		s.weak.mu.Lock()
		alive, sig := s.weak.alive, s.weak.sig
		s.weak.mu.Unlock()
		if !alive {
			return
		}
		sig.Remove(s.target)
	})
}

// Scoped returns s's Disconnect as a closure, so that
// `defer sub.Scoped()()` disconnects on every exit path, including a
// panicking one — the scoped wrapper called out in spec.md §4.2/§8.
func (s *Subscription) Scoped() func() { return s.Disconnect }
