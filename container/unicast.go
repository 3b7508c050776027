// Package container holds the delegate containers from spec.md §3/§4.2:
// a single-slot Unicast holder, an ordered-fan-out Multicast holder, and
// a Signal that layers RAII subscription handles on top of Multicast.
//
// Grounded on the teacher's transport/bundle.Streams: a single mutable
// "current set of destinations" guarded by a lock, swapped out wholesale
// on update (see Streams.Resync / Streams.streams, an atomic.Pointer[bundle]
// a reader snapshots before iterating) — the same discipline Multicast's
// broadcast-snapshot requirement in spec.md §4.2 calls for.
package container

import (
	"sync"

	"github.com/relaykit/delegates/delegate"
)

// Unicast holds at most one Delegate. Assignment replaces the contents;
// Invoke on an empty holder is a no-op returning (nil, nil).
type Unicast struct {
	mu sync.Mutex
	d  delegate.Delegate
}

func (u *Unicast) Set(d delegate.Delegate) {
	u.mu.Lock()
	u.d = d
	u.mu.Unlock()
}

func (u *Unicast) Get() delegate.Delegate {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.d
}

func (u *Unicast) IsEmpty() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.d == nil || u.d.IsEmpty()
}

// Invoke calls the held delegate, or is a no-op returning (nil, nil) if
// the holder is empty. This resolves the source's open question in
// spec.md §9 about the thread-safe unicast holder's ambiguous empty-path
// return: here it is always (nil, nil), the same default the Delegate
// contract uses for an empty target.
func (u *Unicast) Invoke(args ...any) (any, error) {
	u.mu.Lock()
	d := u.d
	u.mu.Unlock()
	if d == nil || d.IsEmpty() {
		return nil, nil
	}
	return d.Invoke(args...)
}
