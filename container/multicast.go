package container

import (
	"sync"

	"github.com/relaykit/delegates/delegate"
)

// Multicast fans a call out to every subscribed delegate in insertion
// order; return values are discarded (spec.md §4.2). Its lock is a plain
// (non-re-entrant) sync.Mutex that is never held while a subscriber
// runs: Broadcast snapshots the dispatch list under the lock and
// iterates the snapshot after releasing it, so a subscriber invoked
// during Broadcast may itself call PushBack/Remove without deadlocking,
// and a concurrent Remove mid-broadcast can't invalidate the in-flight
// iteration (a removed delegate simply won't appear in a broadcast that
// started after the removal returned).
type Multicast struct {
	mu   sync.Mutex
	list []delegate.Delegate
}

func (m *Multicast) PushBack(d delegate.Delegate) {
	m.mu.Lock()
	m.list = append(m.list, d)
	m.mu.Unlock()
}

// Remove deletes the first delegate equal to d, if any. No-op if absent.
func (m *Multicast) Remove(d delegate.Delegate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.list {
		if cur.Equal(d) {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return
		}
	}
}

func (m *Multicast) Clear() {
	m.mu.Lock()
	m.list = nil
	m.mu.Unlock()
}

func (m *Multicast) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.list)
}

// snapshot returns a copy of the current dispatch list, taken under lock,
// so Broadcast can iterate without holding the lock across target calls
// (a target is allowed to re-enter the holder — see the package comment).
func (m *Multicast) snapshot() []delegate.Delegate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]delegate.Delegate, len(m.list))
	copy(out, m.list)
	return out
}

// Broadcast invokes every currently-subscribed delegate, in insertion
// order, discarding return values.
func (m *Multicast) Broadcast(args ...any) {
	for _, d := range m.snapshot() {
		d.Invoke(args...)
	}
}
