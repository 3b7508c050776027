// Package dedup offers an optional receiver-side guard against running
// a remote invocation twice when a retried call's ack raced its
// original (spec.md §4.7/§7 keep this explicitly out of package remote
// and package reliability themselves — at-least-once delivery is the
// guaranteed contract, exactly-once is an opt-in add-on a receiver can
// layer on top).
//
// Backed by github.com/seiflotfy/cuckoofilter: a probabilistic
// membership filter sized for "have I already handled this sequence
// number," not a full historical log — false positives are acceptable
// (a few distinct calls might get suppressed as if they were dupes),
// false negatives are not, which is exactly the cuckoo filter's
// guarantee.
package dedup

import (
	"fmt"
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// Filter tracks recently-seen (peer, seq) pairs. It is safe for
// concurrent use.
type Filter struct {
	mu sync.Mutex
	cf *cuckoo.Filter
}

// New returns a Filter sized to comfortably hold capacity entries
// before its false-positive rate climbs.
func New(capacity uint) *Filter {
	return &Filter{cf: cuckoo.NewFilter(capacity)}
}

// Seen reports whether key has already been recorded, and records it if
// not — an atomic check-then-insert under the Filter's own lock.
func (f *Filter) Seen(peer string, seq uint16) bool {
	key := []byte(fmt.Sprintf("%s:%d", peer, seq))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cf.Lookup(key) {
		return true
	}
	f.cf.InsertUnique(key)
	return false
}

// Forget removes a (peer, seq) pair, e.g. once its delivery window has
// definitely closed and the sequence number is safe to reuse.
func (f *Filter) Forget(peer string, seq uint16) {
	key := []byte(fmt.Sprintf("%s:%d", peer, seq))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cf.Delete(key)
}
