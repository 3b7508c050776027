// Package xos provides low-level, dependency-light helpers: a bounded
// multi-error aggregate, a close-once stop channel, and session ID
// generation. No other package of this module imports it.
//
// Ported and trimmed from the teacher's cmn/cos (err.go, uuid.go): the
// bucket/daemon-ID specific helpers are dropped, the general-purpose ones
// kept.
package xos

import (
	"errors"
	"fmt"
	"sync"
	ratomic "sync/atomic"

	"github.com/relaykit/delegates/internal/xdebug"
)

// Errs aggregates up to maxErrs distinct errors, deduplicating by message;
// errors added past that bound are dropped, so it never grows without
// limit.
type Errs struct {
	mu   sync.Mutex
	errs []error
	cnt  int64
}

const maxErrs = 4

func (e *Errs) Add(err error) {
	xdebug.Assert(err != nil)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...)
		e.mu.Unlock()
	}
	return
}

func (e *Errs) Error() string {
	cnt := e.Cnt()
	if cnt == 0 {
		return ""
	}
	e.mu.Lock()
	first := e.errs[0]
	e.mu.Unlock()
	if cnt > 1 {
		return fmt.Sprintf("%v (and %d more error%s)", first, cnt-1, plural(cnt-1))
	}
	return first.Error()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
