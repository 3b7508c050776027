package reliability

import (
	"context"
	"sync"
	"time"

	"github.com/relaykit/delegates/internal/rng"
	"github.com/relaykit/delegates/remote"
)

// retryEntry is one outbound invoke frame Retry may need to resend: its
// original header and payload bytes, and how many resend attempts are
// still budgeted to it.
type retryEntry struct {
	header    remote.Header
	payload   []byte
	remaining int
}

// Retry decorates a remote.Transport, resending an invoke frame under
// its original sequence number when Monitor reports it timed out,
// until MaxAttempts total sends have gone out for it (spec.md
// §4.7/§4.9). It wraps any Transport — Dispatcher is constructed with
// a Retry in place of the raw transport, transparently to Dispatcher,
// which still does its own ack correlation by sequence number. Retry
// never touches a reply frame's content, only acks Monitor for it and
// forgets the retry bookkeeping before handing it upward unchanged.
type Retry struct {
	Underlying  remote.Transport
	Monitor     *Monitor
	MaxAttempts int
	AckTimeout  time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	mu       sync.Mutex
	entries  map[uint16]*retryEntry
	rngState *rng.State
}

var _ remote.Transport = (*Retry)(nil)

// NewRetry wraps underlying with maxAttempts total sends (including the
// first) per invoke frame, tracked by monitor with ackTimeout per
// attempt, and exponential backoff between resends starting at
// baseBackoff and capped at maxBackoff.
func NewRetry(underlying remote.Transport, monitor *Monitor, maxAttempts int, ackTimeout, baseBackoff, maxBackoff time.Duration) *Retry {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retry{
		Underlying:  underlying,
		Monitor:     monitor,
		MaxAttempts: maxAttempts,
		AckTimeout:  ackTimeout,
		BaseBackoff: baseBackoff,
		MaxBackoff:  maxBackoff,
		entries:     make(map[uint16]*retryEntry),
		rngState:    rng.New(uint64(time.Now().UnixNano())),
	}
}

// Send forwards frame to Underlying unchanged. An invoke frame (any ID
// other than the reserved reply ids) is additionally remembered and
// tracked with Monitor, so a timeout with no matching ack triggers a
// resend under the same sequence number; a reply frame (Dispatcher
// answering an inbound invoke) passes straight through untracked.
func (r *Retry) Send(ctx context.Context, frame []byte) error {
	hdr, payload, ok := splitFrame(frame)
	if !ok || hdr.IsReply() {
		return r.Underlying.Send(ctx, frame)
	}

	r.mu.Lock()
	if _, tracked := r.entries[hdr.Seq]; !tracked {
		// frame may be a pooled buffer its sender reuses once Send
		// returns, so the entry keeps its own copy of the payload.
		owned := append([]byte(nil), payload...)
		r.entries[hdr.Seq] = &retryEntry{header: hdr, payload: owned, remaining: r.MaxAttempts - 1}
	}
	r.mu.Unlock()

	if err := r.Underlying.Send(ctx, frame); err != nil {
		return err
	}
	r.Monitor.Track(hdr.Seq, r.AckTimeout, r.onTimeout)
	return nil
}

// Recv forwards to Underlying. A reply frame acks Monitor and forgets
// the retry entry for its sequence number before the frame is handed
// upward unchanged — correlating the reply to its waiting caller
// remains Dispatcher's job.
func (r *Retry) Recv(ctx context.Context) ([]byte, error) {
	frame, err := r.Underlying.Recv(ctx)
	if err != nil {
		return frame, err
	}
	if hdr, _, ok := splitFrame(frame); ok && hdr.IsReply() {
		r.Monitor.Ack(hdr.Seq)
		r.mu.Lock()
		delete(r.entries, hdr.Seq)
		r.mu.Unlock()
	}
	return frame, nil
}

func splitFrame(frame []byte) (remote.Header, []byte, bool) {
	if len(frame) < remote.HeaderSize {
		return remote.Header{}, nil, false
	}
	hdr, err := remote.DecodeHeader(frame)
	if err != nil {
		return remote.Header{}, nil, false
	}
	return hdr, frame[remote.HeaderSize:], true
}

// onTimeout is Monitor's callback for a tracked seq that blew past its
// deadline with no ack. If attempts remain, it resends the original
// frame after a jittered exponential backoff and re-tracks it under
// the same sequence number; the resend runs in its own goroutine so it
// never blocks Monitor's sweep.
func (r *Retry) onTimeout(seq uint16) {
	r.mu.Lock()
	entry, ok := r.entries[seq]
	if !ok {
		r.mu.Unlock()
		return
	}
	if entry.remaining <= 0 {
		delete(r.entries, seq)
		r.mu.Unlock()
		return
	}
	entry.remaining--
	attempt := r.MaxAttempts - entry.remaining - 1
	r.mu.Unlock()

	go r.resendAfterBackoff(entry, attempt)
}

func (r *Retry) resendAfterBackoff(entry *retryEntry, attempt int) {
	backoff := r.BaseBackoff << uint(attempt-1)
	if r.MaxBackoff > 0 && backoff > r.MaxBackoff {
		backoff = r.MaxBackoff
	}
	jitter := rng.JitterFraction(r.jitterSeed(entry.header.Seq, attempt))
	wait := time.Duration(float64(backoff) * (0.5 + jitter))
	if wait > 0 {
		time.Sleep(wait)
	}

	frame := make([]byte, 0, remote.HeaderSize+len(entry.payload))
	frame = append(frame, entry.header.Encode()...)
	frame = append(frame, entry.payload...)
	if err := r.Underlying.Send(context.Background(), frame); err != nil {
		return
	}
	r.Monitor.Track(entry.header.Seq, r.AckTimeout, r.onTimeout)
}

// jitterSeed derives a deterministic-per-call jitter seed from rngState
// so concurrent retries of different seqs/attempts don't all land on
// the same fraction of their backoff window.
func (r *Retry) jitterSeed(seq uint16, attempt int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rngState.Next() ^ uint64(seq)<<32 ^ uint64(attempt)
}
