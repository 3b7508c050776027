package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/relaykit/delegates/internal/bufpool"
)

// pending is one in-flight call awaiting its ack/error reply frame. No
// value is ever stashed here: a reply carries no payload worth keeping,
// only the fact that it arrived (spec.md §4.5/§6).
type pending struct {
	done chan struct{}
	err  error
}

// Dispatcher owns a Transport and correlates outbound invocations with
// their inbound ack/error replies by sequence number, while routing
// inbound invoke frames (addressed by remote id) to its Receiver. One
// Dispatcher is shared by every remote.Delegate bound to the same
// Transport.
//
// The registry-by-sequence-number correlation pattern follows the same
// shape the core library used internally to match a locally-initiated
// interface call to the resource record it targets — a map keyed by a
// monotonic id, guarded by a mutex, with a background reader goroutine
// completing entries as replies arrive.
type Dispatcher struct {
	transport  Serializer2Transport
	receiver   *Receiver
	seq        uint32
	mu         sync.Mutex
	inflight   map[uint16]*pending
	errSink    ErrorSink
	closed     atomic.Bool
	readerDone chan struct{}
}

// Serializer2Transport bundles the two collaborators a Dispatcher needs;
// named distinctly from Transport/Serializer so call sites can see at a
// glance that both are required together.
type Serializer2Transport struct {
	Transport  Transport
	Serializer Serializer
}

// NewDispatcher starts the Dispatcher's background reader loop, which
// demultiplexes inbound frames: reply frames (ID == AckID or InvalidID)
// complete a waiting local caller by sequence number; any other ID is
// an inbound invoke, handed to receiver (nil is fine if this side never
// receives calls, only makes them — such a frame is then reported to
// errSink instead).
func NewDispatcher(t Transport, s Serializer, receiver *Receiver, errSink ErrorSink) *Dispatcher {
	d := &Dispatcher{
		transport:  Serializer2Transport{Transport: t, Serializer: s},
		receiver:   receiver,
		inflight:   make(map[uint16]*pending),
		errSink:    errSink,
		readerDone: make(chan struct{}),
	}
	go d.readLoop()
	return d
}

func (d *Dispatcher) readLoop() {
	defer close(d.readerDone)
	ctx := context.Background()
	for {
		frame, err := d.transport.Transport.Recv(ctx)
		if err != nil {
			if d.closed.Load() {
				return
			}
			d.reportOrDrop(err)
			continue
		}
		d.handleFrame(ctx, frame)
	}
}

func (d *Dispatcher) handleFrame(ctx context.Context, frame []byte) {
	if len(frame) < HeaderSize {
		d.reportOrDrop(fmt.Errorf("remote: truncated frame (%d bytes)", len(frame)))
		return
	}
	hdr, err := DecodeHeader(frame)
	if err != nil {
		d.reportOrDrop(err)
		return
	}
	body := frame[HeaderSize:]
	if uint16(len(body)) < hdr.Length {
		d.reportOrDrop(fmt.Errorf("remote: frame seq=%d declares length %d, has %d", hdr.Seq, hdr.Length, len(body)))
		return
	}
	body = body[:hdr.Length]

	if hdr.IsReply() {
		d.handleReply(hdr, body)
		return
	}
	d.handleInvoke(ctx, hdr, body)
}

// handleReply completes the local caller waiting on hdr.Seq, if any.
func (d *Dispatcher) handleReply(hdr Header, body []byte) {
	d.mu.Lock()
	p, ok := d.inflight[hdr.Seq]
	if ok {
		delete(d.inflight, hdr.Seq)
	}
	d.mu.Unlock()
	if !ok {
		// No waiting caller: either a duplicate reply (retry raced an
		// on-time original) or a reply for a call this process never
		// made. Both are reported to errSink; with no errSink the reply
		// is dropped.
		d.reportOrDrop(fmt.Errorf("remote: reply for unknown/expired seq=%d", hdr.Seq))
		return
	}

	if hdr.ID == InvalidID {
		p.err = fmt.Errorf("remote: peer reported error: %s", string(body))
	}
	close(p.done)
}

// handleInvoke dispatches an inbound invoke frame to the Receiver and
// sends back the ack/error reply the caller's Call is waiting on.
func (d *Dispatcher) handleInvoke(ctx context.Context, hdr Header, body []byte) {
	var replyHdr Header
	var replyBody []byte

	if d.receiver == nil {
		d.reportOrDrop(fmt.Errorf("remote: invoke frame for id=%d but no receiver attached", hdr.ID))
		replyHdr = Header{ID: InvalidID, Seq: hdr.Seq}
		replyBody = []byte("no receiver attached")
	} else if err := d.receiver.Handle(hdr.ID, body); err != nil {
		replyHdr = Header{ID: InvalidID, Seq: hdr.Seq}
		replyBody = []byte(err.Error())
	} else {
		replyHdr = Header{ID: AckID, Seq: hdr.Seq}
	}

	replyHdr.Length = uint16(len(replyBody))
	frame := bufpool.Get()
	frame = append(frame, replyHdr.Encode()...)
	frame = append(frame, replyBody...)
	defer bufpool.Put(frame)
	if err := d.transport.Transport.Send(ctx, frame); err != nil {
		d.reportOrDrop(fmt.Errorf("remote: sending reply for seq=%d: %w", hdr.Seq, err))
	}
}

func (d *Dispatcher) reportOrDrop(err error) {
	if d.errSink != nil {
		d.errSink.ReportError(err)
	}
}

// nextSeq returns the next sequence number, reusing the full uint16
// space. Collisions across 65536 simultaneously in-flight calls aren't
// handled — that ceiling is a deliberate scope limit, not a bug: spec.md
// §4.8 describes the sequence field as a retry/ack correlator for a
// bounded number of concurrently outstanding calls, not a global id.
func (d *Dispatcher) nextSeq() uint16 {
	return uint16(atomic.AddUint32(&d.seq, 1))
}

// Call sends args as an invoke frame addressed to id and blocks for its
// ack/error reply. reuseSeq lets a retry decorator resend under the
// same sequence number instead of minting a fresh one, matching
// spec.md §4.9's "a retried call keeps its original correlation id."
// On success the returned error is always nil; the ack frame's empty
// payload carries no value to return. If ctx is done before a reply
// arrives, Call returns ErrNoReply rather than the raw context error,
// since from the caller's point of view the two are indistinguishable:
// the call may or may not have reached the peer.
func (d *Dispatcher) Call(ctx context.Context, id uint16, args []any, reuseSeq uint16) (uint16, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	seq := reuseSeq
	if seq == 0 {
		seq = d.nextSeq()
	}
	payload, err := d.transport.Serializer.Marshal(args)
	if err != nil {
		return seq, err
	}
	hdr := Header{ID: id, Seq: seq, Length: uint16(len(payload))}
	frame := bufpool.Get()
	frame = append(frame, hdr.Encode()...)
	frame = append(frame, payload...)
	defer bufpool.Put(frame)

	p := &pending{done: make(chan struct{})}
	d.mu.Lock()
	d.inflight[seq] = p
	d.mu.Unlock()

	if err := d.transport.Transport.Send(ctx, frame); err != nil {
		d.mu.Lock()
		delete(d.inflight, seq)
		d.mu.Unlock()
		return seq, err
	}

	select {
	case <-p.done:
		return seq, p.err
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.inflight, seq)
		d.mu.Unlock()
		return seq, fmt.Errorf("%w: %v", ErrNoReply, ctx.Err())
	}
}

// Close stops accepting new calls and fails every in-flight one.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.mu.Lock()
	for seq, p := range d.inflight {
		p.err = ErrClosed
		close(p.done)
		delete(d.inflight, seq)
	}
	d.mu.Unlock()
	return nil
}
