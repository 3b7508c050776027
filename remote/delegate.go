package remote

import "context"

// Delegate is a Delegate whose target executes on the far side of a
// Dispatcher's Transport, addressed by a remote id a Receiver on that
// far side has Register-ed. Invoke is fire-and-forget from the
// caller's point of view (spec.md §4.5/§6): it blocks only long enough
// to learn whether the invoke frame was acknowledged, never for the
// target's actual return value, which is never sent back over the
// wire at all. Async/retry behavior is layered on top by composing
// this Delegate with async.Delegate and reliability.Retry rather than
// building either into this package.
type Delegate struct {
	Dispatcher *Dispatcher
	ID         uint16
	Ctx        context.Context

	// seq, when non-zero, pins every call of this delegate to that
	// correlation id; zero means "mint a fresh sequence number per
	// call," the common case.
	seq uint16

	// last is the correlation id of the most recent call.
	last uint16
}

// Bind returns a Delegate that routes every Invoke through dispatcher,
// addressed to the receiver registered under id on the far side.
func Bind(dispatcher *Dispatcher, id uint16, ctx context.Context) *Delegate {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Delegate{Dispatcher: dispatcher, ID: id, Ctx: ctx}
}

// Invoke marshals args, sends an invoke frame addressed to d.ID, and
// blocks for its ack/error reply. On success it always returns (nil,
// nil): per spec.md §4.5 step 5 and §6, no return value ever crosses
// back to the caller — the ack frame carries zero payload, and only
// confirms the call ran. A non-nil error means either the send itself
// failed, the far side reported an error, or d.Ctx ended before any
// reply arrived (ErrNoReply), whether or not a reliability.Retry wraps
// the underlying transport.
func (d *Delegate) Invoke(args ...any) (any, error) {
	seq, err := d.Dispatcher.Call(d.Ctx, d.ID, args, d.seq)
	d.last = seq
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// Clone returns a Delegate sharing the same Dispatcher and ID but able
// to pin its own retry sequence number independently of the original.
func (d *Delegate) Clone() *Delegate {
	return &Delegate{Dispatcher: d.Dispatcher, ID: d.ID, Ctx: d.Ctx, seq: d.seq}
}

// Equal reports whether other targets the same Dispatcher and remote id.
func (d *Delegate) Equal(other *Delegate) bool {
	return other != nil && d.Dispatcher == other.Dispatcher && d.ID == other.ID
}

// IsEmpty reports whether this Delegate has no Dispatcher to call
// through.
func (d *Delegate) IsEmpty() bool { return d == nil || d.Dispatcher == nil }

// Seq reports the correlation id of the delegate's last call, zero if
// it has never been invoked.
func (d *Delegate) Seq() uint16 { return d.last }
