package remote

import (
	"context"
	"errors"
)

// Serializer turns an invocation's arguments into bytes and back. The
// json and msgpack sub-packages (serializer/json, serializer/msgpack)
// provide the two adapters this core ships with; either one can be
// swapped in at Dispatcher construction time.
type Serializer interface {
	Marshal(args []any) ([]byte, error)
	Unmarshal(data []byte, argTypes []any) ([]any, error)
}

// Transport is the single external collaborator of this package (spec.md
// §6): something that can hand a framed byte slice to the far side and
// later deliver framed byte slices back. nettransport and looptransport
// are the two concrete adapters this module ships.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	// Recv blocks until the next inbound frame (request or ack/error)
	// is available, or ctx is done.
	Recv(ctx context.Context) ([]byte, error)
}

// ErrorSink receives errors that can't be attributed to any single
// in-flight call (malformed frame, transport-level failure discovered
// off the request path) — spec.md §7's "errors with no waiting caller
// are reported out-of-band, never dropped silently."
type ErrorSink interface {
	ReportError(err error)
}

// ErrClosed is returned by Delegate.Invoke once its Dispatcher has been
// closed.
var ErrClosed = errors.New("remote: dispatcher is closed")

// ErrNoReply is returned (wrapping the context error) when the call's
// context ends before the far side acks or replies. A reliability.Retry
// wrapping the transport resends the frame in the meantime, but a call
// that still gets no reply before its context ends ends with this error
// too.
var ErrNoReply = errors.New("remote: no reply received for invocation")
