// Package compress wraps github.com/pierrec/lz4/v3 for transports that
// want to shrink large remote-invocation payloads before they hit the
// wire. It's an optional decorator: a Transport can be wrapped in one
// to compress outbound frames and decompress inbound ones transparently.
package compress

import (
	"bytes"
	"context"
	"io"

	"github.com/pierrec/lz4/v3"

	"github.com/relaykit/delegates/remote"
)

// Transport wraps an underlying remote.Transport, lz4-compressing every
// outbound frame and decompressing every inbound one.
type Transport struct {
	Underlying remote.Transport
}

// Wrap returns a compressing Transport around underlying.
func Wrap(underlying remote.Transport) *Transport {
	return &Transport{Underlying: underlying}
}

func (t *Transport) Send(ctx context.Context, frame []byte) error {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(frame); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return t.Underlying.Send(ctx, buf.Bytes())
}

func (t *Transport) Recv(ctx context.Context) ([]byte, error) {
	compressed, err := t.Underlying.Recv(ctx)
	if err != nil {
		return nil, err
	}
	r := lz4.NewReader(bytes.NewReader(compressed))
	return io.ReadAll(r)
}
