// Package msgpack adapts github.com/tinylib/msgp/msgp to the remote
// package's Serializer interface. The teacher reaches for msgp's
// Writer/Reader pair wherever it streams framed binary payloads
// (dsort.go, xact/xs/lso.go); this adapter uses the same pair, but
// against the generic WriteIntf/ReadIntf methods rather than
// codegen'd Marshaler types, since a delegate's argument list has no
// fixed shape to generate a marshaler for.
package msgpack

import (
	"bytes"

	"github.com/tinylib/msgp/msgp"

	"github.com/relaykit/delegates/remote"
)

// Serializer is the tinylib/msgp-backed remote.Serializer.
type Serializer struct{}

var _ remote.Serializer = Serializer{}

func (Serializer) Marshal(args []any) ([]byte, error) {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := w.WriteArrayHeader(uint32(len(args))); err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := w.WriteIntf(a); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes each wire argument independently via ReadIntf, then
// — where argTypes supplies a slot for that position — re-wraps the
// decoded value to the shape remote.Receiver.Handle expects back, via
// remote.ApplyArgShape (spec.md §4.5's plain/pointer/pointer-to-pointer
// argument shapes).
func (Serializer) Unmarshal(data []byte, argTypes []any) ([]any, error) {
	r := msgp.NewReader(bytes.NewReader(data))
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := uint32(0); i < n; i++ {
		v, err := r.ReadIntf()
		if err != nil {
			return nil, err
		}
		if int(i) < len(argTypes) && argTypes[i] != nil {
			out[i] = remote.ApplyArgShape(v, argTypes[i])
		} else {
			out[i] = v
		}
	}
	return out, nil
}
