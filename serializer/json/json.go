// Package json adapts github.com/json-iterator/go to the remote package's
// Serializer interface — the teacher's cmn package reaches for
// jsoniter.ConfigCompatibleWithStandardLibrary throughout for anything
// wire-facing, and this adapter follows the same configuration.
package json

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/relaykit/delegates/remote"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// wireEnvelope is what goes out over the wire: a JSON object whose
// "args" field is an array of already-json-able argument values.
type wireEnvelope struct {
	Args []any `json:"args"`
}

// envelope is what comes back in on Unmarshal: each argument is kept as
// raw JSON until its shape (plain/pointer/pointer-to-pointer) is known
// from argTypes, so decoding can be deferred per-element.
type envelope struct {
	Args []jsoniter.RawMessage `json:"args"`
}

// Serializer is the json-iterator-backed remote.Serializer.
type Serializer struct{}

var _ remote.Serializer = Serializer{}

func (Serializer) Marshal(args []any) ([]byte, error) {
	return api.Marshal(wireEnvelope{Args: args})
}

// Unmarshal decodes each wire argument independently, then — where
// argTypes supplies a slot for that position — re-wraps the decoded
// value to the shape remote.Receiver.Handle expects back, via
// remote.ApplyArgShape (spec.md §4.5's plain/pointer/pointer-to-pointer
// argument shapes). A position with no slot (argTypes too short, or a
// nil entry) decodes to jsoniter's usual generic shape: float64 for
// numbers, map[string]any for objects.
func (Serializer) Unmarshal(data []byte, argTypes []any) ([]any, error) {
	var env envelope
	if err := api.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	out := make([]any, len(env.Args))
	for i, raw := range env.Args {
		var v any
		if err := api.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if i < len(argTypes) && argTypes[i] != nil {
			out[i] = remote.ApplyArgShape(v, argTypes[i])
		} else {
			out[i] = v
		}
	}
	return out, nil
}
