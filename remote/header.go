// Package remote implements the remote invocation protocol from spec.md
// §4.8: a Delegate whose target lives on the far side of a Transport,
// reached by serializing a call into a framed message, dispatching it by
// remote id, and correlating the eventual ack/error reply back to the
// caller by sequence number.
//
// Framing mirrors the teacher's PDU header (transport/pdu.go,
// transport/api.go): a small fixed-size binary header immediately
// followed by a payload whose length the header declares.
package remote

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the on-wire size of a Header: 2 byte marker + 2 byte
// remote id + 2 byte sequence + 2 byte payload length, matching spec.md
// §3's {marker, id, seq, length} header and §4.8's 8-byte fixed size.
const HeaderSize = 8

// headerMarker opens every frame; a frame that doesn't start with it is
// treated as a desynchronized stream, never as data.
const headerMarker uint16 = 0xD157

// Reserved remote ids (spec.md §4.5/§4.8/§6): an invoke frame's ID names
// the locally-registered receiver to dispatch to, so these two values
// can never name a real receiver and are repurposed as reply markers.
const (
	// AckID marks a reply frame acknowledging successful completion of
	// the invocation named by the frame's Seq. Per spec.md §6, an ack
	// frame always carries zero payload: the sender's return value never
	// crosses back to the caller, only the fact that it ran.
	AckID uint16 = 0x0000
	// InvalidID marks a reply frame reporting that the invocation named
	// by the frame's Seq failed; its payload is the error's text.
	InvalidID uint16 = 0xFFFF
)

// Header is the fixed preamble of a remote frame.
type Header struct {
	ID     uint16
	Seq    uint16
	Length uint16
}

// IsReply reports whether h is an ack/error frame rather than an invoke.
func (h Header) IsReply() bool { return h.ID == AckID || h.ID == InvalidID }

// Encode writes h as HeaderSize bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], headerMarker)
	binary.BigEndian.PutUint16(buf[2:4], h.ID)
	binary.BigEndian.PutUint16(buf[4:6], h.Seq)
	binary.BigEndian.PutUint16(buf[6:8], h.Length)
	return buf
}

// DecodeHeader parses a HeaderSize-byte preamble.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("remote: short header (%d bytes, want %d)", len(buf), HeaderSize)
	}
	if binary.BigEndian.Uint16(buf[0:2]) != headerMarker {
		return Header{}, fmt.Errorf("remote: bad frame marker 0x%04x", binary.BigEndian.Uint16(buf[0:2]))
	}
	return Header{
		ID:     binary.BigEndian.Uint16(buf[2:4]),
		Seq:    binary.BigEndian.Uint16(buf[4:6]),
		Length: binary.BigEndian.Uint16(buf[6:8]),
	}, nil
}
