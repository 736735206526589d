// Package wire defines the frames carried over the hub socket and the codecs
// that encode them.
package wire

import "bytes"

// Frame kinds.
const (
	KindCall   = "call"
	KindResult = "result"
	KindEvent  = "event"
)

// Frame is one message on the hub socket. A call carries Method and Data
// (the arguments); its result echoes ID and carries Code and Data; an event
// carries Method (the event name) and Data.
type Frame struct {
	Kind   string `json:"kind"`
	ID     uint64 `json:"id,omitempty"`
	Method string `json:"method,omitempty"`
	Code   string `json:"code,omitempty"`
	Data   Raw    `json:"data,omitempty"`
}

// Raw holds a payload already encoded with the frame's codec, so frames can
// be routed before their payload type is known.
type Raw []byte

var null = []byte("null")

func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return null, nil
	}
	return r, nil
}

func (r *Raw) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], b...)
	return nil
}

// CBOR null is the single byte 0xf6.
const cborNull = 0xf6

func (r Raw) MarshalCBOR() ([]byte, error) {
	if len(r) == 0 {
		return []byte{cborNull}, nil
	}
	return r, nil
}

func (r *Raw) UnmarshalCBOR(b []byte) error {
	if len(b) == 1 && b[0] == cborNull {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], b...)
	return nil
}
