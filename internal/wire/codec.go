package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// SubprotocolCBOR selects the CBOR codec during the websocket handshake.
const SubprotocolCBOR = "kinklink.cbor"

// ErrEmptyPayload — the frame carries no data but the receiver expected some.
var ErrEmptyPayload = errors.New("wire: empty payload")

// Codec encodes frames and their payloads.
type Codec interface {
	Name() string
	// Binary reports whether frames go out as binary websocket messages.
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON — the default codec.
type JSON struct{}

func (JSON) Name() string                       { return "json" }
func (JSON) Binary() bool                       { return false }
func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// CBOR uses core deterministic encoding; TextMarshaler types (padlocks,
// update kinds, attributes) travel as text strings, same as in JSON.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR builds the CBOR codec.
func NewCBOR() (*CBOR, error) {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encOptions.Time = cbor.TimeRFC3339Nano
	enc, err := encOptions.EncMode()
	if err != nil {
		return nil, fmt.Errorf("wire: cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("wire: cbor decoder: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

func (*CBOR) Name() string                         { return "cbor" }
func (*CBOR) Binary() bool                         { return true }
func (c *CBOR) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c *CBOR) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

// ForSubprotocol returns the codec negotiated for subprotocol; anything other
// than SubprotocolCBOR means JSON.
func ForSubprotocol(subprotocol string) (Codec, error) {
	if subprotocol == SubprotocolCBOR {
		return NewCBOR()
	}
	return JSON{}, nil
}

// Encode builds a frame with v encoded as its payload. A nil v leaves Data
// empty.
func Encode(c Codec, f Frame, v any) ([]byte, error) {
	if v != nil {
		data, err := c.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("wire: encode %s payload: %w", f.Method, err)
		}
		f.Data = data
	}
	return c.Marshal(f)
}

// Decode parses one frame.
func Decode(c Codec, msg []byte) (Frame, error) {
	var f Frame
	if err := c.Unmarshal(msg, &f); err != nil {
		return Frame{}, fmt.Errorf("wire: decode frame: %w", err)
	}
	return f, nil
}

// DecodeData parses the payload of f into v.
func DecodeData(c Codec, f Frame, v any) error {
	if len(f.Data) == 0 {
		return ErrEmptyPayload
	}
	return c.Unmarshal(f.Data, v)
}
