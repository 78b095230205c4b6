package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Payload is an opaque move body. It keeps the exact bytes it arrived with,
// tagged with the codec that produced them, and is only converted when it has
// to be written through a different codec.
type Payload struct {
	raw   []byte
	codec string
}

var (
	_ json.Marshaler        = Payload{}
	_ json.Unmarshaler      = (*Payload)(nil)
	_ msgpack.CustomEncoder = Payload{}
	_ msgpack.CustomDecoder = (*Payload)(nil)
)

// NewPayload encodes v as a JSON payload.
func NewPayload(v any) (*Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return &Payload{raw: b, codec: CodecJSON}, nil
}

// RawPayload wraps bytes already encoded with the named codec.
func RawPayload(codec string, raw []byte) *Payload {
	return &Payload{raw: append([]byte(nil), raw...), codec: codec}
}

// Bytes returns the payload as received.
func (p *Payload) Bytes() []byte { return p.raw }

// Codec reports which codec the bytes are in.
func (p *Payload) Codec() string { return p.codec }

// Decode unmarshals the payload into v using its own codec.
func (p *Payload) Decode(v any) error {
	switch p.codec {
	case CodecMsgpack:
		return msgpack.Unmarshal(p.raw, v)
	default:
		return json.Unmarshal(p.raw, v)
	}
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.raw == nil {
		return []byte("null"), nil
	}
	if p.codec != CodecMsgpack {
		return p.raw, nil
	}

	// Bodies JSON cannot express go out as a base64 string of the raw bytes.
	if out, err := msgpackToJSON(p.raw); err == nil {
		return out, nil
	}
	return json.Marshal(p.raw)
}

// msgpackToJSON transcodes raw, turning map keys of any type into strings.
func msgpackToJSON(raw []byte) ([]byte, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeUntypedMap()
	})

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("transcode msgpack payload: %w", err)
	}
	return json.Marshal(stringKeys(v))
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[keyString(k)] = stringKeys(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}

func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	p.raw = append(p.raw[:0], b...)
	p.codec = CodecJSON
	return nil
}

func (p Payload) EncodeMsgpack(enc *msgpack.Encoder) error {
	if p.raw == nil {
		return enc.EncodeNil()
	}
	if p.codec == CodecMsgpack {
		return enc.Encode(msgpack.RawMessage(p.raw))
	}

	var v any
	if err := json.Unmarshal(p.raw, &v); err != nil {
		return fmt.Errorf("transcode json payload: %w", err)
	}
	return enc.Encode(v)
}

func (p *Payload) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeRaw()
	if err != nil {
		return err
	}
	p.raw = []byte(raw)
	p.codec = CodecMsgpack
	return nil
}
