package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Side is the seat a participant holds in a room. First moves first and is
// shown to clients as white.
type Side int

const (
	NoSide Side = iota
	First
	Second
)

func (s Side) String() string {
	switch s {
	case First:
		return "white"
	case Second:
		return "black"
	default:
		return ""
	}
}

// Opposite returns the other seat. NoSide has no opposite.
func (s Side) Opposite() Side {
	switch s {
	case First:
		return Second
	case Second:
		return First
	default:
		return NoSide
	}
}

// ParseSide accepts the wire names ("white", "black").
func ParseSide(s string) (Side, error) {
	switch s {
	case "white":
		return First, nil
	case "black":
		return Second, nil
	case "":
		return NoSide, nil
	default:
		return NoSide, fmt.Errorf("unknown side %q", s)
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var (
	_ msgpack.CustomEncoder = NoSide
	_ msgpack.CustomDecoder = (*Side)(nil)
)

func (s Side) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(s.String())
}

func (s *Side) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}
