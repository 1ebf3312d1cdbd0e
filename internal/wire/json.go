package wire

import (
	"encoding/json"
	"fmt"
)

// Format selects the per-client frame encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatBinary
)

func (f Format) String() string {
	if f == FormatBinary {
		return "binary"
	}
	return "json"
}

// ParseFormat maps a control-message format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "binary":
		return FormatBinary, nil
	default:
		return FormatJSON, fmt.Errorf("unknown format %q", s)
	}
}

// EncodeJSON encodes an envelope as a single JSON object. Quotes carry every
// field, including name and description.
func EncodeJSON(e Envelope) ([]byte, error) {
	if e.Type == "" {
		return nil, fmt.Errorf("envelope has no type")
	}
	return json.Marshal(e)
}

// Encode encodes e in format f.
func Encode(f Format, e Envelope) ([]byte, error) {
	if f == FormatBinary {
		data := EncodeBinary(e)
		if data == nil {
			return nil, fmt.Errorf("cannot encode %q envelope as binary", e.Type)
		}
		return data, nil
	}
	return EncodeJSON(e)
}
