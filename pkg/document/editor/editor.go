package editor

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/importer"
)

type Format int

const (
	FormatJSON Format = iota + 1
	FormatCBOR
	// FormatText is plain text in the import syntax. Documents saved
	// before blocks existed only have this.
	FormatText
)

// DetectFormat guesses the encoding of persisted document data.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		return FormatJSON
	case len(data) > 0 && data[0]&0xe0 == 0x80:
		// CBOR major type 4 (array).
		return FormatCBOR
	default:
		return FormatText
	}
}

// ParseFormat parses a format name: json, cbor or text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	case "text", "txt", "md":
		return FormatText, nil
	default:
		return 0, errors.Errorf("unknown format %q", name)
	}
}

// Decode decodes persisted document data of any format.
// Malformed block data is reported as document.ErrMalformed.
func Decode(data []byte) (document.Blocks, error) {
	switch DetectFormat(data) {
	case FormatJSON:
		return document.UnmarshalJSON(data)
	case FormatCBOR:
		return document.UnmarshalCBOR(data)
	default:
		return importer.Import(string(data)), nil
	}
}

// Encode encodes blocks in the given format.
func Encode(blocks document.Blocks, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return document.MarshalJSON(blocks)
	case FormatCBOR:
		return document.MarshalCBOR(blocks)
	case FormatText:
		return []byte(document.Flatten(blocks)), nil
	default:
		return nil, errors.Errorf("unknown format %d", format)
	}
}

// Deserialize decodes persisted document data into a new Store.
func Deserialize(data []byte, opts ...Option) (*Store, error) {
	blocks, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return New(blocks, opts...), nil
}

// Serialize encodes the store's blocks in the given format.
func Serialize(s *Store, format Format) ([]byte, error) {
	return Encode(s.blocks, format)
}
