package document

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// ErrMalformed is returned when persisted block data cannot be decoded.
var ErrMalformed = errors.New("malformed block data")

// wireMeta is the flat, storage-stable shape of Meta.
type wireMeta struct {
	Align       Align        `json:"align,omitempty"`
	Color       CalloutColor `json:"color,omitempty"`
	Width       int          `json:"width,omitempty"`
	Fit         ImageFit     `json:"fit,omitempty"`
	AspectRatio string       `json:"aspectRatio,omitempty"`
	MaxHeight   int          `json:"maxHeight,omitempty"`
	Caption     string       `json:"caption,omitempty"`
	ListStyle   ListStyle    `json:"listStyle,omitempty"`
	ColumnGroup string       `json:"columnGroup,omitempty"`
	ColumnSlot  *int         `json:"columnSlot,omitempty"`
	ColumnWidth float64      `json:"columnWidth,omitempty"`
}

type wireBlock struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	Content string    `json:"content"`
	Meta    *wireMeta `json:"meta,omitempty"`
}

func toWire(b Block) wireBlock {
	m := wireMeta{Align: b.Meta.Align}
	if c := b.Meta.Callout; c != nil {
		m.Color = c.Color
	}
	if i := b.Meta.Image; i != nil {
		m.Width = i.Width
		m.Fit = i.Fit
		m.AspectRatio = i.AspectRatio
		m.MaxHeight = i.MaxHeight
		m.Caption = i.Caption
	}
	if l := b.Meta.List; l != nil {
		m.ListStyle = l.Style
	}
	if col := b.Meta.Column; col != nil && col.Group != "" {
		m.ColumnGroup = col.Group
		m.ColumnWidth = col.Width
		if slot, ok := col.SlotValue(); ok {
			m.ColumnSlot = &slot
		}
	}

	w := wireBlock{ID: b.ID, Type: b.Type, Content: b.Content}
	if m != (wireMeta{}) {
		w.Meta = &m
	}
	return w
}

func fromWire(w wireBlock) Block {
	b := Block{ID: w.ID, Type: w.Type, Content: w.Content}
	if w.Meta == nil {
		return b
	}

	// Unknown enum values are dropped so defaults apply.
	m := *w.Meta
	if !m.Align.Valid() {
		m.Align = ""
	}
	if !m.Color.Valid() {
		m.Color = ""
	}
	if !m.Fit.Valid() {
		m.Fit = ""
	}
	if !ValidAspectRatio(m.AspectRatio) {
		m.AspectRatio = ""
	}
	if !m.ListStyle.Valid() {
		m.ListStyle = ""
	}

	b.Meta.Align = m.Align
	if m.Color != "" {
		b.Meta.Callout = &CalloutMeta{Color: m.Color}
	}
	if m.Width != 0 || m.Fit != "" || m.AspectRatio != "" || m.MaxHeight != 0 || m.Caption != "" {
		b.Meta.Image = &ImageMeta{
			Width:       m.Width,
			Fit:         m.Fit,
			AspectRatio: m.AspectRatio,
			MaxHeight:   m.MaxHeight,
			Caption:     m.Caption,
		}
	}
	if m.ListStyle != "" {
		b.Meta.List = &ListMeta{Style: m.ListStyle}
	}
	if m.ColumnGroup != "" {
		b.Meta.Column = &ColumnPlacement{Group: m.ColumnGroup, Width: m.ColumnWidth}
		if m.ColumnSlot != nil {
			slot := *m.ColumnSlot
			b.Meta.Column.Slot = &slot
		}
	}
	return b
}

func toWireBlocks(blocks Blocks) []wireBlock {
	result := make([]wireBlock, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, toWire(b))
	}
	return result
}

func fromWireBlocks(items []wireBlock) (Blocks, error) {
	result := make(Blocks, 0, len(items))
	seen := make(map[string]bool, len(items))
	for idx, item := range items {
		if item.ID == "" {
			return nil, errors.Wrapf(ErrMalformed, "block %d has no id", idx)
		}
		if seen[item.ID] {
			return nil, errors.Wrapf(ErrMalformed, "duplicate block id %q", item.ID)
		}
		seen[item.ID] = true
		if !item.Type.Valid() {
			return nil, errors.Wrapf(ErrMalformed, "block %q has unknown type %q", item.ID, item.Type)
		}
		result = append(result, fromWire(item))
	}
	return result, nil
}

// MarshalJSON serializes blocks to a JSON array.
func MarshalJSON(blocks Blocks) ([]byte, error) {
	data, err := json.Marshal(toWireBlocks(blocks))
	return data, errors.WithStack(err)
}

// UnmarshalJSON is the inverse of MarshalJSON. Any decoding problem
// is reported as ErrMalformed.
func UnmarshalJSON(data []byte) (Blocks, error) {
	var items []wireBlock
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	return fromWireBlocks(items)
}

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// MarshalCBOR serializes blocks to a deterministic CBOR array.
// It is the compact alternative to MarshalJSON for transport.
func MarshalCBOR(blocks Blocks) ([]byte, error) {
	data, err := cborEncMode.Marshal(toWireBlocks(blocks))
	return data, errors.WithStack(err)
}

func UnmarshalCBOR(data []byte) (Blocks, error) {
	var items []wireBlock
	if err := cbor.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	return fromWireBlocks(items)
}
