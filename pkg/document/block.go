package document

import (
	"regexp"
	"strings"

	"github.com/stateful/canvas/internal/ulid"
)

type Type string

const (
	TypeHeading    Type = "heading"
	TypeSubheading Type = "subheading"
	TypeText       Type = "text"
	TypeImage      Type = "image"
	TypeCallout    Type = "callout"
	TypeDivider    Type = "divider"
	TypeList       Type = "list"
	TypeQuote      Type = "quote"
)

var types = []Type{
	TypeHeading,
	TypeSubheading,
	TypeText,
	TypeImage,
	TypeCallout,
	TypeDivider,
	TypeList,
	TypeQuote,
}

// Types returns all known block types in their canonical order.
func Types() []Type {
	result := make([]Type, len(types))
	copy(result, types)
	return result
}

func (t Type) String() string { return string(t) }

func (t Type) Valid() bool {
	for _, known := range types {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType parses a type name case-insensitively.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

func (a Align) Valid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

type CalloutColor string

const (
	CalloutBlue   CalloutColor = "blue"
	CalloutGreen  CalloutColor = "green"
	CalloutYellow CalloutColor = "yellow"
	CalloutRed    CalloutColor = "red"
	CalloutPurple CalloutColor = "purple"
)

func (c CalloutColor) Valid() bool {
	switch c {
	case CalloutBlue, CalloutGreen, CalloutYellow, CalloutRed, CalloutPurple:
		return true
	}
	return false
}

type ListStyle string

const (
	ListBullet   ListStyle = "bullet"
	ListNumbered ListStyle = "numbered"
)

func (l ListStyle) Valid() bool {
	return l == ListBullet || l == ListNumbered
}

type ImageFit string

const (
	FitCover   ImageFit = "cover"
	FitContain ImageFit = "contain"
)

func (f ImageFit) Valid() bool {
	return f == FitCover || f == FitContain
}

var aspectRatioRe = regexp.MustCompile(`^\d+(\.\d+)?[:/]\d+(\.\d+)?$`)

// ValidAspectRatio accepts "auto" and ratios like "16:9" or "4/3".
func ValidAspectRatio(s string) bool {
	return s == "auto" || aspectRatioRe.MatchString(s)
}

type CalloutMeta struct {
	Color CalloutColor
}

type ListMeta struct {
	Style ListStyle
}

type ImageMeta struct {
	// Width is a percentage of the containing column.
	Width       int
	Fit         ImageFit
	AspectRatio string
	// MaxHeight is in pixels; zero means unbounded.
	MaxHeight int
	Caption   string
}

// ColumnPlacement attaches a block to a column group.
// It is orthogonal to the type-specific metadata.
type ColumnPlacement struct {
	Group string
	// Slot is nil when it was never assigned or was lost in transit.
	Slot  *int
	Width float64
}

func (p *ColumnPlacement) Clone() *ColumnPlacement {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Slot != nil {
		slot := *p.Slot
		clone.Slot = &slot
	}
	return &clone
}

// SlotValue returns the slot index and whether it was set.
func (p *ColumnPlacement) SlotValue() (int, bool) {
	if p == nil || p.Slot == nil {
		return 0, false
	}
	return *p.Slot, true
}

// Meta holds the type-specific metadata of a block. Only the variant
// matching the block type is meaningful; Column and Align apply to any type.
type Meta struct {
	Align   Align
	Callout *CalloutMeta
	Image   *ImageMeta
	List    *ListMeta
	Column  *ColumnPlacement
}

func (m Meta) Clone() Meta {
	clone := Meta{Align: m.Align, Column: m.Column.Clone()}
	if m.Callout != nil {
		c := *m.Callout
		clone.Callout = &c
	}
	if m.Image != nil {
		i := *m.Image
		clone.Image = &i
	}
	if m.List != nil {
		l := *m.List
		clone.List = &l
	}
	return clone
}

// Merge shallowly overrides m with the fields set in patch.
func (m Meta) Merge(patch Meta) Meta {
	result := m.Clone()
	if patch.Align != "" {
		result.Align = patch.Align
	}
	if patch.Callout != nil {
		c := *patch.Callout
		result.Callout = &c
	}
	if patch.Image != nil {
		i := *patch.Image
		result.Image = &i
	}
	if patch.List != nil {
		l := *patch.List
		result.List = &l
	}
	if patch.Column != nil {
		result.Column = patch.Column.Clone()
	}
	return result
}

// WithDefaults fills in the metadata a block of type t needs
// and leaves everything already present untouched.
func (m Meta) WithDefaults(t Type) Meta {
	result := m.Clone()
	switch t {
	case TypeCallout:
		if result.Callout == nil {
			result.Callout = &CalloutMeta{}
		}
		if result.Callout.Color == "" {
			result.Callout.Color = CalloutBlue
		}
	case TypeList:
		if result.List == nil {
			result.List = &ListMeta{}
		}
		if result.List.Style == "" {
			result.List.Style = ListBullet
		}
	case TypeImage:
		if result.Image == nil {
			result.Image = &ImageMeta{}
		}
		if result.Image.Width == 0 {
			result.Image.Width = 100
		}
		if result.Image.Fit == "" {
			result.Image.Fit = FitCover
		}
		if result.Image.AspectRatio == "" {
			result.Image.AspectRatio = "auto"
		}
	}
	return result
}

// Block is the atomic content unit of a document.
type Block struct {
	ID   string
	Type Type
	// Content is inline markup, see package inline.
	Content string
	Meta    Meta
}

// NewBlock creates a block with a fresh id and the defaults its type needs.
func NewBlock(t Type, content string) Block {
	return Block{
		ID:      ulid.GenerateID(),
		Type:    t,
		Content: content,
		Meta:    Meta{}.WithDefaults(t),
	}
}

func (b Block) Clone() Block {
	clone := b
	clone.Meta = b.Meta.Clone()
	return clone
}

func (b Block) Grouped() bool {
	return b.Meta.Column != nil && b.Meta.Column.Group != ""
}

// Group returns the column group id or an empty string.
func (b Block) Group() string {
	if !b.Grouped() {
		return ""
	}
	return b.Meta.Column.Group
}

// ListStyle returns the list style, defaulting to bullets.
func (b Block) ListStyle() ListStyle {
	if b.Meta.List == nil || b.Meta.List.Style == "" {
		return ListBullet
	}
	return b.Meta.List.Style
}

func (b Block) CalloutColor() CalloutColor {
	if b.Meta.Callout == nil || b.Meta.Callout.Color == "" {
		return CalloutBlue
	}
	return b.Meta.Callout.Color
}

type Blocks []Block

// Clone returns a deep copy of the sequence.
func (b Blocks) Clone() Blocks {
	if b == nil {
		return nil
	}
	result := make(Blocks, len(b))
	for i, block := range b {
		result[i] = block.Clone()
	}
	return result
}

// Index returns the position of the block with id, or -1.
func (b Blocks) Index(id string) int {
	for i, block := range b {
		if block.ID == id {
			return i
		}
	}
	return -1
}

// Members returns the indexes of blocks in the given column group.
func (b Blocks) Members(group string) []int {
	if group == "" {
		return nil
	}
	var result []int
	for i, block := range b {
		if block.Group() == group {
			result = append(result, i)
		}
	}
	return result
}

func (b Blocks) IDs() []string {
	result := make([]string, 0, len(b))
	for _, block := range b {
		result = append(result, block.ID)
	}
	return result
}
