// Package surface turns a block sequence into the rows every read
// surface renders: the interactive editor, the terminal preview and
// the HTML export.
//
// Build resolves everything a surface needs (list items, callout
// icons, image sizing, keyword details) so that surfaces differ only in
// how they draw a Node.
package surface

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
	"github.com/stateful/canvas/pkg/document/keyword"
)

// NoticeType marks a Node that replaces content which could not be read.
const NoticeType document.Type = "notice"

type Row struct {
	// Group is empty for a full-width row.
	Group   string
	Columns []Column
}

func (r Row) Grouped() bool { return r.Group != "" }

type Column struct {
	Slot  int
	Width float64
	Nodes []Node
}

type Node struct {
	ID      string
	Type    document.Type
	Align   document.Align
	Content inline.Content

	// Level is 1 for headings and 2 for subheadings.
	Level     int
	Items     []inline.Content
	ListStyle document.ListStyle
	Callout   *Callout
	Image     *Image
	Tags      []Tag

	// Notice is set on NoticeType nodes.
	Notice string
}

type Callout struct {
	Color document.CalloutColor
	Icon  string
}

type Image struct {
	URL         string
	Width       int
	Fit         document.ImageFit
	AspectRatio string
	MaxHeight   int
	Caption     string
}

// Tag is a keyword tag with what the glossary knows about it. Detail is
// empty, apart from the default mastery, for unknown terms.
type Tag struct {
	Text   string
	Detail keyword.Detail
}

var calloutIcons = map[document.CalloutColor]string{
	document.CalloutBlue:   "ℹ",
	document.CalloutGreen:  "✔",
	document.CalloutYellow: "⚠",
	document.CalloutRed:    "✖",
	document.CalloutPurple: "✦",
}

func CalloutIcon(color document.CalloutColor) string {
	if icon, ok := calloutIcons[color]; ok {
		return icon
	}
	return calloutIcons[document.CalloutBlue]
}

// Build projects blocks into rows. resolver may be nil.
func Build(ctx context.Context, blocks document.Blocks, resolver *keyword.Resolver) []Row {
	groups := document.Rows(blocks)

	rows := make([]Row, 0, len(groups))
	for _, group := range groups {
		row := Row{Group: group.GroupID, Columns: make([]Column, 0, len(group.Columns))}
		for _, slot := range group.Columns {
			col := Column{Slot: slot.Slot, Width: slot.Width, Nodes: make([]Node, 0, len(slot.Blocks))}
			for _, b := range slot.Blocks {
				col.Nodes = append(col.Nodes, BuildNode(ctx, b, resolver))
			}
			row.Columns = append(row.Columns, col)
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildData decodes persisted blocks and builds their rows. Data that
// cannot be decoded yields a single notice row.
func BuildData(ctx context.Context, data []byte, resolver *keyword.Resolver) []Row {
	blocks, err := document.UnmarshalJSON(data)
	if err != nil {
		return []Row{NoticeRow(err)}
	}
	return Build(ctx, blocks, resolver)
}

func NoticeRow(err error) Row {
	msg := "This content could not be displayed."
	if errors.Is(err, document.ErrMalformed) {
		msg = "This document is damaged and could not be displayed."
	}
	return Row{Columns: []Column{{
		Width: 100,
		Nodes: []Node{{Type: NoticeType, Notice: msg}},
	}}}
}

func BuildNode(ctx context.Context, b document.Block, resolver *keyword.Resolver) Node {
	n := Node{
		ID:    b.ID,
		Type:  b.Type,
		Align: b.Meta.Align,
	}
	if !n.Align.Valid() {
		n.Align = document.AlignLeft
	}

	switch b.Type {
	case document.TypeHeading:
		n.Level = 1
		n.Content = inline.Parse(b.Content)
	case document.TypeSubheading:
		n.Level = 2
		n.Content = inline.Parse(b.Content)
	case document.TypeDivider:
	case document.TypeImage:
		meta := b.Meta.WithDefaults(document.TypeImage).Image
		n.Image = &Image{
			URL:         strings.TrimSpace(inline.Parse(b.Content).PlainText()),
			Width:       clampPercent(meta.Width),
			Fit:         meta.Fit,
			AspectRatio: meta.AspectRatio,
			MaxHeight:   meta.MaxHeight,
			Caption:     meta.Caption,
		}
	case document.TypeCallout:
		color := b.CalloutColor()
		n.Callout = &Callout{Color: color, Icon: CalloutIcon(color)}
		n.Content = inline.Parse(b.Content)
	case document.TypeList:
		n.ListStyle = b.ListStyle()
		for _, item := range document.ListItems(b.Content) {
			n.Items = append(n.Items, inline.Parse(item))
		}
	default:
		n.Content = inline.Parse(b.Content)
	}

	n.Content, n.Tags = resolve(ctx, n.Content, n.Tags, resolver)
	for i, item := range n.Items {
		n.Items[i], n.Tags = resolve(ctx, item, n.Tags, resolver)
	}
	return n
}

// resolve looks up every tag in c and, when a resolver is given,
// replaces the stored mastery with the current one.
func resolve(ctx context.Context, c inline.Content, tags []Tag, resolver *keyword.Resolver) (inline.Content, []Tag) {
	for _, run := range c.Keywords() {
		tags = append(tags, Tag{Text: run.Text, Detail: resolver.Resolve(ctx, run.Keyword.Term)})
	}
	if resolver == nil {
		return c, tags
	}

	for i, span := range c {
		if span.Keyword == nil {
			continue
		}
		c[i].Keyword = &inline.Keyword{
			Term:    span.Keyword.Term,
			Mastery: resolver.Resolve(ctx, span.Keyword.Term).Mastery,
		}
	}
	return c, tags
}

func clampPercent(v int) int {
	if v <= 0 || v > 100 {
		return 100
	}
	return v
}

// Detail returns the resolved tag for a term in the node, if any.
func (n Node) Detail(term string) (keyword.Detail, bool) {
	for _, t := range n.Tags {
		if strings.EqualFold(t.Detail.Term, term) || strings.EqualFold(t.Text, term) {
			return t.Detail, true
		}
	}
	return keyword.Detail{}, false
}
