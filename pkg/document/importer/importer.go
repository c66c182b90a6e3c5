// Package importer turns a restricted markdown-like text into blocks.
//
// Recognized line syntax:
//
//	# heading           -> heading
//	## / ### heading    -> subheading
//	- item / * item     -> bullet list
//	1. item / 1) item   -> numbered list
//	> quote             -> quote
//	---                 -> divider
//
// Any other non-empty lines form text paragraphs, separated by blank
// lines. Inline **bold**, *italic* and ~~strike~~ are converted to
// inline markup.
package importer

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,3})\s+(.*)$`)
	bulletRe   = regexp.MustCompile(`^[-*]\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	quoteRe    = regexp.MustCompile(`^>(?:\s+(.*))?$`)
	dividerRe  = regexp.MustCompile(`^---+$`)
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineText
	lineHeading
	lineBullet
	lineNumbered
	lineQuote
	lineDivider
)

type line struct {
	kind  lineKind
	level int
	text  string
}

func classify(raw string) line {
	s := strings.TrimSpace(raw)
	if s == "" {
		return line{kind: lineBlank}
	}
	if dividerRe.MatchString(s) {
		return line{kind: lineDivider}
	}
	if m := headingRe.FindStringSubmatch(s); m != nil {
		return line{kind: lineHeading, level: len(m[1]), text: m[2]}
	}
	if m := bulletRe.FindStringSubmatch(s); m != nil {
		return line{kind: lineBullet, text: m[1]}
	}
	if m := numberedRe.FindStringSubmatch(s); m != nil {
		return line{kind: lineNumbered, text: m[1]}
	}
	if m := quoteRe.FindStringSubmatch(s); m != nil {
		return line{kind: lineQuote, text: m[1]}
	}
	return line{kind: lineText, text: s}
}

type builder struct {
	blocks  document.Blocks
	pending []string
	kind    lineKind
}

func (b *builder) emit(t document.Type, content string, meta document.Meta) {
	block := document.NewBlock(t, content)
	block.Meta = block.Meta.Merge(meta)
	b.blocks = append(b.blocks, block)
}

func (b *builder) flush() {
	if len(b.pending) == 0 {
		return
	}

	switch b.kind {
	case lineText:
		b.emit(document.TypeText, convertInline(b.pending).String(), document.Meta{})
	case lineBullet, lineNumbered:
		style := document.ListBullet
		if b.kind == lineNumbered {
			style = document.ListNumbered
		}
		items := make([]string, 0, len(b.pending))
		for _, item := range b.pending {
			items = append(items, convertInline([]string{item}).String())
		}
		b.emit(document.TypeList, document.ListContent(items), document.Meta{List: &document.ListMeta{Style: style}})
	}

	b.pending = nil
}

func (b *builder) accumulate(kind lineKind, text string) {
	if b.kind != kind {
		b.flush()
	}
	b.kind = kind
	b.pending = append(b.pending, text)
}

// Import parses text into blocks. It never fails and never returns an
// empty sequence: input without content yields one empty text block.
func Import(text string) document.Blocks {
	b := &builder{}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, raw := range strings.Split(text, "\n") {
		l := classify(raw)

		switch l.kind {
		case lineBlank:
			b.flush()
		case lineText, lineBullet, lineNumbered:
			b.accumulate(l.kind, l.text)
		case lineHeading:
			b.flush()
			t := document.TypeSubheading
			if l.level == 1 {
				t = document.TypeHeading
			}
			b.emit(t, convertInline([]string{l.text}).String(), document.Meta{})
		case lineQuote:
			b.flush()
			b.emit(document.TypeQuote, convertInline([]string{l.text}).String(), document.Meta{})
		case lineDivider:
			b.flush()
			b.emit(document.TypeDivider, "", document.Meta{})
		}
	}
	b.flush()

	if len(b.blocks) == 0 {
		b.emit(document.TypeText, "", document.Meta{})
	}

	log.Get().Named("importer").Debug("imported text", zap.Int("blocks", len(b.blocks)), zap.Int("bytes", len(text)))

	return b.blocks
}

// ImportMarkup is Import for text that may carry HTML from an external
// source. The markup is sanitized and flattened to text first.
func ImportMarkup(markup string) document.Blocks {
	return Import(inline.Parse(inline.Sanitize(markup)).PlainText())
}

// Paragraphs splits text on blank lines and returns the non-empty
// paragraphs.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		result  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			result = append(result, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			flush()
			continue
		}
		current = append(current, raw)
	}
	flush()
	return result
}
