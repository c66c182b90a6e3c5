// Package inline implements the minimal rich-text model stored in
// block content: bold, italic, underline, strike, highlight, line
// breaks and keyword tags.
//
// The canonical markup is a small HTML subset:
//
//	<b> <i> <u> <s> <mark> <br>
//	<span data-keyword="term" data-mastery="level">...</span>
//
// Parse is tolerant of common aliases (strong, em, del, strike, div, p)
// so content produced by other editors survives a round trip.
package inline

import (
	"html"
	"strings"
	"unicode/utf8"
)

type Mark uint8

const (
	Bold Mark = 1 << iota
	Italic
	Underline
	Strike
	Highlight
)

var markTags = []struct {
	mark Mark
	tag  string
}{
	{Bold, "b"},
	{Italic, "i"},
	{Underline, "u"},
	{Strike, "s"},
	{Highlight, "mark"},
}

func (m Mark) Has(other Mark) bool { return m&other == other }

// Keyword is a tag attached to a run of text.
type Keyword struct {
	Term    string
	Mastery string
}

type Span struct {
	Text    string
	Marks   Mark
	Keyword *Keyword
	// Break is a hard line break; Text is empty.
	Break bool
}

func (s Span) sameStyle(other Span) bool {
	return s.Marks == other.Marks && sameKeyword(s.Keyword, other.Keyword)
}

func (s Span) len() int {
	if s.Break {
		return 1
	}
	return utf8.RuneCountInString(s.Text)
}

func sameKeyword(a, b *Keyword) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Content is an ordered list of spans.
type Content []Span

// FromPlainText converts text to content, mapping newlines to breaks.
func FromPlainText(text string) Content {
	var result Content
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result = append(result, Span{Break: true})
		}
		if line != "" {
			result = append(result, Span{Text: line})
		}
	}
	return result
}

// PlainText returns the text without markup; breaks become newlines.
func (c Content) PlainText() string {
	var b strings.Builder
	for _, span := range c {
		if span.Break {
			_ = b.WriteByte('\n')
			continue
		}
		_, _ = b.WriteString(span.Text)
	}
	return b.String()
}

// Len returns the length in runes of PlainText.
func (c Content) Len() int {
	n := 0
	for _, span := range c {
		n += span.len()
	}
	return n
}

func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	result := make(Content, len(c))
	for i, span := range c {
		if span.Keyword != nil {
			kw := *span.Keyword
			span.Keyword = &kw
		}
		result[i] = span
	}
	return result
}

// Normalize drops empty spans and merges adjacent spans of equal style.
func (c Content) Normalize() Content {
	result := make(Content, 0, len(c))
	for _, span := range c {
		if !span.Break && span.Text == "" {
			continue
		}
		if n := len(result); n > 0 && !span.Break && !result[n-1].Break && result[n-1].sameStyle(span) {
			result[n-1].Text += span.Text
			continue
		}
		result = append(result, span)
	}
	return result
}

// splitAt makes sure a span boundary exists at the rune offset and
// returns the index of the first span starting at or after it.
func (c Content) splitAt(offset int) (Content, int) {
	pos := 0
	for i, span := range c {
		l := span.len()
		if offset == pos {
			return c, i
		}
		if offset < pos+l && !span.Break {
			runes := []rune(span.Text)
			head, tail := span, span
			head.Text = string(runes[:offset-pos])
			tail.Text = string(runes[offset-pos:])

			result := make(Content, 0, len(c)+1)
			result = append(result, c[:i]...)
			result = append(result, head, tail)
			result = append(result, c[i+1:]...)
			return result, i + 1
		}
		pos += l
	}
	return c, len(c)
}

// Isolate splits spans so that the rune range [start, end) is covered
// by whole spans and returns the new content with the span index range.
func (c Content) Isolate(start, end int) (Content, int, int) {
	total := c.Len()
	start = clamp(start, 0, total)
	end = clamp(end, start, total)

	result := c.Clone()
	result, from := result.splitAt(start)
	result, to := result.splitAt(end)
	return result, from, to
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String renders the canonical markup.
func (c Content) String() string {
	var b strings.Builder

	spans := c.Normalize()
	for i := 0; i < len(spans); {
		span := spans[i]
		if span.Break {
			_, _ = b.WriteString("<br>")
			i++
			continue
		}

		if span.Keyword == nil {
			writeMarked(&b, span)
			i++
			continue
		}

		kw := span.Keyword
		_, _ = b.WriteString(`<span data-keyword="`)
		_, _ = b.WriteString(html.EscapeString(kw.Term))
		_ = b.WriteByte('"')
		if kw.Mastery != "" {
			_, _ = b.WriteString(` data-mastery="`)
			_, _ = b.WriteString(html.EscapeString(kw.Mastery))
			_ = b.WriteByte('"')
		}
		_ = b.WriteByte('>')
		for i < len(spans) && !spans[i].Break && sameKeyword(spans[i].Keyword, kw) {
			writeMarked(&b, spans[i])
			i++
		}
		_, _ = b.WriteString("</span>")
	}

	return b.String()
}

func writeMarked(b *strings.Builder, span Span) {
	for _, mt := range markTags {
		if span.Marks.Has(mt.mark) {
			_ = b.WriteByte('<')
			_, _ = b.WriteString(mt.tag)
			_ = b.WriteByte('>')
		}
	}
	_, _ = b.WriteString(html.EscapeString(span.Text))
	for i := len(markTags) - 1; i >= 0; i-- {
		if span.Marks.Has(markTags[i].mark) {
			_, _ = b.WriteString("</")
			_, _ = b.WriteString(markTags[i].tag)
			_ = b.WriteByte('>')
		}
	}
}

// Keywords returns the tagged runs in order of appearance.
// Adjacent spans sharing the same tag form a single run.
func (c Content) Keywords() []TaggedRun {
	var result []TaggedRun
	pos := 0
	for i := 0; i < len(c); {
		span := c[i]
		if span.Keyword == nil || span.Break {
			pos += span.len()
			i++
			continue
		}
		run := TaggedRun{Keyword: *span.Keyword, Start: pos}
		var text strings.Builder
		for i < len(c) && !c[i].Break && sameKeyword(c[i].Keyword, span.Keyword) {
			_, _ = text.WriteString(c[i].Text)
			pos += c[i].len()
			i++
		}
		run.Text = text.String()
		run.End = pos
		result = append(result, run)
	}
	return result
}

// TaggedRun is one keyword tag with its rune range in PlainText.
type TaggedRun struct {
	Keyword Keyword
	Text    string
	Start   int
	End     int
}
