// Package keyword tags runs of block content with glossary terms.
//
// A tag is a single inline span carrying the literal term and the
// reader's mastery level for it. Tags never nest: marking over an
// existing tag replaces it, and toggling inside one removes it.
package keyword

import (
	"context"
	"strings"
	"unicode"

	"github.com/elliotchance/orderedmap"

	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
)

// DefaultMastery is used for terms the glossary does not know.
const DefaultMastery = glossary.MasteryNew

// Mark tags the rune range [start, end) of the plain text of content.
// The range may be given in either order and is narrowed to exclude
// surrounding whitespace. It returns false and the unchanged content
// when the selection is empty, blank or spans a line break.
func Mark(ctx context.Context, content string, start, end int, resolver *Resolver) (string, bool) {
	if end < start {
		start, end = end, start
	}

	parsed := inline.Parse(content)
	plain := []rune(parsed.PlainText())
	start = max(start, 0)
	end = min(end, len(plain))
	for start < end && unicode.IsSpace(plain[start]) {
		start++
	}
	for end > start && unicode.IsSpace(plain[end-1]) {
		end--
	}

	c, from, to := parsed.Isolate(start, end)
	if from >= to {
		return content, false
	}

	var term strings.Builder
	for _, span := range c[from:to] {
		if span.Break {
			return content, false
		}
		_, _ = term.WriteString(span.Text)
	}

	text := strings.TrimSpace(term.String())
	if text == "" {
		return content, false
	}

	kw := &inline.Keyword{Term: text, Mastery: resolver.Resolve(ctx, text).Mastery}
	for i := from; i < to; i++ {
		c[i].Keyword = kw
	}
	return c.String(), true
}

// Unmark removes every tag touching the rune range [start, end). A
// collapsed range removes the tag around that position.
func Unmark(content string, start, end int) (string, bool) {
	c := inline.Parse(content)

	runs := intersecting(c, start, end)
	if len(runs) == 0 {
		return content, false
	}

	pos := 0
	for i := range c {
		l := spanLen(c[i])
		for _, run := range runs {
			if c[i].Keyword != nil && pos >= run.Start && pos+l <= run.End {
				c[i].Keyword = nil
				break
			}
		}
		pos += l
	}
	return c.String(), true
}

// Toggle removes the tags touched by the selection, or tags the
// selection when it touches none.
func Toggle(ctx context.Context, content string, start, end int, resolver *Resolver) (string, bool) {
	if len(intersecting(inline.Parse(content), start, end)) > 0 {
		return Unmark(content, start, end)
	}
	return Mark(ctx, content, start, end, resolver)
}

// Tagged reports whether the position is inside a tag.
func Tagged(content string, pos int) bool {
	return len(intersecting(inline.Parse(content), pos, pos)) > 0
}

func intersecting(c inline.Content, start, end int) []inline.TaggedRun {
	if end < start {
		start, end = end, start
	}

	var result []inline.TaggedRun
	for _, run := range c.Keywords() {
		hit := false
		if start == end {
			hit = start >= run.Start && start < run.End
		} else {
			hit = start < run.End && end > run.Start
		}
		if hit {
			result = append(result, run)
		}
	}
	return result
}

func spanLen(span inline.Span) int {
	if span.Break {
		return 1
	}
	return len([]rune(span.Text))
}

// Extract returns the distinct lower-cased terms tagged anywhere in
// blocks, in order of first appearance.
func Extract(blocks document.Blocks) []string {
	index := Index(blocks)

	result := make([]string, 0, index.Len())
	for el := index.Front(); el != nil; el = el.Next() {
		result = append(result, el.Key.(string))
	}
	return result
}

// Index maps each lower-cased term to the ids of the blocks tagging it.
// Keys are ordered by first appearance.
func Index(blocks document.Blocks) *orderedmap.OrderedMap {
	index := orderedmap.NewOrderedMap()

	for _, block := range blocks {
		for _, run := range inline.Parse(block.Content).Keywords() {
			term := glossary.Normalize(run.Keyword.Term)
			if term == "" {
				continue
			}

			var ids []string
			if v, ok := index.Get(term); ok {
				ids = v.([]string)
			}
			if n := len(ids); n == 0 || ids[n-1] != block.ID {
				ids = append(ids, block.ID)
			}
			index.Set(term, ids)
		}
	}

	return index
}

// Retag resolves the mastery of every tag again and returns the updated
// blocks together with the number of blocks that changed.
func Retag(ctx context.Context, blocks document.Blocks, resolver *Resolver) (document.Blocks, int) {
	result := blocks.Clone()
	changed := 0

	for i, block := range result {
		c := inline.Parse(block.Content)
		dirty := false
		for j := range c {
			kw := c[j].Keyword
			if kw == nil {
				continue
			}
			mastery := resolver.Resolve(ctx, kw.Term).Mastery
			if mastery != kw.Mastery {
				c[j].Keyword = &inline.Keyword{Term: kw.Term, Mastery: mastery}
				dirty = true
			}
		}
		if dirty {
			result[i].Content = c.String()
			changed++
		}
	}

	return result, changed
}

// Mastery maps each tagged term to its current mastery level.
func Mastery(ctx context.Context, blocks document.Blocks, resolver *Resolver) map[string]string {
	result := make(map[string]string)
	for _, term := range Extract(blocks) {
		result[term] = resolver.Resolve(ctx, term).Mastery
	}
	return result
}
