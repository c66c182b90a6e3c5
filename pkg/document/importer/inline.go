package importer

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/stateful/canvas/pkg/document/inline"
)

// inlineParser only knows paragraphs, so line-level syntax (lists,
// headings, code blocks) never applies to text that was already
// classified by the line scanner. Raw HTML is not recognized and
// stays literal text.
var inlineParser = parser.NewParser(
	parser.WithBlockParsers(
		util.Prioritized(parser.NewParagraphParser(), 1000),
	),
	parser.WithInlineParsers(
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewEmphasisParser(), 200),
		util.Prioritized(extension.NewStrikethroughParser(), 500),
	),
)

// convertInline turns markdown emphasis into inline content.
// Lines are joined with hard breaks.
func convertInline(lines []string) inline.Content {
	var result inline.Content
	for i, line := range lines {
		if i > 0 {
			result = append(result, inline.Span{Break: true})
		}
		result = append(result, convertLine(line)...)
	}
	return result.Normalize()
}

func convertLine(line string) inline.Content {
	source := []byte(line)
	root := inlineParser.Parse(text.NewReader(source))

	var result inline.Content
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			result = append(result, inline.Span{
				Text:  string(util.UnescapePunctuations(node.Segment.Value(source))),
				Marks: marksOf(node),
			})
			if node.SoftLineBreak() || node.HardLineBreak() {
				result = append(result, inline.Span{Text: " ", Marks: marksOf(node)})
			}
		case *ast.String:
			result = append(result, inline.Span{Text: string(node.Value), Marks: marksOf(node)})
		case *ast.CodeSpan:
			// Code spans keep their backticks; the inline model has no code mark.
			result = append(result, inline.Span{Text: "`" + string(node.Text(source)) + "`", Marks: marksOf(node)})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return result
}

func marksOf(n ast.Node) inline.Mark {
	var marks inline.Mark
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch node := p.(type) {
		case *ast.Emphasis:
			if node.Level >= 2 {
				marks |= inline.Bold
			} else {
				marks |= inline.Italic
			}
		case *extast.Strikethrough:
			marks |= inline.Strike
		}
	}
	return marks
}
