package document

import (
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"

	"github.com/stateful/canvas/pkg/document/inline"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		strikethrough.NewStrikethroughPlugin(),
	),
)

// markdownInline converts inline content to a single markdown line.
// It falls back to plain text if conversion fails.
func markdownInline(content string) string {
	result, err := mdConverter.ConvertString(content)
	if err != nil {
		result = inline.Parse(content).PlainText()
	}
	return strings.Join(strings.Fields(result), " ")
}

// FlattenBlock renders a block as one line of text with a prefix
// identifying its type.
func FlattenBlock(b Block) string {
	switch b.Type {
	case TypeHeading:
		return "# " + markdownInline(b.Content)
	case TypeSubheading:
		return "## " + markdownInline(b.Content)
	case TypeQuote:
		return "> " + markdownInline(b.Content)
	case TypeCallout:
		return "[" + string(b.CalloutColor()) + "] " + markdownInline(b.Content)
	case TypeDivider:
		return "---"
	case TypeImage:
		caption := ""
		if b.Meta.Image != nil {
			caption = b.Meta.Image.Caption
		}
		return "![" + caption + "](" + inline.Parse(b.Content).PlainText() + ")"
	case TypeList:
		items := ListItems(b.Content)
		parts := make([]string, 0, len(items))
		for i, item := range items {
			marker := "-"
			if b.ListStyle() == ListNumbered {
				marker = strconv.Itoa(i+1) + "."
			}
			parts = append(parts, marker+" "+markdownInline(item))
		}
		return strings.Join(parts, " ")
	default:
		return markdownInline(b.Content)
	}
}

// Flatten renders the document as plain text, one line per block,
// for search indexing and summary previews.
func Flatten(blocks Blocks) string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		line := FlattenBlock(b)
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
