package document

import (
	"regexp"
	"strings"

	"github.com/stateful/canvas/pkg/document/inline"
)

var (
	listItemRe = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	listWrapRe = regexp.MustCompile(`(?i)</?(ul|ol)[^>]*>`)
)

// ListItems returns the items of list content as inline markup. Content
// already holding <li> items is honored; otherwise every line is an item.
func ListItems(content string) []string {
	if matches := listItemRe.FindAllStringSubmatch(content, -1); len(matches) > 0 {
		items := make([]string, 0, len(matches))
		for _, m := range matches {
			items = append(items, inline.Canonical(m[1]))
		}
		return items
	}

	content = listWrapRe.ReplaceAllString(content, "")

	var (
		items   []string
		current inline.Content
	)
	flush := func() {
		if strings.TrimSpace(current.PlainText()) != "" {
			items = append(items, current.String())
		}
		current = nil
	}
	for _, span := range inline.Parse(content) {
		if span.Break {
			flush()
			continue
		}
		current = append(current, span)
	}
	flush()

	return items
}

// ListContent joins items into list content.
func ListContent(items []string) string {
	return strings.Join(items, "<br>")
}
