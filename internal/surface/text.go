package surface

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stateful/canvas/internal/renderer/row"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
)

const (
	DefaultWidth = 80
	minWidth     = 20
)

var (
	headingStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	subheadingStyle = lipgloss.NewStyle().Bold(true)
	dividerStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"})
	captionStyle    = lipgloss.NewStyle().Italic(true).Faint(true)
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	quoteStyle      = lipgloss.NewStyle().
			Italic(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			PaddingLeft(1)
	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF"))
)

type textOptions struct {
	width   int
	focused string
}

// Preview renders rows as read-only terminal text.
func Preview(rows []Row, width int) string {
	return renderText(rows, textOptions{width: width})
}

// Editor renders rows like Preview and marks the focused block.
func Editor(rows []Row, width int, focused string) string {
	return renderText(rows, textOptions{width: width, focused: focused})
}

func renderText(rows []Row, opts textOptions) string {
	if opts.width < minWidth {
		opts.width = DefaultWidth
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if !r.Grouped() {
			var parts []string
			for _, col := range r.Columns {
				for _, n := range col.Nodes {
					parts = append(parts, renderNode(n, opts.width, opts))
				}
			}
			out = append(out, strings.Join(parts, "\n\n"))
			continue
		}

		pcts := make([]float64, 0, len(r.Columns))
		for _, col := range r.Columns {
			pcts = append(pcts, col.Width)
		}
		layout := row.New(opts.width, row.WithPercentages(pcts))
		widths := layout.Widths(len(r.Columns))

		cells := make([]string, 0, len(r.Columns))
		for i, col := range r.Columns {
			parts := make([]string, 0, len(col.Nodes))
			for _, n := range col.Nodes {
				parts = append(parts, renderNode(n, widths[i], opts))
			}
			cells = append(cells, strings.Join(parts, "\n\n"))
		}
		out = append(out, layout.Render(cells))
	}

	return strings.Join(out, "\n\n")
}

func renderNode(n Node, width int, opts textOptions) string {
	focusable := opts.focused != "" && n.Type != NoticeType
	if focusable {
		width -= 2
	}
	if width < 1 {
		width = 1
	}

	s := renderBody(n, width)

	if focusable {
		marker := "  "
		if n.ID == opts.focused {
			marker = focusStyle.Render("▌") + " "
		}
		lines := strings.Split(s, "\n")
		for i := range lines {
			lines[i] = marker + lines[i]
		}
		s = strings.Join(lines, "\n")
	}
	return s
}

func renderBody(n Node, width int) string {
	switch n.Type {
	case NoticeType:
		return noticeStyle.Render("! " + n.Notice)
	case document.TypeDivider:
		return dividerStyle.Render(strings.Repeat("─", width))
	case document.TypeImage:
		return renderImage(n.Image, width)
	case document.TypeList:
		return align(renderList(n), n.Align, width)
	case document.TypeCallout:
		color := lipgloss.Color(CalloutHex(n.Callout.Color))
		style := lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderForeground(color).
			PaddingLeft(1).
			Width(max(width-1, 1))
		return style.Render(n.Callout.Icon + " " + Terminal(n.Content))
	case document.TypeQuote:
		return quoteStyle.Width(max(width-1, 1)).Render(Terminal(n.Content))
	case document.TypeHeading:
		return align(headingStyle.Render(Terminal(n.Content)), n.Align, width)
	case document.TypeSubheading:
		return align(subheadingStyle.Render(Terminal(n.Content)), n.Align, width)
	default:
		return align(Terminal(n.Content), n.Align, width)
	}
}

func align(s string, a document.Align, width int) string {
	style := lipgloss.NewStyle().Width(width)
	switch a {
	case document.AlignCenter:
		style = style.Align(lipgloss.Center)
	case document.AlignRight:
		style = style.Align(lipgloss.Right)
	default:
		return lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	return style.Render(s)
}

func renderList(n Node) string {
	lines := make([]string, 0, len(n.Items))
	for i, item := range n.Items {
		bullet := "•"
		if n.ListStyle == document.ListNumbered {
			bullet = strconv.Itoa(i+1) + "."
		}
		lines = append(lines, bullet+" "+Terminal(item))
	}
	return strings.Join(lines, "\n")
}

func renderImage(img *Image, width int) string {
	if img == nil {
		return ""
	}

	label := "[image"
	if img.URL != "" {
		label += ": " + img.URL
	}
	label += "]"

	details := []string{strconv.Itoa(img.Width) + "%", string(img.Fit)}
	if img.AspectRatio != "" {
		details = append(details, img.AspectRatio)
	}
	if img.MaxHeight > 0 {
		details = append(details, "max "+strconv.Itoa(img.MaxHeight)+"px")
	}

	lines := []string{label, captionStyle.Render(strings.Join(details, " · "))}
	if img.Caption != "" {
		lines = append(lines, captionStyle.Render(img.Caption))
	}

	figure := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Width(max(width*img.Width/100-2, 1))
	return figure.Render(strings.Join(lines, "\n"))
}

// Terminal renders inline content with terminal styling. Keyword tags
// are colored by mastery.
func Terminal(c inline.Content) string {
	var b strings.Builder
	for _, span := range c {
		if span.Break {
			_ = b.WriteByte('\n')
			continue
		}

		style := lipgloss.NewStyle().
			Bold(span.Marks.Has(inline.Bold)).
			Italic(span.Marks.Has(inline.Italic)).
			Underline(span.Marks.Has(inline.Underline)).
			Strikethrough(span.Marks.Has(inline.Strike)).
			Reverse(span.Marks.Has(inline.Highlight))
		if span.Keyword != nil {
			style = style.Foreground(lipgloss.Color(MasteryHex(span.Keyword.Mastery))).Underline(true)
		}
		_, _ = b.WriteString(style.Render(span.Text))
	}
	return b.String()
}
