// Package row lays out blocks of pre-rendered text side by side.
package row

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

type Option func(*Layout)

// WithPercentages sizes the columns as percentages (0-100) of the width
// left after gutters.
func WithPercentages(pcts []float64) Option {
	return func(l *Layout) {
		l.pcts = append([]float64(nil), pcts...)
	}
}

func WithGutter(n int) Option {
	return func(l *Layout) {
		if n >= 0 {
			l.gutter = n
		}
	}
}

func WithStyles(styles []lipgloss.Style) Option {
	return func(l *Layout) {
		l.styles = styles
	}
}

type Layout struct {
	width  int
	gutter int
	pcts   []float64
	styles []lipgloss.Style
}

func New(width int, opts ...Option) Layout {
	l := Layout{width: width, gutter: 2}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

func (l Layout) Width() int { return l.width }

// Widths returns the width of every column in cells. Columns and
// gutters fill the layout width exactly; the last column absorbs
// rounding. Without percentages, columns share the width equally.
func (l Layout) Widths(n int) []int {
	if n <= 0 {
		return nil
	}

	avail := l.width - l.gutter*(n-1)
	if avail < n {
		avail = n
	}

	pcts := l.pcts
	if len(pcts) != n {
		pcts = make([]float64, n)
		for i := range pcts {
			pcts[i] = 100 / float64(n)
		}
	}

	var total float64
	for _, p := range pcts {
		total += p
	}
	if total <= 0 {
		total = 100
	}

	widths := make([]int, n)
	used := 0
	for i := 0; i < n-1; i++ {
		w := int(float64(avail) * pcts[i] / total)
		if w < 1 {
			w = 1
		}
		widths[i] = w
		used += w
	}
	widths[n-1] = avail - used
	if widths[n-1] < 1 {
		widths[n-1] = 1
	}
	return widths
}

func (l Layout) style(idx, width int) lipgloss.Style {
	s := lipgloss.NewStyle()
	if idx < len(l.styles) {
		s = l.styles[idx]
	}
	return s.MaxWidth(width)
}

// Render wraps every cell to its column and joins them line by line.
// Short columns are padded with blank lines.
func (l Layout) Render(cells []string) string {
	widths := l.Widths(len(cells))

	table := make([][]string, len(cells))
	lines := 0
	for i, cell := range cells {
		cell = wrap.String(wordwrap.String(cell, widths[i]), widths[i])
		table[i] = strings.Split(cell, "\n")
		if n := len(table[i]); n > lines {
			lines = n
		}
	}

	gutter := strings.Repeat(" ", l.gutter)

	var b strings.Builder
	for line := 0; line < lines; line++ {
		for i, col := range table {
			if i > 0 {
				_, _ = b.WriteString(gutter)
			}
			if line < len(col) && col[line] != "" {
				_, _ = b.WriteString(padding.String(l.style(i, widths[i]).Render(col[line]), uint(widths[i])))
			} else {
				_, _ = b.WriteString(strings.Repeat(" ", widths[i]))
			}
		}
		if line < lines-1 {
			_ = b.WriteByte('\n')
		}
	}
	return b.String()
}
