package surface

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/inline"
)

type exportColumn struct {
	Width float64
	Nodes []template.HTML
}

type exportRow struct {
	Grouped bool
	Columns []exportColumn
}

var exportTmpl = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:900px;margin:2rem auto;padding:0 1rem;color:#222;line-height:1.5}
.row{display:flex;gap:1.5rem;margin:0 0 1rem}
.col{min-width:0}
.callout{border-left:4px solid;padding:.5rem .75rem;border-radius:4px;margin:0}
.quote{border-left:3px solid #ccc;padding-left:1rem;margin:0;color:#555;font-style:italic}
.notice{color:#b00020;font-weight:600}
hr{border:0;border-top:1px solid #ddd;margin:1rem 0}
figure{margin:0}
figcaption{font-size:.85rem;color:#666;text-align:center}
</style></head><body>
{{- range .Rows}}
<div class="row">
{{- range .Columns}}
<div class="col" style="flex:0 0 calc({{printf "%.2f" .Width}}% - 1.5rem)">
{{- range .Nodes}}
{{.}}
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
</body></html>
`))

// Export writes rows as a standalone HTML page. Keyword tags lose their
// data attributes and become plain styled spans.
func Export(w io.Writer, rows []Row, title string) error {
	if title == "" {
		title = "Document"
	}

	data := struct {
		Title string
		Rows  []exportRow
	}{Title: title}

	for _, r := range rows {
		er := exportRow{Grouped: r.Grouped()}
		for _, col := range r.Columns {
			width := col.Width
			if !r.Grouped() {
				width = 100
			}
			ec := exportColumn{Width: width}
			for _, n := range col.Nodes {
				ec.Nodes = append(ec.Nodes, template.HTML(exportNode(n)))
			}
			er.Columns = append(er.Columns, ec)
		}
		data.Rows = append(data.Rows, er)
	}

	return errors.Wrap(exportTmpl.Execute(w, data), "failed to render export")
}

func alignStyle(a document.Align) string {
	if !a.Valid() || a == document.AlignLeft {
		return ""
	}
	return fmt.Sprintf(` style="text-align:%s"`, html.EscapeString(string(a)))
}

func exportNode(n Node) string {
	switch n.Type {
	case NoticeType:
		return `<p class="notice">` + html.EscapeString(n.Notice) + `</p>`
	case document.TypeDivider:
		return "<hr>"
	case document.TypeImage:
		return exportImage(n.Image)
	case document.TypeList:
		tag := "ul"
		if n.ListStyle == document.ListNumbered {
			tag = "ol"
		}
		var b strings.Builder
		_, _ = fmt.Fprintf(&b, "<%s%s>", tag, alignStyle(n.Align))
		for _, item := range n.Items {
			_, _ = b.WriteString("<li>" + HTML(item) + "</li>")
		}
		_, _ = fmt.Fprintf(&b, "</%s>", tag)
		return b.String()
	case document.TypeCallout:
		hex := CalloutHex(n.Callout.Color)
		return fmt.Sprintf(
			`<aside class="callout" style="border-color:%s;background:%s1a"><span aria-hidden="true">%s</span> %s</aside>`,
			hex, hex, html.EscapeString(n.Callout.Icon), HTML(n.Content),
		)
	case document.TypeQuote:
		return `<blockquote class="quote">` + HTML(n.Content) + `</blockquote>`
	case document.TypeHeading:
		return "<h1" + alignStyle(n.Align) + ">" + HTML(n.Content) + "</h1>"
	case document.TypeSubheading:
		return "<h2" + alignStyle(n.Align) + ">" + HTML(n.Content) + "</h2>"
	default:
		return "<p" + alignStyle(n.Align) + ">" + HTML(n.Content) + "</p>"
	}
}

func safeURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "data:image/")
}

func exportImage(img *Image) string {
	if img == nil {
		return ""
	}

	fit := img.Fit
	if !fit.Valid() {
		fit = document.FitCover
	}
	styles := []string{"width:100%", "object-fit:" + string(fit)}
	if document.ValidAspectRatio(img.AspectRatio) && img.AspectRatio != "auto" {
		styles = append(styles, "aspect-ratio:"+strings.ReplaceAll(img.AspectRatio, ":", "/"))
	}
	if img.MaxHeight > 0 {
		styles = append(styles, "max-height:"+strconv.Itoa(img.MaxHeight)+"px")
	}

	var b strings.Builder
	_, _ = fmt.Fprintf(&b, `<figure style="width:%d%%">`, clampPercent(img.Width))
	if safeURL(img.URL) {
		_, _ = fmt.Fprintf(&b, `<img src="%s" alt="%s" style="%s">`,
			html.EscapeString(img.URL), html.EscapeString(img.Caption), html.EscapeString(strings.Join(styles, ";")))
	}
	if img.Caption != "" {
		_, _ = b.WriteString("<figcaption>" + html.EscapeString(img.Caption) + "</figcaption>")
	}
	_, _ = b.WriteString("</figure>")
	return b.String()
}

// HTML renders inline content for the export. Keyword tags become
// styled spans colored by mastery.
func HTML(c inline.Content) string {
	var b strings.Builder

	for i := 0; i < len(c); {
		span := c[i]
		if span.Break {
			_, _ = b.WriteString("<br>")
			i++
			continue
		}
		if span.Keyword == nil {
			_, _ = b.WriteString(inline.Content{span}.String())
			i++
			continue
		}

		kw := *span.Keyword
		hex := MasteryHex(kw.Mastery)
		_, _ = fmt.Fprintf(&b, `<span style="color:%s;border-bottom:2px solid %s;font-weight:600">`, hex, hex)
		for i < len(c) && !c[i].Break && c[i].Keyword != nil && *c[i].Keyword == kw {
			plain := c[i]
			plain.Keyword = nil
			_, _ = b.WriteString(inline.Content{plain}.String())
			i++
		}
		_, _ = b.WriteString("</span>")
	}

	return b.String()
}
