package inline

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var tagMarks = map[string]Mark{
	"b":      Bold,
	"strong": Bold,
	"i":      Italic,
	"em":     Italic,
	"u":      Underline,
	"ins":    Underline,
	"s":      Strike,
	"strike": Strike,
	"del":    Strike,
	"mark":   Highlight,
}

// Block-level elements that some editors wrap lines in.
var lineTags = map[string]bool{
	"p":   true,
	"div": true,
	"li":  true,
}

type frame struct {
	tag     string
	mark    Mark
	keyword *Keyword
}

type parser struct {
	stack        []frame
	spans        Content
	pendingBreak bool
}

func (p *parser) marks() Mark {
	var m Mark
	for _, f := range p.stack {
		m |= f.mark
	}
	return m
}

func (p *parser) keyword() *Keyword {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].keyword != nil {
			return p.stack[i].keyword
		}
	}
	return nil
}

func (p *parser) text(s string) {
	if s == "" {
		return
	}
	if p.pendingBreak {
		if len(p.spans) > 0 {
			p.spans = append(p.spans, Span{Break: true})
		}
		p.pendingBreak = false
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			p.spans = append(p.spans, Span{Break: true})
		}
		p.spans = append(p.spans, Span{Text: line, Marks: p.marks(), Keyword: p.keyword()})
	}
}

func (p *parser) open(token html.Token) {
	name := token.Data
	if name == "br" {
		p.pendingBreak = false
		p.spans = append(p.spans, Span{Break: true})
		return
	}
	if lineTags[name] {
		p.pendingBreak = true
		return
	}

	f := frame{tag: name, mark: tagMarks[name]}
	if name == "span" {
		if term, ok := attr(token, "data-keyword"); ok && strings.TrimSpace(term) != "" {
			mastery, _ := attr(token, "data-mastery")
			f.keyword = &Keyword{Term: term, Mastery: mastery}
		}
	}
	if token.Type == html.SelfClosingTagToken {
		return
	}
	p.stack = append(p.stack, f)
}

func (p *parser) close(name string) {
	if lineTags[name] {
		p.pendingBreak = true
		return
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].tag == name {
			p.stack = p.stack[:i]
			return
		}
	}
}

func attr(token html.Token, key string) (string, bool) {
	for _, a := range token.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Parse reads inline markup. It never fails: unknown elements are
// dropped and their text kept.
func Parse(markup string) Content {
	p := &parser{}
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return p.spans.Normalize()
		case html.TextToken:
			p.text(string(tokenizer.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			p.open(tokenizer.Token())
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			p.close(string(name))
		}
	}
}

// Canonical parses and re-renders markup.
func Canonical(markup string) string {
	return Parse(markup).String()
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "mark", "br", "p", "div", "li", "ul", "ol")
	p.AllowAttrs("data-keyword", "data-mastery").OnElements("span")
	p.AllowElements("span")
	return p
}

// Sanitize strips everything outside the inline model from markup
// coming from outside the editor (clipboard, import, generation)
// and returns canonical markup.
func Sanitize(raw string) string {
	return Canonical(policy.Sanitize(raw))
}
