// Package textproc turns the markup fragments of patent documents (abstract,
// claims, description paragraphs) into plain text, simplified HTML or
// Markdown.  The parsers depend only on the Extractor interface.
package textproc

import (
	"fmt"
	"strings"
	"unicode"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Extractor is the text-normalization capability consumed by the parsers.
type Extractor interface {
	// PlainText returns the text content with one line per block element.
	PlainText(markup string) string
	// SimpleHTML returns markup reduced to a small set of presentational tags.
	SimpleHTML(markup string) string
}

// blockTags start a new line in plain text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"heading": true, "claim": true, "claim-text": true, "row": true,
	"description-of-drawings": true, "abstract": true, "pre": true,
	// pre-2005 application and grant markup
	"paragraph": true, "para": true, "h": true, "clmstep": true, "section": true,
	"par": true, "pal": true, "pac": true, "tbl": true, "equ": true,
}

// keepTags maps source elements to the tag they become in simplified HTML.
// Elements not listed are unwrapped; their text survives.
var keepTags = map[string]string{
	"p": "p", "div": "div", "br": "br", "b": "b", "i": "i", "u": "u",
	"sub": "sub", "sup": "sup", "ul": "ul", "ol": "ol", "li": "li",
	"dl": "dl", "dt": "dt", "dd": "dd", "pre": "pre",
	"h1": "h1", "h2": "h2", "h3": "h3", "h4": "h4", "h5": "h5", "h6": "h6",
	"table": "table", "thead": "thead", "tbody": "tbody", "tr": "tr", "td": "td", "th": "th",
	"heading": "h4", "claim-text": "div", "row": "tr", "entry": "td",
	"smallcaps": "span", "highlight": "b",
	"paragraph": "p", "para": "p", "h": "h4", "clmstep": "div",
	"subscript": "sub", "superscript": "sup", "bold": "b", "italic": "i", "underline": "u",
	"sb": "sub", "sp": "sup", "uline": "u",
	"par": "p", "pal": "p", "pac": "h4", "tbl": "pre", "equ": "pre",
}

// dropTags are removed together with their content.
var dropTags = map[string]bool{
	"colspec": true, "img": true, "script": true, "style": true, "figure": true,
}

// Normalizer implements Extractor with goquery and html-to-markdown.
type Normalizer struct {
	converter *md.Converter
}

// New returns a Normalizer.
func New() *Normalizer {
	return &Normalizer{converter: md.NewConverter("", true, nil)}
}

func parseFragment(markup string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return doc.Find("body"), nil
}

// PlainText implements Extractor.
func (n *Normalizer) PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return CleanBlocks(markup)
	}
	body, err := parseFragment(markup)
	if err != nil || body.Length() == 0 {
		return CleanBlocks(markup)
	}
	var sb strings.Builder
	for _, node := range body.Nodes {
		writeText(&sb, node)
	}
	return CleanBlocks(sb.String())
}

// preTags keep the line breaks of their text.
var preTags = map[string]bool{"pre": true, "tbl": true, "equ": true}

func writeText(sb *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		if inPre(node) {
			sb.WriteString(node.Data)
			return
		}
		// Source line breaks inside running text are layout only.
		sb.WriteString(strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == '\t' {
				return ' '
			}
			return r
		}, node.Data))
	case html.ElementNode, html.DocumentNode:
		if dropTags[node.Data] {
			return
		}
		block := blockTags[node.Data]
		if block {
			sb.WriteByte('\n')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			writeText(sb, c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
}

func inPre(node *html.Node) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && preTags[p.Data] {
			return true
		}
	}
	return false
}

// SimpleHTML implements Extractor.
func (n *Normalizer) SimpleHTML(markup string) string {
	body, err := parseFragment(markup)
	if err != nil || body.Length() == 0 {
		return html.EscapeString(CleanText(markup))
	}
	simplify(body.Nodes[0])
	out, err := body.Html()
	if err != nil {
		return html.EscapeString(CleanText(markup))
	}
	return strings.TrimSpace(out)
}

func simplify(node *html.Node) {
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode:
			node.RemoveChild(c)
		case html.ElementNode:
			simplify(c)
			switch tag, keep := keepTags[c.Data]; {
			case dropTags[c.Data]:
				node.RemoveChild(c)
			case keep:
				c.Data = tag
				c.DataAtom = atom.Lookup([]byte(tag))
				c.Attr = nil
			default:
				for gc := c.FirstChild; gc != nil; {
					gnext := gc.NextSibling
					c.RemoveChild(gc)
					node.InsertBefore(gc, c)
					gc = gnext
				}
				node.RemoveChild(c)
			}
		}
		c = next
	}
}

// Markdown renders the simplified HTML of markup as Markdown.
func (n *Normalizer) Markdown(markup string) (string, error) {
	out, err := n.converter.ConvertString(n.SimpleHTML(markup))
	if err != nil {
		return "", fmt.Errorf("failed to convert markup to Markdown: %w", err)
	}
	return strings.TrimSpace(strings.ReplaceAll(out, "\n\n\n", "\n\n")), nil
}

// CleanText collapses all whitespace runs to one space and drops control
// characters.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == 0 || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// CleanBlocks applies CleanText line by line and drops empty lines.
func CleanBlocks(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = CleanText(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

//Personal.AI order the ending
