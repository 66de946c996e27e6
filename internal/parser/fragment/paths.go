// Package fragment holds the field-extraction framework shared by the
// structural parsers: ordered location queries, per-field fault isolation
// and typed extractors for identifiers, parties, classifications, claims and
// description sections.
package fragment

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/turtacn/patent-normalizer/internal/textproc"
)

// Paths is an ordered list of location queries for one field.  The first
// query with a non-empty result wins, which is how schema eras are bridged:
// current element paths come first, older ones after.
type Paths []*xpath.Expr

// P compiles exprs into Paths.  It panics on a malformed expression and is
// meant for package-level tables.
func P(exprs ...string) Paths {
	out := make(Paths, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, xpath.MustCompile(e))
	}
	return out
}

// Exprs returns the source form of every query.
func (ps Paths) Exprs() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

// One returns the first node matched by the first query that matches.
func (ps Paths) One(n *xmlquery.Node) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for _, p := range ps {
		if found := xmlquery.QuerySelector(n, p); found != nil {
			return found
		}
	}
	return nil
}

// All returns every node matched by the first query with any match.
func (ps Paths) All(n *xmlquery.Node) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	for _, p := range ps {
		if found := xmlquery.QuerySelectorAll(n, p); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Text returns the cleaned text of the first matched node with non-empty
// text.
func (ps Paths) Text(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	for _, p := range ps {
		for _, found := range xmlquery.QuerySelectorAll(n, p) {
			if t := Text(found); t != "" {
				return t
			}
		}
	}
	return ""
}

// Texts returns the cleaned, non-empty texts of every node matched by the
// first query with any non-empty text.
func (ps Paths) Texts(n *xmlquery.Node) []string {
	if n == nil {
		return nil
	}
	for _, p := range ps {
		var out []string
		for _, found := range xmlquery.QuerySelectorAll(n, p) {
			if t := Text(found); t != "" {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Text returns the whitespace-normalized text content of n.
func Text(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return textproc.CleanText(n.InnerText())
}

// Markup returns the inner markup of n.  Text nodes keep their whitespace,
// so words on either side of an inline element stay apart.
func Markup(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return n.OutputXMLWithOptions(xmlquery.WithPreserveSpace())
}

// Outer returns the markup of n including its own tags.
func Outer(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return n.OutputXMLWithOptions(xmlquery.WithOutputSelf(), xmlquery.WithPreserveSpace())
}

// Attr returns the trimmed value of attribute name on n.
func Attr(n *xmlquery.Node, name string) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.SelectAttr(name))
}

// Children returns the element children of n in document order.
func Children(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	if n == nil {
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Name returns the local element name of n.
func Name(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return n.Data
}

//Personal.AI order the ending
