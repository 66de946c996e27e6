package fragment

import (
	"bytes"
	"encoding/xml"
	"regexp"

	"github.com/antchfx/xmlquery"
)

// Marker is the element that stands in for a processing instruction inside
// the document element.  Its target attribute holds the instruction target
// and the instruction's pseudo-attributes are copied over.
const Marker = "pi-marker"

var (
	procInst   = regexp.MustCompile(`<\?([A-Za-z_][\w.-]*)([\s\S]*?)\?>`)
	pseudoAttr = regexp.MustCompile(`([A-Za-z_][\w.-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	rootTag    = regexp.MustCompile(`<[A-Za-z_]`)
)

// XMLTree parses a well-formed XML document.  Entities declared by the USPTO
// DTDs are the HTML 4 set and resolve without reading the DTD.
//
// Processing instructions after the root start tag become Marker elements.
// The tree builder nests everything that follows a processing instruction
// under the preceding sibling, which would pull the claims into the
// description of a v4 grant.
func XMLTree(text []byte) (*xmlquery.Node, error) {
	return xmlquery.ParseWithOptions(bytes.NewReader(markProcInsts(text)), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: xml.HTMLEntity,
		},
	})
}

func markProcInsts(text []byte) []byte {
	loc := rootTag.FindIndex(text)
	if loc == nil || !bytes.Contains(text[loc[0]:], []byte("<?")) {
		return text
	}
	body := procInst.ReplaceAllFunc(text[loc[0]:], marker)
	out := make([]byte, 0, loc[0]+len(body))
	out = append(out, text[:loc[0]]...)
	return append(out, body...)
}

func marker(pi []byte) []byte {
	m := procInst.FindSubmatch(pi)
	var b bytes.Buffer
	b.WriteString("<" + Marker + ` target="`)
	xml.EscapeText(&b, m[1])
	b.WriteByte('"')
	seen := map[string]bool{"target": true}
	for _, a := range pseudoAttr.FindAllSubmatch(m[2], -1) {
		name := string(a[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		val := a[2]
		if val == nil {
			val = a[3]
		}
		b.WriteString(" " + name + `="`)
		xml.EscapeText(&b, val)
		b.WriteByte('"')
	}
	b.WriteString("/>")
	return b.Bytes()
}

// MarkerTarget returns the instruction target of a Marker element and
// whether n is one.
func MarkerTarget(n *xmlquery.Node) (string, bool) {
	if Name(n) != Marker {
		return "", false
	}
	return Attr(n, "target"), true
}

//Personal.AI order the ending
