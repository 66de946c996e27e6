// Package greenbook extracts grants from the fixed-field APS text format
// used for 1976-2001 full-text products (pftaps files).
//
// A record is a run of lines of the form "TAG  value", where TAG is up to
// four characters padded with spaces.  A tag alone on a line opens a section
// (INVT, ASSG, CLAS, UREF ...); indented lines continue the previous field.
// Tree turns one record into an element tree so the same path queries used
// for the XML formats apply.
package greenbook

import (
	"bufio"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Root is the record header tag.  It becomes the root element and holds the
// header fields (WKU, APN, ISD ...) directly.
const Root = "PATN"

// maxLine bounds a single physical line.
const maxLine = 1 << 20

var (
	tagPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,3}$`)
	indentedPara = regexp.MustCompile(`^PA([0-9])$`)
)

// sectionTags open a section when they appear without a value.
var sectionTags = map[string]bool{
	"INVT": true, "ASSG": true, "PRIR": true, "REIS": true, "RLAP": true,
	"CLAS": true, "UREF": true, "FREF": true, "OREF": true, "LREP": true,
	"PCTA": true, "ABST": true, "GOVT": true, "PARN": true, "BSUM": true,
	"DRWD": true, "DETD": true, "CLMS": true, "DCLM": true,
}

// classTags hold a national class in the fixed layout: a right-aligned
// three character class followed by the subclass (" 57210", "156 48").
var classTags = map[string]bool{"OCL": true, "XCL": true, "UCL": true}

// ipcTags hold an international class in the fixed layout: the subclass, a
// right-aligned three character main group and the subgroup ("D07B  106").
var ipcTags = map[string]bool{"ICL": true}

// claimSections group their fields into CLM elements at every NUM field.
var claimSections = map[string]bool{"CLMS": true, "DCLM": true}

// Tree converts one APS record to an element tree.  Continuation lines are
// joined to their field with a single space.  Indented paragraphs PA0 to
// PA9 become PAR elements with an LVL attribute.
func Tree(r io.Reader) (*xmlquery.Node, error) {
	w := &treeWriter{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for n := 1; sc.Scan(); n++ {
		if err := w.line(sc.Text()); err != nil {
			return nil, errors.Wrapf(err, errors.GetCode(err), "line %d", n)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "failed to read APS record")
	}
	if !w.started {
		return nil, errors.New(errors.ErrCodeRootNotRecognized, "record has no PATN header")
	}
	w.finish()

	doc, err := xmlquery.Parse(strings.NewReader(w.sb.String()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "failed to build APS record tree")
	}
	return doc, nil
}

type treeWriter struct {
	sb      strings.Builder
	started bool
	section string
	inClaim bool

	tag   string
	level string
	value strings.Builder
}

func (w *treeWriter) line(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if text[0] == ' ' || text[0] == '\t' {
		w.continuation(text)
		return nil
	}
	tag, value := splitLine(text)
	switch {
	case classTags[tag] && len(text) > 4:
		value = classValue(text[4:])
	case ipcTags[tag] && len(text) > 4:
		value = fragment.IPCText(strings.TrimPrefix(strings.TrimRight(text[4:], " "), " "))
	}
	if !tagPattern.MatchString(tag) {
		w.continuation(text)
		return nil
	}

	if tag == Root {
		if w.started {
			return errors.New(errors.ErrCodeMalformedDocument, "second PATN header in one record")
		}
		w.started = true
		w.sb.WriteString("<" + Root + ">")
		return nil
	}
	if !w.started {
		return errors.Newf(errors.ErrCodeRootNotRecognized, "field %s before PATN header", tag)
	}

	w.flush()
	if sectionTags[tag] && value == "" {
		w.closeSection()
		w.section = tag
		w.sb.WriteString("<" + tag + ">")
		return nil
	}
	if tag == "NUM" && claimSections[w.section] {
		w.closeClaim()
		w.sb.WriteString("<CLM>")
		w.inClaim = true
	}
	w.tag = tag
	if m := indentedPara.FindStringSubmatch(tag); m != nil {
		w.tag, w.level = "PAR", m[1]
	}
	w.value.WriteString(value)
	return nil
}

func (w *treeWriter) continuation(text string) {
	if w.tag == "" {
		return
	}
	if t := strings.TrimSpace(text); t != "" {
		w.value.WriteByte(' ')
		w.value.WriteString(t)
	}
}

func (w *treeWriter) flush() {
	if w.tag == "" {
		return
	}
	w.sb.WriteString("<" + w.tag)
	if w.level != "" {
		w.sb.WriteString(` LVL="` + w.level + `"`)
	}
	w.sb.WriteByte('>')
	_ = xml.EscapeText(&w.sb, []byte(w.value.String()))
	w.sb.WriteString("</" + w.tag + ">")
	w.tag, w.level = "", ""
	w.value.Reset()
}

func (w *treeWriter) closeClaim() {
	if w.inClaim {
		w.sb.WriteString("</CLM>")
		w.inClaim = false
	}
}

func (w *treeWriter) closeSection() {
	w.closeClaim()
	if w.section != "" {
		w.sb.WriteString("</" + w.section + ">")
		w.section = ""
	}
}

func (w *treeWriter) finish() {
	w.flush()
	w.closeSection()
	w.sb.WriteString("</" + Root + ">")
}

// splitLine separates the four-column tag from its value.
func splitLine(text string) (tag, value string) {
	if len(text) <= 4 {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:4]), strings.TrimSpace(text[4:])
}

// classValue rewrites a fixed-layout class as "57/210".  raw starts at the
// column after the tag.
func classValue(raw string) string {
	v := strings.TrimPrefix(strings.TrimRight(raw, " "), " ")
	if len(v) <= 3 || strings.Contains(v, "/") {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(v[:3]) + "/" + strings.TrimSpace(v[3:])
}

//Personal.AI order the ending
