// Package format identifies which of the USPTO document formats a file or
// record is written in.
package format

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format is the closed set of supported document formats.
type Format uint8

const (
	Unknown Format = iota
	// Greenbook is the fixed-field APS text format of 1976-2001 grants.
	Greenbook
	// SGML is the PATDOC SGML format of 2001-2004 grants.
	SGML
	// PAP is the patent-application-publication XML of 2001-2004.
	PAP
	// XMLv4 is the us-patent-grant / us-patent-application XML of 2005 on.
	XMLv4
	// CPCMaster is the CPC master classification file.
	CPCMaster
)

// All lists every known format in detection order.
var All = []Format{Greenbook, SGML, PAP, XMLv4, CPCMaster}

func (f Format) String() string {
	switch f {
	case Greenbook:
		return "greenbook"
	case SGML:
		return "sgml"
	case PAP:
		return "pap_xml"
	case XMLv4:
		return "xml_v4"
	case CPCMaster:
		return "cpc_master"
	default:
		return "unknown"
	}
}

// IsKnown reports whether f is one of the supported formats.
func (f Format) IsKnown() bool { return f > Unknown && f <= CPCMaster }

// Parse maps a format name, as printed by String, back to a Format.
func Parse(name string) Format {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range All {
		if f.String() == name {
			return f
		}
	}
	switch name {
	case "aps", "pftaps", "text":
		return Greenbook
	case "xml", "xml4", "ice":
		return XMLv4
	case "pap", "xml1":
		return PAP
	case "cpc", "mcf":
		return CPCMaster
	}
	return Unknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Markers
// ─────────────────────────────────────────────────────────────────────────────

// contentMarkers are checked against every sniffed line, in order.
var contentMarkers = []struct {
	marker string
	format Format
}{
	{"<us-patent-grant", XMLv4},
	{"<us-patent-application", XMLv4},
	{"us-patent-grant", XMLv4},
	{"us-patent-application", XMLv4},
	{"patent-application-publication", PAP},
	{"<PATDOC ", SGML},
	{"PATDOC ", SGML},
	{"CPCMasterClassificationRecord", CPCMaster},
}

// greenbookMarker is the record header line of the fixed-field format.
const greenbookMarker = "PATN"

// namePrefixes are the conventional bulk file prefixes, longest first.
var namePrefixes = []struct {
	prefix string
	format Format
}{
	{"us_grant_cpc_mcf", CPCMaster},
	{"us_pgpub_cpc_mcf", CPCMaster},
	{"cpc_master", CPCMaster},
	{"pftaps", Greenbook},
	{"ipgb", XMLv4},
	{"ipab", XMLv4},
	{"ipg", XMLv4},
	{"ipa", XMLv4},
	{"pgb", SGML},
	{"pg", SGML},
	{"pab", PAP},
	{"pa", PAP},
}

// nameSuffixes identify formats by extension when no prefix matched.
var nameSuffixes = []struct {
	suffix string
	format Format
}{
	{".aps", Greenbook},
	{".sgm", SGML},
	{".sgml", SGML},
}

// DefaultScanLines is the content sniff window.
const DefaultScanLines = 150

// maxSniffLine bounds one sniffed line; longer lines are read in pieces.
const maxSniffLine = 64 << 10

// ─────────────────────────────────────────────────────────────────────────────
// Detector
// ─────────────────────────────────────────────────────────────────────────────

// Detector resolves formats by file name and by content.  It holds no
// mutable state and is safe for concurrent use.
type Detector struct {
	scanLines int
}

// NewDetector returns a Detector scanning at most scanLines lines; values
// below 1 select DefaultScanLines.
func NewDetector(scanLines int) *Detector {
	if scanLines < 1 {
		scanLines = DefaultScanLines
	}
	return &Detector{scanLines: scanLines}
}

// ScanLines returns the sniff window.
func (d *Detector) ScanLines() int { return d.scanLines }

// ByName matches the base name of name against the known bulk file prefixes
// and suffixes.
func (d *Detector) ByName(name string) Format {
	base := strings.ToLower(filepath.Base(name))
	if base == "." || base == "/" || base == "" {
		return Unknown
	}
	for _, p := range namePrefixes {
		if strings.HasPrefix(base, p.prefix) && startsWithDigitAfter(base, p.prefix) {
			return p.format
		}
	}
	for _, s := range nameSuffixes {
		if strings.HasSuffix(base, s.suffix) {
			return s.format
		}
	}
	return Unknown
}

// startsWithDigitAfter keeps short prefixes such as "pa" from matching
// arbitrary names: the prefix must be followed by a date digit, an
// underscore, a dot or nothing.
func startsWithDigitAfter(base, prefix string) bool {
	rest := base[len(prefix):]
	if rest == "" {
		return true
	}
	c := rest[0]
	return (c >= '0' && c <= '9') || c == '_' || c == '.' || c == '-'
}

// Line classifies a single line, returning Unknown if it carries no marker.
func Line(line string) Format {
	if strings.TrimSpace(line) == greenbookMarker {
		return Greenbook
	}
	for _, m := range contentMarkers {
		if strings.Contains(line, m.marker) {
			return m.format
		}
	}
	return Unknown
}

// ByBytes sniffs the first scan window of b.
func (d *Detector) ByBytes(b []byte) Format {
	for i := 0; i < d.scanLines && len(b) > 0; i++ {
		var line []byte
		if j := bytes.IndexByte(b, '\n'); j >= 0 {
			line, b = b[:j], b[j+1:]
		} else {
			line, b = b, nil
		}
		if f := Line(string(line)); f != Unknown {
			return f
		}
	}
	return Unknown
}

// ByContent sniffs up to the scan window of r.  The returned reader replays
// every byte consumed while sniffing followed by the rest of r, so callers
// read the stream from its original position.
func (d *Detector) ByContent(r io.Reader) (Format, io.Reader, error) {
	var consumed bytes.Buffer
	br := bufio.NewReaderSize(io.TeeReader(r, &consumed), maxSniffLine)
	found := Unknown
	for i := 0; i < d.scanLines; i++ {
		line, err := br.ReadSlice('\n')
		if f := Line(string(line)); f != Unknown {
			found = f
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil && err != bufio.ErrBufferFull {
			return Unknown, io.MultiReader(&consumed, r), err
		}
	}
	return found, io.MultiReader(&consumed, r), nil
}

// BySeeker sniffs rs and seeks it back to where it started.
func (d *Detector) BySeeker(rs io.ReadSeeker) (Format, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return Unknown, err
	}
	f, _, err := d.ByContent(rs)
	if _, serr := rs.Seek(start, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	return f, err
}

// Detect tries the name first and falls back to the content.  The returned
// reader must be used in place of r.
func (d *Detector) Detect(name string, r io.Reader) (Format, Method, io.Reader, error) {
	if f := d.ByName(name); f != Unknown {
		return f, MethodName, r, nil
	}
	f, rr, err := d.ByContent(r)
	return f, MethodContent, rr, err
}

// Method records how a format was resolved.
type Method string

const (
	MethodName    Method = "name"
	MethodContent Method = "content"
	MethodGiven   Method = "given"
)

var defaultDetector = NewDetector(DefaultScanLines)

// DetectByName resolves a format from a file name.
func DetectByName(name string) Format { return defaultDetector.ByName(name) }

// DetectByContent sniffs the first DefaultScanLines lines of r.
func DetectByContent(r io.Reader) (Format, io.Reader, error) { return defaultDetector.ByContent(r) }

//Personal.AI order the ending
