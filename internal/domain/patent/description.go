package patent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SectionType names a description section.
type SectionType string

const (
	SectionRelatedApplication  SectionType = "related_application"
	SectionBriefSummary        SectionType = "brief_summary"
	SectionDrawingDescription  SectionType = "drawing_description"
	SectionDetailedDescription SectionType = "detailed_description"
	SectionOther               SectionType = "other"
)

// sectionHeadings maps heading keywords to section types, most specific first.
var sectionHeadings = []struct {
	keyword string
	typ     SectionType
}{
	{"cross-reference", SectionRelatedApplication},
	{"cross reference", SectionRelatedApplication},
	{"related application", SectionRelatedApplication},
	{"brief description of the drawing", SectionDrawingDescription},
	{"description of the drawing", SectionDrawingDescription},
	{"brief description of drawing", SectionDrawingDescription},
	{"summary", SectionBriefSummary},
	{"detailed description", SectionDetailedDescription},
	{"description of the preferred", SectionDetailedDescription},
	{"description of the invention", SectionDetailedDescription},
}

// SectionTypeForHeading infers a section type from a heading; headings with
// no known keyword yield SectionOther.
func SectionTypeForHeading(heading string) SectionType {
	h := strings.ToLower(heading)
	for _, s := range sectionHeadings {
		if strings.Contains(h, s.keyword) {
			return s.typ
		}
	}
	return SectionOther
}

// Section is one named part of the description.
type Section struct {
	Type    SectionType
	Heading string
	Text    string
	// HTML is the simplified markup of the section, when the source format
	// carries markup.
	HTML string
}

// Figure is one entry of the drawing description.
type Figure struct {
	Number string
	Text   string
}

// Description is the ordered list of description sections plus the figures
// they reference.
type Description struct {
	sections []Section
	figures  []Figure
	refs     []string
}

// NewDescription collects sections and derives figures from the drawing
// description and figure references from all text.
func NewDescription(sections ...Section) Description {
	d := Description{sections: append([]Section(nil), sections...)}
	seen := make(map[string]bool)
	for _, s := range d.sections {
		if s.Type == SectionDrawingDescription {
			d.figures = append(d.figures, ExtractFigures(s.Text)...)
		}
		for _, r := range FigureRefs(s.Text) {
			if !seen[r] {
				seen[r] = true
				d.refs = append(d.refs, r)
			}
		}
	}
	sortFigureRefs(d.refs)
	return d
}

func (d Description) Sections() []Section { return append([]Section(nil), d.sections...) }
func (d Description) Figures() []Figure   { return append([]Figure(nil), d.figures...) }

// FigureRefs returns the distinct figure numbers mentioned anywhere in the
// description.
func (d Description) FigureRefs() []string { return append([]string(nil), d.refs...) }

// Section returns the first section of type t.
func (d Description) Section(t SectionType) (Section, bool) {
	for _, s := range d.sections {
		if s.Type == t {
			return s, true
		}
	}
	return Section{}, false
}

// IsZero reports whether the description has no sections.
func (d Description) IsZero() bool { return len(d.sections) == 0 }

// Text joins all section texts with blank lines.
func (d Description) Text() string {
	parts := make([]string, 0, len(d.sections))
	for _, s := range d.sections {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ─────────────────────────────────────────────────────────────────────────────
// Figure references
// ─────────────────────────────────────────────────────────────────────────────

var (
	figRefPattern = regexp.MustCompile(`(?i)\bFIG(?:URE)?S?\.?\s*((?:\d+[A-Z]?(?:\(\w\))?)(?:\s*(?:-|–|to|through|and|or|,)\s*(?:\d+[A-Z]?(?:\(\w\))?))*)`)
	figTokPattern = regexp.MustCompile(`(?i)\d+[A-Z]?|-|–|to|through`)
	figNumPattern = regexp.MustCompile(`^(\d+)([A-Z]?)$`)
	figLinePrefix = regexp.MustCompile(`(?i)^\s*FIG(?:URE)?S?\.?\s*(\d+[A-Z]?)`)
)

// FigureRefs finds figure references such as "FIG. 1", "FIGS. 2A-2C" or
// "FIGS. 3 and 4" and expands ranges.
func FigureRefs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToUpper(s)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, m := range figRefPattern.FindAllStringSubmatch(text, -1) {
		toks := figTokPattern.FindAllString(m[1], -1)
		for i := 0; i < len(toks); i++ {
			tok := toks[i]
			if isRangeWord(tok) {
				continue
			}
			if i+2 < len(toks) && isRangeWord(toks[i+1]) && !isRangeWord(toks[i+2]) {
				for _, r := range expandFigureRange(tok, toks[i+2]) {
					add(r)
				}
				i += 2
				continue
			}
			add(tok)
		}
	}
	return out
}

func isRangeWord(tok string) bool {
	switch strings.ToLower(tok) {
	case "-", "–", "to", "through":
		return true
	}
	return false
}

// expandFigureRange expands "2A".."2C" and "3".."5"; other shapes yield the
// two endpoints.
func expandFigureRange(from, to string) []string {
	fm := figNumPattern.FindStringSubmatch(strings.ToUpper(from))
	tm := figNumPattern.FindStringSubmatch(strings.ToUpper(to))
	if fm == nil || tm == nil {
		return []string{from, to}
	}
	fn, _ := strconv.Atoi(fm[1])
	tn, _ := strconv.Atoi(tm[1])
	switch {
	case fm[2] == "" && tm[2] == "" && tn >= fn && tn-fn <= 50:
		out := make([]string, 0, tn-fn+1)
		for n := fn; n <= tn; n++ {
			out = append(out, strconv.Itoa(n))
		}
		return out
	case fm[2] != "" && tm[2] != "" && fn == tn && tm[2][0] >= fm[2][0]:
		var out []string
		for c := fm[2][0]; c <= tm[2][0]; c++ {
			out = append(out, fm[1]+string(c))
		}
		return out
	}
	return []string{strings.ToUpper(from), strings.ToUpper(to)}
}

// ExtractFigures reads one Figure per drawing-description paragraph that
// starts with a figure label.
func ExtractFigures(text string) []Figure {
	var out []Figure
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		m := figLinePrefix.FindStringSubmatch(para)
		if m == nil {
			continue
		}
		out = append(out, Figure{Number: strings.ToUpper(m[1]), Text: para})
	}
	return out
}

func sortFigureRefs(refs []string) {
	sort.SliceStable(refs, func(i, j int) bool {
		a := figNumPattern.FindStringSubmatch(refs[i])
		b := figNumPattern.FindStringSubmatch(refs[j])
		if a == nil || b == nil {
			return refs[i] < refs[j]
		}
		an, _ := strconv.Atoi(a[1])
		bn, _ := strconv.Atoi(b[1])
		if an != bn {
			return an < bn
		}
		return a[2] < b[2]
	})
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

//Personal.AI order the ending
