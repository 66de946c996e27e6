package classification

import (
	"regexp"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// CPC and IPC share one grammar: section letter, two-digit class, subclass
// letter, main group of one to four digits and a subgroup of two or more
// digits.  CPC additionally uses section Y.
var (
	groupPattern = regexp.MustCompile(`^([A-HY])(?:\s*(\d{2})(?:\s*([A-Z])(?:\s*(\d{1,4})(?:\s*/\s*(\d{2,}))?)?)?)?$`)
	// WIPO ST.8 fixed width: A01B0001000000.
	fixedPattern   = regexp.MustCompile(`^([A-HY])(\d{2})([A-Z])(\d{4})(\d{6})$`)
	versionPattern = regexp.MustCompile(`\s*\(\d{4}\.\d{2}\)\s*$`)
)

// groupCode is the shared representation of CPC and IPC codes.
type groupCode struct {
	base
	section   string
	class     string
	subclass  string
	mainGroup string
	subgroup  string
}

func (g *groupCode) Section() string   { return g.section }
func (g *groupCode) Class() string     { return g.class }
func (g *groupCode) Subclass() string  { return g.subclass }
func (g *groupCode) MainGroup() string { return g.mainGroup }
func (g *groupCode) Subgroup() string  { return g.subgroup }

// Cpc is a Cooperative Patent Classification code.
type Cpc struct{ groupCode }

func (c *Cpc) Truncate(depth int) Classification { return truncate(c, depth) }

// Ipc is an International Patent Classification code.
type Ipc struct{ groupCode }

func (c *Ipc) Truncate(depth int) Classification { return truncate(c, depth) }

// ParseCPC parses forms such as "D07B2201/2051", "D07B 2201/2051",
// "H04L 29/06", "A01B" or "A01B0001000000".
func ParseCPC(s string, opts ...Option) (*Cpc, error) {
	g, err := parseGroupCode(StandardCPC, s, opts)
	if err != nil {
		return nil, err
	}
	return &Cpc{groupCode: *g}, nil
}

// ParseIPC accepts the CPC forms, except section Y, plus a trailing edition
// marker such as "(2006.01)".
func ParseIPC(s string, opts ...Option) (*Ipc, error) {
	g, err := parseGroupCode(StandardIPC, s, opts)
	if err != nil {
		return nil, err
	}
	return &Ipc{groupCode: *g}, nil
}

func parseGroupCode(std Standard, s string, opts []Option) (*groupCode, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	s = versionPattern.ReplaceAllString(s, "")

	var m []string
	if fm := fixedPattern.FindStringSubmatch(s); fm != nil {
		m = []string{fm[0], fm[1], fm[2], fm[3], fm[4], trimSubgroup(fm[5])}
	} else {
		m = groupPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "%s %q", std, raw)
	}
	if std == StandardIPC && m[1] == "Y" {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "ipc has no section Y: %q", raw)
	}
	g, err := newGroupCode(std, m[1], m[2], m[3], m[4], m[5], opts)
	if err != nil {
		return nil, err
	}
	g.raw = raw
	return g, nil
}

// trimSubgroup removes the right padding of a fixed-width subgroup, keeping
// at least two digits.
func trimSubgroup(s string) string {
	t := strings.TrimRight(s, "0")
	for len(t) < 2 {
		t += "0"
	}
	return t
}

func newGroupCode(std Standard, section, class, subclass, mainGroup, subgroup string, opts []Option) (*groupCode, error) {
	if mainGroup != "" {
		mainGroup = strings.TrimLeft(mainGroup, "0")
		if mainGroup == "" {
			mainGroup = "0"
		}
	}

	g := &groupCode{
		section:   section,
		class:     class,
		subclass:  subclass,
		mainGroup: mainGroup,
		subgroup:  subgroup,
	}
	g.standard = std

	parts := []string{section}
	text := section
	for _, step := range []struct{ part, sep string }{
		{class, ""},
		{subclass, ""},
		{mainGroup, " "},
		{subgroup, "/"},
	} {
		if step.part == "" {
			break
		}
		parts = append(parts, parts[len(parts)-1]+step.part)
		text += step.sep + step.part
	}
	if len(parts) == 5 && len(subgroup) < 2 {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "%s subgroup %q shorter than two digits", std, subgroup)
	}
	g.parts = parts
	g.normalized = text
	g.apply(opts)
	return g, nil
}

// splitGroupParts recovers the components of a CPC/IPC part chain.
func splitGroupParts(parts []string) (section, class, subclass, mainGroup, subgroup string, err error) {
	bad := func() error {
		return errors.Newf(errors.ErrCodeFacetInvalid, "group code parts %v", parts)
	}
	if len(parts) > 5 {
		return "", "", "", "", "", bad()
	}
	section = parts[0]
	if len(section) != 1 {
		return "", "", "", "", "", bad()
	}
	if len(parts) > 1 {
		if len(parts[1]) != 3 {
			return "", "", "", "", "", bad()
		}
		class = parts[1][1:]
	}
	if len(parts) > 2 {
		if len(parts[2]) != 4 {
			return "", "", "", "", "", bad()
		}
		subclass = parts[2][3:]
	}
	if len(parts) > 3 {
		mainGroup = parts[3][4:]
	}
	if len(parts) > 4 {
		subgroup = parts[4][len(parts[3]):]
	}
	if (class != "" && !onlyDigits(class)) || (mainGroup != "" && !onlyDigits(mainGroup)) || (subgroup != "" && !onlyDigits(subgroup)) {
		return "", "", "", "", "", bad()
	}
	return section, class, subclass, mainGroup, subgroup, nil
}

func groupText(section, class, subclass, mainGroup, subgroup string) string {
	text := section + class + subclass
	if mainGroup != "" {
		text += " " + mainGroup
	}
	if subgroup != "" {
		text += "/" + subgroup
	}
	return text
}

//Personal.AI order the ending
