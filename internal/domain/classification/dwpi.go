package classification

import (
	"regexp"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

var (
	dwpiPattern = regexp.MustCompile(`^([A-X])(?:(\d{2})(?:\s*-?\s*([A-Z0-9]+))?)?$`)
	dwpiRun     = regexp.MustCompile(`[A-Z]+|[0-9]+`)
)

// Dwpi is a Derwent class or manual code.  The section letter and two-digit
// class are followed by a variable chain of letter and digit runs, each run
// one level deeper: "T01-J05B2" has depth 6.
type Dwpi struct {
	base
	section string
	class   string
	runs    []string
}

func (d *Dwpi) Section() string { return d.section }
func (d *Dwpi) Class() string   { return d.class }

// ManualCode returns the part after the hyphen, or "".
func (d *Dwpi) ManualCode() string { return strings.Join(d.runs, "") }

func (d *Dwpi) Truncate(depth int) Classification { return truncate(d, depth) }

// ParseDWPI parses "C", "C07", "B04-A01A" or "T01-J05B2".
func ParseDWPI(s string, opts ...Option) (*Dwpi, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	m := dwpiPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "dwpi %q", raw)
	}

	d := &Dwpi{section: m[1], class: m[2]}
	d.standard = StandardDWPI
	d.raw = raw
	d.parts = []string{m[1]}
	d.normalized = m[1]
	if m[2] != "" {
		d.parts = append(d.parts, m[1]+m[2])
		d.normalized += m[2]
	}
	if m[3] != "" {
		d.runs = dwpiRun.FindAllString(m[3], -1)
		for _, r := range d.runs {
			d.parts = append(d.parts, d.parts[len(d.parts)-1]+r)
		}
		d.normalized += "-" + m[3]
	}
	d.apply(opts)
	return d, nil
}

func dwpiText(parts []string) string {
	last := parts[len(parts)-1]
	if len(parts) <= 2 || len(last) < 3 {
		return last
	}
	return last[:3] + "-" + last[3:]
}

//Personal.AI order the ending
