package classification

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

var (
	locarnoPattern = regexp.MustCompile(`^(\d{1,2})(?:\s*[-./]?\s*(\d{2}|\d))?$`)
	// "LOC (9) Cl. 02-03" as printed on design patents.
	locarnoLabel = regexp.MustCompile(`^LOC\s*(?:\(\d+\))?\s*(?:CL\.?)?\s*`)
)

// Locarno classes run from 01 to 32.
const locarnoMaxClass = 32

// Locarno is an industrial design classification: class and subclass.
type Locarno struct {
	base
	class    string
	subclass string
}

func (l *Locarno) Class() string    { return l.class }
func (l *Locarno) Subclass() string { return l.subclass }

func (l *Locarno) Truncate(depth int) Classification { return truncate(l, depth) }

// ParseLocarno parses "02-03", "0203", "2-3" or "LOC (9) Cl. 02-03" into
// the normalized form "02-03".
func ParseLocarno(s string, opts ...Option) (*Locarno, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	s = locarnoLabel.ReplaceAllString(s, "")
	m := locarnoPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "locarno %q", raw)
	}
	if n, _ := strconv.Atoi(m[1]); n < 1 || n > locarnoMaxClass {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "locarno class %q out of range", m[1])
	}

	class := padLeft(m[1], 2)
	l := &Locarno{class: class}
	l.standard = StandardLocarno
	l.raw = raw
	l.parts = []string{class}
	l.normalized = class
	if m[2] != "" {
		l.subclass = padLeft(m[2], 2)
		l.parts = append(l.parts, class+l.subclass)
		l.normalized = class + "-" + l.subclass
	}
	l.apply(opts)
	return l, nil
}

func locarnoText(parts []string) string {
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[0] + "-" + parts[1][len(parts[0]):]
}

//Personal.AI order the ending
