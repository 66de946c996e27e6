package classification

import (
	"regexp"
	"strings"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// USPC codes are a class of up to three characters (numeric, Dnn design
// classes, PLT, G9B) and a subclass that may carry a decimal part, trailing
// letters or a DIG digest.
var uspcPattern = regexp.MustCompile(`^(\d{1,3}|D\s?\d{1,2}|PLT|G9B)(?:\s*[/\s]\s*(\d{1,3}(?:\.\d+)?[A-Z]{0,2}|DIG\.?\s*\d+))?$`)

var uspcSubclassNum = regexp.MustCompile(`^(\d{1,3})(.*)$`)

// Uspc is a United States Patent Classification code.
type Uspc struct {
	base
	class    string
	subclass string
}

func (u *Uspc) Class() string    { return u.class }
func (u *Uspc) Subclass() string { return u.subclass }

func (u *Uspc) Truncate(depth int) Classification { return truncate(u, depth) }

// ParseUSPC parses "428/195.1", "002/005R", "2 5R", "D12/345" or
// "273/DIG. 3".  Numeric classes are zero padded to three digits and the
// numeric head of the subclass likewise, giving "002/005R".
func ParseUSPC(s string, opts ...Option) (*Uspc, error) {
	raw := s
	s = compactSpaces(strings.ToUpper(strings.TrimSpace(s)))
	m := uspcPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.Newf(errors.ErrCodeClassificationInvalid, "uspc %q", raw)
	}

	class := strings.ReplaceAll(m[1], " ", "")
	switch {
	case onlyDigits(class):
		class = padLeft(class, 3)
	case strings.HasPrefix(class, "D") && onlyDigits(class[1:]):
		class = "D" + padLeft(class[1:], 2)
	}

	u := &Uspc{class: class}
	u.standard = StandardUSPC
	u.raw = raw
	u.parts = []string{class}
	u.normalized = class

	if sub := m[2]; sub != "" {
		if strings.HasPrefix(sub, "DIG") {
			sub = "DIG" + strings.TrimLeft(strings.TrimPrefix(sub, "DIG"), ". ")
		} else if sm := uspcSubclassNum.FindStringSubmatch(sub); sm != nil {
			sub = padLeft(sm[1], 3) + sm[2]
		}
		u.subclass = sub
		u.parts = append(u.parts, class+sub)
		u.normalized = class + "/" + sub
	}
	u.apply(opts)
	return u, nil
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

func uspcText(parts []string) string {
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[0] + "/" + parts[1][len(parts[0]):]
}

//Personal.AI order the ending
