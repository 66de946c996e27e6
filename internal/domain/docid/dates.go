package docid

import (
	"strings"
	"time"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// ParseDate reads the date layouts found across the five document formats:
// YYYYMMDD, YYYY-MM-DD and YYYY/MM/DD.  A day or month of "00", common in
// pre-1976 citations, is read as the first day or month.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	digits := strings.Map(func(r rune) rune {
		if r == '-' || r == '/' || r == '.' {
			return -1
		}
		return r
	}, s)

	if len(digits) != 8 {
		return time.Time{}, errors.Newf(errors.ErrCodeDateInvalid, "date %q has unexpected length", s)
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return time.Time{}, errors.Newf(errors.ErrCodeDateInvalid, "date %q is not numeric", s)
		}
	}
	if digits[4:6] == "00" {
		digits = digits[:4] + "01" + digits[6:]
	}
	if digits[6:8] == "00" {
		digits = digits[:6] + "01"
	}

	t, err := time.Parse("20060102", digits)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, errors.ErrCodeDateInvalid, "date %q", s)
	}
	if t.Year() < 1790 || t.Year() > 2100 {
		return time.Time{}, errors.Newf(errors.ErrCodeDateInvalid, "date %q out of range", s)
	}
	return t, nil
}

// FormatDate renders t as YYYYMMDD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

//Personal.AI order the ending
