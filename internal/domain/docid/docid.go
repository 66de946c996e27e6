// Package docid parses and normalizes patent and application identifiers:
// office country, document number, kind code, filing year and date.
//
// Normalization of a document number applies, in order:
//
//  1. removal of a country code duplicated at the start of the number;
//  2. expansion of an embedded two-digit filing year (leading 0 → 20xx,
//     leading 9 → 19xx) for application-side identifiers;
//  3. removal of separators, except in PCT identifiers which keep their
//     fixed-width form;
//  4. removal of leading zeros, unless disabled or the number starts with a
//     reserved alphabetic prefix (D, RE, PP, H, T, X, ...).
//
// Two identifiers are equal when country and normalized number match; the
// kind code is ignored.  Identifiers sort by date, then by kind-less id.
package docid

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// DocumentIdentifier is an immutable patent document or application id.
type DocumentIdentifier struct {
	country   CountryCode
	number    string
	rawNumber string
	kind      string
	year      int
	date      time.Time
	idType    IDType
	pct       bool
}

// Option adjusts identifier construction.
type Option func(*options)

type options struct {
	date             time.Time
	idType           IDType
	year             int
	keepLeadingZeros bool
	logger           logging.Logger
}

// WithDate sets the date attached to the identifier (publication, filing or
// citation date depending on the extraction site).
func WithDate(t time.Time) Option { return func(o *options) { o.date = t } }

// WithType tags the structural origin of the identifier.
func WithType(t IDType) Option { return func(o *options) { o.idType = t } }

// WithYear sets the application year explicitly.
func WithYear(y int) Option { return func(o *options) { o.year = y } }

// KeepLeadingZeros disables leading-zero stripping.  Some legacy corpora
// index numbers in their zero-padded form.
func KeepLeadingZeros(keep bool) Option { return func(o *options) { o.keepLeadingZeros = keep } }

// WithLogger routes ambiguous-country diagnostics to logger.
func WithLogger(l logging.Logger) Option { return func(o *options) { o.logger = l } }

func buildOptions(opts []Option) options {
	o := options{idType: TypeUnknown}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

var (
	pctPattern     = regexp.MustCompile(`^PCT[/\s-]*([A-Z]{2})[/\s-]*(\d{4}|\d{2})[/\s-]*(\d{1,6})$`)
	idPattern      = regexp.MustCompile(`^([A-Z]{2})[\s-]*([A-Z]{0,3}[0-9][0-9/,.\s-]*?)[\s-]*([A-Z][0-9]?)?$`)
	yearNumPattern = regexp.MustCompile(`^(\d{4})[/-](\d+)$`)
	shortYearNum   = regexp.MustCompile(`^(\d{2})[/-](\d+)$`)
	kindPattern    = regexp.MustCompile(`^[A-Z][0-9]?$`)
)

// Parse reads the textual form <country><optional-year/><number><optional-kind>,
// e.g. "US7654321B2", "US 2005/0123456 A1", "USD0456789S", "EP1234567B1" or
// "PCT/US2005/012345".
func Parse(text string, opts ...Option) (DocumentIdentifier, error) {
	raw := strings.ToUpper(strings.TrimSpace(text))
	if raw == "" {
		return DocumentIdentifier{}, errors.New(errors.ErrCodeDocumentIDInvalid, "empty document identifier")
	}
	if strings.HasPrefix(raw, "PCT") {
		return parsePCT(raw, buildOptions(opts))
	}

	m := idPattern.FindStringSubmatch(raw)
	if m == nil {
		return DocumentIdentifier{}, errors.Newf(errors.ErrCodeDocumentIDInvalid, "identifier %q does not match <country><number><kind>", text)
	}
	return New(m[1], m[2], m[3], opts...)
}

// New builds an identifier from separately extracted parts, as found in XML
// <document-id> elements.  The number is normalized; the country is resolved
// through the historical code table using the identifier's year.
func New(country, number, kind string, opts ...Option) (DocumentIdentifier, error) {
	o := buildOptions(opts)

	number = strings.ToUpper(strings.TrimSpace(number))
	kind = strings.ToUpper(strings.TrimSpace(kind))
	country = strings.ToUpper(strings.TrimSpace(country))

	if strings.HasPrefix(number, "PCT") {
		return parsePCT(number, o)
	}
	if number == "" {
		return DocumentIdentifier{}, errors.New(errors.ErrCodeDocumentIDInvalid, "empty document number")
	}
	if kind != "" && !kindPattern.MatchString(kind) {
		return DocumentIdentifier{}, errors.Newf(errors.ErrCodeKindCodeInvalid, "kind code %q", kind)
	}

	id := DocumentIdentifier{
		rawNumber: number,
		kind:      kind,
		date:      o.date,
		idType:    o.idType,
		year:      o.year,
	}

	// (a) duplicated country code.
	if len(country) == 2 && strings.HasPrefix(number, country) && len(number) > 2 && !isPrefixCollision(number) {
		number = strings.TrimLeft(number[2:], " -/")
	}

	// (b) embedded year.
	if m := yearNumPattern.FindStringSubmatch(number); m != nil {
		if y, _ := strconv.Atoi(m[1]); y >= 1800 && y <= 2100 {
			if id.year == 0 {
				id.year = y
			}
		}
	} else if m := shortYearNum.FindStringSubmatch(number); m != nil && o.idType.IsFiling() && country != string(US) {
		if y := ExpandYear(m[1]); y != 0 {
			if id.year == 0 {
				id.year = y
			}
			number = strconv.Itoa(y) + m[2]
		}
	}

	// (c) separators.
	number = stripSeparators(number)
	if number == "" || !isAlnum(number) {
		return DocumentIdentifier{}, errors.Newf(errors.ErrCodeDocumentIDInvalid, "document number %q", id.rawNumber)
	}

	// (d) leading zeros.
	if prefix, _ := SplitPrefix(number); prefix == "" && !o.keepLeadingZeros {
		trimmed := strings.TrimLeft(number, "0")
		if trimmed == "" {
			return DocumentIdentifier{}, errors.Newf(errors.ErrCodeDocumentIDInvalid, "document number %q is all zeros", id.rawNumber)
		}
		number = trimmed
	}
	id.number = number

	yearForCountry := id.year
	if yearForCountry == 0 && !id.date.IsZero() {
		yearForCountry = id.date.Year()
	}
	cc, err := NewCountryResolver(o.logger).Resolve(country, yearForCountry)
	if err != nil {
		return DocumentIdentifier{}, err
	}
	id.country = cc
	return id, nil
}

// parsePCT applies the fixed-width PCT rule: PCT/CCyyyy/nnnnnn for four-digit
// years, PCT/CCyy/nnnnn for two-digit years.  The number keeps its separators.
func parsePCT(raw string, o options) (DocumentIdentifier, error) {
	m := pctPattern.FindStringSubmatch(raw)
	if m == nil {
		return DocumentIdentifier{}, errors.Newf(errors.ErrCodeDocumentIDInvalid, "PCT identifier %q", raw)
	}
	office, yearText, serial := m[1], m[2], m[3]

	width := 6
	year, _ := strconv.Atoi(yearText)
	if len(yearText) == 2 {
		width = 5
		year = expandPCTYear(yearText)
	}
	if len(serial) > width {
		return DocumentIdentifier{}, errors.Newf(errors.ErrCodeDocumentIDInvalid, "PCT serial %q longer than %d digits", serial, width)
	}
	serial = strings.Repeat("0", width-len(serial)) + serial

	if _, err := NewCountryResolver(o.logger).Resolve(office, year); err != nil {
		return DocumentIdentifier{}, err
	}

	idType := o.idType
	if idType == TypeUnknown {
		idType = TypeInternationalFiling
	}
	return DocumentIdentifier{
		country:   WO,
		number:    "PCT/" + office + yearText + "/" + serial,
		rawNumber: raw,
		year:      year,
		date:      o.date,
		idType:    idType,
		pct:       true,
	}, nil
}

// ExpandYear turns a two-digit application year into four digits using the
// leading digit: "0x" → 200x, "9x" → 199x.  Other inputs yield 0.
func ExpandYear(two string) int {
	if len(two) != 2 || !isDigit(two[0]) || !isDigit(two[1]) {
		return 0
	}
	n, _ := strconv.Atoi(two)
	switch two[0] {
	case '0':
		return 2000 + n
	case '9':
		return 1900 + n
	}
	return 0
}

// expandPCTYear covers the full two-digit PCT era (1978–2003), where the
// leading-digit rule alone leaves 78–89 unexpanded.
func expandPCTYear(two string) int {
	if y := ExpandYear(two); y != 0 {
		return y
	}
	n, _ := strconv.Atoi(two)
	if n >= 78 {
		return 1900 + n
	}
	return 2000 + n
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '-', ',', '.', ' ', '\t':
			return -1
		}
		return r
	}, s)
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(isDigit(c) || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

// isPrefixCollision guards numbers whose reserved prefix happens to spell a
// country code, such as the "RE" of a reissue read with country "RE".
func isPrefixCollision(number string) bool {
	prefix, _ := SplitPrefix(number)
	return prefix != "" && len(prefix) >= 2
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

func (d DocumentIdentifier) Country() CountryCode { return d.country }
func (d DocumentIdentifier) Number() string       { return d.number }
func (d DocumentIdentifier) RawNumber() string    { return d.rawNumber }
func (d DocumentIdentifier) Kind() string         { return d.kind }
func (d DocumentIdentifier) Year() int            { return d.year }
func (d DocumentIdentifier) Date() time.Time      { return d.date }
func (d DocumentIdentifier) Type() IDType         { return d.idType }
func (d DocumentIdentifier) IsPCT() bool          { return d.pct }

// IsZero reports whether d was never constructed.
func (d DocumentIdentifier) IsZero() bool { return d.number == "" }

// ID is the canonical text form {country}{number}{kind}.  PCT identifiers
// render as their fixed-width number.
func (d DocumentIdentifier) ID() string {
	if d.pct {
		return d.number
	}
	return string(d.country) + d.number + d.kind
}

// IDNoKind omits the kind code, for de-duplication.
func (d DocumentIdentifier) IDNoKind() string {
	if d.pct {
		return d.number
	}
	return string(d.country) + d.number
}

func (d DocumentIdentifier) String() string { return d.ID() }

// PatentType derives the legal category from the number prefix, then from
// the kind code.
func (d DocumentIdentifier) PatentType() PatentType {
	if prefix, _ := SplitPrefix(d.number); prefix != "" {
		return prefixType(prefix)
	}
	if d.country == US {
		if info, ok := LookupKind(d.kind); ok {
			return info.Type
		}
	}
	if d.number != "" {
		return PatentUtility
	}
	return PatentUnknown
}

// Equal reports whether d and other name the same document, ignoring kind.
func (d DocumentIdentifier) Equal(other DocumentIdentifier) bool {
	return d.country == other.country && d.number == other.number
}

// Compare orders by date (unset dates first), then by kind-less id.
func Compare(a, b DocumentIdentifier) int {
	switch {
	case a.date.Before(b.date):
		return -1
	case a.date.After(b.date):
		return 1
	}
	return strings.Compare(a.IDNoKind(), b.IDNoKind())
}

// WithKind returns a copy of d carrying kind.
func (d DocumentIdentifier) WithKind(kind string) DocumentIdentifier {
	d.kind = strings.ToUpper(strings.TrimSpace(kind))
	return d
}

//Personal.AI order the ending
