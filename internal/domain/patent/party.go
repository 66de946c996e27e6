package patent

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Name
// ─────────────────────────────────────────────────────────────────────────────

// NameKind distinguishes natural persons from organizations.
type NameKind string

const (
	NamePerson       NameKind = "person"
	NameOrganization NameKind = "organization"
)

// Name is a party name.  Persons carry first/middle/last/suffix; organizations
// carry a single name.  Synonyms are derived once at construction.
type Name struct {
	kind     NameKind
	first    string
	middle   string
	last     string
	suffix   string
	org      string
	synonyms []string
}

// NewPerson builds a person name.  Either first or last must be present.
func NewPerson(first, middle, last, suffix string) (Name, error) {
	n := Name{
		kind:   NamePerson,
		first:  cleanName(first),
		middle: cleanName(middle),
		last:   cleanName(last),
		suffix: cleanName(suffix),
	}
	if n.first == "" && n.last == "" {
		return Name{}, errors.New(errors.ErrCodeFieldExtractionFailed, "person name has neither first nor last name")
	}
	n.synonyms = personSynonyms(n)
	return n, nil
}

// ParsePersonName splits "Last; First Middle" (Greenbook), "Last, First" or
// "First Middle Last" forms.
func ParsePersonName(full string) (Name, error) {
	full = cleanName(full)
	for _, sep := range []string{";", ","} {
		if i := strings.Index(full, sep); i >= 0 {
			last := full[:i]
			rest := strings.Fields(full[i+1:])
			first, middle, suffix := splitGiven(rest)
			return NewPerson(first, middle, last, suffix)
		}
	}
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return NewPerson("", "", "", "")
	case 1:
		return NewPerson("", "", fields[0], "")
	}
	suffix := ""
	if isNameSuffix(fields[len(fields)-1]) && len(fields) > 2 {
		suffix = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}
	return NewPerson(fields[0], strings.Join(fields[1:len(fields)-1], " "), fields[len(fields)-1], suffix)
}

func splitGiven(fields []string) (first, middle, suffix string) {
	if n := len(fields); n > 0 && isNameSuffix(fields[n-1]) {
		suffix = fields[n-1]
		fields = fields[:n-1]
	}
	if len(fields) > 0 {
		first = fields[0]
		middle = strings.Join(fields[1:], " ")
	}
	return first, middle, suffix
}

func isNameSuffix(s string) bool {
	switch strings.ToUpper(strings.TrimRight(s, ".")) {
	case "JR", "SR", "II", "III", "IV":
		return true
	}
	return false
}

// NewOrganization builds an organization name.
func NewOrganization(name string) (Name, error) {
	n := Name{kind: NameOrganization, org: cleanName(name)}
	if n.org == "" {
		return Name{}, errors.New(errors.ErrCodeFieldExtractionFailed, "organization name is empty")
	}
	n.synonyms = orgSynonyms(n.org)
	return n, nil
}

func (n Name) Kind() NameKind { return n.kind }
func (n Name) First() string  { return n.first }
func (n Name) Middle() string { return n.middle }
func (n Name) Last() string   { return n.last }
func (n Name) Suffix() string { return n.suffix }
func (n Name) IsZero() bool   { return n.kind == "" }
func (n Name) String() string { return n.Full() }

// Synonyms returns alternate spellings for matching, without the full name
// itself.
func (n Name) Synonyms() []string {
	out := make([]string, len(n.synonyms))
	copy(out, n.synonyms)
	return out
}

// Full renders "First Middle Last Suffix" or the organization name.
func (n Name) Full() string {
	if n.kind == NameOrganization {
		return n.org
	}
	return joinNonEmpty(" ", n.first, n.middle, n.last, n.suffix)
}

// LastFirst renders "Last, First Middle".
func (n Name) LastFirst() string {
	if n.kind == NameOrganization {
		return n.org
	}
	given := joinNonEmpty(" ", n.first, n.middle)
	if given == "" {
		return n.last
	}
	if n.last == "" {
		return given
	}
	return n.last + ", " + given
}

func personSynonyms(n Name) []string {
	var cands []string
	cands = append(cands, n.LastFirst())
	if n.first != "" && n.last != "" {
		cands = append(cands,
			joinNonEmpty(" ", n.first, n.last),
			joinNonEmpty(" ", initial(n.first), n.last),
			n.last+", "+initial(n.first),
		)
		if n.middle != "" {
			cands = append(cands, joinNonEmpty(" ", initial(n.first), initial(n.middle), n.last))
		}
	}
	return finishSynonyms(n.Full(), cands)
}

// orgSuffixes are legal-form words dropped when deriving the short name.
var orgSuffixes = map[string]bool{
	"INC": true, "INCORPORATED": true, "CORP": true, "CORPORATION": true,
	"CO": true, "COMPANY": true, "LTD": true, "LIMITED": true, "LLC": true,
	"LLP": true, "LP": true, "PLC": true, "GMBH": true, "AG": true, "KG": true,
	"SA": true, "S.A": true, "NV": true, "BV": true, "AB": true, "OY": true,
	"SPA": true, "KK": true, "KABUSHIKI": true, "KAISHA": true,
}

func orgSynonyms(org string) []string {
	words := strings.Fields(strings.NewReplacer(",", " ", "&", " AND ").Replace(org))
	for len(words) > 1 {
		w := strings.ToUpper(strings.Trim(words[len(words)-1], "."))
		if !orgSuffixes[w] {
			break
		}
		words = words[:len(words)-1]
	}
	short := strings.Join(words, " ")
	return finishSynonyms(org, []string{short, strings.ToUpper(short)})
}

// finishSynonyms adds diacritic-folded and title-cased variants, then drops
// duplicates and the full name.
func finishSynonyms(full string, cands []string) []string {
	title := cases.Title(language.Und, cases.NoLower)
	var all []string
	for _, c := range cands {
		all = append(all, c, Fold(c))
	}
	all = append(all, Fold(full), title.String(strings.ToLower(full)))

	seen := map[string]bool{full: true, "": true}
	out := make([]string, 0, len(all))
	for _, s := range all {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Fold removes diacritics: "Müller" becomes "Muller".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func initial(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r)) + "."
	}
	return ""
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(strings.Trim(s, " ,;")), " ")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// ─────────────────────────────────────────────────────────────────────────────
// Address
// ─────────────────────────────────────────────────────────────────────────────

// Address is a postal address as printed on the document.
type Address struct {
	Street     string            `json:"street,omitempty"`
	City       string            `json:"city,omitempty"`
	State      string            `json:"state,omitempty"`
	PostalCode string            `json:"postal_code,omitempty"`
	Country    docid.CountryCode `json:"country,omitempty"`
	Email      string            `json:"email,omitempty"`
}

// IsZero reports whether no address component is set.
func (a Address) IsZero() bool { return a == Address{} }

// ─────────────────────────────────────────────────────────────────────────────
// Party
// ─────────────────────────────────────────────────────────────────────────────

// Role is the capacity in which a party appears on a document.
type Role string

const (
	RoleInventor      Role = "inventor"
	RoleApplicant     Role = "applicant"
	RoleAssignee      Role = "assignee"
	RoleAgent         Role = "agent"
	RoleExaminer      Role = "examiner"
	RoleCorrespondent Role = "correspondent"
)

// Party is an inventor, applicant, assignee, agent, examiner or
// correspondence addressee.
type Party struct {
	Role     Role
	Name     Name
	Address  Address
	Sequence int
	// Detail is role specific: the assignee type code, "primary" or
	// "assistant" for examiners, the examiner's art unit, or the applicant's
	// authority category.
	Detail string
}

// NewParty builds a Party; the name is required.
func NewParty(role Role, name Name, addr Address) (Party, error) {
	if name.IsZero() {
		return Party{}, errors.Newf(errors.ErrCodeFieldExtractionFailed, "%s without a name", role)
	}
	return Party{Role: role, Name: name, Address: addr}, nil
}

//Personal.AI order the ending
