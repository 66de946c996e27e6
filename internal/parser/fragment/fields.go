package fragment

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Identifiers
// ─────────────────────────────────────────────────────────────────────────────

// IDPaths locates the parts of one document-id structure relative to its
// node.
type IDPaths struct {
	Country Paths
	Number  Paths
	Kind    Paths
	Date    Paths
}

// Identifier reads one identifier below n.  A missing number yields the zero
// identifier and no error.  A malformed date is reported against field but
// does not invalidate the identifier.
func (s *Session) Identifier(field string, n *xmlquery.Node, p IDPaths, t docid.IDType) (docid.DocumentIdentifier, error) {
	number := p.Number.Text(n)
	if number == "" {
		return docid.DocumentIdentifier{}, nil
	}
	opts := []docid.Option{docid.WithType(t)}
	if text := p.Date.Text(n); text != "" {
		d, err := s.Date(text)
		if err != nil {
			s.Fail(field+".date", err)
		} else {
			opts = append(opts, docid.WithDate(d))
		}
	}
	return s.ID(p.Country.Text(n), number, p.Kind.Text(n), opts...)
}

// Identifiers reads the identifier below every node and hands the non-zero
// ones to add.  A malformed identifier is reported and skipped.
func (s *Session) Identifiers(field string, nodes []*xmlquery.Node, p IDPaths, t docid.IDType, add func(docid.DocumentIdentifier)) {
	for _, n := range nodes {
		id, err := s.Identifier(field, n, p, t)
		if err != nil {
			s.Fail(field, err)
			continue
		}
		if !id.IsZero() {
			add(id)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Parties
// ─────────────────────────────────────────────────────────────────────────────

// NamePaths locates name parts.  Full is a single "Last; First Middle" style
// element used when no structured parts exist.
type NamePaths struct {
	First  Paths
	Middle Paths
	Last   Paths
	Suffix Paths
	Org    Paths
	Full   Paths
}

// AddressPaths locates address parts.
type AddressPaths struct {
	Street     Paths
	City       Paths
	State      Paths
	PostalCode Paths
	Country    Paths
	Email      Paths
}

// PartyPaths locates the parts of one party relative to its node.
type PartyPaths struct {
	Name    NamePaths
	Address AddressPaths
	Detail  Paths
}

// Party reads one party below n.
func (s *Session) Party(field string, role patent.Role, n *xmlquery.Node, p PartyPaths) (patent.Party, error) {
	name, err := s.name(n, p.Name)
	if err != nil {
		return patent.Party{}, err
	}
	party, err := patent.NewParty(role, name, s.address(field, n, p.Address))
	if err != nil {
		return patent.Party{}, err
	}
	party.Detail = p.Detail.Text(n)
	return party, nil
}

// Parties adds every party found below nodes and returns how many were added.
func (s *Session) Parties(field string, role patent.Role, nodes []*xmlquery.Node, p PartyPaths) int {
	added := 0
	for _, n := range nodes {
		party, err := s.Party(field, role, n, p)
		if err != nil {
			s.Fail(field, err)
			continue
		}
		s.b.AddParty(party)
		added++
	}
	return added
}

func (s *Session) name(n *xmlquery.Node, p NamePaths) (patent.Name, error) {
	first, last := p.First.Text(n), p.Last.Text(n)
	if first != "" || last != "" {
		return patent.NewPerson(first, p.Middle.Text(n), last, p.Suffix.Text(n))
	}
	if org := p.Org.Text(n); org != "" {
		return patent.NewOrganization(org)
	}
	if full := p.Full.Text(n); full != "" {
		return patent.ParsePersonName(full)
	}
	return patent.Name{}, errors.New(errors.ErrCodeFieldExtractionFailed, "party has no name")
}

func (s *Session) address(field string, n *xmlquery.Node, p AddressPaths) patent.Address {
	addr := patent.Address{
		Street:     p.Street.Text(n),
		City:       p.City.Text(n),
		State:      p.State.Text(n),
		PostalCode: p.PostalCode.Text(n),
		Email:      p.Email.Text(n),
	}
	if raw := p.Country.Text(n); raw != "" {
		cc, err := s.Country(raw)
		if err != nil {
			s.Fail(field+".country", err)
		} else {
			addr.Country = cc
		}
	}
	return addr
}

// Country resolves an office or residence country code.  Codes of the
// legacy three-letter form ending in X ("DEX") are accepted.
func (s *Session) Country(raw string) (docid.CountryCode, error) {
	return docid.NewCountryResolver(s.env.Logger).Resolve(legacyCountry(raw), 0)
}

func legacyCountry(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if len(raw) == 3 && raw[2] == 'X' {
		raw = raw[:2]
	}
	return raw
}

// ─────────────────────────────────────────────────────────────────────────────
// Claims and description
// ─────────────────────────────────────────────────────────────────────────────

// AddClaim adds one claim.  refs are the explicit claim references found in
// markup; when there are none the plain text is scanned for "claim N"
// phrases.  A repeated claim id is reported and the claim skipped.
func (s *Session) AddClaim(id, markup string, refs []string) {
	if s.b.HasClaim(id) {
		s.Fail("claims", errors.Newf(errors.ErrCodeFieldExtractionFailed, "duplicate claim id %s", patent.NormalizeClaimID(id)))
		return
	}
	text := s.PlainText(markup)
	if len(refs) == 0 {
		refs = patent.ClaimRefs(text)
	}
	s.b.AddClaim(patent.NewClaim(id, text, refs).WithHTML(s.SimpleHTML(markup)))
}

// Section builds one description section.  An empty t is derived from the
// heading.
func (s *Session) Section(t patent.SectionType, heading, markup string) patent.Section {
	if t == "" {
		t = patent.SectionTypeForHeading(heading)
	}
	return patent.Section{
		Type:    t,
		Heading: heading,
		Text:    s.PlainText(markup),
		HTML:    s.SimpleHTML(markup),
	}
}

// markedSections maps the processing instructions that bracket parts of a
// v4 description to the section type of the part.
var markedSections = map[string]patent.SectionType{
	"RELAPP":                        patent.SectionRelatedApplication,
	"BRFSUM":                        patent.SectionBriefSummary,
	"brief-description-of-drawings": patent.SectionDrawingDescription,
	"DETDESC":                       patent.SectionDetailedDescription,
}

// Sections splits the children of n into sections at heading elements.
// Children whose element name is a key of nested become sections of their
// own with the mapped type.  Between the lead and tail Marker of a known
// part, sections whose heading names no type take the type of the part.
func (s *Session) Sections(n *xmlquery.Node, isHeading func(*xmlquery.Node) bool, nested map[string]patent.SectionType) []patent.Section {
	var (
		out     []patent.Section
		heading string
		body    strings.Builder
		part    patent.SectionType
	)
	flush := func() {
		if heading != "" || strings.TrimSpace(body.String()) != "" {
			t := patent.SectionTypeForHeading(heading)
			if t == patent.SectionOther && part != "" {
				t = part
			}
			out = append(out, s.Section(t, heading, body.String()))
		}
		heading = ""
		body.Reset()
	}
	for _, c := range Children(n) {
		if target, ok := MarkerTarget(c); ok {
			flush()
			part = ""
			if Attr(c, "end") != "tail" {
				part = markedSections[target]
			}
			continue
		}
		if t, ok := nested[Name(c)]; ok {
			flush()
			out = append(out, s.nestedSection(c, isHeading, t))
			continue
		}
		if isHeading(c) {
			flush()
			heading = Text(c)
			continue
		}
		body.WriteString(Outer(c))
	}
	flush()
	return out
}

func (s *Session) nestedSection(n *xmlquery.Node, isHeading func(*xmlquery.Node) bool, t patent.SectionType) patent.Section {
	var (
		heading string
		body    strings.Builder
	)
	for _, c := range Children(n) {
		if _, ok := MarkerTarget(c); ok {
			continue
		}
		if heading == "" && isHeading(c) {
			heading = Text(c)
			continue
		}
		body.WriteString(Outer(c))
	}
	return s.Section(t, heading, body.String())
}

// ─────────────────────────────────────────────────────────────────────────────
// Citations
// ─────────────────────────────────────────────────────────────────────────────

// CitationPaths locates the parts of one citation relative to its node.
type CitationPaths struct {
	Patent         Paths
	ID             IDPaths
	NPL            Paths
	Category       Paths
	Classification Paths
	Patentee       Paths
	// By, when set, replaces the Category text lookup; formats that mark the
	// citing party with an empty element need it.
	By func(*xmlquery.Node) patent.CitedBy
}

// Citations adds every citation below nodes in document order.
func (s *Session) Citations(field string, nodes []*xmlquery.Node, p CitationPaths) {
	seq := 0
	for _, n := range nodes {
		by := patent.ParseCitedBy(p.Category.Text(n))
		if p.By != nil {
			by = p.By(n)
		}
		if pat := p.Patent.One(n); pat != nil {
			id, err := s.Identifier(field, pat, p.ID, docid.TypeCitation)
			if err != nil {
				s.Fail(field, err)
				continue
			}
			if id.IsZero() {
				continue
			}
			seq++
			c := patent.PatCitation{Seq: seq, By: by, DocID: id, Patentee: p.Patentee.Text(n)}
			if text := p.Classification.Text(n); text != "" {
				cls, err := classification.Parse(classification.StandardUSPC, USPCText(text))
				if err != nil {
					s.Fail(field+".classification", err)
				} else {
					c.Classification = cls
				}
			}
			s.b.AddCitation(c)
			continue
		}
		if text := p.NPL.Text(n); text != "" {
			seq++
			s.b.AddCitation(patent.NplCitation{Seq: seq, By: by, Text: text})
		}
	}
}

//Personal.AI order the ending
