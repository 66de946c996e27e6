package greenbook

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
)

var (
	person = fragment.PartyPaths{
		Name: fragment.NamePaths{Full: fragment.P("NAM")},
		Address: fragment.AddressPaths{
			Street:     fragment.P("STR"),
			City:       fragment.P("CTY"),
			State:      fragment.P("STA"),
			PostalCode: fragment.P("ZIP"),
			Country:    fragment.P("CNT"),
		},
	}
	// Assignee names are organizations unless written "Last; First".
	assignee = fragment.PartyPaths{
		Name: fragment.NamePaths{
			Org:  fragment.P("NAM[not(contains(., ';'))]"),
			Full: fragment.P("NAM"),
		},
		Address: person.Address,
		Detail:  fragment.P("COD"),
	}
	filing = fragment.IDPaths{
		Country: fragment.P("CNT"),
		Number:  fragment.P("APN"),
		Date:    fragment.P("APD"),
	}
	granted = fragment.IDPaths{
		Country: fragment.P("CNT"),
		Number:  fragment.P("PNO"),
		Date:    fragment.P("ISD"),
	}

	wkuPath         = fragment.P("WKU")
	seriesPath      = fragment.P("SRC")
	appNumberPath   = fragment.P("APN")
	filingDatePath  = fragment.P("APD")
	issueDatePath   = fragment.P("ISD")
	titlePath       = fragment.P("TTL")
	artUnitPath     = fragment.P("ART")
	primaryPath     = fragment.P("EXP")
	assistantPath   = fragment.P("EXA")
	prioritiesPath  = fragment.P("PRIR")
	relatedPath     = fragment.P("RLAP")
	relatedCodePath = fragment.P("COD")
	reissuePath     = fragment.P("REIS")
	pctPath         = fragment.P("PCTA")
	pctNumberPath   = fragment.P("PCN")
	pctDatePath     = fragment.P("PCD")
	pctPubPath      = fragment.P("PCP")
	pctPubDatePath  = fragment.P("PCT")
	usMainPath      = fragment.P("CLAS/OCL")
	usFurtherPath   = fragment.P("CLAS/XCL")
	intlPath        = fragment.P("CLAS/ICL")
	inventorsPath   = fragment.P("INVT")
	assigneesPath   = fragment.P("ASSG")
	agentsPath      = fragment.P("LREP/*")
	citationsPath   = fragment.P("UREF | FREF | OREF/PAL")
	abstractPath    = fragment.P("ABST")
	claimSetPath    = fragment.P("CLMS | DCLM")
	claimPath       = fragment.P("CLM")
	claimNumPath    = fragment.P("NUM")
	claimBodyPath   = fragment.P("*[not(self::NUM)]")
	loneClaimPath   = fragment.P("PAR | PAL")

	citation = fragment.CitationPaths{
		Patent:         fragment.P("self::*[PNO]"),
		ID:             granted,
		NPL:            fragment.P("self::PAL"),
		Classification: fragment.P("OCL"),
		Patentee:       fragment.P("NAM"),
		By:             func(*xmlquery.Node) patent.CitedBy { return patent.CitedByUnknown },
	}
)

// relatedCodes maps the RLAP parent code to the kind of relationship.
var relatedCodes = map[string]docid.IDType{
	"71": docid.TypeContinuationInPart,
	"72": docid.TypeContinuation,
	"73": docid.TypeDivision,
}

// agentRoles maps LREP fields to the detail recorded on the agent.  FRM is a
// firm name; the others are person names written "Last; First".
var agentRoles = map[string]string{
	"FRM": "firm",
	"FR2": "principal attorney",
	"AAT": "associate attorney",
	"ATT": "attorney",
	"AGT": "agent",
}

// sectionTypes gives the default type of each description section; a
// recognizable PAC heading overrides it.
var sectionTypes = map[string]patent.SectionType{
	"PARN": patent.SectionRelatedApplication,
	"BSUM": patent.SectionBriefSummary,
	"DRWD": patent.SectionDrawingDescription,
	"DETD": patent.SectionDetailedDescription,
	"GOVT": patent.SectionOther,
}

// Parse extracts one grant from the PATN element built by Tree.  The format
// carries no kind codes; identifiers are kind-less.
func Parse(root *xmlquery.Node, env fragment.Env, src patent.Source) (*patent.Patent, error) {
	s := fragment.NewSession(env, patent.KindGrant)
	b := s.Builder()
	var design bool

	s.Field("publication", func() error {
		number := checkDigitless(wkuPath.Text(root), 9)
		if number == "" {
			return nil
		}
		id, err := identifier(s, "publication", "", number, issueDatePath.Text(root), docid.TypePublished)
		if err != nil {
			return err
		}
		s.SetPrimaryID(id)
		b.SetPublicationDate(id.Date())
		design = id.PatentType() == docid.PatentDesign
		return nil
	})
	s.Field("application", func() error {
		serial := checkDigitless(appNumberPath.Text(root), 7)
		if serial == "" {
			return nil
		}
		if series := seriesPath.Text(root); isDigits(series) {
			serial = series + "/" + serial
		}
		id, err := identifier(s, "application", "", serial, filingDatePath.Text(root), docid.TypeApplication)
		if err != nil {
			return err
		}
		b.SetApplicationID(id)
		b.SetFilingDate(id.Date())
		return nil
	})
	s.Field("priority", func() error {
		s.Identifiers("priority", prioritiesPath.All(root), filing, docid.TypePriority, func(id docid.DocumentIdentifier) { b.AddPriorityID(id) })
		return nil
	})
	s.Field("related", func() error {
		for _, n := range relatedPath.All(root) {
			t, ok := relatedCodes[relatedCodePath.Text(n)]
			if !ok {
				t = docid.TypeUnknown
			}
			s.Identifiers("related", []*xmlquery.Node{n}, filing, t, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
			s.Identifiers("related", []*xmlquery.Node{n}, granted, docid.TypeRelatedPublication, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		}
		s.Identifiers("reissue", reissuePath.All(root), granted, docid.TypeReissue, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		return nil
	})
	s.Field("pct", func() error {
		for _, n := range pctPath.All(root) {
			s.Identifiers("pct", []*xmlquery.Node{n}, fragment.IDPaths{Number: pctNumberPath, Date: pctDatePath}, docid.TypeInternationalFiling, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
			if pub := pctPubPath.Text(n); pub != "" {
				country, number := splitCountry(pub)
				id, err := identifier(s, "pct", country, number, pctPubDatePath.Text(n), docid.TypePublished)
				if err != nil {
					s.Fail("pct", err)
					continue
				}
				b.AddOtherID(id)
			}
		}
		return nil
	})
	s.Field("title", func() error {
		b.SetTitle(titlePath.Text(root))
		return nil
	})

	s.Field("classification", func() error {
		s.Classify("uspc", classification.StandardUSPC, fragment.USPCText(usMainPath.Text(root)), true)
		for _, text := range usFurtherPath.Texts(root) {
			s.Classify("uspc", classification.StandardUSPC, fragment.USPCText(text), false)
		}
		for i, text := range intlPath.Texts(root) {
			if design && len(text) == 4 && isDigits(text) {
				s.Classify("locarno", classification.StandardLocarno, text, i == 0)
				continue
			}
			s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), i == 0)
		}
		return nil
	})

	s.Field("parties", func() error {
		s.Parties("inventor", patent.RoleInventor, inventorsPath.All(root), person)
		s.Parties("assignee", patent.RoleAssignee, assigneesPath.All(root), assignee)
		for _, n := range agentsPath.All(root) {
			detail, ok := agentRoles[fragment.Name(n)]
			if !ok {
				continue
			}
			name, err := agentName(fragment.Name(n), fragment.Text(n))
			if err != nil {
				s.Fail("agent", err)
				continue
			}
			p, err := patent.NewParty(patent.RoleAgent, name, patent.Address{})
			if err != nil {
				s.Fail("agent", err)
				continue
			}
			p.Detail = detail
			b.AddParty(p)
		}
		unit := artUnitPath.Text(root)
		examiner(s, primaryPath.Text(root), "primary", unit)
		examiner(s, assistantPath.Text(root), "assistant", unit)
		return nil
	})
	s.Field("citations", func() error {
		s.Citations("citations", citationsPath.All(root), citation)
		return nil
	})

	s.Field("abstract", func() error {
		if n := abstractPath.One(root); n != nil {
			markup := fragment.Markup(n)
			b.SetAbstract(s.PlainText(markup), s.SimpleHTML(markup))
		}
		return nil
	})
	s.Field("description", func() error {
		var secs []patent.Section
		for _, c := range fragment.Children(root) {
			t, ok := sectionTypes[fragment.Name(c)]
			if !ok {
				continue
			}
			for _, sec := range s.Sections(c, isHeading, nil) {
				if sec.Type == patent.SectionOther {
					sec.Type = t
				}
				secs = append(secs, sec)
			}
		}
		if len(secs) > 0 {
			b.SetDescription(patent.NewDescription(secs...))
		}
		return nil
	})
	s.Field("claims", func() error {
		for _, set := range claimSetPath.All(root) {
			claims := claimPath.All(set)
			if len(claims) == 0 {
				if body := markupOf(loneClaimPath.All(set)); body != "" {
					s.AddClaim("1", body, nil)
				}
				continue
			}
			for _, c := range claims {
				id := strings.TrimRight(claimNumPath.Text(c), ". ")
				s.AddClaim(id, markupOf(claimBodyPath.All(c)), nil)
			}
		}
		return nil
	})

	return s.Build(src)
}

// identifier builds an identifier from values that need rewriting before
// they can be read through paths.  A malformed date is reported against
// field and dropped.
func identifier(s *fragment.Session, field, country, number, date string, t docid.IDType) (docid.DocumentIdentifier, error) {
	opts := []docid.Option{docid.WithType(t)}
	d, err := s.Date(date)
	switch {
	case err != nil:
		s.Fail(field+".date", err)
	case !d.IsZero():
		opts = append(opts, docid.WithDate(d))
	}
	return s.ID(country, number, "", opts...)
}

func isHeading(n *xmlquery.Node) bool { return fragment.Name(n) == "PAC" }

func examiner(s *fragment.Session, full, detail, unit string) {
	if full == "" {
		return
	}
	name, err := patent.ParsePersonName(full)
	if err != nil {
		s.Fail("examiner", err)
		return
	}
	p, err := patent.NewParty(patent.RoleExaminer, name, patent.Address{})
	if err != nil {
		s.Fail("examiner", err)
		return
	}
	p.Detail = strings.TrimSpace(detail + " " + unit)
	s.Builder().AddParty(p)
}

func agentName(tag, text string) (patent.Name, error) {
	if tag == "FRM" {
		return patent.NewOrganization(text)
	}
	return patent.ParsePersonName(text)
}

func markupOf(nodes []*xmlquery.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(fragment.Outer(n))
	}
	return sb.String()
}

// checkDigitless drops the trailing check digit of a number written at its
// full fixed width.  Shorter values are returned as they are.
func checkDigitless(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) == width {
		return s[:width-1]
	}
	return s
}

// splitCountry separates a leading two-letter office code ("WO91/12345").
func splitCountry(s string) (country, number string) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && isUpper(s[0]) && isUpper(s[1]) && !isUpper(s[2]) {
		return s[:2], s[2:]
	}
	return "", s
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
