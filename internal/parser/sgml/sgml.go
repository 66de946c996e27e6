// Package sgml extracts grants from the 2001-2004 USPTO SGML markup
// (ST.32, PATDOC root).  Element names are the numbered ST.32 tags; B110
// is the document number, B210 the application number and so on.
package sgml

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Root is the accepted root element.
const Root = "PATDOC"

// emptyElements are declared EMPTY in the DTD and never closed in records.
var emptyElements = []string{
	"CITED-BY-EXAMINER", "CITED-BY-OTHER", "EMI", "CHEMCDX", "CHEMMOL",
	"MATHEMATICA", "BR", "IMG", "CUSTOM-CHARACTER",
}

var (
	startTag = regexp.MustCompile(`<[A-Za-z][\w.-]*\s[^<>]*>`)
	attrPair = regexp.MustCompile(`(\s[A-Za-z_:][\w.:-]*\s*=\s*)("[^"]*"|'[^']*'|[^\s"'>]+)`)
)

// Tree parses a record leniently: empty elements need no end tag, unknown
// entities stay as text and unquoted attribute values are accepted.
func Tree(r io.Reader) (*xmlquery.Node, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "failed to read SGML record")
	}
	return xmlquery.ParseWithOptions(bytes.NewReader(quoteAttrs(text)), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:    false,
			AutoClose: emptyElements,
			Entity:    xml.HTMLEntity,
		},
	})
}

// quoteAttrs quotes bare attribute values ("DTD=2.4").  The decoder reads
// an unquoted value only up to the first character outside [A-Za-z0-9_:-].
func quoteAttrs(text []byte) []byte {
	return startTag.ReplaceAllFunc(text, func(tag []byte) []byte {
		return attrPair.ReplaceAllFunc(tag, func(pair []byte) []byte {
			m := attrPair.FindSubmatch(pair)
			if v := m[2]; v[0] == '"' || v[0] == '\'' {
				return pair
			}
			out := make([]byte, 0, len(pair)+2)
			out = append(out, m[1]...)
			out = append(out, '"')
			out = append(out, m[2]...)
			return append(out, '"')
		})
	})
}

var (
	biblio = fragment.P("SDOBI")

	publication = fragment.IDPaths{
		Country: fragment.P("B100/B190"),
		Number:  fragment.P("B100/B110/DNUM"),
		Kind:    fragment.P("B100/B130"),
		Date:    fragment.P("B100/B140/DATE"),
	}
	application = fragment.IDPaths{
		Number: fragment.P("B200/B210/DNUM"),
		Date:   fragment.P("B200/B220/DATE"),
	}
	priority = fragment.IDPaths{
		Country: fragment.P("B330/CTRY"),
		Number:  fragment.P("B310/DNUM"),
		Date:    fragment.P("B320/DATE"),
	}
	doc = fragment.IDPaths{
		Country: fragment.P("DOC/CTRY", "CTRY"),
		Number:  fragment.P("DOC/DNUM", "DNUM"),
		Kind:    fragment.P("DOC/KIND", "KIND"),
		Date:    fragment.P("DOC/DATE", "DATE"),
	}

	party = fragment.PartyPaths{
		Name: fragment.NamePaths{
			First:  fragment.P("PARTY-US/NAM/FNM", "PARTY-NUS/NAM/FNM"),
			Last:   fragment.P("PARTY-US/NAM/SNM", "PARTY-NUS/NAM/SNM"),
			Suffix: fragment.P("PARTY-US/NAM/SFX", "PARTY-NUS/NAM/SFX"),
			Org:    fragment.P("PARTY-US/NAM/ONM", "PARTY-NUS/NAM/ONM"),
		},
		Address: fragment.AddressPaths{
			Street:     fragment.P("PARTY-US/ADR/STR", "PARTY-NUS/ADR/STR"),
			City:       fragment.P("PARTY-US/ADR/CITY", "PARTY-NUS/ADR/CITY"),
			State:      fragment.P("PARTY-US/ADR/STATE", "PARTY-NUS/ADR/STATE"),
			PostalCode: fragment.P("PARTY-US/ADR/PCODE", "PARTY-NUS/ADR/PCODE"),
			Country:    fragment.P("PARTY-US/ADR/CTRY", "PARTY-NUS/ADR/CTRY"),
		},
	}

	prioritiesPath    = fragment.P("B300")
	provisionalPath   = fragment.P("B600/B680US")
	titlePath         = fragment.P("B500/B540")
	ipcMainPath       = fragment.P("B500/B510/B511")
	ipcFurtherPath    = fragment.P("B500/B510/B512")
	usMainPath        = fragment.P("B500/B520/B521")
	usFurtherPath     = fragment.P("B500/B520/B522")
	inventorsPath     = fragment.P("B700/B720/B721")
	assigneesPath     = fragment.P("B700/B730")
	assigneePartyPath = fragment.P("B731")
	assigneeType      = fragment.P("B732US")
	agentsPath        = fragment.P("B700/B740/B741")
	primaryPath       = fragment.P("B700/B745/B746")
	assistantPath     = fragment.P("B700/B745/B747")
	artUnitPath       = fragment.P("B700/B745/B748US")
	citationsPath     = fragment.P("B500/B560/B561 | B500/B560/B562")
	abstractPath      = fragment.P("SDOAB")
	descriptionPath   = fragment.P("SDODE")
	claimsPath        = fragment.P("SDOCL/CL/CLM")
	claimRefsPath     = fragment.P(".//CLREF/@ID")
	headingPath       = fragment.P(".//H")
	paragraphsPath    = fragment.P(".//PARA")
	examinerMark      = fragment.P("CITED-BY-EXAMINER")
	otherMark         = fragment.P("CITED-BY-OTHER")

	relatedGroups = []struct {
		path   fragment.Paths
		idType docid.IDType
	}{
		{fragment.P("B600/B630/B631/PARENT-US/PDOC"), docid.TypeContinuation},
		{fragment.P("B600/B630/B632/PARENT-US/PDOC"), docid.TypeContinuationInPart},
		{fragment.P("B600/B630/B633/PARENT-US/PDOC"), docid.TypeDivision},
		{fragment.P("B600/B640/B641US/PARENT-US/PDOC", "B600/B640/PARENT-US/PDOC"), docid.TypeReissue},
	}

	citation = fragment.CitationPaths{
		Patent:         fragment.P("PCIT"),
		ID:             doc,
		NPL:            fragment.P("NCIT"),
		Classification: fragment.P("PCIT/PNC"),
		Patentee:       fragment.P("PCIT/PARTY-US/NAM/SNM", "PCIT/PARTY-US/NAM/ONM"),
		By: func(n *xmlquery.Node) patent.CitedBy {
			switch {
			case examinerMark.One(n) != nil:
				return patent.CitedByExaminer
			case otherMark.One(n) != nil:
				return patent.CitedByApplicant
			}
			return patent.CitedByUnknown
		},
	}

	sectionTypes = map[string]patent.SectionType{
		"RELAPP":  patent.SectionRelatedApplication,
		"BRFSUM":  patent.SectionBriefSummary,
		"DRWDESC": patent.SectionDrawingDescription,
		"DETDESC": patent.SectionDetailedDescription,
	}
)

// Parse extracts one grant from the PATDOC element.
func Parse(root *xmlquery.Node, env fragment.Env, src patent.Source) (*patent.Patent, error) {
	s := fragment.NewSession(env, patent.KindGrant)
	b := s.Builder()
	bib := biblio.One(root)
	if src.SchemaVersion == "" {
		src.SchemaVersion = fragment.Attr(root, "DTD")
	}

	s.Field("publication", func() error {
		id, err := s.Identifier("publication", bib, publication, docid.TypePublished)
		if err != nil {
			return err
		}
		if !id.IsZero() {
			s.SetPrimaryID(id)
			b.SetPublicationDate(id.Date())
		}
		return nil
	})
	s.Field("application", func() error {
		id, err := s.Identifier("application", bib, application, docid.TypeApplication)
		if err != nil {
			return err
		}
		b.SetApplicationID(id)
		b.SetFilingDate(id.Date())
		return nil
	})
	s.Field("priority", func() error {
		s.Identifiers("priority", prioritiesPath.All(bib), priority, docid.TypePriority, func(id docid.DocumentIdentifier) { b.AddPriorityID(id) })
		return nil
	})
	s.Field("related", func() error {
		for _, g := range relatedGroups {
			s.Identifiers("related", g.path.All(bib), doc, g.idType, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		}
		s.Identifiers("related", provisionalPath.All(bib), doc, docid.TypeProvisional, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		return nil
	})
	s.Field("title", func() error {
		b.SetTitle(titlePath.Text(bib))
		return nil
	})

	s.Field("classification", func() error {
		if text := ipcMainPath.Text(bib); text != "" {
			s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), true)
		}
		for _, text := range ipcFurtherPath.Texts(bib) {
			s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), false)
		}
		if text := usMainPath.Text(bib); text != "" {
			s.Classify("uspc", classification.StandardUSPC, fragment.USPCText(text), true)
		}
		for _, text := range usFurtherPath.Texts(bib) {
			s.Classify("uspc", classification.StandardUSPC, fragment.USPCText(text), false)
		}
		return nil
	})

	s.Field("parties", func() error {
		s.Parties("inventor", patent.RoleInventor, inventorsPath.All(bib), party)
		for _, n := range assigneesPath.All(bib) {
			p, err := s.Party("assignee", patent.RoleAssignee, assigneePartyPath.One(n), party)
			if err != nil {
				s.Fail("assignee", err)
				continue
			}
			p.Detail = assigneeType.Text(n)
			b.AddParty(p)
		}
		s.Parties("agent", patent.RoleAgent, agentsPath.All(bib), party)
		unit := artUnitPath.Text(bib)
		examiners(s, primaryPath.All(bib), "primary", unit)
		examiners(s, assistantPath.All(bib), "assistant", unit)
		return nil
	})
	s.Field("citations", func() error {
		s.Citations("citations", citationsPath.All(bib), citation)
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
		if n := descriptionPath.One(root); n != nil {
			b.SetDescription(patent.NewDescription(sections(s, n)...))
		}
		return nil
	})
	s.Field("claims", func() error {
		for i, c := range claimsPath.All(root) {
			id := fragment.Attr(c, "ID")
			if id == "" {
				id = strconv.Itoa(i + 1)
			}
			s.AddClaim(id, fragment.Markup(c), claimRefsPath.Texts(c))
		}
		return nil
	})

	return s.Build(src)
}

func examiners(s *fragment.Session, nodes []*xmlquery.Node, detail, unit string) {
	for _, n := range nodes {
		p, err := s.Party("examiner", patent.RoleExaminer, n, party)
		if err != nil {
			s.Fail("examiner", err)
			continue
		}
		p.Detail = strings.TrimSpace(detail + " " + unit)
		s.Builder().AddParty(p)
	}
}

func sections(s *fragment.Session, desc *xmlquery.Node) []patent.Section {
	var out []patent.Section
	for _, c := range fragment.Children(desc) {
		var body strings.Builder
		for _, p := range paragraphsPath.All(c) {
			body.WriteString(fragment.Outer(p))
		}
		heading := headingPath.Text(c)
		if body.Len() == 0 && heading == "" {
			continue
		}
		out = append(out, s.Section(sectionTypes[fragment.Name(c)], heading, body.String()))
	}
	return out
}

//Personal.AI order the ending
