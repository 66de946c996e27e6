// Package xmlv4 extracts patents from the USPTO XML v4.x grant and
// application schemas (2005 onward).
//
// Element paths changed between schema revisions; every field lists the
// current path first and the pre-2012 path after it.
package xmlv4

import (
	"strconv"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
)

const (
	RootGrant       = "us-patent-grant"
	RootApplication = "us-patent-application"
)

// Roots lists the accepted root elements.
var Roots = []string{RootGrant, RootApplication}

var (
	documentID = fragment.IDPaths{
		Country: fragment.P("country"),
		Number:  fragment.P("doc-number"),
		Kind:    fragment.P("kind"),
		Date:    fragment.P("date"),
	}

	partyPaths = fragment.PartyPaths{
		Name: fragment.NamePaths{
			First:  fragment.P("addressbook/first-name", "first-name"),
			Middle: fragment.P("addressbook/middle-name", "middle-name"),
			Last:   fragment.P("addressbook/last-name", "last-name"),
			Suffix: fragment.P("addressbook/suffix", "suffix"),
			Org:    fragment.P("addressbook/orgname", "orgname"),
			Full:   fragment.P("addressbook/name", "name"),
		},
		Address: fragment.AddressPaths{
			Street:     fragment.P("addressbook/address/street", "addressbook/address/address-1"),
			City:       fragment.P("addressbook/address/city", "address/city"),
			State:      fragment.P("addressbook/address/state", "address/state"),
			PostalCode: fragment.P("addressbook/address/postcode", "address/postcode"),
			Country:    fragment.P("addressbook/address/country", "address/country", "residence/country"),
			Email:      fragment.P("addressbook/email"),
		},
	}

	biblio = fragment.P("us-bibliographic-data-grant", "us-bibliographic-data-application")

	publicationPath   = fragment.P("publication-reference/document-id")
	applicationPath   = fragment.P("application-reference/document-id")
	priorityPath      = fragment.P("priority-claims/priority-claim")
	pctFilingPath     = fragment.P("pct-or-regional-filing-data/document-id")
	pctPublishingPath = fragment.P("pct-or-regional-publishing-data/document-id")
	titlePath         = fragment.P("invention-title")

	ipcrPath            = fragment.P("classifications-ipcr/classification-ipcr")
	ipcMainPath         = fragment.P("classification-ipc/main-classification")
	ipcFurtherPath      = fragment.P("classification-ipc/further-classification")
	cpcMainPath         = fragment.P("classifications-cpc/main-cpc/classification-cpc")
	cpcFurtherPath      = fragment.P("classifications-cpc/further-cpc/classification-cpc")
	nationalMainPath    = fragment.P("classification-national/main-classification")
	nationalFurtherPath = fragment.P("classification-national/further-classification")
	locarnoPath         = fragment.P("classification-locarno/main-classification")

	applicantsPath        = fragment.P("us-parties/us-applicants/us-applicant", "parties/applicants/applicant")
	inventorsPath         = fragment.P("us-parties/inventors/inventor", "parties/inventors/inventor")
	agentsPath            = fragment.P("us-parties/agents/agent", "parties/agents/agent")
	assigneesPath         = fragment.P("assignees/assignee")
	correspondencePath    = fragment.P("us-parties/correspondence-address", "parties/correspondence-address", "correspondence-address")
	primaryExaminerPath   = fragment.P("examiners/primary-examiner")
	assistantExaminerPath = fragment.P("examiners/assistant-examiner")
	applicantDetailPath   = fragment.P("@applicant-authority-category", "@app-type")
	agentDetailPath       = fragment.P("@rep-type")
	assigneeRolePath      = fragment.P("addressbook/role", "role")
	artUnitPath           = fragment.P("department")

	citationsPath   = fragment.P("us-references-cited/us-citation", "references-cited/citation")
	abstractPath    = fragment.P("abstract")
	descriptionPath = fragment.P("description")
	claimsPath      = fragment.P("claims/claim")
	claimRefsPath   = fragment.P(".//claim-ref/@idref")

	related = []struct {
		container string
		idType    docid.IDType
	}{
		{"continuation", docid.TypeContinuation},
		{"continuation-in-part", docid.TypeContinuationInPart},
		{"continuing-reissue", docid.TypeReissue},
		{"reissue", docid.TypeReissue},
		{"division", docid.TypeDivision},
		{"substitution", docid.TypeContinuation},
	}

	relatedPaths = func() map[string]fragment.Paths {
		m := make(map[string]fragment.Paths, len(related))
		for _, r := range related {
			m[r.container] = fragment.P("us-related-documents/" + r.container + "/relation/parent-doc/document-id")
		}
		return m
	}()
	provisional        = fragment.P("us-related-documents/us-provisional-application/document-id")
	relatedPublication = fragment.P("us-related-documents/related-publication/document-id")

	citation = fragment.CitationPaths{
		Patent: fragment.P("patcit"),
		ID: fragment.IDPaths{
			Country: fragment.P("document-id/country"),
			Number:  fragment.P("document-id/doc-number"),
			Kind:    fragment.P("document-id/kind"),
			Date:    fragment.P("document-id/date"),
		},
		NPL:            fragment.P("nplcit/othercit", "nplcit"),
		Category:       fragment.P("category"),
		Classification: fragment.P("classification-national/main-classification"),
		Patentee:       fragment.P("patcit/document-id/name"),
	}

	ipcrParts = [5]fragment.Paths{
		fragment.P("section"),
		fragment.P("class"),
		fragment.P("subclass"),
		fragment.P("main-group"),
		fragment.P("subgroup"),
	}
	ipcrPosition = fragment.P("symbol-position")

	drawings = map[string]patent.SectionType{
		"description-of-drawings": patent.SectionDrawingDescription,
	}
)

// Parse extracts one patent from the root element of a v4 document.
func Parse(root *xmlquery.Node, env fragment.Env, src patent.Source) (*patent.Patent, error) {
	kind := patent.KindGrant
	if fragment.Name(root) == RootApplication {
		kind = patent.KindApplication
	}
	s := fragment.NewSession(env, kind)
	b := s.Builder()
	if src.SchemaVersion == "" {
		src.SchemaVersion = fragment.Attr(root, "dtd-version")
	}
	bib := biblio.One(root)

	s.Field("publication", func() error {
		id, err := s.Identifier("publication", publicationPath.One(bib), documentID, docid.TypePublished)
		if err != nil {
			return err
		}
		if !id.IsZero() {
			s.SetPrimaryID(id)
			b.SetPublicationDate(id.Date())
		}
		return nil
	})
	s.Field("production_date", func() error {
		d, err := s.Date(fragment.Attr(root, "date-produced"))
		if err == nil {
			b.SetProductionDate(d)
		}
		return err
	})
	s.Field("application", func() error {
		id, err := s.Identifier("application", applicationPath.One(bib), documentID, docid.TypeApplication)
		if err != nil {
			return err
		}
		b.SetApplicationID(id)
		b.SetFilingDate(id.Date())
		return nil
	})
	s.Field("priority", func() error {
		s.Identifiers("priority", priorityPath.All(bib), documentID, docid.TypePriority, func(id docid.DocumentIdentifier) { b.AddPriorityID(id) })
		return nil
	})
	s.Field("related", func() error {
		for _, r := range related {
			s.Identifiers("related", relatedPaths[r.container].All(bib), documentID, r.idType, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		}
		s.Identifiers("related", provisional.All(bib), documentID, docid.TypeProvisional, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		s.Identifiers("related", relatedPublication.All(bib), documentID, docid.TypeRelatedPublication, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		s.Identifiers("pct", pctFilingPath.All(bib), documentID, docid.TypeInternationalFiling, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		s.Identifiers("pct", pctPublishingPath.All(bib), documentID, docid.TypePublished, func(id docid.DocumentIdentifier) { b.AddOtherID(id) })
		return nil
	})
	s.Field("title", func() error {
		b.SetTitle(titlePath.Text(bib))
		return nil
	})

	s.Field("classification", func() error {
		classify(s, bib)
		return nil
	})

	s.Field("parties", func() error {
		parties(s, bib)
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
			b.SetDescription(patent.NewDescription(s.Sections(n, isHeading, drawings)...))
		}
		return nil
	})
	s.Field("claims", func() error {
		for i, c := range claimsPath.All(root) {
			id := fragment.Attr(c, "id")
			if id == "" {
				id = fragment.Attr(c, "num")
			}
			if id == "" {
				id = strconv.Itoa(i + 1)
			}
			s.AddClaim(id, fragment.Markup(c), claimRefsPath.Texts(c))
		}
		return nil
	})

	return s.Build(src)
}

func isHeading(n *xmlquery.Node) bool { return fragment.Name(n) == "heading" }

func classify(s *fragment.Session, bib *xmlquery.Node) {
	for i, n := range ipcrPath.All(bib) {
		var parts [5]string
		for j, p := range ipcrParts {
			parts[j] = p.Text(n)
		}
		pos := ipcrPosition.Text(n)
		main := pos == "F" || (pos == "" && i == 0)
		s.ClassifyParts("ipcr", classification.StandardIPC, main, parts[:]...)
	}
	if text := ipcMainPath.Text(bib); text != "" {
		s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), true)
	}
	for _, text := range ipcFurtherPath.Texts(bib) {
		s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), false)
	}

	for _, n := range cpcMainPath.All(bib) {
		cpc(s, n, true)
	}
	for _, n := range cpcFurtherPath.All(bib) {
		cpc(s, n, false)
	}

	if text := nationalMainPath.Text(bib); text != "" {
		s.Classify("uspc", classification.StandardUSPC, fragment.USPCText(text), true)
	}
	for _, text := range nationalFurtherPath.Texts(bib) {
		s.Classify("uspc", classification.StandardUSPC, fragment.USPCText(text), false)
	}

	if text := locarnoPath.Text(bib); text != "" {
		s.Classify("locarno", classification.StandardLocarno, text, true)
	}
}

// cpc reads a structured classification-cpc element, or the free-text form
// used in search fields.
func cpc(s *fragment.Session, n *xmlquery.Node, main bool) {
	if fragment.Name(n) == "classification-cpc-text" {
		s.Classify("cpc", classification.StandardCPC, fragment.Text(n), main)
		return
	}
	var parts [5]string
	for j, p := range ipcrParts {
		parts[j] = p.Text(n)
	}
	s.ClassifyParts("cpc", classification.StandardCPC, main, parts[:]...)
}

func parties(s *fragment.Session, bib *xmlquery.Node) {
	b := s.Builder()

	applicants := applicantsPath.All(bib)
	var applicantInventors []*xmlquery.Node
	for _, n := range applicants {
		if fragment.Attr(n, "app-type") == "applicant-inventor" {
			applicantInventors = append(applicantInventors, n)
		}
	}
	withDetail(s, "applicant", patent.RoleApplicant, applicants, applicantDetailPath)
	if len(applicantInventors) > 0 {
		s.Parties("inventor", patent.RoleInventor, applicantInventors, partyPaths)
	} else {
		s.Parties("inventor", patent.RoleInventor, inventorsPath.All(bib), partyPaths)
	}

	withDetail(s, "assignee", patent.RoleAssignee, assigneesPath.All(bib), assigneeRolePath)
	withDetail(s, "agent", patent.RoleAgent, agentsPath.All(bib), agentDetailPath)
	s.Parties("correspondent", patent.RoleCorrespondent, correspondencePath.All(bib), partyPaths)

	for _, ex := range []struct {
		paths  fragment.Paths
		detail string
	}{
		{primaryExaminerPath, "primary"},
		{assistantExaminerPath, "assistant"},
	} {
		for _, n := range ex.paths.All(bib) {
			p, err := s.Party("examiner", patent.RoleExaminer, n, partyPaths)
			if err != nil {
				s.Fail("examiner", err)
				continue
			}
			p.Detail = ex.detail
			if unit := artUnitPath.Text(n); unit != "" {
				p.Detail += " " + unit
			}
			b.AddParty(p)
		}
	}
}

func withDetail(s *fragment.Session, field string, role patent.Role, nodes []*xmlquery.Node, detail fragment.Paths) {
	pp := partyPaths
	pp.Detail = detail
	s.Parties(field, role, nodes, pp)
}

//Personal.AI order the ending
