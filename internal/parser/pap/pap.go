// Package pap extracts patent applications from the pre-2005 USPTO
// application publication XML (versions 1.5 and 1.6).
package pap

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
)

// Root is the accepted root element.
const Root = "patent-application-publication"

var (
	biblio = fragment.P("subdoc-bibliographic-information")

	publication = fragment.IDPaths{
		Number: fragment.P("document-id/doc-number"),
		Kind:   fragment.P("document-id/kind-code"),
		Date:   fragment.P("document-id/document-date"),
	}
	application = fragment.IDPaths{
		Number: fragment.P("domestic-filing-data/application-number/doc-number"),
		Date:   fragment.P("domestic-filing-data/filing-date"),
	}
	priority = fragment.IDPaths{
		Country: fragment.P("country-code"),
		Number:  fragment.P("priority-application-number/doc-number"),
		Date:    fragment.P("filing-date"),
	}
	parentID = fragment.IDPaths{
		Country: fragment.P("document-id/country-code"),
		Number:  fragment.P("document-id/doc-number"),
		Kind:    fragment.P("document-id/kind-code"),
		Date:    fragment.P("document-id/document-date", "filing-date"),
	}

	person = fragment.PartyPaths{
		Name: fragment.NamePaths{
			First:  fragment.P("name/given-name"),
			Middle: fragment.P("name/middle-name"),
			Last:   fragment.P("name/family-name"),
			Suffix: fragment.P("name/name-suffix"),
			Org:    fragment.P("organization-name", "name/organization-name"),
		},
		Address: fragment.AddressPaths{
			Street:     fragment.P("address/address-1"),
			City:       fragment.P("residence/residence-us/city", "residence/residence-non-us/city", "address/city"),
			State:      fragment.P("residence/residence-us/state", "address/state"),
			PostalCode: fragment.P("address/postalcode", "address/zipcode"),
			Country: fragment.P(
				"residence/residence-us/country-code",
				"residence/residence-non-us/country-code",
				"address/country/country-code",
				"address/country-code"),
			Email: fragment.P("address/email"),
		},
	}

	priorityPath    = fragment.P("foreign-priority-data")
	titlePath       = fragment.P("technical-information/title-of-invention")
	ipcPrimary      = fragment.P("technical-information/classification-ipc/classification-ipc-primary/ipc")
	ipcSecondary    = fragment.P("technical-information/classification-ipc/classification-ipc-secondary/ipc")
	usPrimary       = fragment.P("technical-information/classification-us/classification-us-primary/uspc")
	usSecondary     = fragment.P("technical-information/classification-us/classification-us-secondary/uspc")
	uspcClass       = fragment.P("class")
	uspcSubclass    = fragment.P("subclass")
	inventorsPath   = fragment.P("inventors/first-named-inventor | inventors/inventor")
	assigneePath    = fragment.P("assignee")
	assigneeType    = fragment.P("assignee-type")
	correspondence  = fragment.P("correspondence-address")
	provisionalPath = fragment.P("continuity-data/non-provisional-of-provisional")
	abstractPath    = fragment.P("subdoc-abstract")
	descriptionPath = fragment.P("subdoc-description")
	claimsPath      = fragment.P("subdoc-claims/claim")
	claimRefsPath   = fragment.P(".//dependent-claim-reference/@depends_on")
	headingPath     = fragment.P(".//heading")
	paragraphsPath  = fragment.P(".//paragraph")

	continuity = []struct {
		path   fragment.Paths
		idType docid.IDType
	}{
		{fragment.P("continuity-data/continuations/continuation-of/parent-child/parent"), docid.TypeContinuation},
		{fragment.P("continuity-data/continuations/continuation-in-part-of/parent-child/parent"), docid.TypeContinuationInPart},
		{fragment.P("continuity-data/division-of/parent-child/parent"), docid.TypeDivision},
		{fragment.P("continuity-data/continuations/division-of/parent-child/parent"), docid.TypeDivision},
	}

	sectionTypes = map[string]patent.SectionType{
		"cross-reference-to-related-applications": patent.SectionRelatedApplication,
		"summary-of-invention":                    patent.SectionBriefSummary,
		"brief-description-of-drawings":           patent.SectionDrawingDescription,
		"detailed-description":                    patent.SectionDetailedDescription,
	}
)

// Parse extracts one application from the root element.
func Parse(root *xmlquery.Node, env fragment.Env, src patent.Source) (*patent.Patent, error) {
	s := fragment.NewSession(env, patent.KindApplication)
	b := s.Builder()
	bib := biblio.One(root)
	if src.SchemaVersion == "" {
		src.SchemaVersion = fragment.Attr(root, "dtd-version")
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
		s.Identifiers("priority", priorityPath.All(bib), priority, docid.TypePriority, func(id docid.DocumentIdentifier) { b.AddPriorityID(id) })
		return nil
	})
	s.Field("related", func() error {
		for _, c := range continuity {
			s.Identifiers("related", c.path.All(bib), parentID, c.idType, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		}
		s.Identifiers("related", provisionalPath.All(bib), parentID, docid.TypeProvisional, func(id docid.DocumentIdentifier) { b.AddRelatedID(id) })
		return nil
	})
	s.Field("title", func() error {
		b.SetTitle(titlePath.Text(bib))
		return nil
	})

	s.Field("classification", func() error {
		for i, text := range ipcPrimary.Texts(bib) {
			s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), i == 0)
		}
		for _, text := range ipcSecondary.Texts(bib) {
			s.Classify("ipc", classification.StandardIPC, fragment.IPCText(text), false)
		}
		for i, n := range usPrimary.All(bib) {
			s.Classify("uspc", classification.StandardUSPC, uspc(n), i == 0)
		}
		for _, n := range usSecondary.All(bib) {
			s.Classify("uspc", classification.StandardUSPC, uspc(n), false)
		}
		return nil
	})

	s.Field("parties", func() error {
		s.Parties("inventor", patent.RoleInventor, inventorsPath.All(bib), person)
		assignee := person
		assignee.Detail = assigneeType
		s.Parties("assignee", patent.RoleAssignee, assigneePath.All(bib), assignee)
		correspondent := person
		correspondent.Name.Org = fragment.P("name-1", "name-2")
		s.Parties("correspondent", patent.RoleCorrespondent, correspondence.All(bib), correspondent)
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
			id := fragment.Attr(c, "id")
			if id == "" {
				id = strconv.Itoa(i + 1)
			}
			s.AddClaim(id, fragment.Markup(c), claimRefsPath.Texts(c))
		}
		return nil
	})

	return s.Build(src)
}

// uspc joins a structured class/subclass pair.  Subclasses are printed as
// six digits, three integer and three decimal: "161000" is 161, "005500"
// is 5.5.
func uspc(n *xmlquery.Node) string {
	class := strings.TrimLeft(uspcClass.Text(n), "0")
	sub := uspcSubclass.Text(n)
	if len(sub) == 6 && isDigits(sub) {
		whole := strings.TrimLeft(sub[:3], "0")
		if whole == "" {
			whole = "0"
		}
		if frac := strings.TrimRight(sub[3:], "0"); frac != "" {
			whole += "." + frac
		}
		sub = whole
	}
	if sub == "" {
		return class
	}
	return class + "/" + sub
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// sections maps each top-level description container to one section.
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
