// Package cpcmaster extracts the CPC master classification file records
// (CPCMasterClassificationRecord, ST.96 style XML).  A record carries one
// grant or publication identifier and its current CPC allocation; there is
// no bibliographic text.
package cpcmaster

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Root is the accepted root element name, without namespace prefix.
const Root = "CPCMasterClassificationRecord"

// local builds a path whose steps match by local name, so records bound to
// any namespace prefix are read alike.
func local(path string) string {
	steps := strings.Split(path, "/")
	for i, s := range steps {
		if s != "" && s != "." && s != ".." {
			steps[i] = "*[local-name()='" + s + "']"
		}
	}
	return strings.Join(steps, "/")
}

func p(paths ...string) fragment.Paths {
	for i := range paths {
		paths[i] = local(paths[i])
	}
	return fragment.P(paths...)
}

var (
	grant = fragment.IDPaths{
		Country: p("PatentGrantIdentification/IPOfficeCode"),
		Number:  p("PatentGrantIdentification/PatentNumber"),
		Kind:    p("PatentGrantIdentification/PatentDocumentKindCode"),
		Date:    p("PatentGrantIdentification/GrantDate"),
	}
	publication = fragment.IDPaths{
		Country: p("PatentPublicationIdentification/IPOfficeCode"),
		Number:  p("PatentPublicationIdentification/PublicationNumber"),
		Kind:    p("PatentPublicationIdentification/PatentDocumentKindCode"),
		Date:    p("PatentPublicationIdentification/PublicationDate"),
	}
	application = fragment.IDPaths{
		Number: p("ApplicationNumber/ApplicationNumberText"),
		Date:   p("ApplicationNumber/FilingDate", "FilingDate"),
	}

	grantPath   = p("PatentGrantIdentification")
	mainPath    = p("CPCClassificationBag/MainCPC/CPCClassification")
	furtherPath = p("CPCClassificationBag/FurtherCPC/CPCClassification")

	sectionPath  = p("CPCSection")
	classPath    = p("Class")
	subclassPath = p("Subclass")
	groupPath    = p("MainGroup")
	subgroupPath = p("Subgroup")
)

// Parse extracts the identifier and CPC allocation of one record.  A grant
// identification makes the record a grant; otherwise it is an application
// publication.
func Parse(root *xmlquery.Node, env fragment.Env, src patent.Source) (*patent.Patent, error) {
	kind, ids := patent.KindApplication, publication
	if grantPath.One(root) != nil {
		kind, ids = patent.KindGrant, grant
	}
	s := fragment.NewSession(env, kind)
	b := s.Builder()

	s.Field("publication", func() error {
		id, err := s.Identifier("publication", root, ids, docid.TypePublished)
		if err != nil {
			return err
		}
		if id.IsZero() {
			return errors.New(errors.ErrCodeFieldExtractionFailed, "record has no document number")
		}
		s.SetPrimaryID(id)
		b.SetPublicationDate(id.Date())
		return nil
	})
	s.Field("application", func() error {
		id, err := s.Identifier("application", root, application, docid.TypeApplication)
		if err != nil {
			return err
		}
		b.SetApplicationID(id)
		b.SetFilingDate(id.Date())
		return nil
	})
	s.Field("classification", func() error {
		for _, n := range mainPath.All(root) {
			s.ClassifyParts("cpc", classification.StandardCPC, true, parts(n)...)
		}
		for _, n := range furtherPath.All(root) {
			s.ClassifyParts("cpc", classification.StandardCPC, false, parts(n)...)
		}
		return nil
	})

	return s.Build(src)
}

func parts(n *xmlquery.Node) []string {
	return []string{
		sectionPath.Text(n),
		classPath.Text(n),
		subclassPath.Text(n),
		groupPath.Text(n),
		subgroupPath.Text(n),
	}
}

//Personal.AI order the ending
