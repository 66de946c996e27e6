package patent

import (
	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
)

// CitedBy records who introduced a citation.
type CitedBy string

const (
	CitedByUnknown    CitedBy = ""
	CitedByExaminer   CitedBy = "examiner"
	CitedByApplicant  CitedBy = "applicant"
	CitedByThirdParty CitedBy = "third_party"
)

// ParseCitedBy maps the "cited by examiner" / "cited by applicant" category
// text of grant documents.
func ParseCitedBy(s string) CitedBy {
	switch {
	case containsFold(s, "examiner"):
		return CitedByExaminer
	case containsFold(s, "applicant"), containsFold(s, "other"):
		return CitedByApplicant
	case containsFold(s, "third"):
		return CitedByThirdParty
	}
	return CitedByUnknown
}

// Citation is a patent or non-patent literature reference.
type Citation interface {
	Sequence() int
	CitedBy() CitedBy
	citation()
}

// PatCitation cites a patent document.
type PatCitation struct {
	Seq            int
	By             CitedBy
	DocID          docid.DocumentIdentifier
	Classification classification.Classification
	// Patentee is the first named party, as printed in legacy citations.
	Patentee string
}

func (c PatCitation) Sequence() int    { return c.Seq }
func (c PatCitation) CitedBy() CitedBy { return c.By }
func (PatCitation) citation()          {}

// NplCitation cites non-patent literature as free text.
type NplCitation struct {
	Seq  int
	By   CitedBy
	Text string
}

func (c NplCitation) Sequence() int    { return c.Seq }
func (c NplCitation) CitedBy() CitedBy { return c.By }
func (NplCitation) citation()          {}

//Personal.AI order the ending
