// Package patent defines the JSON wire form of a normalized patent document.
// It is what the HTTP API returns, what the Kafka, MinIO, OpenSearch and
// JSON-lines sinks write, and what the Redis cache stores.
package patent

import (
	"time"
)

// SchemaVersion is bumped whenever a field of Document changes meaning.
const SchemaVersion = "1"

// Kind distinguishes application publications from granted patents.
type Kind string

const (
	KindApplication Kind = "application"
	KindGrant       Kind = "grant"
)

// DocumentID is the wire form of a document identifier.
type DocumentID struct {
	ID      string `json:"id"`
	Country string `json:"country"`
	Number  string `json:"number"`
	Kind    string `json:"kind,omitempty"`
	Type    string `json:"type,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Document is a normalized patent.
type Document struct {
	SchemaVersion   string           `json:"schema_version"`
	Kind            Kind             `json:"kind"`
	ID              DocumentID       `json:"id"`
	ApplicationID   *DocumentID      `json:"application_id,omitempty"`
	OtherIDs        []DocumentID     `json:"other_ids,omitempty"`
	RelatedIDs      []DocumentID     `json:"related_ids,omitempty"`
	PriorityIDs     []DocumentID     `json:"priority_ids,omitempty"`
	PatentType      string           `json:"patent_type"`
	PublicationDate string           `json:"publication_date,omitempty"`
	ProductionDate  string           `json:"production_date,omitempty"`
	FilingDate      string           `json:"filing_date,omitempty"`
	Title           string           `json:"title,omitempty"`
	Abstract        string           `json:"abstract,omitempty"`
	AbstractHTML    string           `json:"abstract_html,omitempty"`
	Description     *Description     `json:"description,omitempty"`
	Claims          []Claim          `json:"claims,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`
	Citations       []Citation       `json:"citations,omitempty"`
	Parties         []Party          `json:"parties,omitempty"`
	Diagnostics     []Diagnostic     `json:"diagnostics,omitempty"`
	Source          Source           `json:"source"`
}

// Description carries the description sections and the figures they list.
type Description struct {
	Sections   []Section `json:"sections,omitempty"`
	Figures    []Figure  `json:"figures,omitempty"`
	FigureRefs []string  `json:"figure_refs,omitempty"`
}

type Section struct {
	Type    string `json:"type"`
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

type Figure struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// Claim is one node of the claim tree.  Level is 0 for independent claims.
type Claim struct {
	ID        string   `json:"id"`
	Number    int      `json:"number"`
	Type      string   `json:"type"`
	Level     int      `json:"level"`
	Text      string   `json:"text"`
	HTML      string   `json:"html,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
	Children  []string `json:"children,omitempty"`
}

// Classification is a code of one standard with its facet path.
type Classification struct {
	Standard   string   `json:"standard"`
	Code       string   `json:"code"`
	Raw        string   `json:"raw,omitempty"`
	Main       bool     `json:"main,omitempty"`
	Facets     []string `json:"facets"`
	FacetDepth int      `json:"facet_depth"`
}

// CitationType tells patent citations from non-patent literature.
type CitationType string

const (
	CitationPatent    CitationType = "patent"
	CitationNonPatent CitationType = "npl"
)

type Citation struct {
	Type           CitationType `json:"type"`
	Sequence       int          `json:"sequence"`
	CitedBy        string       `json:"cited_by,omitempty"`
	DocID          *DocumentID  `json:"doc_id,omitempty"`
	Classification string       `json:"classification,omitempty"`
	Patentee       string       `json:"patentee,omitempty"`
	Text           string       `json:"text,omitempty"`
}

type Name struct {
	Kind     string   `json:"kind"`
	Full     string   `json:"full"`
	First    string   `json:"first,omitempty"`
	Middle   string   `json:"middle,omitempty"`
	Last     string   `json:"last,omitempty"`
	Suffix   string   `json:"suffix,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Email      string `json:"email,omitempty"`
}

type Party struct {
	Role     string   `json:"role"`
	Sequence int      `json:"sequence"`
	Name     Name     `json:"name"`
	Address  *Address `json:"address,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Diagnostic is a field-level extraction failure.
type Diagnostic struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Source records where the document was read from.
type Source struct {
	Format        string `json:"format"`
	SchemaVersion string `json:"schema_version,omitempty"`
	File          string `json:"file,omitempty"`
	Record        int    `json:"record"`
}

// DateLayout is the layout of every date field.
const DateLayout = "2006-01-02"

// FormatDate renders t with DateLayout; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate is the inverse of FormatDate.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// ClaimCount returns the number of claims.
func (d *Document) ClaimCount() int { return len(d.Claims) }

// IndependentClaims returns the claims at level 0.
func (d *Document) IndependentClaims() []Claim {
	var out []Claim
	for _, c := range d.Claims {
		if c.Level == 0 {
			out = append(out, c)
		}
	}
	return out
}

// FacetsOf returns the facet strings of every classification of std.
func (d *Document) FacetsOf(std string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range d.Classifications {
		if c.Standard != std {
			continue
		}
		for _, f := range c.Facets {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// PartyNames returns the full names of the parties with role.
func (d *Document) PartyNames(role string) []string {
	var out []string
	for _, p := range d.Parties {
		if p.Role == role {
			out = append(out, p.Name.Full)
		}
	}
	return out
}

// CitedIDs returns the identifiers of the cited patent documents.
func (d *Document) CitedIDs() []string {
	var out []string
	for _, c := range d.Citations {
		if c.DocID != nil && c.DocID.ID != "" {
			out = append(out, c.DocID.ID)
		}
	}
	return out
}

//Personal.AI order the ending
