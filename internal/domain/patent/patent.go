// Package patent holds the canonical patent document model produced by the
// normalizer: the Patent aggregate, its parties, citations, description and
// claim tree.
//
// A Patent is immutable.  Parsers collect fragments into a Builder, which
// validates the aggregate and links the claim tree once in Build.
package patent

import (
	"time"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Kind distinguishes application publications from granted patents.
type Kind string

const (
	KindApplication Kind = "application"
	KindGrant       Kind = "grant"
)

// Source records where a Patent was read from.
type Source struct {
	Format        string
	SchemaVersion string
	File          string
	Record        int
}

// Diagnostic describes a field-level failure that left a field empty.
type Diagnostic struct {
	Field   string
	Code    errors.ErrorCode
	Message string
}

// ─────────────────────────────────────────────────────────────────────────────
// Patent aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Patent is the canonical, format-independent patent document.
type Patent struct {
	kind            Kind
	id              docid.DocumentIdentifier
	applicationID   docid.DocumentIdentifier
	otherIDs        []docid.DocumentIdentifier
	relatedIDs      []docid.DocumentIdentifier
	priorityIDs     []docid.DocumentIdentifier
	publicationDate time.Time
	productionDate  time.Time
	filingDate      time.Time
	title           string
	abstract        string
	abstractHTML    string
	description     Description
	classifications *classification.Set
	claims          *ClaimTree
	citations       []Citation
	parties         []Party
	source          Source
	diagnostics     []Diagnostic
}

func (p *Patent) Kind() Kind                              { return p.kind }
func (p *Patent) ID() docid.DocumentIdentifier            { return p.id }
func (p *Patent) ApplicationID() docid.DocumentIdentifier { return p.applicationID }

func (p *Patent) PublicationDate() time.Time { return p.publicationDate }
func (p *Patent) ProductionDate() time.Time  { return p.productionDate }
func (p *Patent) FilingDate() time.Time      { return p.filingDate }
func (p *Patent) Title() string              { return p.title }
func (p *Patent) Abstract() string           { return p.abstract }
func (p *Patent) AbstractHTML() string       { return p.abstractHTML }
func (p *Patent) Description() Description   { return p.description }
func (p *Patent) Claims() *ClaimTree         { return p.claims }
func (p *Patent) Source() Source             { return p.source }

// PatentType is derived from the primary identifier.
func (p *Patent) PatentType() docid.PatentType { return p.id.PatentType() }

func (p *Patent) OtherIDs() []docid.DocumentIdentifier {
	return append([]docid.DocumentIdentifier(nil), p.otherIDs...)
}

func (p *Patent) RelatedIDs() []docid.DocumentIdentifier {
	return append([]docid.DocumentIdentifier(nil), p.relatedIDs...)
}

func (p *Patent) PriorityIDs() []docid.DocumentIdentifier {
	return append([]docid.DocumentIdentifier(nil), p.priorityIDs...)
}

// Classifications returns the de-duplicated classifications in document
// order.
func (p *Patent) Classifications() []classification.Classification {
	return p.classifications.Items()
}

// ClassificationsOf returns the classifications of one standard.
func (p *Patent) ClassificationsOf(std classification.Standard) []classification.Classification {
	return p.classifications.ByStandard(std)
}

// Facets returns the facet strings of std across all classifications.
func (p *Patent) Facets(std classification.Standard) []string {
	return p.classifications.Facets(std)
}

func (p *Patent) Citations() []Citation { return append([]Citation(nil), p.citations...) }

// Parties returns every party in document order.
func (p *Patent) Parties() []Party { return append([]Party(nil), p.parties...) }

// PartiesOf returns the parties acting in role.
func (p *Patent) PartiesOf(role Role) []Party {
	var out []Party
	for _, party := range p.parties {
		if party.Role == role {
			out = append(out, party)
		}
	}
	return out
}

func (p *Patent) Inventors() []Party  { return p.PartiesOf(RoleInventor) }
func (p *Patent) Applicants() []Party { return p.PartiesOf(RoleApplicant) }
func (p *Patent) Assignees() []Party  { return p.PartiesOf(RoleAssignee) }
func (p *Patent) Agents() []Party     { return p.PartiesOf(RoleAgent) }
func (p *Patent) Examiners() []Party  { return p.PartiesOf(RoleExaminer) }

// Diagnostics lists the field-level failures met while parsing.
func (p *Patent) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), p.diagnostics...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// Builder collects the fragments of one document.  It is not safe for
// concurrent use; each record gets its own Builder.
type Builder struct {
	p      Patent
	claims []Claim
}

// NewBuilder starts a Patent of the given kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{p: Patent{kind: kind, classifications: classification.NewSet()}}
}

func (b *Builder) SetID(id docid.DocumentIdentifier) *Builder { b.p.id = id; return b }

func (b *Builder) SetApplicationID(id docid.DocumentIdentifier) *Builder {
	b.p.applicationID = id
	return b
}

func (b *Builder) AddOtherID(id docid.DocumentIdentifier) *Builder {
	b.p.otherIDs = appendUniqueID(b.p.otherIDs, id)
	return b
}

func (b *Builder) AddRelatedID(id docid.DocumentIdentifier) *Builder {
	b.p.relatedIDs = appendUniqueID(b.p.relatedIDs, id)
	return b
}

func (b *Builder) AddPriorityID(id docid.DocumentIdentifier) *Builder {
	b.p.priorityIDs = appendUniqueID(b.p.priorityIDs, id)
	return b
}

func (b *Builder) SetPublicationDate(t time.Time) *Builder { b.p.publicationDate = t; return b }
func (b *Builder) SetProductionDate(t time.Time) *Builder  { b.p.productionDate = t; return b }
func (b *Builder) SetFilingDate(t time.Time) *Builder      { b.p.filingDate = t; return b }
func (b *Builder) SetTitle(s string) *Builder              { b.p.title = s; return b }
func (b *Builder) SetDescription(d Description) *Builder   { b.p.description = d; return b }
func (b *Builder) SetSource(s Source) *Builder             { b.p.source = s; return b }

// SetAbstract sets the plain-text abstract and its simplified markup.
func (b *Builder) SetAbstract(text, html string) *Builder {
	b.p.abstract = text
	b.p.abstractHTML = html
	return b
}

func (b *Builder) AddClassification(c classification.Classification) *Builder {
	b.p.classifications.Add(c)
	return b
}

func (b *Builder) AddClaim(c Claim) *Builder { b.claims = append(b.claims, c); return b }

// HasClaim reports whether a claim with the normalized id was added.
func (b *Builder) HasClaim(id string) bool {
	id = NormalizeClaimID(id)
	for _, c := range b.claims {
		if c.id == id {
			return true
		}
	}
	return false
}

func (b *Builder) AddCitation(c Citation) *Builder {
	if c != nil {
		b.p.citations = append(b.p.citations, c)
	}
	return b
}

func (b *Builder) AddParty(p Party) *Builder {
	p.Sequence = len(b.PartiesOf(p.Role)) + 1
	b.p.parties = append(b.p.parties, p)
	return b
}

// PartiesOf reports the parties collected so far in role.
func (b *Builder) PartiesOf(role Role) []Party { return b.p.PartiesOf(role) }

func (b *Builder) AddDiagnostic(d Diagnostic) *Builder {
	b.p.diagnostics = append(b.p.diagnostics, d)
	return b
}

// ID returns the primary identifier collected so far.
func (b *Builder) ID() docid.DocumentIdentifier { return b.p.id }

// Build validates the aggregate and links the claim tree.  A document
// without a primary identifier is rejected.
func (b *Builder) Build() (*Patent, error) {
	if b.p.id.IsZero() {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "document has no primary identifier")
	}
	if b.p.kind == "" {
		b.p.kind = KindGrant
	}
	p := b.p
	p.claims = BuildClaimTree(b.claims)
	p.classifications = classification.NewSet(b.p.classifications.Items()...)
	p.otherIDs = append([]docid.DocumentIdentifier(nil), b.p.otherIDs...)
	p.relatedIDs = append([]docid.DocumentIdentifier(nil), b.p.relatedIDs...)
	p.priorityIDs = append([]docid.DocumentIdentifier(nil), b.p.priorityIDs...)
	p.citations = append([]Citation(nil), b.p.citations...)
	p.parties = append([]Party(nil), b.p.parties...)
	p.diagnostics = append([]Diagnostic(nil), b.p.diagnostics...)
	return &p, nil
}

func appendUniqueID(ids []docid.DocumentIdentifier, id docid.DocumentIdentifier) []docid.DocumentIdentifier {
	if id.IsZero() {
		return ids
	}
	for _, existing := range ids {
		if existing.Equal(id) && existing.Type() == id.Type() {
			return ids
		}
	}
	return append(ids, id)
}

//Personal.AI order the ending
