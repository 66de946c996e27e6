package patent

import (
	"strings"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// Document renders p in its JSON wire form.
func (p *Patent) Document() *dto.Document {
	d := &dto.Document{
		SchemaVersion:   dto.SchemaVersion,
		Kind:            dto.Kind(p.kind),
		ID:              documentID(p.id),
		OtherIDs:        documentIDs(p.otherIDs),
		RelatedIDs:      documentIDs(p.relatedIDs),
		PriorityIDs:     documentIDs(p.priorityIDs),
		PatentType:      string(p.PatentType()),
		PublicationDate: dto.FormatDate(p.publicationDate),
		ProductionDate:  dto.FormatDate(p.productionDate),
		FilingDate:      dto.FormatDate(p.filingDate),
		Title:           p.title,
		Abstract:        p.abstract,
		AbstractHTML:    p.abstractHTML,
		Source: dto.Source{
			Format:        p.source.Format,
			SchemaVersion: p.source.SchemaVersion,
			File:          p.source.File,
			Record:        p.source.Record,
		},
	}
	if !p.applicationID.IsZero() {
		id := documentID(p.applicationID)
		d.ApplicationID = &id
	}
	if !p.description.IsZero() {
		d.Description = documentDescription(p.description)
	}
	for _, c := range p.claims.Claims() {
		d.Claims = append(d.Claims, dto.Claim{
			ID:        c.ID(),
			Number:    c.Number(),
			Type:      strings.ToLower(c.Type().String()),
			Level:     c.Level(),
			Text:      c.Text(),
			HTML:      c.HTML(),
			DependsOn: c.DependsOn(),
			Children:  c.Children(),
		})
	}
	for _, c := range p.Classifications() {
		d.Classifications = append(d.Classifications, documentClassification(c))
	}
	for _, c := range p.citations {
		d.Citations = append(d.Citations, documentCitation(c))
	}
	for _, pt := range p.parties {
		d.Parties = append(d.Parties, documentParty(pt))
	}
	for _, diag := range p.diagnostics {
		d.Diagnostics = append(d.Diagnostics, dto.Diagnostic{
			Field:   diag.Field,
			Code:    string(diag.Code),
			Message: diag.Message,
		})
	}
	return d
}

// DocumentIDOf renders a standalone identifier in wire form.
func DocumentIDOf(id docid.DocumentIdentifier) dto.DocumentID { return documentID(id) }

// ClassificationOf renders a standalone classification in wire form.
func ClassificationOf(c classification.Classification) dto.Classification {
	return documentClassification(c)
}

func documentID(id docid.DocumentIdentifier) dto.DocumentID {
	return dto.DocumentID{
		ID:      id.ID(),
		Country: string(id.Country()),
		Number:  id.Number(),
		Kind:    id.Kind(),
		Type:    string(id.Type()),
		Date:    dto.FormatDate(id.Date()),
	}
}

func documentIDs(ids []docid.DocumentIdentifier) []dto.DocumentID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]dto.DocumentID, len(ids))
	for i, id := range ids {
		out[i] = documentID(id)
	}
	return out
}

func documentDescription(desc Description) *dto.Description {
	out := &dto.Description{FigureRefs: desc.FigureRefs()}
	for _, s := range desc.Sections() {
		out.Sections = append(out.Sections, dto.Section{
			Type:    string(s.Type),
			Heading: s.Heading,
			Text:    s.Text,
			HTML:    s.HTML,
		})
	}
	for _, f := range desc.Figures() {
		out.Figures = append(out.Figures, dto.Figure{Number: f.Number, Text: f.Text})
	}
	return out
}

func documentClassification(c classification.Classification) dto.Classification {
	facets := c.Facets()
	return dto.Classification{
		Standard:   string(c.Standard()),
		Code:       c.Normalized(),
		Raw:        c.Raw(),
		Main:       c.IsMain(),
		Facets:     facets,
		FacetDepth: len(facets),
	}
}

func documentCitation(c Citation) dto.Citation {
	switch c := c.(type) {
	case PatCitation:
		out := dto.Citation{
			Type:     dto.CitationPatent,
			Sequence: c.Seq,
			CitedBy:  string(c.By),
			Patentee: c.Patentee,
		}
		if !c.DocID.IsZero() {
			id := documentID(c.DocID)
			out.DocID = &id
		}
		if c.Classification != nil {
			out.Classification = c.Classification.Normalized()
		}
		return out
	case NplCitation:
		return dto.Citation{
			Type:     dto.CitationNonPatent,
			Sequence: c.Seq,
			CitedBy:  string(c.By),
			Text:     c.Text,
		}
	}
	return dto.Citation{Sequence: c.Sequence(), CitedBy: string(c.CitedBy())}
}

func documentParty(p Party) dto.Party {
	out := dto.Party{
		Role:     string(p.Role),
		Sequence: p.Sequence,
		Detail:   p.Detail,
		Name: dto.Name{
			Kind:     string(p.Name.Kind()),
			Full:     p.Name.Full(),
			First:    p.Name.First(),
			Middle:   p.Name.Middle(),
			Last:     p.Name.Last(),
			Suffix:   p.Name.Suffix(),
			Synonyms: p.Name.Synonyms(),
		},
	}
	if !p.Address.IsZero() {
		a := p.Address
		out.Address = &dto.Address{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    string(a.Country),
			Email:      a.Email,
		}
	}
	return out
}

//Personal.AI order the ending
