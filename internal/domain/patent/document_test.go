package patent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

func TestPatent_Document(t *testing.T) {
	p, err := NewBuilder(KindGrant).
		SetID(mustID(t, "US09855244B2")).
		SetApplicationID(mustID(t, "US14/123456", docid.WithType(docid.TypeApplication))).
		SetPublicationDate(time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)).
		SetTitle("Widget").
		SetDescription(NewDescription(Section{
			Type:    SectionDrawingDescription,
			Heading: "BRIEF DESCRIPTION OF THE DRAWINGS",
			Text:    "FIG. 1 is a side view.",
		})).
		SetSource(Source{Format: "xml_v4", File: "ipg180102.zip/ipg180102.xml", Record: 7}).
		AddClassification(mustCls(t, classification.StandardCPC, "D07B2201/2051", classification.Main(true))).
		AddClaim(NewClaim("1", "A widget.", nil)).
		AddClaim(NewClaim("2", "The widget of claim 1.", []string{"1"})).
		AddParty(mustPerson(t, RoleInventor, "Ada", "Lovelace")).
		AddCitation(PatCitation{Seq: 1, By: CitedByExaminer, DocID: mustID(t, "US5000000A")}).
		AddCitation(NplCitation{Seq: 2, By: CitedByApplicant, Text: "Smith, Widgets, 1999"}).
		AddDiagnostic(Diagnostic{Field: "agent", Code: errors.ErrCodeFieldExtractionFailed, Message: "no agent"}).
		Build()
	require.NoError(t, err)

	d := p.Document()
	assert.Equal(t, dto.SchemaVersion, d.SchemaVersion)
	assert.Equal(t, dto.KindGrant, d.Kind)
	assert.Equal(t, "US9855244B2", d.ID.ID)
	assert.Equal(t, "US", d.ID.Country)
	require.NotNil(t, d.ApplicationID)
	assert.Equal(t, "application", d.ApplicationID.Type)
	assert.Equal(t, "2018-01-02", d.PublicationDate)
	assert.Empty(t, d.FilingDate)
	assert.Equal(t, "utility", d.PatentType)

	require.NotNil(t, d.Description)
	require.Len(t, d.Description.Figures, 1)
	assert.Equal(t, "1", d.Description.Figures[0].Number)

	require.Len(t, d.Claims, 2)
	assert.Equal(t, "independent", d.Claims[0].Type)
	assert.Equal(t, []string{"2"}, d.Claims[0].Children)
	assert.Equal(t, 1, d.Claims[1].Level)
	assert.Equal(t, []string{"1"}, d.Claims[1].DependsOn)

	require.Len(t, d.Classifications, 1)
	assert.Equal(t, "cpc", d.Classifications[0].Standard)
	assert.True(t, d.Classifications[0].Main)
	assert.Equal(t, len(d.Classifications[0].Facets), d.Classifications[0].FacetDepth)

	require.Len(t, d.Citations, 2)
	assert.Equal(t, dto.CitationPatent, d.Citations[0].Type)
	assert.Equal(t, "US5000000A", d.Citations[0].DocID.ID)
	assert.Equal(t, dto.CitationNonPatent, d.Citations[1].Type)
	assert.Equal(t, []string{"US5000000A"}, d.CitedIDs())

	require.Len(t, d.Parties, 1)
	assert.Equal(t, "Ada Lovelace", d.Parties[0].Name.Full)
	assert.Nil(t, d.Parties[0].Address)

	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, "PARSE_005", d.Diagnostics[0].Code)
	assert.Equal(t, 7, d.Source.Record)
}

//Personal.AI order the ending
