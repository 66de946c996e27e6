package patent

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Kind:          KindGrant,
		ID:            DocumentID{ID: "US9855244B2", Country: "US", Number: "9855244", Kind: "B2"},
		Claims: []Claim{
			{ID: "1", Number: 1, Type: "independent", Level: 0, Text: "A widget."},
			{ID: "2", Number: 2, Type: "dependent", Level: 1, Text: "The widget of claim 1.", DependsOn: []string{"1"}},
			{ID: "3", Number: 3, Type: "independent", Level: 0, Text: "A method."},
		},
		Classifications: []Classification{
			{Standard: "cpc", Code: "H04L 9/00", Facets: []string{"0/H", "1/H/H04", "2/H/H04/H04L"}},
			{Standard: "cpc", Code: "H04L 9/32", Facets: []string{"0/H", "1/H/H04", "2/H/H04/H04L", "3/H/H04/H04L/H04L9/32"}},
			{Standard: "ipc", Code: "G06F 21/00", Facets: []string{"0/G"}},
		},
		Citations: []Citation{
			{Type: CitationPatent, Sequence: 1, DocID: &DocumentID{ID: "US5000000A"}},
			{Type: CitationNonPatent, Sequence: 2, Text: "Smith, Widgets, 1999"},
		},
		Parties: []Party{
			{Role: "inventor", Sequence: 1, Name: Name{Kind: "person", Full: "Ada Lovelace"}},
			{Role: "assignee", Sequence: 1, Name: Name{Kind: "organization", Full: "Acme Corp"}},
		},
		Source: Source{Format: "xml_v4", Record: 3},
	}
}

func TestDocument_JSONFieldNames(t *testing.T) {
	doc := sampleDocument()
	doc.PublicationDate = FormatDate(time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "grant", raw["kind"])
	assert.Equal(t, "2018-01-02", raw["publication_date"])
	assert.NotContains(t, raw, "filing_date")
	assert.NotContains(t, raw, "application_id")
	assert.Contains(t, raw, "source")
}

func TestDocument_Helpers(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, 3, doc.ClaimCount())
	assert.Len(t, doc.IndependentClaims(), 2)
	assert.Equal(t, []string{"0/H", "1/H/H04", "2/H/H04/H04L", "3/H/H04/H04L/H04L9/32"}, doc.FacetsOf("cpc"))
	assert.Empty(t, doc.FacetsOf("uspc"))
	assert.Equal(t, []string{"Ada Lovelace"}, doc.PartyNames("inventor"))
	assert.Equal(t, []string{"US5000000A"}, doc.CitedIDs())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	d, err := ParseDate("2006-02-21")
	require.NoError(t, err)
	assert.Equal(t, "2006-02-21", FormatDate(d))

	zero, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseDate("20060221")
	assert.Error(t, err)
}

//Personal.AI order the ending
