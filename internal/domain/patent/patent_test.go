package patent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func mustID(t *testing.T, text string, opts ...docid.Option) docid.DocumentIdentifier {
	t.Helper()
	id, err := docid.Parse(text, opts...)
	require.NoError(t, err)
	return id
}

func mustCls(t *testing.T, std classification.Standard, s string, opts ...classification.Option) classification.Classification {
	t.Helper()
	c, err := classification.Parse(std, s, opts...)
	require.NoError(t, err)
	return c
}

func mustPerson(t *testing.T, role Role, first, last string) Party {
	t.Helper()
	n, err := NewPerson(first, "", last, "")
	require.NoError(t, err)
	p, err := NewParty(role, n, Address{})
	require.NoError(t, err)
	return p
}

func TestBuilder_RequiresPrimaryID(t *testing.T) {
	_, err := NewBuilder(KindGrant).SetTitle("Widget").Build()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
}

func TestBuilder_Build(t *testing.T) {
	pub := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	b := NewBuilder(KindGrant).
		SetID(mustID(t, "US09855244B2")).
		SetApplicationID(mustID(t, "US14/123456", docid.WithType(docid.TypeApplication))).
		SetPublicationDate(pub).
		SetTitle("Widget").
		SetAbstract("A widget.", "<p>A widget.</p>").
		SetSource(Source{Format: "xml_v4", File: "ipg180102.zip", Record: 7}).
		AddClassification(mustCls(t, classification.StandardCPC, "D07B2201/2051", classification.Main(true))).
		AddClassification(mustCls(t, classification.StandardCPC, "D07B 2201/2051")).
		AddClassification(mustCls(t, classification.StandardUSPC, "2/5R")).
		AddClaim(NewClaim("1", "A widget.", nil)).
		AddClaim(NewClaim("2", "The widget of claim 1.", []string{"1"})).
		AddParty(mustPerson(t, RoleInventor, "Ada", "Lovelace")).
		AddParty(mustPerson(t, RoleInventor, "Alan", "Turing")).
		AddParty(mustPerson(t, RoleExaminer, "Grace", "Hopper")).
		AddCitation(NplCitation{Seq: 1, By: CitedByExaminer, Text: "Smith, Widgets, 1999"}).
		AddCitation(nil).
		AddDiagnostic(Diagnostic{Field: "agent", Code: errors.ErrCodeFieldExtractionFailed, Message: "no agent"})

	p, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, KindGrant, p.Kind())
	assert.Equal(t, "US9855244B2", p.ID().ID())
	assert.Equal(t, docid.TypeApplication, p.ApplicationID().Type())
	assert.Equal(t, pub, p.PublicationDate())
	assert.Equal(t, "Widget", p.Title())
	assert.Equal(t, "A widget.", p.Abstract())
	assert.Equal(t, "<p>A widget.</p>", p.AbstractHTML())
	assert.Equal(t, "xml_v4", p.Source().Format)
	assert.Equal(t, docid.PatentUtility, p.PatentType())

	require.Len(t, p.Classifications(), 2)
	assert.True(t, p.Classifications()[0].IsMain())
	assert.Len(t, p.ClassificationsOf(classification.StandardCPC), 1)
	assert.Contains(t, p.Facets(classification.StandardCPC), "0/D")

	require.Equal(t, 2, p.Claims().Len())
	c2, ok := p.Claims().Get("2")
	require.True(t, ok)
	assert.Equal(t, 1, c2.Level())

	inventors := p.Inventors()
	require.Len(t, inventors, 2)
	assert.Equal(t, 1, inventors[0].Sequence)
	assert.Equal(t, 2, inventors[1].Sequence)
	require.Len(t, p.Examiners(), 1)
	assert.Equal(t, 1, p.Examiners()[0].Sequence)
	assert.Empty(t, p.Agents())
	assert.Len(t, p.Parties(), 3)

	require.Len(t, p.Citations(), 1)
	assert.Equal(t, CitedByExaminer, p.Citations()[0].CitedBy())
	require.Len(t, p.Diagnostics(), 1)
	assert.Equal(t, "agent", p.Diagnostics()[0].Field)
}

func TestBuilder_BuildIsolatesPatent(t *testing.T) {
	b := NewBuilder(KindApplication).SetID(mustID(t, "US20180001234A1"))
	p, err := b.Build()
	require.NoError(t, err)

	b.AddParty(mustPerson(t, RoleInventor, "Ada", "Lovelace"))
	b.AddClassification(mustCls(t, classification.StandardIPC, "G06F 17/30"))
	assert.Empty(t, p.Parties())
	assert.Empty(t, p.Classifications())
	assert.Equal(t, KindApplication, p.Kind())
}

func TestBuilder_DefaultKind(t *testing.T) {
	p, err := NewBuilder("").SetID(mustID(t, "US1234567A")).Build()
	require.NoError(t, err)
	assert.Equal(t, KindGrant, p.Kind())
}

func TestBuilder_OtherIDsDeduplicated(t *testing.T) {
	b := NewBuilder(KindGrant).SetID(mustID(t, "US1234567A"))
	b.AddOtherID(mustID(t, "US7654321B1", docid.WithType(docid.TypePublished)))
	b.AddOtherID(mustID(t, "US7654321B2", docid.WithType(docid.TypePublished)))
	b.AddOtherID(docid.DocumentIdentifier{})
	b.AddRelatedID(mustID(t, "US13/000001", docid.WithType(docid.TypeContinuation)))
	b.AddPriorityID(mustID(t, "JP2010123456", docid.WithType(docid.TypePriority)))

	p, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, p.OtherIDs(), 1)
	assert.Len(t, p.RelatedIDs(), 1)
	assert.Len(t, p.PriorityIDs(), 1)
}

func TestBuilder_PartiesOf(t *testing.T) {
	b := NewBuilder(KindGrant)
	assert.Empty(t, b.PartiesOf(RoleAgent))
	b.AddParty(mustPerson(t, RoleAgent, "Perry", "Mason"))
	assert.Len(t, b.PartiesOf(RoleAgent), 1)
}

func TestNewRecordRejectedEvent(t *testing.T) {
	e := NewRecordRejectedEvent("run-1", "pftaps.txt", 9, "PARSE_003", "root not recognized", "<foo>")
	assert.Equal(t, "pftaps.txt", e.AggregateID())
	assert.Equal(t, 9, e.Record)
	assert.Equal(t, "PARSE_003", e.Code)
}

//Personal.AI order the ending
