package pap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
)

func parseFixture(t *testing.T) *patent.Patent {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "testdata", "pap_v16.xml"))
	require.NoError(t, err)
	doc, err := fragment.XMLTree(raw)
	require.NoError(t, err)
	root := doc.SelectElement(Root)
	require.NotNil(t, root)
	p, err := Parse(root, fragment.Env{Format: format.PAP}, patent.Source{File: "pa020103.xml"})
	require.NoError(t, err)
	return p
}

func TestParse_Identifiers(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, patent.KindApplication, p.Kind())
	assert.Equal(t, "US20020000001A1", p.ID().ID())
	assert.Equal(t, 2002, p.PublicationDate().Year())
	assert.Equal(t, "US9731599", p.ApplicationID().ID())
	assert.Equal(t, 2000, p.FilingDate().Year())
	assert.Equal(t, "Automatic pet feeder", p.Title())
	assert.Equal(t, "pap_xml", p.Source().Format)

	require.Len(t, p.PriorityIDs(), 1)
	assert.Equal(t, docid.CountryCode("JP"), p.PriorityIDs()[0].Country())

	related := p.RelatedIDs()
	require.Len(t, related, 2)
	assert.Equal(t, "US9123456", related[0].ID())
	assert.Equal(t, docid.TypeContinuation, related[0].Type())
	assert.Equal(t, "US60111111", related[1].ID())
	assert.Equal(t, docid.TypeProvisional, related[1].Type())
}

func TestParse_Classifications(t *testing.T) {
	p := parseFixture(t)

	ipc := p.ClassificationsOf(classification.StandardIPC)
	require.Len(t, ipc, 2)
	assert.True(t, ipc[0].IsMain())
	assert.False(t, ipc[1].IsMain())

	uspc := p.ClassificationsOf(classification.StandardUSPC)
	require.Len(t, uspc, 2)
	assert.Equal(t, "119/061", uspc[0].Normalized())
	assert.True(t, uspc[0].IsMain())
	assert.Equal(t, "119/051.5", uspc[1].Normalized())
}

func TestParse_Parties(t *testing.T) {
	p := parseFixture(t)

	inventors := p.Inventors()
	require.Len(t, inventors, 2)
	assert.Equal(t, "John Q. Smith", inventors[0].Name.Full())
	assert.Equal(t, "TX", inventors[0].Address.State)
	assert.Equal(t, docid.CountryCode("FR"), inventors[1].Address.Country)
	assert.Equal(t, "Paris", inventors[1].Address.City)

	var failed []string
	for _, d := range p.Diagnostics() {
		failed = append(failed, d.Field)
	}
	assert.Contains(t, failed, "inventor")

	assignees := p.Assignees()
	require.Len(t, assignees, 1)
	assert.Equal(t, "Pet Gadgets Inc.", assignees[0].Name.Full())
	assert.Equal(t, "02", assignees[0].Detail)

	agents := p.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, "SMITH & JONES LLP", agents[0].Name.Full())
	assert.Equal(t, "100 CONGRESS AVE.", agents[0].Address.Street)
	assert.Equal(t, "correspondence", agents[0].Detail)
}

func TestParse_Text(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, "A feeder dispenses food on a schedule.", p.Abstract())
	assert.Contains(t, p.AbstractHTML(), "<b>schedule</b>")

	secs := p.Description().Sections()
	require.Len(t, secs, 4)
	assert.Equal(t, patent.SectionRelatedApplication, secs[0].Type)
	assert.Equal(t, "SUMMARY OF THE INVENTION", secs[1].Heading)
	assert.Equal(t, patent.SectionDrawingDescription, secs[2].Type)
	assert.Equal(t, "[0003] FIG. 1 is a perspective view.", secs[2].Text)
	assert.Contains(t, secs[3].HTML, "<sub>1</sub>")

	tree := p.Claims()
	require.Equal(t, 2, tree.Len())
	c2, ok := tree.Get("2")
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, c2.DependsOn())
	assert.Equal(t, 1, c2.Level())
	assert.Contains(t, c2.Text(), "further comprising a timer.")
	assert.Contains(t, c2.HTML(), "<div>")
}

func TestUSPCSubclass(t *testing.T) {
	doc, err := xmlquery.Parse(strings.NewReader(`<r><uspc><class>002</class><subclass>005000</subclass></uspc><uspc><class>D11</class><subclass>184</subclass></uspc><uspc><class>427</class></uspc></r>`))
	require.NoError(t, err)
	nodes := fragment.P("r/uspc").All(doc)
	require.Len(t, nodes, 3)
	assert.Equal(t, "2/5", uspc(nodes[0]))
	assert.Equal(t, "D11/184", uspc(nodes[1]))
	assert.Equal(t, "427", uspc(nodes[2]))
}

//Personal.AI order the ending
