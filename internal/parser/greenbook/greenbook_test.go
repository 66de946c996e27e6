package greenbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/domain/classification"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/parser/fragment"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func parseText(t *testing.T, text string) *patent.Patent {
	t.Helper()
	doc, err := Tree(strings.NewReader(text))
	require.NoError(t, err)
	root := doc.SelectElement(Root)
	require.NotNil(t, root)
	p, err := Parse(root, fragment.Env{Format: format.Greenbook}, patent.Source{File: "pftaps19760106_wk01.txt"})
	require.NoError(t, err)
	return p
}

func parseFixture(t *testing.T) *patent.Patent {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", "grant_aps.txt"))
	require.NoError(t, err)
	return parseText(t, string(data))
}

func TestTree_Structure(t *testing.T) {
	doc, err := Tree(strings.NewReader("PATN\nWKU  039302718\nTTL  A <b> & c\n     continued\nCLMS\nNUM  1.\nPA1  x\nNUM  2.\nPAR  y\n"))
	require.NoError(t, err)
	root := doc.SelectElement(Root)
	require.NotNil(t, root)

	assert.Equal(t, "A <b> & c continued", fragment.P("TTL").Text(root))
	claims := fragment.P("CLMS/CLM").All(root)
	require.Len(t, claims, 2)
	par := fragment.P("PAR").One(claims[0])
	require.NotNil(t, par)
	assert.Equal(t, "1", fragment.Attr(par, "LVL"))
	assert.Equal(t, "2.", fragment.P("NUM").Text(claims[1]))
}

func TestTree_FixedWidthIPC(t *testing.T) {
	doc, err := Tree(strings.NewReader("PATN\nWKU  039302718\nCLAS\nOCL   57210\nICL  D07B  106\nICL  A61K 3124\nICL  0201\n"))
	require.NoError(t, err)
	root := doc.SelectElement(Root)
	require.NotNil(t, root)

	assert.Equal(t, []string{"D07B 1/06", "A61K 31/24", "0201"}, fragment.P("CLAS/ICL").Texts(root))
	assert.Equal(t, "57/210", fragment.P("CLAS/OCL").Text(root))
}

func TestTree_Errors(t *testing.T) {
	_, err := Tree(strings.NewReader("WKU  039302718\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRootNotRecognized))

	_, err = Tree(strings.NewReader("\n\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRootNotRecognized))

	_, err = Tree(strings.NewReader("PATN\nWKU  039302718\nPATN\nWKU  039302726\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
}

func TestParse_Identifiers(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, patent.KindGrant, p.Kind())
	assert.Equal(t, "US3930271", p.ID().ID())
	assert.Equal(t, 1976, p.PublicationDate().Year())
	assert.Equal(t, "US5487493", p.ApplicationID().ID())
	assert.Equal(t, 1974, p.FilingDate().Year())
	assert.Equal(t, "Abrasion resistant rope with a woven core", p.Title())
	assert.Equal(t, "greenbook", p.Source().Format)

	require.Len(t, p.PriorityIDs(), 1)
	assert.Equal(t, docid.CountryCode("DE"), p.PriorityIDs()[0].Country())

	require.Len(t, p.RelatedIDs(), 1)
	assert.Equal(t, docid.TypeContinuation, p.RelatedIDs()[0].Type())
	assert.Equal(t, "US320123", p.RelatedIDs()[0].ID())
}

func TestParse_Classifications(t *testing.T) {
	p := parseFixture(t)

	uspc := p.ClassificationsOf(classification.StandardUSPC)
	require.Len(t, uspc, 2)
	assert.Equal(t, "057/210", uspc[0].Normalized())
	assert.True(t, uspc[0].IsMain())
	assert.Equal(t, "057/211", uspc[1].Normalized())

	ipc := p.ClassificationsOf(classification.StandardIPC)
	require.Len(t, ipc, 1)
	assert.Equal(t, "D07B 1/06", ipc[0].Normalized())

	var uspcFailures int
	for _, d := range p.Diagnostics() {
		if d.Field == "uspc" {
			uspcFailures++
		}
	}
	assert.Equal(t, 1, uspcFailures)
}

func TestParse_Parties(t *testing.T) {
	p := parseFixture(t)

	inventors := p.Inventors()
	require.Len(t, inventors, 2)
	assert.Equal(t, "John", inventors[0].Name.First())
	assert.Equal(t, "Smith", inventors[0].Name.Last())
	assert.Equal(t, "IL", inventors[0].Address.State)
	assert.Equal(t, docid.CountryCode("DE"), inventors[1].Address.Country)

	require.Len(t, p.Assignees(), 1)
	assert.Equal(t, patent.NameOrganization, p.Assignees()[0].Name.Kind())
	assert.Equal(t, "02", p.Assignees()[0].Detail)

	agents := p.Agents()
	require.Len(t, agents, 2)
	assert.Equal(t, "Knots & Bights", agents[0].Name.Full())
	assert.Equal(t, "firm", agents[0].Detail)
	assert.Equal(t, "Mary Bowline", agents[1].Name.Full())

	examiners := p.Examiners()
	require.Len(t, examiners, 2)
	assert.Equal(t, "primary 354", examiners[0].Detail)
	assert.Equal(t, "Lowe", examiners[0].Name.Last())
	assert.Equal(t, "assistant 354", examiners[1].Detail)
}

func TestParse_Citations(t *testing.T) {
	p := parseFixture(t)

	cites := p.Citations()
	require.Len(t, cites, 4)

	first := cites[0].(patent.PatCitation)
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "US3115435", first.DocID.ID())
	assert.Equal(t, 1963, first.DocID.Date().Year())
	assert.Equal(t, "Jones", first.Patentee)
	assert.Equal(t, patent.CitedByUnknown, first.By)
	require.NotNil(t, first.Classification)
	assert.Equal(t, "156/048", first.Classification.Normalized())

	foreign := cites[2].(patent.PatCitation)
	assert.Equal(t, docid.CountryCode("GB"), foreign.DocID.Country())

	npl := cites[3].(patent.NplCitation)
	assert.Equal(t, 4, npl.Seq)
	assert.Equal(t, "Cordage Handbook, 3rd ed., pp. 12-14 (1970).", npl.Text)
}

func TestParse_Text(t *testing.T) {
	p := parseFixture(t)

	assert.Equal(t, "A rope has a woven core and an abrasion resistant sheath.", p.Abstract())

	secs := p.Description().Sections()
	require.Len(t, secs, 4)
	assert.Equal(t, patent.SectionBriefSummary, secs[0].Type)
	assert.Equal(t, "BACKGROUND OF THE INVENTION", secs[0].Heading)
	assert.Equal(t, patent.SectionBriefSummary, secs[1].Type)
	assert.Equal(t, patent.SectionDrawingDescription, secs[2].Type)
	assert.Equal(t, "FIG. 1 is a side view of the rope.\nFIG. 2 is a section of the rope.", secs[2].Text)
	assert.Equal(t, patent.SectionDetailedDescription, secs[3].Type)
	assert.Equal(t, "The core 10 is woven.\nThe sheath 12 is braided.", secs[3].Text)
	assert.Len(t, p.Description().Figures(), 2)

	tree := p.Claims()
	require.Equal(t, 3, tree.Len())
	c1, ok := tree.Get("1")
	require.True(t, ok)
	assert.Equal(t, "1. A rope comprising:\na woven core; and\na sheath.", c1.Text())
	assert.Equal(t, 0, c1.Level())
	c3, ok := tree.Get("3")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, c3.DependsOn())
	assert.Equal(t, 1, c3.Level())
}

func TestParse_DesignClaimAndLocarno(t *testing.T) {
	p := parseText(t, strings.Join([]string{
		"PATN",
		"WKU  D02432915",
		"ISD  19770208",
		"TTL  Lamp",
		"CLAS",
		"OCL  D26 94",
		"ICL  2603",
		"DCLM",
		"PAR  The ornamental design for a lamp, as shown.",
	}, "\n"))

	assert.Equal(t, docid.PatentDesign, p.ID().PatentType())
	loc := p.ClassificationsOf(classification.StandardLocarno)
	require.Len(t, loc, 1)
	assert.Equal(t, "26-03", loc[0].Normalized())
	assert.Empty(t, p.ClassificationsOf(classification.StandardIPC))

	require.Equal(t, 1, p.Claims().Len())
	c, _ := p.Claims().Get("1")
	assert.Equal(t, "The ornamental design for a lamp, as shown.", c.Text())
}

func TestParse_MissingNumberIsRecordError(t *testing.T) {
	doc, err := Tree(strings.NewReader("PATN\nTTL  Orphan\n"))
	require.NoError(t, err)
	_, err = Parse(doc.SelectElement(Root), fragment.Env{Format: format.Greenbook}, patent.Source{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
}

func TestClassValue(t *testing.T) {
	tests := map[string]string{
		"  57210":  "57/210",
		" 156 48":  "156/48",
		" D26 94":  "D26/94",
		" 428/195": "428/195",
		" 57":      "57",
	}
	for in, want := range tests {
		assert.Equal(t, want, classValue(in), in)
	}
}

func TestCheckDigitless(t *testing.T) {
	assert.Equal(t, "03930271", checkDigitless("039302718", 9))
	assert.Equal(t, "3930271", checkDigitless("3930271", 9))
	assert.Equal(t, "487493", checkDigitless("4874938", 7))
}

func TestSplitCountry(t *testing.T) {
	c, n := splitCountry("WO91/12345")
	assert.Equal(t, "WO", c)
	assert.Equal(t, "91/12345", n)
	c, n = splitCountry("1234")
	assert.Empty(t, c)
	assert.Equal(t, "1234", n)
}

//Personal.AI order the ending
